package jxr

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitReader_ReadBits(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		widths  []int
		want    []uint64
		wantErr bool
	}{
		{
			name:   "single bits MSB first",
			data:   []byte{0xA5},
			widths: []int{1, 1, 1, 1, 1, 1, 1, 1},
			want:   []uint64{1, 0, 1, 0, 0, 1, 0, 1},
		},
		{
			name:   "fields spanning bytes",
			data:   []byte{0xF0, 0x0F},
			widths: []int{4, 8, 4},
			want:   []uint64{0xF, 0x00, 0xF},
		},
		{
			name:   "zero width",
			data:   []byte{0x80},
			widths: []int{0, 1},
			want:   []uint64{0, 1},
		},
		{
			name:   "32 bits",
			data:   []byte{0x12, 0x34, 0x56, 0x78},
			widths: []int{32},
			want:   []uint64{0x12345678},
		},
		{
			name:   "64 bits",
			data:   []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF},
			widths: []int{64},
			want:   []uint64{0x0123456789ABCDEF},
		},
		{
			name:    "past end",
			data:    []byte{0xFF},
			widths:  []int{4, 8},
			want:    []uint64{0xF},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBitReader(tt.data)
			for i, n := range tt.widths {
				got, err := r.ReadBits(n)
				if i >= len(tt.want) {
					if err == nil {
						t.Fatalf("ReadBits(%d) #%d: expected error", n, i)
					}
					if !errors.Is(err, ErrTruncatedData) {
						t.Errorf("ReadBits(%d) error = %v, want ErrTruncatedData", n, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("ReadBits(%d) #%d: unexpected error: %v", n, i, err)
				}
				if got != tt.want[i] {
					t.Errorf("ReadBits(%d) #%d = %#x, want %#x", n, i, got, tt.want[i])
				}
			}
			if tt.wantErr {
				t.Error("expected an error")
			}
		})
	}
}

func TestBitReader_AlignedReadNeedsDiscard(t *testing.T) {
	r := newBitReader([]byte{0xC0, 0x12, 0x34})

	v, err := r.ReadBits(2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)

	_, err = r.Extract(1)
	require.ErrorIs(t, err, ErrMalformedBitstream, "aligned read with residual bits")

	r.DiscardRemainder()
	got, err := r.ReadUint16(binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), got)
	require.Zero(t, r.Remaining())
}

func TestBitReader_ByteOrder(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	r := newBitReader(data)
	le, err := r.ReadUint32(binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, uint32(0x04030201), le)

	r = newBitReader(data)
	be, err := r.ReadUint32(binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), be)
}

func TestBitReader_Seek(t *testing.T) {
	r := newBitReader([]byte{0x00, 0xAB, 0xCD})
	_, err := r.ReadBits(3)
	require.NoError(t, err)

	require.NoError(t, r.Seek(1))
	require.Equal(t, 1, r.Offset())
	b, err := r.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), b)

	require.NoError(t, r.Seek(3))
	require.ErrorIs(t, r.Seek(4), ErrTruncatedData)
	require.ErrorIs(t, r.Seek(-1), ErrTruncatedData)
}

func TestBitReader_CheckBits(t *testing.T) {
	tests := []struct {
		name    string
		data    byte
		allowed []int
		want    int
		wantErr bool
	}{
		{name: "allowed", data: 0x10, allowed: []int{1}, want: 1},
		{name: "one of many", data: 0x20, allowed: []int{0, 1, 2}, want: 2},
		{name: "rejected", data: 0x30, allowed: []int{0, 1, 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBitReader([]byte{tt.data})
			got, err := r.CheckBits(4, "field", tt.allowed, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("CheckBits() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckBits() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckBits() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBitReader_CheckBitsNames(t *testing.T) {
	r := newBitReader([]byte{0x30})
	_, err := r.CheckBits(4, "overlap_mode", []int{0, 1}, map[int]string{0: "NONE", 1: "ONE", 3: "THREE"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlap_mode value THREE is unsupported (only NONE, ONE allowed)")
}

func TestBitReader_Huff(t *testing.T) {
	w := newBitWriter()
	codes := []string{"10", "001", "00001", "0001", "11", "010", "00000", "011"}
	for _, c := range codes {
		w.WriteCode(c)
	}
	r := newBitReader(w.Bytes())

	for want := range codes {
		got, err := r.Huff(valDCYUV)
		if err != nil {
			t.Fatalf("Huff() symbol %d: %v", want, err)
		}
		if got != want {
			t.Errorf("Huff() = %d, want %d", got, want)
		}
	}
}

func TestBitReader_HuffTruncated(t *testing.T) {
	// Five zero bits are a prefix of the 6- and 7-bit FIRST_INDEX codes.
	w := newBitWriter()
	w.WriteCode("00000")
	r := newBitReader(w.Bytes()[:1])
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	_, err = r.Huff(firstIndexTables[0])
	require.ErrorIs(t, err, ErrTruncatedData)
}
