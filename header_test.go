package jxr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// headerBits describes an image header for writeImageHeader. Sizes are in
// pixels; tile sizes list every tile but the last, in macroblocks.
type headerBits struct {
	version    int
	subversion int
	hardTiling bool
	tiling     bool
	frequency  bool
	indexTable bool
	overlap    int
	windowing  bool
	reservedD  int
	outColor   ColorFormat
	depth      BitDepth
	width      int
	height     int
	tileWidths []int
	tileRows   []int
	margins    [4]int // top, left, bottom, right
}

func validHeaderBits() headerBits {
	return headerBits{version: 1, subversion: 1, outColor: ColorY, depth: BD8, width: 16, height: 16}
}

func flag(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// writeImageHeader writes a short-header image header.
func writeImageHeader(w *bitWriter, h headerBits) {
	w.WriteBytes([]byte(signature)...)
	w.WriteBits(uint64(h.version), 4)
	w.WriteBits(flag(h.hardTiling), 1)
	w.WriteBits(uint64(h.subversion), 3)
	w.WriteBits(flag(h.tiling), 1)
	w.WriteBits(flag(h.frequency), 1)
	w.WriteBits(0, 3) // orientation
	w.WriteBits(flag(h.indexTable), 1)
	w.WriteBits(uint64(h.overlap), 2)
	w.WriteBits(1, 1) // short header
	w.WriteBits(0, 1) // long word
	w.WriteBits(flag(h.windowing), 1)
	w.WriteBits(0, 1) // trim flexbits
	w.WriteBits(uint64(h.reservedD), 1)
	w.WriteBits(0, 3) // red/blue, premultiplied, alpha
	w.WriteBits(uint64(h.outColor), 4)
	w.WriteBits(uint64(h.depth), 4)
	w.WriteBits(uint64(h.width-1), 16)
	w.WriteBits(uint64(h.height-1), 16)
	if h.tiling {
		w.WriteBits(uint64(len(h.tileWidths)), 12)
		w.WriteBits(uint64(len(h.tileRows)), 12)
		for _, v := range h.tileWidths {
			w.WriteBits(uint64(v), 8)
		}
		for _, v := range h.tileRows {
			w.WriteBits(uint64(v), 8)
		}
	}
	if h.windowing {
		for _, m := range h.margins {
			w.WriteBits(uint64(m), 6)
		}
	}
}

func TestParseHeaderTiles(t *testing.T) {
	h, err := ParseHeader(readTestdata(t, "hard_tiles_ov1.wdp"))
	require.NoError(t, err)

	want := &Header{
		HardTiling:     true,
		Tiling:         true,
		Overlap:        OverlapSecondLevel,
		ShortHeader:    true,
		OutputColor:    ColorY,
		OutputBitDepth: BD8,
		Width:          48,
		Height:         32,
		PaddedWidth:    48,
		PaddedHeight:   32,
		MBWidth:        3,
		MBHeight:       2,
		TileCols:       2,
		TileRows:       2,
		TileWidthMB:    []int{1, 2},
		TileHeightMB:   []int{1, 1},
		TileLeftMB:     []int{0, 1, 3},
		TileTopMB:      []int{0, 1, 2},
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("ParseHeader() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHeaderWindow(t *testing.T) {
	tests := []struct {
		file                     string
		width, height            int
		top, left, bottom, right int
		padW, padH               int
	}{
		{"window.wdp", 20, 18, 6, 4, 8, 8, 32, 32},
		{"odd_size.wdp", 20, 20, 0, 0, 12, 12, 32, 32},
		{"dc_gray32.wdp", 32, 32, 0, 0, 0, 0, 32, 32},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			h, err := ParseHeader(readTestdata(t, tt.file))
			require.NoError(t, err)
			require.Equal(t, tt.width, h.Width)
			require.Equal(t, tt.height, h.Height)
			require.Equal(t, [4]int{tt.top, tt.left, tt.bottom, tt.right},
				[4]int{h.MarginTop, h.MarginLeft, h.MarginBottom, h.MarginRight})
			require.Equal(t, tt.padW, h.PaddedWidth)
			require.Equal(t, tt.padH, h.PaddedHeight)
		})
	}
}

func TestParseHeaderLongHeader(t *testing.T) {
	h, err := ParseHeader(readTestdata(t, "long_header.wdp"))
	require.NoError(t, err)
	require.False(t, h.ShortHeader)
	require.True(t, h.Tiling)
	require.Equal(t, 1, h.TileCols)
	require.Equal(t, 1, h.TileRows)
	require.Equal(t, []int{1}, h.TileWidthMB)
	require.Equal(t, 16, h.Width)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*headerBits)
		want   error
	}{
		{"codec version", func(h *headerBits) { h.version = 2 }, ErrUnsupportedFormat},
		{"codec subversion", func(h *headerBits) { h.subversion = 0 }, ErrUnsupportedFormat},
		{"overlap mode 3", func(h *headerBits) { h.overlap = 3 }, ErrUnsupportedFormat},
		{"reserved bit", func(h *headerBits) { h.reservedD = 1 }, ErrUnsupportedFormat},
		{"unknown bit depth", func(h *headerBits) { h.depth = 5 }, ErrUnsupportedFormat},
		{"unknown colour", func(h *headerBits) { h.outColor = 9 }, ErrUnsupportedFormat},
		{
			"window not a multiple of 16",
			func(h *headerBits) {
				h.windowing = true
				h.margins = [4]int{1, 0, 0, 0}
			},
			ErrMalformedBitstream,
		},
		{
			"tiles wider than image",
			func(h *headerBits) {
				h.tiling = true
				h.tileWidths = []int{1}
			},
			ErrMalformedBitstream,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeaderBits()
			tt.modify(&h)
			w := newBitWriter()
			writeImageHeader(w, h)

			_, err := ParseHeader(w.Bytes())
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}

	t.Run("bad signature", func(t *testing.T) {
		_, err := ParseHeader([]byte("WMPHOTX\x00\x11\x00\x80\x01\x00\x0f\x00\x0f"))
		require.True(t, errors.Is(err, ErrInvalidSignature))
	})
}

func TestParseHeaderValid(t *testing.T) {
	w := newBitWriter()
	h := validHeaderBits()
	h.width, h.height = 40, 24
	h.overlap = 2
	writeImageHeader(w, h)

	got, err := ParseHeader(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, OverlapFirstAndSecond, got.Overlap)
	require.Equal(t, 48, got.PaddedWidth)
	require.Equal(t, 32, got.PaddedHeight)
	require.Equal(t, 8, got.MarginRight)
	require.Equal(t, 8, got.MarginBottom)
	require.Equal(t, []int{0, 3}, got.TileLeftMB)
	require.Equal(t, "TL", got.Orientation.String())
	require.Equal(t, "Y", got.OutputColor.String())
	require.Equal(t, "BD8", got.OutputBitDepth.String())
}

// planeBits describes a plane header for writePlaneHeader.
type planeBits struct {
	color      ColorFormat
	scaled     bool
	bands      int
	components int // NCOMPONENT only
	shiftBits  int // Written for BD16 output
	qps        []int
}

// writePlaneHeader writes a plane header with uniform quantizers, one
// QP per band present.
func writePlaneHeader(w *bitWriter, p planeBits, depth BitDepth) {
	w.WriteBits(uint64(p.color), 3)
	w.WriteBits(flag(p.scaled), 1)
	w.WriteBits(uint64(p.bands), 4)
	multi := p.color != ColorY
	switch p.color {
	case ColorYUV420, ColorYUV422, ColorYUV444:
		w.WriteBits(0, 8)
	case ColorNComponent:
		w.WriteBits(uint64(p.components-1), 4)
		w.WriteBits(0, 4)
		multi = p.components != 1
	}
	if depth == BD16 {
		w.WriteBits(uint64(p.shiftBits), 8)
	}
	for i, qp := range p.qps {
		if i > 0 {
			w.WriteBits(0, 1) // reserved
		}
		w.WriteBits(1, 1) // uniform
		if multi {
			w.WriteBits(componentUniform, 2)
		}
		w.WriteBits(uint64(qp), 8)
	}
	w.ByteAlign()
}

func TestPlaneReadHeader(t *testing.T) {
	tests := []struct {
		name       string
		depth      BitDepth
		bits       planeBits
		components int
		numBands   int
		flex       bool
		shift      int
		wantErr    error
	}{
		{
			name:       "gray DC only",
			depth:      BD8,
			bits:       planeBits{color: ColorY, bands: bandsDCOnly, qps: []int{4}},
			components: 1,
			numBands:   1,
		},
		{
			name:       "YUV444 all bands",
			depth:      BD8,
			bits:       planeBits{color: ColorYUV444, bands: bandsAll, qps: []int{8, 8, 8}},
			components: 3,
			numBands:   4,
			flex:       true,
		},
		{
			name:       "gray16 shift",
			depth:      BD16,
			bits:       planeBits{color: ColorY, bands: bandsNoHighpass, shiftBits: 3, qps: []int{4, 4}},
			components: 1,
			numBands:   2,
			shift:      3,
		},
		{
			name:       "three components",
			depth:      BD8,
			bits:       planeBits{color: ColorNComponent, components: 3, bands: bandsNoFlexBits, qps: []int{1, 1, 1}},
			components: 3,
			numBands:   3,
		},
		{
			name:    "too many components",
			depth:   BD8,
			bits:    planeBits{color: ColorNComponent, components: 5, bands: bandsDCOnly, qps: []int{1}},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "YUV420",
			depth:   BD8,
			bits:    planeBits{color: ColorYUV420, bands: bandsDCOnly, qps: []int{1}},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "truncated",
			depth:   BD8,
			bits:    planeBits{color: ColorYUV444, bands: bandsAll},
			wantErr: ErrTruncatedData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newBitWriter()
			writePlaneHeader(w, tt.bits, tt.depth)
			hdr := &Header{OutputBitDepth: tt.depth}
			p := newPlane(hdr, newBitReader(w.Bytes()), false)

			err := p.readHeader()
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.components, p.numComponents)
			require.Equal(t, tt.numBands, p.numBands)
			require.Equal(t, tt.flex, p.flexPresent)
			require.Equal(t, tt.shift, p.shiftBits)
			require.True(t, p.dcUniform)
			require.NotNil(t, p.dc.qp)
			require.Zero(t, p.r.Remaining())
		})
	}
}

func TestReadVLWEsc(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{"16 bit", []byte{0x12, 0x34}, 0x1234},
		{"largest 16 bit", []byte{0xFA, 0xFF}, 0xFAFF},
		{"32 bit", []byte{0xFB, 0x00, 0x01, 0x00, 0x00}, 0x10000},
		{"64 bit", []byte{0xFC, 0, 0, 0, 1, 0, 0, 0, 2}, 1<<32 | 2},
		{"escape", []byte{0xFD}, 0},
		{"escape max", []byte{0xFF}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &decoder{r: newBitReader(tt.data)}
			got, err := d.readVLWEsc()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Zero(t, d.r.Remaining())
		})
	}
}

func TestReadProfileLevel(t *testing.T) {
	record := func(w *bitWriter, idc int, last bool) {
		w.WriteBits(uint64(idc), 8)
		w.WriteBits(3, 8)  // level
		w.WriteBits(0, 15) // reserved
		w.WriteBits(flag(last), 1)
	}

	w := newBitWriter()
	record(w, 44, false)
	record(w, 111, true)
	d := &decoder{r: newBitReader(w.Bytes())}
	n, err := d.readProfileLevel()
	require.NoError(t, err)
	require.Equal(t, 8, n)

	w = newBitWriter()
	record(w, 45, true)
	d = &decoder{r: newBitReader(w.Bytes())}
	_, err = d.readProfileLevel()
	require.True(t, errors.Is(err, ErrUnsupportedFormat))
}

// dcOnlyWithProfile rebuilds the 16x16 DC-only payload with the given
// SubsequentBytes value, one profile record and extra bytes.
func dcOnlyWithProfile(subsequent byte, extra []byte) []byte {
	var b bytes.Buffer
	b.WriteString(signature)
	b.Write([]byte{0x11, 0x00, 0x80, 0x01, 0x00, 0x0f, 0x00, 0x0f, 0x03, 0xa4, 0x00})
	b.Write([]byte{0x00, subsequent})
	b.Write([]byte{44, 0x00, 0x00, 0x01}) // profile 44, last record
	b.Write(extra)
	b.Write([]byte{0x00, 0x00, 0x01, 0x00, 0x0e, 0x40})
	return b.Bytes()
}

func TestSubsequentBytes(t *testing.T) {
	t.Run("matches profile", func(t *testing.T) {
		r, err := DecodeImage(dcOnlyWithProfile(4, nil), nil)
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{44}, 256), r.Pix)
	})

	t.Run("additional bytes skipped", func(t *testing.T) {
		var logs bytes.Buffer
		r, err := DecodeImage(dcOnlyWithProfile(7, []byte{1, 2, 3}), &Options{Logger: captureLogger(&logs)})
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{44}, 256), r.Pix)
		require.Contains(t, logs.String(), "subsequent bytes differ from profile bytes")
	})

	t.Run("shorter than profile", func(t *testing.T) {
		_, err := DecodeImage(dcOnlyWithProfile(2, nil), nil)
		require.True(t, errors.Is(err, ErrMalformedBitstream))
	})
}
