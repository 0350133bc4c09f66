package jxr

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// bitReader is a cursor over an immutable payload.
// Byte-aligned reads and bit reads share one byte offset. Bits are consumed
// MSB first through a small accumulator that is refilled one byte at a
// time; the accumulator must be empty before the next byte-aligned read.
type bitReader struct {
	data          []byte
	pos           int    // byte offset of the next unread byte
	bitsRemaining uint   // valid low bits held in remainder
	remainder     uint64 // bits fetched but not yet consumed
}

// newBitReader creates a reader positioned at the start of data.
func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// Offset returns the current byte offset.
func (r *bitReader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *bitReader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves the cursor to an absolute byte offset and drops any
// buffered bits.
func (r *bitReader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return errors.Wrapf(ErrTruncatedData, "seek to %d beyond %d bytes", pos, len(r.data))
	}
	r.pos = pos
	r.DiscardRemainder()
	return nil
}

func (r *bitReader) checkAligned() error {
	if r.bitsRemaining != 0 {
		return malformedf("unexpected %d bit remaining", r.bitsRemaining)
	}
	return nil
}

func (r *bitReader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errors.Wrapf(ErrTruncatedData, "need %d bytes, have %d bytes", n, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Extract returns the next n bytes.
// It fails if fewer than n bytes remain or if buffered bits were not
// discarded.
func (r *bitReader) Extract(n int) ([]byte, error) {
	if err := r.checkAligned(); err != nil {
		return nil, err
	}
	return r.take(n)
}

// ReadUint8 reads one byte.
func (r *bitReader) ReadUint8() (uint8, error) {
	b, err := r.Extract(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a 16-bit integer in the given byte order.
func (r *bitReader) ReadUint16(order binary.ByteOrder) (uint16, error) {
	b, err := r.Extract(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadUint32 reads a 32-bit integer in the given byte order.
func (r *bitReader) ReadUint32(order binary.ByteOrder) (uint32, error) {
	b, err := r.Extract(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadBits reads n bits, MSB first. n may be up to 64.
func (r *bitReader) ReadBits(n int) (uint64, error) {
	if n > 32 {
		hi, err := r.ReadBits(n - 32)
		if err != nil {
			return 0, err
		}
		low, err := r.ReadBits(32)
		if err != nil {
			return 0, err
		}
		return hi<<32 | low, nil
	}

	for r.bitsRemaining < uint(n) {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		r.remainder = r.remainder<<8 | uint64(b[0])
		r.bitsRemaining += 8
	}

	r.bitsRemaining -= uint(n)
	v := r.remainder >> r.bitsRemaining
	if v > (1<<uint(n))-1 {
		return 0, rangef("%d-bit read produced %d", n, v)
	}
	r.remainder &= (1 << r.bitsRemaining) - 1
	return v, nil
}

// readInt reads n bits (n <= 32) as an int.
func (r *bitReader) readInt(n int) (int, error) {
	v, err := r.ReadBits(n)
	return int(v), err
}

// ReadFlag reads a single bit.
func (r *bitReader) ReadFlag() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// CheckBits reads an n-bit field and rejects values outside allowed.
// names, when non-nil, supplies readable names for the error message.
func (r *bitReader) CheckBits(n int, name string, allowed []int, names map[int]string) (int, error) {
	v, err := r.readInt(n)
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	if lo.Contains(allowed, v) {
		return v, nil
	}

	valueName := func(v int, _ int) string {
		if s, ok := names[v]; ok {
			return s
		}
		return strconv.Itoa(v)
	}
	return 0, unsupportedf("%s value %s is unsupported (only %s allowed)",
		name, valueName(v, 0), strings.Join(lo.Map(allowed, valueName), ", "))
}

// Huff decodes one prefix-code symbol from t.
// Bits are accumulated behind a leading sentinel bit, so the key of a code
// is the integer value of "1" followed by the code bits. Codes are at most
// eight bits long.
func (r *bitReader) Huff(t *huffTable) (int, error) {
	k := 1
	for k <= 0xFF {
		bit, err := r.ReadBits(1)
		if err != nil {
			return 0, errors.Wrapf(err, "decode using %s table", t.name)
		}
		k = k<<1 | int(bit)
		if v := t.codes[k]; v >= 0 {
			return int(v), nil
		}
	}
	return 0, malformedf("decode using %s table failed", t.name)
}

// DiscardRemainder drops buffered bits at a byte-aligned boundary.
func (r *bitReader) DiscardRemainder() {
	r.bitsRemaining = 0
	r.remainder = 0
}
