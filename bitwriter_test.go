package jxr

// bitWriter assembles test bitstreams MSB first.
type bitWriter struct {
	buf     []byte // completed bytes
	curByte byte   // current byte being assembled
	bitPos  uint   // number of bits written in current byte (0-7)
}

func newBitWriter() *bitWriter {
	return &bitWriter{}
}

// WriteBit writes a single bit (0 or 1).
func (w *bitWriter) WriteBit(bit int) {
	if bit != 0 {
		w.curByte |= 1 << (7 - w.bitPos)
	}
	w.bitPos++
	if w.bitPos == 8 {
		w.buf = append(w.buf, w.curByte)
		w.curByte = 0
		w.bitPos = 0
	}
}

// WriteBits writes the low n bits of val, n <= 64.
func (w *bitWriter) WriteBits(val uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(int((val >> uint(i)) & 1))
	}
}

// WriteCode writes a prefix code given as a string of '0' and '1'.
func (w *bitWriter) WriteCode(code string) {
	for _, c := range code {
		w.WriteBit(int(c - '0'))
	}
}

// WriteBytes writes whole bytes at the current bit position.
func (w *bitWriter) WriteBytes(b ...byte) {
	for _, v := range b {
		w.WriteBits(uint64(v), 8)
	}
}

// ByteAlign pads with zero bits to the next byte boundary.
func (w *bitWriter) ByteAlign() {
	for w.bitPos != 0 {
		w.WriteBit(0)
	}
}

// Bytes pads the final byte and returns a copy of the stream.
func (w *bitWriter) Bytes() []byte {
	w.ByteAlign()
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}
