// Package bitstream provides append-only bit writers and sequential bit
// readers over byte slices. Bits are ordered most significant first within
// each byte, matching the wire layout produced by the codec packages.
package bitstream

import "github.com/mycophonic/pocketplus/bitvec"

const chunkBits = 24

// Writer accumulates individual bits into a byte buffer with a fixed
// capacity. Writes past the capacity set a sticky ErrOverflow and are
// discarded; callers check Err once after composing a full unit rather
// than after every write.
type Writer struct {
	buf     []byte
	acc     uint32
	accBits int
	lenBits int
	capBits int
	err     error
}

// NewWriter returns a writer that accepts up to capacityBits bits.
func NewWriter(capacityBits int) *Writer {
	if capacityBits < 0 {
		capacityBits = 0
	}

	return &Writer{
		buf:     make([]byte, 0, (capacityBits+7)/8),
		capBits: capacityBits,
	}
}

// WriteBit appends a single bit. Any nonzero bit value is written as 1.
func (w *Writer) WriteBit(bit int) {
	if bit != 0 {
		bit = 1
	}

	w.writeAcc(uint32(bit), 1)
}

// WriteBits appends the n low-order bits of value, most significant first.
// n above 32 is treated as 32.
func (w *Writer) WriteBits(value uint32, n int) {
	if n <= 0 {
		return
	}

	if n > 32 {
		n = 32
	}

	if n > chunkBits {
		w.writeAcc(value>>uint(n-chunkBits), chunkBits)
		n -= chunkBits
	}

	w.writeAcc(value, n)
}

// WriteVector appends every bit of v in position order.
func (w *Writer) WriteVector(v *bitvec.Vector) {
	w.WriteVectorN(v, v.Len())
}

// WriteVectorN appends the first n bits of v in position order.
func (w *Writer) WriteVectorN(v *bitvec.Vector, n int) {
	if n > v.Len() {
		n = v.Len()
	}

	words := v.Words()

	// Positions i..i+15 sit in a single half word while i is a multiple
	// of 16, so bulk those and finish bit by bit.
	i := 0
	for ; n-i >= 16; i += 16 {
		word := words[i>>5]
		if i&31 == 0 {
			word >>= 16
		}

		w.writeAcc(word, 16)
	}

	for ; i < n; i++ {
		w.writeAcc(uint32(v.Get(i)), 1)
	}
}

// Len reports the number of bits written so far.
func (w *Writer) Len() int {
	return w.lenBits
}

// Err reports the sticky overflow state.
func (w *Writer) Err() error {
	return w.err
}

// Bytes returns the written bits packed into whole bytes. A final partial
// byte is zero padded on the right. The writer remains usable.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf), len(w.buf)+1)
	copy(out, w.buf)

	if w.accBits > 0 {
		out = append(out, byte(w.acc<<uint(8-w.accBits)))
	}

	return out
}

// Reset empties the writer and clears any overflow, keeping the capacity
// and backing storage.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.acc = 0
	w.accBits = 0
	w.lenBits = 0
	w.err = nil
}

// writeAcc appends the n low-order bits of value, n <= chunkBits plus a
// partial byte of backlog, without overflowing the 32-bit accumulator.
func (w *Writer) writeAcc(value uint32, n int) {
	if w.err != nil {
		return
	}

	if w.lenBits+n > w.capBits {
		w.err = ErrOverflow

		return
	}

	value &= (1 << uint(n)) - 1
	w.acc = w.acc<<uint(n) | value
	w.accBits += n
	w.lenBits += n

	for w.accBits >= 8 {
		w.accBits -= 8
		w.buf = append(w.buf, byte(w.acc>>uint(w.accBits)))
	}

	w.acc &= (1 << uint(w.accBits)) - 1
}
