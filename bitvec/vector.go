// Package bitvec implements fixed-length bit vectors with MSB-first
// transmission order, packed big-endian into 32-bit words.
//
// Logical position 0 is the most significant bit of the first byte on the
// wire. Position p maps to word p/32, word bit 31-(p%32). Padding bits
// beyond the vector length are kept at zero by every mutating operation.
package bitvec

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrLength is returned when a vector length is not a positive integer.
var ErrLength = errors.New("bitvec: invalid vector length")

const wordBits = 32

// Vector is a fixed-length bit vector. The zero value is not usable;
// construct with New.
type Vector struct {
	words  []uint32
	length int
}

// New creates an all-zero vector of the given length in bits.
func New(length int) (*Vector, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: %d", ErrLength, length)
	}

	return &Vector{
		words:  make([]uint32, (length+wordBits-1)/wordBits),
		length: length,
	}, nil
}

// Len returns the vector length in bits.
func (v *Vector) Len() int {
	return v.length
}

// Get returns the bit at position pos. Out-of-range positions read as 0.
func (v *Vector) Get(pos int) int {
	if pos < 0 || pos >= v.length {
		return 0
	}

	return int((v.words[pos>>5] >> (31 - (pos & 31))) & 1)
}

// Set writes a bit at position pos. Out-of-range positions are ignored.
func (v *Vector) Set(pos, bit int) {
	if pos < 0 || pos >= v.length {
		return
	}

	mask := uint32(1) << (31 - (pos & 31))
	if bit != 0 {
		v.words[pos>>5] |= mask
	} else {
		v.words[pos>>5] &^= mask
	}
}

// Zero clears every bit.
func (v *Vector) Zero() {
	for i := range v.words {
		v.words[i] = 0
	}
}

// CopyFrom copies the bits of src into v. The vectors must have the same
// length.
func (v *Vector) CopyFrom(src *Vector) {
	copy(v.words, src.words)
	v.maskPadding()
}

// Clone returns an independent copy of v.
func (v *Vector) Clone() *Vector {
	out := &Vector{
		words:  make([]uint32, len(v.words)),
		length: v.length,
	}
	copy(out.words, v.words)

	return out
}

// Equal reports whether v and other have the same length and bits.
func (v *Vector) Equal(other *Vector) bool {
	if other == nil || v.length != other.length {
		return false
	}

	for i, w := range v.words {
		if other.words[i] != w {
			return false
		}
	}

	return true
}

// FromBytes loads bits from data, first byte first, MSB first within each
// byte. Bytes beyond the vector length are ignored; missing bytes read as
// zero.
func (v *Vector) FromBytes(data []byte) {
	byteLen := (v.length + 7) / 8
	if len(data) < byteLen {
		byteLen = len(data)
	}

	for i := range v.words {
		v.words[i] = 0
	}

	for i := range byteLen {
		shift := uint(24 - 8*(i&3))
		v.words[i>>2] |= uint32(data[i]) << shift
	}

	v.maskPadding()
}

// Bytes returns the vector as ceil(Len()/8) bytes in transmission order,
// zero-padding the final partial byte.
func (v *Vector) Bytes() []byte {
	out := make([]byte, (v.length+7)/8)
	for i := range out {
		shift := uint(24 - 8*(i&3))
		out[i] = byte(v.words[i>>2] >> shift)
	}

	return out
}

// Xor sets v to a XOR b. All three vectors must have the same length.
func (v *Vector) Xor(a, b *Vector) {
	for i := range v.words {
		v.words[i] = a.words[i] ^ b.words[i]
	}
}

// Or sets v to a OR b. All three vectors must have the same length.
func (v *Vector) Or(a, b *Vector) {
	for i := range v.words {
		v.words[i] = a.words[i] | b.words[i]
	}
}

// And sets v to a AND b. All three vectors must have the same length.
func (v *Vector) And(a, b *Vector) {
	for i := range v.words {
		v.words[i] = a.words[i] & b.words[i]
	}
}

// OrWith ORs src into v in place. Both vectors must have the same length.
func (v *Vector) OrWith(src *Vector) {
	for i := range v.words {
		v.words[i] |= src.words[i]
	}
}

// XorWith XORs src into v in place. Both vectors must have the same length.
func (v *Vector) XorWith(src *Vector) {
	for i := range v.words {
		v.words[i] ^= src.words[i]
	}
}

// Not inverts every bit in place.
func (v *Vector) Not() {
	for i := range v.words {
		v.words[i] = ^v.words[i]
	}

	v.maskPadding()
}

// ShiftLeft moves every bit one position toward position 0. The bit at
// position 0 is discarded and the last position becomes 0.
func (v *Vector) ShiftLeft() {
	var carry uint32

	for i := len(v.words) - 1; i >= 0; i-- {
		word := v.words[i]
		v.words[i] = word<<1 | carry
		carry = word >> 31
	}

	v.maskPadding()
}

// Reverse maps every bit at position p to position Len()-1-p in place:
// reverse the word order, bit-reverse each word, then realign by the
// padding amount.
func (v *Vector) Reverse() {
	n := len(v.words)

	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		v.words[i], v.words[j] = v.words[j], v.words[i]
	}

	for i := range v.words {
		v.words[i] = bits.Reverse32(v.words[i])
	}

	// The reversed bits now occupy the tail of the word array; pull them
	// back to position 0. The padding is always < 32 bits.
	if pad := uint(n*wordBits - v.length); pad > 0 {
		for i := range n {
			w := v.words[i] << pad
			if i+1 < n {
				w |= v.words[i+1] >> (wordBits - pad)
			}

			v.words[i] = w
		}
	}

	v.maskPadding()
}

// Words exposes the backing words for read-only scans. Word i holds
// positions i*32..i*32+31 with position order running from bit 31 down to
// bit 0; padding bits are always zero. Callers must not modify the slice.
func (v *Vector) Words() []uint32 {
	return v.words
}

// Weight returns the number of set bits.
func (v *Vector) Weight() int {
	total := 0
	for _, w := range v.words {
		total += bits.OnesCount32(w)
	}

	return total
}

// AnySet reports whether at least one bit is set.
func (v *Vector) AnySet() bool {
	for _, w := range v.words {
		if w != 0 {
			return true
		}
	}

	return false
}

func (v *Vector) maskPadding() {
	if rem := v.length & 31; rem != 0 {
		v.words[len(v.words)-1] &= ^uint32(0) << (wordBits - rem)
	}
}
