package pocketplus

import (
	"fmt"
	"math/bits"

	"github.com/mycophonic/pocketplus/bitstream"
	"github.com/mycophonic/pocketplus/bitvec"
)

// The COUNT code is the variable length integer code from CCSDS 124.0-B-1
// section 5.3. Values 1 through 65535 encode as '0', '110'+5 bits, or
// '111' followed by an even number of bits that grows with the value; the
// two bit pattern '10' is the terminator and decodes as 0.

// countEncode appends the codeword for value, which must be in [1, 65535].
func countEncode(w *bitstream.Writer, value int) {
	switch {
	case value == 1:
		w.WriteBit(0)
	case value <= 33:
		w.WriteBits(0x6, 3)
		w.WriteBits(uint32(value-2), 5)
	default:
		w.WriteBits(0x7, 3)

		v := uint32(value - 2)
		width := 2*bits.Len32(v) - 6
		w.WriteBits(v, width)
	}
}

// countTerminator appends the '10' terminator codeword.
func countTerminator(w *bitstream.Writer) {
	w.WriteBits(0x2, 2)
}

// countDecode consumes one codeword and returns its value, with 0 standing
// for the terminator.
func countDecode(r *bitstream.Reader) (int, error) {
	b, err := r.ReadBit()
	if err != nil {
		return 0, err
	}

	if b == 0 {
		return 1, nil
	}

	b, err = r.ReadBit()
	if err != nil {
		return 0, err
	}

	if b == 0 {
		return 0, nil
	}

	b, err = r.ReadBit()
	if err != nil {
		return 0, err
	}

	if b == 0 {
		v, err := r.ReadBits(5)
		if err != nil {
			return 0, err
		}

		return int(v) + 2, nil
	}

	// Extensible form: start at six bits and widen by two until the
	// value's own length says it is complete.
	width := 6

	value, err := r.ReadBits(width)
	if err != nil {
		return 0, err
	}

	for 2*bits.Len32(value)-6 != width {
		if width >= 26 {
			return 0, fmt.Errorf("%w: count code exceeds 16 bits", ErrInvalidStream)
		}

		ext, err := r.ReadBits(2)
		if err != nil {
			return 0, err
		}

		value = value<<2 | ext
		width += 2
	}

	return int(value) + 2, nil
}

// rleEncode appends the run lengths between set positions of v, walking
// from the highest position down, then the terminator. Each run length is
// the COUNT encoded distance from the previous set position (initially
// Len) to the next lower one.
func rleEncode(w *bitstream.Writer, v *bitvec.Vector) {
	words := v.Words()
	prev := v.Len()

	for wi := len(words) - 1; wi >= 0; wi-- {
		word := words[wi]
		for word != 0 {
			pos := wi<<5 + 31 - bits.TrailingZeros32(word)
			countEncode(w, prev-pos)
			prev = pos
			word &= word - 1
		}
	}

	countTerminator(w)
}

// rleDecode reads run lengths until the terminator, setting the decoded
// positions in v. v must be zeroed by the caller.
func rleDecode(r *bitstream.Reader, v *bitvec.Vector) error {
	pos := v.Len()

	for {
		count, err := countDecode(r)
		if err != nil {
			return err
		}

		if count == 0 {
			return nil
		}

		pos -= count
		if pos < 0 {
			return fmt.Errorf("%w: run length overshoots the packet start", ErrInvalidStream)
		}

		v.Set(pos, 1)
	}
}

// bitExtract appends the bits of data selected by mask, highest position
// first.
func bitExtract(w *bitstream.Writer, data, mask *bitvec.Vector) {
	words := mask.Words()

	for wi := len(words) - 1; wi >= 0; wi-- {
		word := words[wi]
		for word != 0 {
			pos := wi<<5 + 31 - bits.TrailingZeros32(word)
			w.WriteBit(data.Get(pos))
			word &= word - 1
		}
	}
}

// bitExtractForward appends the bits of data selected by mask, lowest
// position first.
func bitExtractForward(w *bitstream.Writer, data, mask *bitvec.Vector) {
	words := mask.Words()

	for wi, word := range words {
		for word != 0 {
			lz := bits.LeadingZeros32(word)
			w.WriteBit(data.Get(wi<<5 + lz))
			word &^= 0x80000000 >> uint(lz)
		}
	}
}

// bitInsert reads one bit for each position selected by mask, highest
// first, writing them into data at the selected positions. It is the
// inverse of bitExtract.
func bitInsert(r *bitstream.Reader, data, mask *bitvec.Vector) error {
	words := mask.Words()

	for wi := len(words) - 1; wi >= 0; wi-- {
		word := words[wi]
		for word != 0 {
			pos := wi<<5 + 31 - bits.TrailingZeros32(word)

			bit, err := r.ReadBit()
			if err != nil {
				return err
			}

			data.Set(pos, bit)
			word &= word - 1
		}
	}

	return nil
}
