package pocketplus

import (
	"fmt"
	"math/bits"

	"github.com/mycophonic/pocketplus/bitstream"
	"github.com/mycophonic/pocketplus/bitvec"
)

// Decompressor holds the receiving side of a POCKET+ session. It must be
// created with the same Params as the compressor that produced the stream,
// and fed packets in order. Not safe for concurrent use.
type Decompressor struct {
	params Params

	mask       *bitvec.Vector
	output     *bitvec.Vector
	prevOutput *bitvec.Vector

	// scratch vectors, reused across packets
	window     *bitvec.Vector
	positives  *bitvec.Vector
	derivative *bitvec.Vector
	extraction *bitvec.Vector
}

// NewDecompressor returns a decompressor for a fresh session.
func NewDecompressor(params Params) (*Decompressor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	f := params.PacketBits

	d := &Decompressor{
		params:     params,
		mask:       newVector(f),
		output:     newVector(f),
		prevOutput: newVector(f),
		window:     newVector(f),
		positives:  newVector(f),
		derivative: newVector(f),
		extraction: newVector(f),
	}

	d.Reset()

	return d, nil
}

// Reset returns the decompressor to the session start state, keeping the
// parameters and allocations.
func (d *Decompressor) Reset() {
	if d.params.InitialMask != nil {
		d.mask.FromBytes(d.params.InitialMask)
	} else {
		d.mask.Zero()
	}

	d.output.Zero()
	d.prevOutput.Zero()
}

// DecompressPacket reads one packet from r and returns the reconstructed
// packet bytes, zero padded to whole bytes. Errors from a truncated or
// corrupt stream leave the session out of sync; Reset before reusing the
// instance.
func (d *Decompressor) DecompressPacket(r *bitstream.Reader) ([]byte, error) {
	d.output.CopyFrom(d.prevOutput)

	d.window.Zero()
	if err := rleDecode(r, d.window); err != nil {
		return nil, err
	}

	vt, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}

	d.positives.Zero()

	ct := 0

	switch {
	case vt > 0 && d.window.AnySet():
		et, err := r.ReadBit()
		if err != nil {
			return nil, err
		}

		if et == 1 {
			if err := d.applyMaskUpdates(r); err != nil {
				return nil, err
			}

			ct, err = r.ReadBit()
			if err != nil {
				return nil, err
			}
		} else {
			// Every window position carries a mask bit of one.
			d.mask.OrWith(d.window)
		}
	case d.window.AnySet():
		// Without robustness the window is exactly this packet's
		// mask change, applied as a toggle.
		d.mask.XorWith(d.window)
	}

	dt, err := r.ReadBit()
	if err != nil {
		return nil, err
	}

	rt := 0

	if dt == 0 {
		ft, err := r.ReadBit()
		if err != nil {
			return nil, err
		}

		if ft == 1 {
			if err := d.rebuildMask(r); err != nil {
				return nil, err
			}
		}

		rt, err = r.ReadBit()
		if err != nil {
			return nil, err
		}
	}

	if rt == 1 {
		if err := d.readVerbatim(r); err != nil {
			return nil, err
		}
	} else {
		if ct == 1 && vt > 0 {
			d.extraction.Or(d.mask, d.positives)
		} else {
			d.extraction.CopyFrom(d.mask)
		}

		if err := bitInsert(r, d.output, d.extraction); err != nil {
			return nil, err
		}
	}

	d.prevOutput.CopyFrom(d.output)

	return d.output.Bytes(), nil
}

// applyMaskUpdates reads one mask bit per window position, lowest position
// first. A set bit clears the mask there and records the position, the
// rest become mask positions.
func (d *Decompressor) applyMaskUpdates(r *bitstream.Reader) error {
	for wi, word := range d.window.Words() {
		for word != 0 {
			lz := bits.LeadingZeros32(word)
			pos := wi<<5 + lz

			bit, err := r.ReadBit()
			if err != nil {
				return err
			}

			if bit == 1 {
				d.mask.Set(pos, 0)
				d.positives.Set(pos, 1)
			} else {
				d.mask.Set(pos, 1)
			}

			word &^= 0x80000000 >> uint(lz)
		}
	}

	return nil
}

// rebuildMask replaces the whole mask from its transmitted form, the XOR
// of each mask bit with its successor. Scanning from the last position
// down unwinds the chain one XOR at a time.
func (d *Decompressor) rebuildMask(r *bitstream.Reader) error {
	d.derivative.Zero()
	if err := rleDecode(r, d.derivative); err != nil {
		return err
	}

	f := d.params.PacketBits

	current := d.derivative.Get(f - 1)
	d.mask.Set(f-1, current)

	for i := f - 1; i > 0; i-- {
		current ^= d.derivative.Get(i - 1)
		d.mask.Set(i-1, current)
	}

	return nil
}

// readVerbatim reads an uncompressed payload: the packet length as a
// count code, then the packet bits.
func (d *Decompressor) readVerbatim(r *bitstream.Reader) error {
	f := d.params.PacketBits

	n, err := countDecode(r)
	if err != nil {
		return err
	}

	if n != f {
		return fmt.Errorf("%w: verbatim length %d does not match packet size %d", ErrInvalidStream, n, f)
	}

	for i := range f {
		bit, err := r.ReadBit()
		if err != nil {
			return err
		}

		d.output.Set(i, bit)
	}

	return nil
}
