package pocketplus

import (
	"fmt"

	"github.com/mycophonic/pocketplus/bitstream"
	"github.com/mycophonic/pocketplus/bitvec"
)

// Compressor holds the sending side of a POCKET+ session. Packets must be
// compressed in transmission order; the instance is not safe for
// concurrent use.
type Compressor struct {
	params Params

	t         int
	mask      *bitvec.Vector
	build     *bitvec.Vector
	prevInput *bitvec.Vector

	// changeHistory and flagHistory record the mask change vector and
	// mask restart flag of recent packets. Each index points at the
	// next slot to overwrite, so the newest entry sits just behind it.
	changeHistory [historySlots]*bitvec.Vector
	historyIndex  int
	flagHistory   [historySlots]bool
	flagIndex     int

	// automatic scheduler countdowns, in packets
	newMaskIn      int
	sendMaskIn     int
	uncompressedIn int

	// scratch vectors, reused across packets
	input      *bitvec.Vector
	changes    *bitvec.Vector
	prevMask   *bitvec.Vector
	maskChange *bitvec.Vector
	window     *bitvec.Vector
	inverse    *bitvec.Vector
	derivative *bitvec.Vector
	extraction *bitvec.Vector

	writer *bitstream.Writer
}

// NewCompressor returns a compressor for a fresh session.
func NewCompressor(params Params) (*Compressor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	f := params.PacketBits

	c := &Compressor{
		params:     params,
		mask:       newVector(f),
		build:      newVector(f),
		prevInput:  newVector(f),
		input:      newVector(f),
		changes:    newVector(f),
		prevMask:   newVector(f),
		maskChange: newVector(f),
		window:     newVector(f),
		inverse:    newVector(f),
		derivative: newVector(f),
		extraction: newVector(f),
		writer:     bitstream.NewWriter(packetCapacity(f)),
	}

	for i := range c.changeHistory {
		c.changeHistory[i] = newVector(f)
	}

	c.Reset()

	return c, nil
}

// Reset returns the compressor to the session start state, keeping the
// parameters and allocations.
func (c *Compressor) Reset() {
	c.t = 0

	if c.params.InitialMask != nil {
		c.mask.FromBytes(c.params.InitialMask)
	} else {
		c.mask.Zero()
	}

	c.build.Zero()
	c.prevInput.Zero()

	for i := range c.changeHistory {
		c.changeHistory[i].Zero()
		c.flagHistory[i] = false
	}

	c.historyIndex = 0
	c.flagIndex = 0

	c.newMaskIn = c.params.NewMaskEvery
	c.sendMaskIn = c.params.SendMaskEvery
	c.uncompressedIn = c.params.UncompressedEvery
}

// CompressPacket compresses the next packet of the session and returns its
// encoding, zero padded to whole bytes. input must hold PacketBytes bytes;
// bits past PacketBits in the final byte are ignored. A nil opts hands the
// control flags to the automatic scheduler.
func (c *Compressor) CompressPacket(input []byte, opts *PacketOptions) ([]byte, error) {
	if len(input) != c.params.PacketBytes() {
		return nil, fmt.Errorf("%w: packet is %d bytes, session expects %d", ErrInvalidArgument, len(input), c.params.PacketBytes())
	}

	var flags PacketOptions
	if opts != nil {
		flags = *opts
	} else {
		flags = c.schedule()
	}

	c.input.FromBytes(input)

	// Equations 6 through 8. The previous mask is kept aside so the
	// transmitted change vector can be derived from the transition.
	computeChange(c.changes, c.input, c.prevInput)
	c.prevMask.CopyFrom(c.mask)
	updateMask(c.mask, c.changes, c.build, c.t, flags.NewMask)
	updateBuild(c.build, c.changes, c.t, flags.NewMask)

	if c.t == 0 {
		c.maskChange.CopyFrom(c.mask)
	} else {
		c.maskChange.Xor(c.mask, c.prevMask)
	}

	c.fillWindow()

	vt := c.effectiveRobustness()
	ct := c.maskRestartedRecently(flags.NewMask, vt)
	et := hasPositiveUpdates(c.window, c.mask)

	c.pushHistory(flags.NewMask)
	c.encodePacket(flags, vt, ct, et)

	c.prevInput.CopyFrom(c.input)
	c.t++

	if err := c.writer.Err(); err != nil {
		return nil, err
	}

	return c.writer.Bytes(), nil
}

// schedule resolves the control flags for the next packet in automatic
// mode. The first Robustness+1 packets are always sent verbatim with the
// full mask, seeding the receiver; the configured periods only start
// counting afterwards.
func (c *Compressor) schedule() PacketOptions {
	if c.t <= c.params.Robustness {
		return PacketOptions{SendMask: true, Uncompressed: true}
	}

	var opts PacketOptions

	if c.params.NewMaskEvery > 0 {
		c.newMaskIn--
		if c.newMaskIn <= 0 {
			opts.NewMask = true
			c.newMaskIn = c.params.NewMaskEvery
		}
	}

	if c.params.SendMaskEvery > 0 {
		c.sendMaskIn--
		if c.sendMaskIn <= 0 {
			opts.SendMask = true
			c.sendMaskIn = c.params.SendMaskEvery
		}
	}

	if c.params.UncompressedEvery > 0 {
		c.uncompressedIn--
		if c.uncompressedIn <= 0 {
			opts.Uncompressed = true
			c.uncompressedIn = c.params.UncompressedEvery
		}
	}

	return opts
}

// fillWindow sets the retransmission window: this packet's mask change
// plus the mask changes of up to Robustness preceding packets.
func (c *Compressor) fillWindow() {
	c.window.CopyFrom(c.maskChange)

	n := c.params.Robustness
	if c.t < n {
		n = c.t
	}

	for i := 1; i <= n; i++ {
		c.window.OrWith(c.changeHistory[(c.historyIndex+historySlots-i)%historySlots])
	}
}

// effectiveRobustness widens the announced robustness while the packets
// just beyond the configured window carried no mask changes, letting a
// receiver that lost more than Robustness packets still follow. The four
// bit field caps the result at historySlots-1.
func (c *Compressor) effectiveRobustness() int {
	r := c.params.Robustness
	if c.t <= r {
		return r
	}

	limit := historySlots - 1
	if c.t < limit {
		limit = c.t
	}

	count := 0

	for i := r + 1; i <= limit; i++ {
		if c.changeHistory[(c.historyIndex+historySlots-i)%historySlots].AnySet() {
			break
		}

		count++

		if count >= historySlots-1-r {
			break
		}
	}

	return r + count
}

// maskRestartedRecently reports whether the mask was reseeded at least
// twice within the effective robustness window, counting this packet. A
// receiver recovering from losses in such a window may hold mask bits the
// retransmitted changes cannot repair, so the payload extraction widens to
// cover the whole window.
func (c *Compressor) maskRestartedRecently(newMask bool, vt int) bool {
	count := 0
	if newMask {
		count++
	}

	n := vt
	if c.t < n {
		n = c.t
	}

	for i := range n {
		if c.flagHistory[(c.flagIndex+historySlots-1-i)%historySlots] {
			count++
			if count >= 2 {
				return true
			}
		}
	}

	return count >= 2
}

// hasPositiveUpdates reports whether any window position is absent from
// the mask, which is exactly when per position mask values have to be
// transmitted.
func hasPositiveUpdates(window, mask *bitvec.Vector) bool {
	mw := mask.Words()

	for i, w := range window.Words() {
		if w&^mw[i] != 0 {
			return true
		}
	}

	return false
}

func (c *Compressor) pushHistory(newMask bool) {
	c.changeHistory[c.historyIndex].CopyFrom(c.maskChange)
	c.historyIndex = (c.historyIndex + 1) % historySlots

	c.flagHistory[c.flagIndex] = newMask
	c.flagIndex = (c.flagIndex + 1) % historySlots
}

// encodePacket serializes the packet into the session writer.
func (c *Compressor) encodePacket(flags PacketOptions, vt int, ct, et bool) {
	w := c.writer
	w.Reset()

	dt := !flags.SendMask && !flags.Uncompressed

	// Header: window positions, effective robustness, then the mask
	// update fields when the window is live.
	rleEncode(w, c.window)
	w.WriteBits(uint32(vt), 4)

	if vt > 0 && c.window.AnySet() {
		w.WriteBit(boolBit(et))

		if et {
			c.inverse.CopyFrom(c.mask)
			c.inverse.Not()
			bitExtractForward(w, c.inverse, c.window)
			w.WriteBit(boolBit(ct))
		}
	}

	w.WriteBit(boolBit(dt))

	// Mask block, skipped entirely for data only packets. The full mask
	// is sent as the XOR of each bit with its successor, which run
	// length encodes well and rebuilds without earlier state.
	if !dt {
		if flags.SendMask {
			w.WriteBit(1)
			c.derivative.CopyFrom(c.mask)
			c.derivative.ShiftLeft()
			c.derivative.XorWith(c.mask)
			rleEncode(w, c.derivative)
		} else {
			w.WriteBit(0)
		}
	}

	// Payload: verbatim with a length marker, or the bits selected by
	// the extraction mask.
	if flags.Uncompressed {
		w.WriteBit(1)
		countEncode(w, c.params.PacketBits)
		w.WriteVector(c.input)

		return
	}

	if !dt {
		w.WriteBit(0)
	}

	if ct && vt > 0 {
		c.extraction.Or(c.mask, c.window)
	} else {
		c.extraction.CopyFrom(c.mask)
	}

	bitExtract(w, c.input, c.extraction)
}

// packetCapacity bounds the encoded size of one packet: two run length
// encoded vectors at their densest, the per position mask updates, the
// payload, and the fixed fields, rounded up generously.
func packetCapacity(packetBits int) int {
	return 12*packetBits + 96
}

// newVector allocates a packet sized vector. Sizes are validated before
// any allocation happens, so the constructor error is unreachable.
func newVector(length int) *bitvec.Vector {
	v, err := bitvec.New(length)
	if err != nil {
		panic(err)
	}

	return v
}

func boolBit(b bool) int {
	if b {
		return 1
	}

	return 0
}
