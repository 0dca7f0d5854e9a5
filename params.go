package pocketplus

import "fmt"

const (
	// MaxPacketBits is the largest supported packet size in bits.
	MaxPacketBits = 65535

	// MaxRobustness is the largest supported robustness level.
	MaxRobustness = 7

	// historySlots sizes the rings tracking recent mask activity. The
	// format caps the effective robustness it can signal at 15, one less
	// than the ring size.
	historySlots = 16

	maxPeriod = 65535
)

// Params configures a compression session. The same values must be used on
// both ends of a stream.
type Params struct {
	// PacketBits is the fixed packet size F in bits, 1 to MaxPacketBits.
	PacketBits int

	// Robustness is the number of consecutive lost packets the stream
	// must tolerate, 0 to MaxRobustness. Mask changes are repeated for
	// this many extra packets, at a small cost in output size.
	Robustness int

	// InitialMask preloads the change mask, most significant bit first.
	// When nil the mask starts empty. Otherwise it must hold exactly
	// PacketBytes bytes; trailing padding bits are ignored.
	InitialMask []byte

	// NewMaskEvery, SendMaskEvery and UncompressedEvery drive the
	// automatic scheduler used when CompressPacket is called without
	// options: every Nth packet after session start restarts mask
	// learning, retransmits the full mask, or is sent uncompressed.
	// Zero disables the corresponding trigger. Each period is capped
	// at 65535.
	NewMaskEvery      int
	SendMaskEvery     int
	UncompressedEvery int
}

// PacketBytes reports the packet size rounded up to whole bytes.
func (p Params) PacketBytes() int {
	return (p.PacketBits + 7) / 8
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.PacketBits < 1 || p.PacketBits > MaxPacketBits {
		return fmt.Errorf("%w: packet size %d bits outside [1, %d]", ErrInvalidArgument, p.PacketBits, MaxPacketBits)
	}

	if p.Robustness < 0 || p.Robustness > MaxRobustness {
		return fmt.Errorf("%w: robustness %d outside [0, %d]", ErrInvalidArgument, p.Robustness, MaxRobustness)
	}

	if p.InitialMask != nil && len(p.InitialMask) != p.PacketBytes() {
		return fmt.Errorf("%w: initial mask is %d bytes, packet size needs %d", ErrInvalidArgument, len(p.InitialMask), p.PacketBytes())
	}

	for _, period := range []struct {
		name  string
		value int
	}{
		{"new mask", p.NewMaskEvery},
		{"send mask", p.SendMaskEvery},
		{"uncompressed", p.UncompressedEvery},
	} {
		if period.value < 0 || period.value > maxPeriod {
			return fmt.Errorf("%w: %s period %d outside [0, %d]", ErrInvalidArgument, period.name, period.value, maxPeriod)
		}
	}

	return nil
}

// PacketOptions selects the per-packet control flags when the caller drives
// the schedule itself. Passing nil to CompressPacket uses the automatic
// scheduler configured in Params instead.
type PacketOptions struct {
	// NewMask restarts mask learning from the changes accumulated since
	// the last restart, dropping positions that have gone quiet.
	NewMask bool

	// SendMask transmits the full current mask, letting a receiver
	// resynchronize from this packet alone.
	SendMask bool

	// Uncompressed sends the packet verbatim. The compressor state
	// still advances, so later packets compress normally.
	Uncompressed bool
}
