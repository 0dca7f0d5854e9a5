package pocketplus

import (
	"context"
	"fmt"

	"github.com/mycophonic/pocketplus/bitstream"
)

// streamBuffer is the channel depth used by StreamPackets.
const streamBuffer = 64

// Compress runs packets through a fresh session under the automatic
// scheduler and returns the concatenated stream. Every packet must hold
// exactly PacketBytes bytes.
func Compress(params Params, packets [][]byte) ([]byte, error) {
	c, err := NewCompressor(params)
	if err != nil {
		return nil, err
	}

	var out []byte

	for i, packet := range packets {
		encoded, err := c.CompressPacket(packet, nil)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}

		out = append(out, encoded...)
	}

	return out, nil
}

// Decompress reconstructs every packet of a stream produced by a session
// with the same Params.
func Decompress(params Params, stream []byte) ([][]byte, error) {
	it, err := NewPacketIterator(params, stream)
	if err != nil {
		return nil, err
	}

	var packets [][]byte

	for it.Next() {
		packets = append(packets, it.Packet())
	}

	if err := it.Err(); err != nil {
		return nil, err
	}

	return packets, nil
}

// PacketIterator steps through a compressed stream one packet at a time.
//
//	it, err := pocketplus.NewPacketIterator(params, stream)
//	...
//	for it.Next() {
//		use(it.Packet())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type PacketIterator struct {
	d      *Decompressor
	r      *bitstream.Reader
	packet []byte
	count  int
	err    error
}

// NewPacketIterator returns an iterator over the packets of stream.
func NewPacketIterator(params Params, stream []byte) (*PacketIterator, error) {
	d, err := NewDecompressor(params)
	if err != nil {
		return nil, err
	}

	return &PacketIterator{d: d, r: bitstream.NewReader(stream)}, nil
}

// Next advances to the next packet. It returns false at the end of the
// stream or on the first error.
func (it *PacketIterator) Next() bool {
	if it.err != nil || it.r.Remaining() == 0 {
		return false
	}

	packet, err := it.d.DecompressPacket(it.r)
	if err != nil {
		it.err = fmt.Errorf("packet %d: %w", it.count, err)

		return false
	}

	// Packets start on byte boundaries; skip the padding.
	it.r.AlignByte()

	it.packet = packet
	it.count++

	return true
}

// Packet returns the packet produced by the last successful Next. The
// slice is owned by the caller.
func (it *PacketIterator) Packet() []byte {
	return it.packet
}

// Err returns the error that stopped iteration, if any.
func (it *PacketIterator) Err() error {
	return it.err
}

// StreamPackets decompresses stream on its own goroutine and delivers
// packets over a channel. The error channel receives at most one value and
// both channels are closed when decompression ends. Cancelling ctx stops
// the goroutine even when the packet channel is no longer drained.
func StreamPackets(ctx context.Context, params Params, stream []byte) (<-chan []byte, <-chan error) {
	packets := make(chan []byte, streamBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(packets)
		defer close(errs)

		it, err := NewPacketIterator(params, stream)
		if err != nil {
			errs <- err

			return
		}

		for it.Next() {
			select {
			case packets <- it.Packet():
			case <-ctx.Done():
				errs <- ctx.Err()

				return
			}
		}

		if err := it.Err(); err != nil {
			errs <- err
		}
	}()

	return packets, errs
}
