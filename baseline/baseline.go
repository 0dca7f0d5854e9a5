// Package baseline wraps general-purpose compressors used to size packet
// streams against stateless, dictionary-free codecs.
package baseline

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// ErrUnknownCodec is returned by ByName for unrecognized codec names.
var ErrUnknownCodec = errors.New("baseline: unknown codec")

// Codec compresses and decompresses whole buffers as standalone blocks.
type Codec interface {
	// Name is the name of the compression algorithm.
	Name() string

	// Compress returns src compressed as a standalone block.
	Compress(src []byte) []byte

	// Decompress reverses Compress. It is safe to call from multiple
	// goroutines.
	Decompress(src []byte) ([]byte, error)
}

// Names lists the available codec names in the order ByName accepts them.
func Names() []string {
	return []string{"zstd", "s2", "snappy"}
}

// ByName returns the codec registered under name. The returned Codec
// reports the same value from Codec.Name.
func ByName(name string) (Codec, error) {
	switch name {
	case "zstd":
		return newZstdCodec()
	case "s2":
		return s2Codec{}, nil
	case "snappy":
		return snappyCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return zstdCodec{enc: enc, dec: dec}, nil
}

func (z zstdCodec) Name() string { return "zstd" }

func (z zstdCodec) Compress(src []byte) []byte {
	return z.enc.EncodeAll(src, nil)
}

func (z zstdCodec) Decompress(src []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}

	return out, nil
}

type s2Codec struct{}

func (s2Codec) Name() string { return "s2" }

func (s2Codec) Compress(src []byte) []byte {
	return s2.Encode(nil, src)
}

func (s2Codec) Decompress(src []byte) ([]byte, error) {
	out, err := s2.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}

	return out, nil
}

type snappyCodec struct{}

func (snappyCodec) Name() string { return "snappy" }

func (snappyCodec) Compress(src []byte) []byte {
	return snappy.Encode(nil, src)
}

func (snappyCodec) Decompress(src []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}

	return out, nil
}
