package bitstream

import "errors"

var (
	// ErrOverflow is reported by Writer.Err once a write would exceed the
	// capacity the writer was created with. Later writes are ignored.
	ErrOverflow = errors.New("bitstream: write exceeds buffer capacity")

	// ErrUnderflow is returned by Reader methods that run past the end of
	// the stream.
	ErrUnderflow = errors.New("bitstream: read past end of stream")
)
