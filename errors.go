package pocketplus

import "errors"

var (
	// ErrInvalidArgument is returned for out-of-range session parameters
	// and for packets whose size does not match the session.
	ErrInvalidArgument = errors.New("pocketplus: invalid argument")

	// ErrInvalidStream is returned when a compressed stream decodes to
	// something the format forbids, typically after corruption or an
	// attempt to decompress with mismatched parameters.
	ErrInvalidStream = errors.New("pocketplus: invalid stream")
)
