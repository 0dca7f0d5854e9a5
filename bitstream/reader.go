package bitstream

// Reader consumes bits sequentially from a byte slice. All reads are
// bounds checked and fail with ErrUnderflow instead of returning padding,
// so a truncated stream surfaces as an error at the first missing bit.
type Reader struct {
	data    []byte
	lenBits int
	pos     int
}

// NewReader returns a reader over every bit of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, lenBits: len(data) * 8}
}

// NewReaderBits returns a reader over the first lengthBits bits of data.
func NewReaderBits(data []byte, lengthBits int) *Reader {
	if lengthBits < 0 {
		lengthBits = 0
	}

	if limit := len(data) * 8; lengthBits > limit {
		lengthBits = limit
	}

	return &Reader{data: data, lenBits: lengthBits}
}

// ReadBit consumes and returns the next bit.
func (r *Reader) ReadBit() (int, error) {
	if r.pos >= r.lenBits {
		return 0, ErrUnderflow
	}

	bit := int(r.data[r.pos>>3]>>uint(7-r.pos&7)) & 1
	r.pos++

	return bit, nil
}

// ReadBits consumes n bits and returns them right aligned, first bit most
// significant. n above 32 is treated as 32. The position is unchanged on
// underflow.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n <= 0 {
		return 0, nil
	}

	if n > 32 {
		n = 32
	}

	if r.lenBits-r.pos < n {
		return 0, ErrUnderflow
	}

	var value uint32
	for range n {
		value = value<<1 | uint32(r.data[r.pos>>3]>>uint(7-r.pos&7)&1)
		r.pos++
	}

	return value, nil
}

// PeekBit returns the next bit without consuming it.
func (r *Reader) PeekBit() (int, error) {
	if r.pos >= r.lenBits {
		return 0, ErrUnderflow
	}

	return int(r.data[r.pos>>3]>>uint(7-r.pos&7)) & 1, nil
}

// Skip advances past n bits. The position is unchanged on underflow.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		n = 0
	}

	if r.lenBits-r.pos < n {
		return ErrUnderflow
	}

	r.pos += n

	return nil
}

// AlignByte advances to the next byte boundary, or to the end of the
// stream when fewer than a byte's worth of bits remain.
func (r *Reader) AlignByte() {
	aligned := (r.pos + 7) &^ 7
	if aligned > r.lenBits {
		aligned = r.lenBits
	}

	r.pos = aligned
}

// Position reports the number of bits consumed.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining reports the number of bits left to read.
func (r *Reader) Remaining() int {
	return r.lenBits - r.pos
}
