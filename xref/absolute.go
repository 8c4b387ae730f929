package xref

import "encoding/binary"

// AbsoluteFinder finds absolute references: fixed-width integers whose
// decoded value equals the target address.
type AbsoluteFinder struct {
	target uint64
	width  Width
	order  binary.ByteOrder
	cursor int
}

// NewAbsoluteFinder creates a finder for absolute references to
// target, decoded as width-wide integers in the given byte order.
func NewAbsoluteFinder(target uint64, width Width, order binary.ByteOrder) *AbsoluteFinder {
	return &AbsoluteFinder{
		target: target,
		width:  width,
		order:  order,
	}
}

// Next returns the offset of the next absolute reference at or after
// the cursor and advances the cursor past the matched window.
func (f *AbsoluteFinder) Next(buf []byte) (int, bool) {
	off, ok := f.peek(buf)
	if !ok {
		f.cursor = len(buf)
		return 0, false
	}
	f.cursor = off + f.width.Bytes()
	return off, true
}

// Reset rewinds the cursor to the start of the buffer.
func (f *AbsoluteFinder) Reset() {
	f.cursor = 0
}

// peek scans from the cursor without committing an advance.
func (f *AbsoluteFinder) peek(buf []byte) (int, bool) {
	w := f.width.Bytes()
	for i := f.cursor; i+w <= len(buf); i++ {
		if decode(f.order, buf[i:i+w], f.width) == f.target {
			return i, true
		}
	}
	return 0, false
}
