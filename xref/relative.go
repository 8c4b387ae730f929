package xref

import "encoding/binary"

// RelativeFinder finds relative references: fixed-width signed
// displacements that resolve to the target address when added to the
// address of the displacement bytes plus the instruction length.
//
// A displacement at buffer offset i matches when
//
//	base + i + instrLen + displacement == target (mod 2^64)
//
// which mirrors how the processor forms a RIP-relative address: the
// instruction pointer has already advanced past the instruction when
// the displacement is applied.
type RelativeFinder struct {
	base     uint64
	instrLen uint64
	target   uint64
	width    Width
	order    binary.ByteOrder
	cursor   int
}

// NewRelativeFinder creates a finder for relative references to
// target.
//
// base is the memory address corresponding to buffer offset 0, which
// matters when the scanned bytes have been copied away from their load
// address. instrLen is the number of bytes between the start of the
// displacement and the end of the referencing instruction: for
// instructions that end in the displacement this is the displacement
// width itself; for instructions with trailing bytes (e.g. cmp with an
// immediate) add those bytes on top.
//
// Only Width64 is supported; 32-bit relative addressing is rare enough
// on x86 that it is rejected with ErrUnsupportedWidth.
func NewRelativeFinder(base, instrLen, target uint64, width Width, order binary.ByteOrder) (*RelativeFinder, error) {
	if width != Width64 {
		return nil, ErrUnsupportedWidth
	}
	return &RelativeFinder{
		base:     base,
		instrLen: instrLen,
		target:   target,
		width:    width,
		order:    order,
	}, nil
}

// Next returns the offset of the next relative reference at or after
// the cursor and advances the cursor past the matched window.
func (f *RelativeFinder) Next(buf []byte) (int, bool) {
	off, ok := f.peek(buf)
	if !ok {
		f.cursor = len(buf)
		return 0, false
	}
	f.cursor = off + f.width.Bytes()
	return off, true
}

// Reset rewinds the cursor to the start of the buffer.
func (f *RelativeFinder) Reset() {
	f.cursor = 0
}

// peek scans from the cursor without committing an advance.
func (f *RelativeFinder) peek(buf []byte) (int, bool) {
	w := f.width.Bytes()
	for i := f.cursor; i+w <= len(buf); i++ {
		// Sign extension is free here: reinterpreting the unsigned
		// decode as int64 and back wraps exactly like the processor's
		// address arithmetic.
		disp := int64(decode(f.order, buf[i:i+w], f.width))
		if f.base+uint64(i)+f.instrLen+uint64(disp) == f.target {
			return i, true
		}
	}
	return 0, false
}
