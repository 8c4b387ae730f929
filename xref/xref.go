// Package xref locates encoded cross references to a target address
// inside raw binary data.
//
// An absolute reference is a fixed-width integer whose decoded value
// equals the target address. A relative reference is a fixed-width
// signed displacement that, combined with the position of the bytes in
// memory and the length of the referencing instruction, resolves to
// the target address (the x86 RIP-relative convention).
//
// Finders are stateful: each call to Next resumes scanning strictly
// past the previous match, so repeated calls enumerate all
// non-overlapping references left to right. A finder is exhausted once
// Next reports no match; further calls keep reporting no match without
// rescanning the buffer.
package xref

import (
	"encoding/binary"
	"errors"
	"iter"
)

// Width selects the byte width of the encoded reference and the
// arithmetic domain for address wraparound.
type Width int

const (
	Width32 Width = 32
	Width64 Width = 64
)

// Bytes returns the size of the decode window in bytes.
func (w Width) Bytes() int {
	return int(w) / 8
}

func (w Width) String() string {
	switch w {
	case Width32:
		return "32-bit"
	case Width64:
		return "64-bit"
	}
	return "invalid width"
}

// ErrUnsupportedWidth is returned when constructing a relative or
// combined finder with a width other than Width64. 32-bit relative
// addressing is not supported.
var ErrUnsupportedWidth = errors.New("xref: relative references require 64-bit width")

// Finder enumerates offsets of encoded references within a byte
// buffer. Implementations carry a scan cursor; callers must pass the
// same buffer on every call. A Finder is not safe for concurrent use,
// but independent finders over the same buffer are.
type Finder interface {
	// Next returns the offset of the next reference at or after the
	// cursor, advancing the cursor past the matched window. The second
	// return value is false once the buffer is exhausted.
	Next(buf []byte) (int, bool)

	// Reset rewinds the cursor to the start of the buffer.
	Reset()
}

// All returns an iterator over the reference offsets remaining in buf,
// draining f. The sequence is finite and in ascending buffer order;
// a combined finder may yield the same offset twice when it satisfies
// both interpretations.
func All(f Finder, buf []byte) iter.Seq[int] {
	return func(yield func(int) bool) {
		for {
			off, ok := f.Next(buf)
			if !ok {
				return
			}
			if !yield(off) {
				return
			}
		}
	}
}

// decode reads a w-wide unsigned integer from b using order.
func decode(order binary.ByteOrder, b []byte, w Width) uint64 {
	if w == Width32 {
		return uint64(order.Uint32(b))
	}
	return order.Uint64(b)
}
