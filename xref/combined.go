package xref

import "encoding/binary"

// CombinedFinder interleaves an absolute and a relative search over
// the same buffer, yielding matches of either kind in ascending offset
// order. The two sub-finders keep independent cursors, so an offset
// that satisfies both interpretations is reported twice: once by each
// side, absolute first.
type CombinedFinder struct {
	abs *AbsoluteFinder
	rel *RelativeFinder

	absNext pending
	relNext pending
}

// pending caches a peeked sub-finder result so the losing side is not
// rescanned on the following call.
type pending struct {
	off   int
	ok    bool
	valid bool
}

// NewCombinedFinder creates a finder that reports both absolute and
// relative references to target. The parameters are those of
// NewAbsoluteFinder and NewRelativeFinder combined; like the relative
// finder it supports only Width64.
func NewCombinedFinder(base, instrLen, target uint64, width Width, order binary.ByteOrder) (*CombinedFinder, error) {
	rel, err := NewRelativeFinder(base, instrLen, target, width, order)
	if err != nil {
		return nil, err
	}
	return &CombinedFinder{
		abs: NewAbsoluteFinder(target, width, order),
		rel: rel,
	}, nil
}

// Next returns the offset of the next reference of either kind at or
// after the cursors. When both sub-finders would report the same
// offset, the absolute match is returned first and the relative match
// on the following call. Exhaustion requires both sub-finders to be
// exhausted.
func (f *CombinedFinder) Next(buf []byte) (int, bool) {
	if !f.absNext.valid {
		off, ok := f.abs.peek(buf)
		f.absNext = pending{off: off, ok: ok, valid: true}
	}
	if !f.relNext.valid {
		off, ok := f.rel.peek(buf)
		f.relNext = pending{off: off, ok: ok, valid: true}
	}

	switch {
	case f.absNext.ok && (!f.relNext.ok || f.absNext.off <= f.relNext.off):
		off := f.absNext.off
		f.abs.cursor = off + f.abs.width.Bytes()
		f.absNext = pending{}
		return off, true
	case f.relNext.ok:
		off := f.relNext.off
		f.rel.cursor = off + f.rel.width.Bytes()
		f.relNext = pending{}
		return off, true
	}

	f.abs.cursor = len(buf)
	f.rel.cursor = len(buf)
	return 0, false
}

// Reset rewinds both sub-finders to the start of the buffer.
func (f *CombinedFinder) Reset() {
	f.abs.Reset()
	f.rel.Reset()
	f.absNext = pending{}
	f.relNext = pending{}
}
