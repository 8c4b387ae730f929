package xref_test

import (
	"encoding/binary"
	"testing"

	"goxref/xref"
)

func TestCombinedFinderInterleavesBothKinds(t *testing.T) {
	// Layout: a relative reference at 0x08 and an absolute reference
	// at 0x18, both resolving to target.
	const (
		base     = 0x400000
		instrLen = 8
		target   = 0x400500
	)
	buf := make([]byte, 0x20)
	copy(buf[0x08:], le64signed(target-(base+0x08)-instrLen))
	copy(buf[0x18:], le64(target))

	f, err := xref.NewCombinedFinder(base, instrLen, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(f, buf)
	want := []int{0x08, 0x18}
	if len(got) != len(want) {
		t.Fatalf("expected offsets %v, got %v", want, got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("expected offsets %v, got %v", want, got)
		}
	}
}

func TestCombinedFinderMatchesUnionOfSubFinders(t *testing.T) {
	const (
		base     = 0x1000
		instrLen = 8
		target   = 0x2000
	)
	buf := make([]byte, 0x40)
	copy(buf[0x00:], le64(target))                            // absolute
	copy(buf[0x10:], le64signed(target-(base+0x10)-instrLen)) // relative
	copy(buf[0x28:], le64(target))                            // absolute

	abs := xref.NewAbsoluteFinder(target, xref.Width64, binary.LittleEndian)
	rel, err := xref.NewRelativeFinder(base, instrLen, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comb, err := xref.NewCombinedFinder(base, instrLen, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	union := append(collect(abs, buf), collect(rel, buf)...)
	got := collect(comb, buf)

	if len(got) != len(union) {
		t.Fatalf("expected %d offsets, got %v", len(union), got)
	}
	seen := make(map[int]int)
	for _, off := range union {
		seen[off]++
	}
	prev := -1
	for _, off := range got {
		if off < prev {
			t.Fatalf("offsets not ascending: %v", got)
		}
		prev = off
		seen[off]--
		if seen[off] < 0 {
			t.Fatalf("unexpected offset 0x%x in %v", off, got)
		}
	}
}

func TestCombinedFinderTieBreakAbsoluteFirst(t *testing.T) {
	// One window that satisfies both interpretations. The bytes decode
	// to the target, and they double as a valid displacement when
	// base + 0 + instrLen + target == target (mod 2^64), i.e.
	// base = -instrLen (mod 2^64).
	const (
		instrLen = 4
		target   = 0xDEADBEEF
	)
	base := ^uint64(0) - instrLen + 1 // -instrLen mod 2^64
	buf := le64(target)

	f, err := xref.NewCombinedFinder(base, instrLen, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both sub-finders match at 0; the offset is reported twice with
	// the absolute interpretation first.
	off, ok := f.Next(buf)
	if !ok || off != 0 {
		t.Fatalf("expected first match at 0, got %d (ok=%v)", off, ok)
	}
	off, ok = f.Next(buf)
	if !ok || off != 0 {
		t.Fatalf("expected tied relative match at 0, got %d (ok=%v)", off, ok)
	}
	if _, ok := f.Next(buf); ok {
		t.Fatal("expected exhaustion after the tie pair")
	}
}

func TestCombinedFinderFallsBackWhenOneSideExhausted(t *testing.T) {
	// Only absolute matches exist; the relative side exhausts on the
	// first call and the combined finder keeps yielding absolutes.
	const target = 0xAABBCCDD
	buf := make([]byte, 0x20)
	copy(buf[0x00:], le64(target))
	copy(buf[0x10:], le64(target))

	f, err := xref.NewCombinedFinder(0x70000000, 8, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(f, buf)
	want := []int{0x00, 0x10}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected offsets %v, got %v", want, got)
	}
}

func TestCombinedFinderReset(t *testing.T) {
	const target = 0x1234
	buf := le64(target)

	f, err := xref.NewCombinedFinder(0x99990000, 8, target, xref.Width64, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	off, ok := f.Next(buf)
	if !ok || off != 0 {
		t.Fatalf("expected match at 0, got %d (ok=%v)", off, ok)
	}
	if _, ok := f.Next(buf); ok {
		t.Fatal("expected exhaustion")
	}

	f.Reset()
	off, ok = f.Next(buf)
	if !ok || off != 0 {
		t.Fatalf("expected match at 0 after reset, got %d (ok=%v)", off, ok)
	}
}
