//go:build linux

package process

import (
	"encoding/binary"
	"fmt"

	"goxref/xref"
)

// ScanMode selects which reference encodings a scan looks for.
type ScanMode int

const (
	// ScanAbsolute looks for fixed-width integers equal to the target.
	ScanAbsolute ScanMode = iota
	// ScanRelative looks for displacements resolving to the target.
	ScanRelative
	// ScanCombined looks for both.
	ScanCombined
)

// XrefMatch is a located reference in process memory.
type XrefMatch struct {
	Address ProcessMemoryAddress // address of the encoded reference bytes
	Region  MemoryMapItem        // region containing the match
}

// scanConfig holds the scan parameters assembled from options.
type scanConfig struct {
	width    xref.Width
	order    binary.ByteOrder
	instrLen uint64
	mode     ScanMode
	execOnly bool
}

// ScanOption configures an xref scan.
type ScanOption func(*scanConfig)

// WithWidth sets the decode width. Default Width64.
func WithWidth(w xref.Width) ScanOption {
	return func(c *scanConfig) {
		c.width = w
	}
}

// WithByteOrder sets the decode byte order. Default little-endian.
func WithByteOrder(order binary.ByteOrder) ScanOption {
	return func(c *scanConfig) {
		c.order = order
	}
}

// WithInstructionLength sets the instruction length used for relative
// displacement resolution. Default is the displacement width (8).
func WithInstructionLength(n uint64) ScanOption {
	return func(c *scanConfig) {
		c.instrLen = n
	}
}

// WithMode selects the reference encodings to scan for. Default
// ScanAbsolute.
func WithMode(m ScanMode) ScanOption {
	return func(c *scanConfig) {
		c.mode = m
	}
}

// WithExecutableOnly restricts the scan to executable regions, where
// code references live.
func WithExecutableOnly() ScanOption {
	return func(c *scanConfig) {
		c.execOnly = true
	}
}

// newFinder builds a finder for one region; base is the region start,
// which anchors relative displacement math to the live addresses.
func (c *scanConfig) newFinder(target, base uint64) (xref.Finder, error) {
	switch c.mode {
	case ScanAbsolute:
		return xref.NewAbsoluteFinder(target, c.width, c.order), nil
	case ScanRelative:
		return xref.NewRelativeFinder(base, c.instrLen, target, c.width, c.order)
	case ScanCombined:
		return xref.NewCombinedFinder(base, c.instrLen, target, c.width, c.order)
	}
	return nil, fmt.Errorf("unknown scan mode %d", c.mode)
}

// ScanXrefs searches all readable memory regions for references to
// target and returns their absolute addresses in ascending order.
func (p *LinuxProcess) ScanXrefs(target uint64, opts ...ScanOption) ([]XrefMatch, error) {
	cfg := scanConfig{
		width:    xref.Width64,
		order:    binary.LittleEndian,
		instrLen: uint64(xref.Width64.Bytes()),
		mode:     ScanAbsolute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Reject unsupported configurations before touching any memory.
	if cfg.mode != ScanAbsolute && cfg.width != xref.Width64 {
		return nil, xref.ErrUnsupportedWidth
	}

	memMap, err := p.GetMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory map: %w", err)
	}

	p.log.Infoln("Starting xref scan for target", fmt.Sprintf("0x%x", target))

	var results []XrefMatch
	for _, region := range memMap {
		if !region.IsReadable() {
			continue
		}
		if cfg.execOnly && !region.IsExecutable() {
			continue
		}

		data, err := p.ReadMemory(ProcessMemoryAddress(region.Address), ProcessMemorySize(region.Size))
		if err != nil {
			// Some regions fail to read despite their perms (vvar and
			// friends); skip them.
			p.log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), err)
			continue
		}

		finder, err := cfg.newFinder(target, region.Address)
		if err != nil {
			return nil, err
		}
		for off := range xref.All(finder, data) {
			results = append(results, XrefMatch{
				Address: ProcessMemoryAddress(region.Address + uint64(off)),
				Region:  region,
			})
		}
	}

	p.log.Infoln("Xref scan complete, found", len(results), "matches")
	return results, nil
}
