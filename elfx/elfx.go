// Package elfx extracts section contents from ELF binaries for
// scanning, keeping the virtual address each section loads at.
package elfx

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
)

// Section holds the raw bytes of an ELF section together with the
// virtual address of its first byte. Addr is the base address to use
// when searching the bytes for relative references.
type Section struct {
	Name string
	Addr uint64
	Data []byte
}

// LoadSection parses an ELF image from r and returns the named
// section. Use ".text" for executable code.
func LoadSection(r io.ReaderAt, name string) (*Section, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer f.Close()

	sec := f.Section(name)
	if sec == nil {
		return nil, fmt.Errorf("no %s section found", name)
	}

	data, err := sec.Data()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read %s section: %w", name, err)
	}

	return &Section{
		Name: name,
		Addr: sec.Addr,
		Data: data,
	}, nil
}

// LoadSectionFromFile opens path and returns the named section.
func LoadSectionFromFile(path, name string) (*Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return LoadSection(f, name)
}
