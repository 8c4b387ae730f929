package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"goxref/elfx"
	"goxref/hexdump"
	"goxref/xref"
)

func main() {
	fileFlag := flag.String("file", "", "Binary file to scan")
	sectionFlag := flag.String("section", ".text", "ELF section to scan (empty to scan the raw file)")
	targetFlag := flag.String("target", "", "Target address to find references to (hex)")
	modeFlag := flag.String("mode", "both", "Reference kind: abs, rel or both")
	widthFlag := flag.Int("width", 64, "Decode width in bits (32 or 64)")
	endianFlag := flag.String("endian", "little", "Byte order: little or big")
	baseFlag := flag.String("base", "", "Base address override (hex, defaults to the section load address)")
	instrLenFlag := flag.Uint64("instrlen", 8, "Instruction length for relative displacement resolution")
	contextFlag := flag.Int("context", 16, "Context bytes to dump around each match")
	noColorFlag := flag.Bool("nocolor", false, "Disable colored output")
	flag.Parse()

	if *fileFlag == "" || *targetFlag == "" {
		fmt.Println("Error: --file and --target are required")
		flag.Usage()
		os.Exit(1)
	}

	target, err := parseHex(*targetFlag)
	if err != nil {
		fmt.Printf("Error parsing target: %v\n", err)
		os.Exit(1)
	}

	width := xref.Width64
	if *widthFlag == 32 {
		width = xref.Width32
	} else if *widthFlag != 64 {
		fmt.Printf("Error: unsupported width %d\n", *widthFlag)
		os.Exit(1)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if *endianFlag == "big" {
		order = binary.BigEndian
	} else if *endianFlag != "little" {
		fmt.Printf("Error: unsupported byte order %q\n", *endianFlag)
		os.Exit(1)
	}

	data, base, err := loadInput(*fileFlag, *sectionFlag)
	if err != nil {
		fmt.Printf("Error loading %s: %v\n", *fileFlag, err)
		os.Exit(1)
	}
	if *baseFlag != "" {
		base, err = parseHex(*baseFlag)
		if err != nil {
			fmt.Printf("Error parsing base: %v\n", err)
			os.Exit(1)
		}
	}

	finder, err := newFinder(*modeFlag, base, *instrLenFlag, target, width, order)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanning %d bytes at base 0x%x for references to 0x%x\n", len(data), base, target)

	count := 0
	for off := range xref.All(finder, data) {
		count++
		fmt.Printf("Match at offset 0x%x (address 0x%x):\n", off, base+uint64(off))
		fmt.Print(hexdump.DumpContext(data, off, width.Bytes(), *contextFlag, base, *noColorFlag))
	}

	fmt.Printf("Found %d reference(s)\n", count)
}

func loadInput(path, section string) ([]byte, uint64, error) {
	if section == "" {
		data, err := os.ReadFile(path)
		return data, 0, err
	}
	sec, err := elfx.LoadSectionFromFile(path, section)
	if err != nil {
		return nil, 0, err
	}
	return sec.Data, sec.Addr, nil
}

func newFinder(mode string, base, instrLen, target uint64, width xref.Width, order binary.ByteOrder) (xref.Finder, error) {
	switch mode {
	case "abs":
		return xref.NewAbsoluteFinder(target, width, order), nil
	case "rel":
		return xref.NewRelativeFinder(base, instrLen, target, width, order)
	case "both":
		return xref.NewCombinedFinder(base, instrLen, target, width, order)
	}
	return nil, fmt.Errorf("unknown mode %q (want abs, rel or both)", mode)
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}
