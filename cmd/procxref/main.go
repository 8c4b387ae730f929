//go:build linux

package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"goxref/hexdump"
	"goxref/process"
	"goxref/xref"
)

func main() {
	pidFlag := flag.Int("pid", 0, "Process ID to attach to")
	nameFlag := flag.String("name", "", "Process name to attach to (first match)")
	targetFlag := flag.String("target", "", "Target address to find references to (hex)")
	modeFlag := flag.String("mode", "both", "Reference kind: abs, rel or both")
	endianFlag := flag.String("endian", "little", "Byte order: little or big")
	instrLenFlag := flag.Uint64("instrlen", 8, "Instruction length for relative displacement resolution")
	execFlag := flag.Bool("exec", false, "Scan only executable regions")
	contextFlag := flag.Int("context", 16, "Context bytes to dump around each match")
	noColorFlag := flag.Bool("nocolor", false, "Disable colored output")
	flag.Parse()

	if *targetFlag == "" {
		fmt.Println("Error: --target is required")
		flag.Usage()
		os.Exit(1)
	}
	if *pidFlag == 0 && *nameFlag == "" {
		fmt.Println("Error: --pid or --name is required")
		flag.Usage()
		os.Exit(1)
	}

	target, err := parseHex(*targetFlag)
	if err != nil {
		fmt.Printf("Error parsing target: %v\n", err)
		os.Exit(1)
	}

	pid := process.ProcessID(*pidFlag)
	if pid == 0 {
		pids, err := process.FindProcessesByName(*nameFlag)
		if err != nil || len(pids) == 0 {
			fmt.Printf("Error: no process named %q found\n", *nameFlag)
			os.Exit(1)
		}
		pid = pids[0]
	}

	opts := []process.ScanOption{
		process.WithInstructionLength(*instrLenFlag),
	}
	switch *modeFlag {
	case "abs":
		opts = append(opts, process.WithMode(process.ScanAbsolute))
	case "rel":
		opts = append(opts, process.WithMode(process.ScanRelative))
	case "both":
		opts = append(opts, process.WithMode(process.ScanCombined))
	default:
		fmt.Printf("Error: unknown mode %q (want abs, rel or both)\n", *modeFlag)
		os.Exit(1)
	}
	if *endianFlag == "big" {
		opts = append(opts, process.WithByteOrder(binary.BigEndian))
	} else if *endianFlag != "little" {
		fmt.Printf("Error: unsupported byte order %q\n", *endianFlag)
		os.Exit(1)
	}
	if *execFlag {
		opts = append(opts, process.WithExecutableOnly())
	}

	proc, err := process.NewWithPID(pid)
	if err != nil {
		fmt.Printf("Error attaching to process %d: %v\n", pid, err)
		os.Exit(1)
	}
	defer proc.Close()

	matches, err := proc.ScanXrefs(target, opts...)
	if err != nil {
		fmt.Printf("Error scanning memory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d reference(s) to 0x%x:\n", len(matches), target)

	window := xref.Width64.Bytes()
	for _, match := range matches {
		fmt.Printf("Match at %s (%s %s):\n", match.Address, match.Region.Perms, match.Region.Path)

		// Read the match window plus context, clamped to the region.
		start := match.Region.Address
		if a := uint64(match.Address); a-start > uint64(*contextFlag) {
			start = a - uint64(*contextFlag)
		}
		end := uint64(match.Address) + uint64(window) + uint64(*contextFlag)
		if regionEnd := match.Region.Address + uint64(match.Region.Size); end > regionEnd {
			end = regionEnd
		}

		data, err := proc.ReadMemory(process.ProcessMemoryAddress(start), process.ProcessMemorySize(end-start))
		if err != nil {
			continue
		}
		fmt.Print(hexdump.DumpContext(data, int(uint64(match.Address)-start), window, *contextFlag, start, *noColorFlag))
	}
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}
