//go:build linux

package process_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"unsafe"

	"goxref/process"
	"goxref/xref"
)

func openSelf(t *testing.T) *process.LinuxProcess {
	t.Helper()
	p, err := process.NewWithPID(process.ProcessID(os.Getpid()))
	if err != nil {
		t.Skipf("cannot attach to own process: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestScanXrefsFindsPlantedAbsoluteReference(t *testing.T) {
	const target uint64 = 0xC0FFEE5EEDF00D11

	buf := make([]byte, 64)
	binary.LittleEndian.PutUint64(buf[24:], target)
	plantedAddr := uint64(uintptr(unsafe.Pointer(&buf[24])))

	p := openSelf(t)

	matches, err := p.ScanXrefs(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runtime.KeepAlive(buf)

	for _, m := range matches {
		if uint64(m.Address) == plantedAddr {
			if !m.Region.IsReadable() {
				t.Error("match reported in a non-readable region")
			}
			return
		}
	}
	t.Fatalf("planted reference at 0x%x not found in %d matches", plantedAddr, len(matches))
}

func TestScanXrefsFindsPlantedRelativeReference(t *testing.T) {
	const instrLen = 8

	buf := make([]byte, 64)
	plantedAddr := uint64(uintptr(unsafe.Pointer(&buf[0])))

	// Point the displacement at an arbitrary nearby address.
	target := plantedAddr + 0x4000
	disp := int64(target - plantedAddr - instrLen)
	binary.LittleEndian.PutUint64(buf, uint64(disp))

	p := openSelf(t)

	matches, err := p.ScanXrefs(target,
		process.WithMode(process.ScanRelative),
		process.WithInstructionLength(instrLen),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runtime.KeepAlive(buf)

	for _, m := range matches {
		if uint64(m.Address) == plantedAddr {
			return
		}
	}
	t.Fatalf("planted displacement at 0x%x not found in %d matches", plantedAddr, len(matches))
}

func TestScanXrefsRejectsUnsupportedConfig(t *testing.T) {
	p := openSelf(t)

	if _, err := p.ScanXrefs(0x1000,
		process.WithMode(process.ScanRelative),
		process.WithWidth(xref.Width32),
	); err != xref.ErrUnsupportedWidth {
		t.Fatalf("expected ErrUnsupportedWidth, got %v", err)
	}
	if _, err := p.ScanXrefs(0x1000,
		process.WithMode(process.ScanCombined),
		process.WithWidth(xref.Width32),
	); err != xref.ErrUnsupportedWidth {
		t.Fatalf("expected ErrUnsupportedWidth, got %v", err)
	}
}

func TestScanXrefsRequiresOpenProcess(t *testing.T) {
	p := process.New()
	if _, err := p.ScanXrefs(0x1000); err == nil {
		t.Fatal("expected error scanning an unopened process")
	}
}

func TestFindProcessesByName(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to locate test binary: %v", err)
	}

	pids, err := process.FindProcessesByName(filepath.Base(exe))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	self := process.ProcessID(os.Getpid())
	for _, pid := range pids {
		if pid == self {
			return
		}
	}
	t.Fatalf("expected own PID %d in %v", self, pids)
}

func TestFindProcessesByNameEmpty(t *testing.T) {
	if _, err := process.FindProcessesByName(""); err == nil {
		t.Fatal("expected error for empty name")
	}
}
