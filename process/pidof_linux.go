//go:build linux

package process

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FindProcessesByName returns the PIDs of all processes whose comm or
// exe basename equals name, sorted by /proc enumeration order. The
// match is case-sensitive, like pidof.
func FindProcessesByName(name string) ([]ProcessID, error) {
	if name == "" {
		return nil, fmt.Errorf("empty process name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	var out []ProcessID
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}

		comm, _ := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if string(bytes.TrimSpace(comm)) == name {
			out = append(out, ProcessID(pid))
			continue
		}

		// comm is truncated to 15 bytes; fall back to the exe symlink,
		// which may be unreadable for zombies or foreign users.
		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))
		if exe != "" && filepath.Base(exe) == name {
			out = append(out, ProcessID(pid))
		}
	}

	return out, nil
}
