//go:build linux

package process

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// LinuxProcess reads memory from a live process via process_vm_readv.
type LinuxProcess struct {
	pid ProcessID
	log *logger.Logger
	mm  []MemoryMapItem
	mu  sync.Mutex
}

// New creates a new LinuxProcess instance
func New() *LinuxProcess {
	return &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid ProcessID) (*LinuxProcess, error) {
	p := New()
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pid = 0
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// UpdateMemoryMap refreshes the memory map from /proc/[pid]/maps.
func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return ErrProcessNotOpen
	}

	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}
	defer file.Close()

	mm, err := ParseMemoryMap(file)
	if err != nil {
		return fmt.Errorf("failed to parse memory map: %w", err)
	}

	p.mm = mm
	return nil
}

// GetMemoryMap returns a copy of the current memory map.
func (p *LinuxProcess) GetMemoryMap() ([]MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, ErrProcessNotOpen
	}

	result := make([]MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

// IsValidAddress reports whether addr falls inside a readable mapped
// region.
func (p *LinuxProcess) IsValidAddress(addr ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isValidAddressInternal(addr)
}

// isValidAddressInternal assumes the mutex is already locked.
func (p *LinuxProcess) isValidAddressInternal(addr ProcessMemoryAddress) bool {
	if item := RegionForAddress(uint64(addr), p.mm); item != nil {
		return item.IsReadable()
	}
	return false
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	valid := p.isValidAddressInternal(addr)
	p.mu.Unlock()

	if pid == 0 {
		return nil, ErrProcessNotOpen
	}
	if !valid {
		return nil, ErrAddressNotMapped
	}

	data, err := processVMReadv(pid, addr, size)
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv: failed to read process memory: %w", err)
	}

	return data, nil
}

// processVMReadv uses the process_vm_readv syscall to read memory from
// another process (or this one) without ptrace attachment.
func processVMReadv(pid ProcessID, remoteAddr ProcessMemoryAddress, bytesToRead ProcessMemorySize) ([]byte, error) {
	localBuf := make([]byte, bytesToRead)
	if bytesToRead == 0 {
		return localBuf, nil
	}

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(bytesToRead),
	}
	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return nil, fmt.Errorf("process_vm_readv failed: %s (errno: %d)", errno.Error(), errno)
	}
	if int(n) != int(bytesToRead) {
		return localBuf[:n], fmt.Errorf("partial read: %d of %d bytes", n, bytesToRead)
	}

	return localBuf, nil
}
