package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"periph.io/x/host/v3"
	"periph.io/x/host/v3/pmem"
)

// MMIO is a register bus over a physically mapped PCIe BAR.
// All accesses are naturally sized loads and stores into the mapping.
type MMIO struct {
	mu   sync.Mutex
	view *pmem.View
	mem  []byte
	base uint64
	err  error
}

// NewMMIO maps size bytes of physical memory starting at base
func NewMMIO(base uint64, size int) (*MMIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	view, err := pmem.Map(base, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map BAR at 0x%X (%d bytes): %w", base, size, err)
	}

	return &MMIO{
		view: view,
		mem:  []byte(view.Slice),
		base: base,
	}, nil
}

// Close unmaps the BAR
func (m *MMIO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view == nil {
		return nil
	}
	err := m.view.Close()
	m.view = nil
	m.mem = nil
	return err
}

// Err returns the first out-of-window access error
func (m *MMIO) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ClearErr resets the latched error
func (m *MMIO) ClearErr() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}

// DeviceInfo describes the mapping
func (m *MMIO) DeviceInfo() string {
	return fmt.Sprintf("MMIO: base 0x%X, size %d", m.base, len(m.mem))
}

func (m *MMIO) Read8(addr uint32) uint8 {
	if !m.check(addr, 1) {
		return 0
	}
	p := (*uint32)(unsafe.Pointer(&m.mem[addr&^3]))
	return uint8(atomic.LoadUint32(p) >> (8 * (addr & 3)))
}

func (m *MMIO) Read16(addr uint32) uint16 {
	if !m.check(addr, 2) {
		return 0
	}
	p := (*uint32)(unsafe.Pointer(&m.mem[addr&^3]))
	return uint16(atomic.LoadUint32(p) >> (8 * (addr & 2)))
}

func (m *MMIO) Read32(addr uint32) uint32 {
	if !m.check(addr, 4) {
		return 0
	}
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&m.mem[addr])))
}

func (m *MMIO) Write8(addr uint32, value uint8) {
	if !m.check(addr, 1) {
		return
	}
	*(*uint8)(unsafe.Pointer(&m.mem[addr])) = value
}

func (m *MMIO) Write16(addr uint32, value uint16) {
	if !m.check(addr, 2) {
		return
	}
	*(*uint16)(unsafe.Pointer(&m.mem[addr])) = value
}

func (m *MMIO) Write32(addr uint32, value uint32) {
	if !m.check(addr, 4) {
		return
	}
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&m.mem[addr])), value)
}

// check validates bounds and natural alignment
func (m *MMIO) check(addr uint32, width uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mem == nil {
		if m.err == nil {
			m.err = fmt.Errorf("MMIO window not mapped")
		}
		return false
	}
	if addr%width != 0 || uint64(addr)+uint64(width) > uint64(len(m.mem)) {
		if m.err == nil {
			m.err = fmt.Errorf("register 0x%X (width %d) outside MMIO window", addr, width)
		}
		return false
	}
	return true
}
