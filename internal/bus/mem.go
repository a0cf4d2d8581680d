package bus

import (
	"fmt"
	"sync"
)

// Op kinds recorded by Mem
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Op is one recorded register access
type Op struct {
	Kind  string
	Width int // access width in bytes: 1, 2 or 4
	Addr  uint32
	Value uint32
}

func (o Op) String() string {
	return fmt.Sprintf("%s%d 0x%04X=0x%08X", o.Kind, o.Width*8, o.Addr, o.Value)
}

// WriteHook is called after a write lands at a hooked address
type WriteHook func(m *Mem, value uint32)

// Mem is a sparse, byte-addressed little-endian register file.
// It backs the simulated chip and the unit tests.
type Mem struct {
	mu      sync.Mutex
	bytes   map[uint32]byte
	hooks   map[uint32]WriteHook
	log     []Op
	logging bool
}

// NewMem creates an empty register file with access logging enabled
func NewMem() *Mem {
	return &Mem{
		bytes:   make(map[uint32]byte),
		hooks:   make(map[uint32]WriteHook),
		logging: true,
	}
}

// OnWrite registers a hook fired after every write that starts at addr
func (m *Mem) OnWrite(addr uint32, hook WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[addr] = hook
}

// SetLogging enables or disables the access log
func (m *Mem) SetLogging(on bool) {
	m.mu.Lock()
	m.logging = on
	m.mu.Unlock()
}

// Ops returns a copy of the recorded access log
func (m *Mem) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op, len(m.log))
	copy(out, m.log)
	return out
}

// Writes returns only the recorded writes
func (m *Mem) Writes() []Op {
	var out []Op
	for _, op := range m.Ops() {
		if op.Kind == OpWrite {
			out = append(out, op)
		}
	}
	return out
}

// ResetLog clears the access log without touching register contents
func (m *Mem) ResetLog() {
	m.mu.Lock()
	m.log = nil
	m.mu.Unlock()
}

// Poke stores a value without logging or firing hooks
func (m *Mem) Poke(addr uint32, width int, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(addr, width, value)
}

// Peek loads a value without logging
func (m *Mem) Peek(addr uint32, width int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(addr, width)
}

func (m *Mem) Read8(addr uint32) uint8 {
	return uint8(m.read(addr, 1))
}

func (m *Mem) Read16(addr uint32) uint16 {
	return uint16(m.read(addr, 2))
}

func (m *Mem) Read32(addr uint32) uint32 {
	return m.read(addr, 4)
}

func (m *Mem) Write8(addr uint32, value uint8) {
	m.write(addr, 1, uint32(value))
}

func (m *Mem) Write16(addr uint32, value uint16) {
	m.write(addr, 2, uint32(value))
}

func (m *Mem) Write32(addr uint32, value uint32) {
	m.write(addr, 4, value)
}

func (m *Mem) read(addr uint32, width int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.load(addr, width)
	if m.logging {
		m.log = append(m.log, Op{Kind: OpRead, Width: width, Addr: addr, Value: v})
	}
	return v
}

func (m *Mem) write(addr uint32, width int, value uint32) {
	m.mu.Lock()
	m.store(addr, width, value)
	if m.logging {
		m.log = append(m.log, Op{Kind: OpWrite, Width: width, Addr: addr, Value: value})
	}
	hook := m.hooks[addr]
	m.mu.Unlock()

	// hooks may access the register file themselves
	if hook != nil {
		hook(m, value)
	}
}

func (m *Mem) load(addr uint32, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(m.bytes[addr+uint32(i)]) << (8 * i)
	}
	return v
}

func (m *Mem) store(addr uint32, width int, value uint32) {
	for i := 0; i < width; i++ {
		m.bytes[addr+uint32(i)] = byte(value >> (8 * i))
	}
}
