package bus

import "testing"

func TestMemLittleEndian(t *testing.T) {
	m := NewMem()
	m.Write32(0x100, 0x11223344)

	if got := m.Read8(0x100); got != 0x44 {
		t.Errorf("byte 0 = 0x%02X", got)
	}
	if got := m.Read16(0x102); got != 0x1122 {
		t.Errorf("halfword 2 = 0x%04X", got)
	}

	m.Write8(0x101, 0xAA)
	if got := m.Read32(0x100); got != 0x1122AA44 {
		t.Errorf("word = 0x%08X", got)
	}
}

func TestMemLog(t *testing.T) {
	m := NewMem()
	m.Write16(0x10, 0xBEEF)
	_ = m.Read8(0x10)
	m.Poke(0x20, 4, 1)
	_ = m.Peek(0x20, 4)

	ops := m.Ops()
	if len(ops) != 2 {
		t.Fatalf("logged %d ops, want 2: %v", len(ops), ops)
	}
	if ops[0] != (Op{Kind: OpWrite, Width: 2, Addr: 0x10, Value: 0xBEEF}) {
		t.Errorf("op 0 = %s", ops[0])
	}
	if ops[1].Kind != OpRead || ops[1].Value != 0xEF {
		t.Errorf("op 1 = %s", ops[1])
	}
	if w := m.Writes(); len(w) != 1 {
		t.Errorf("writes = %v", w)
	}

	m.ResetLog()
	m.SetLogging(false)
	m.Write32(0x30, 5)
	if len(m.Ops()) != 0 {
		t.Error("ops logged while logging disabled")
	}
	if m.Peek(0x30, 4) != 5 {
		t.Error("write lost while logging disabled")
	}
}

func TestMemWriteHook(t *testing.T) {
	m := NewMem()
	calls := 0
	m.OnWrite(0x200, func(m *Mem, v uint32) {
		calls++
		m.Poke(0x400, 4, v+1)
	})

	m.Write32(0x200, 41)
	m.Write8(0x200, 9)
	m.Write32(0x204, 1)

	if calls != 2 {
		t.Errorf("hook fired %d times, want 2", calls)
	}
	if got := m.Peek(0x400, 4); got != 10 {
		t.Errorf("hook target = %d, want 10", got)
	}
}
