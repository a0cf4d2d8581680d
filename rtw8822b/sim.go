package rtw8822b

import (
	"context"
	"sync"

	"github.com/linht/rfe-manager/internal/bus"
)

// SimChip is a register-level stand-in for the chip backed by bus.Mem. It
// mirrors SIPI writes into the RF read window, acknowledges the power
// sequence and MDIO handshakes, and answers IQK requests.
type SimChip struct {
	Mem *bus.Mem

	// IQKSilent makes the firmware accept IQK requests without completing them
	IQKSilent bool

	mu       sync.Mutex
	iqkCalls []IQKParams
	usbPHY   map[uint16]uint16
	tables   int
}

// NewSimChip creates a powered-off simulated chip
func NewSimChip() *SimChip {
	s := &SimChip{
		Mem:    bus.NewMem(),
		usbPHY: make(map[uint16]uint16),
	}

	for path, port := range sipiWritePort {
		window := rfReadWindow[path]
		s.Mem.OnWrite(port, func(m *bus.Mem, v uint32) {
			addr, data := DecodeSIPI(v)
			m.Poke(window+addr<<2, 4, data)
		})
	}

	// power state machine: enable and disable requests complete at once
	s.Mem.OnWrite(RegSysPwCtrl+1, func(m *bus.Mem, v uint32) {
		m.Poke(RegSysPwCtrl+1, 1, v&^0x03)
	})
	s.Mem.Poke(RegSysPwCtrl+2, 1, 0x02)

	// SDIO suspend control: bit 1 reports ready while bit 0 (suspend) is clear
	s.Mem.OnWrite(SDIOLocalOffset|0x86, func(m *bus.Mem, v uint32) {
		ready := uint32(0x02)
		if v&0x01 != 0 {
			ready = 0
		}
		m.Poke(SDIOLocalOffset|0x86, 1, v&^0x02|ready)
	})

	// MDIO write flag clears as soon as it is raised
	s.Mem.OnWrite(RegPCIeMixCfg, func(m *bus.Mem, v uint32) {
		m.Poke(RegPCIeMixCfg, 1, v&^BitMDIOWFlagV1)
	})

	// CCK block enabled
	s.Mem.Poke(RegCCKEnable, 4, 1<<28)
	return s
}

// DoIQK implements Firmware. The calibration finishes immediately unless
// IQKSilent is set.
func (s *SimChip) DoIQK(ctx context.Context, p IQKParams) error {
	s.mu.Lock()
	s.iqkCalls = append(s.iqkCalls, p)
	silent := s.IQKSilent
	s.mu.Unlock()

	if !silent {
		s.Mem.Poke(RFReadAddr(RFPathA, RFDTXLOK), 4, iqkSentinel)
	}
	return ctx.Err()
}

// IQKCalls returns the IQK requests received so far
func (s *SimChip) IQKCalls() []IQKParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]IQKParams(nil), s.iqkCalls...)
}

// LoadTables implements TableLoader with a minimal BB baseline
func (s *SimChip) LoadTables(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Mem.Poke(RegCCASel, 4, ccaIFEM.Reg82C[CCA1R2G])
	s.Mem.Poke(RegPDMFTh, 4, ccaIFEM.Reg830[CCA1R2G])
	s.Mem.Poke(RegCCA2nd, 4, ccaIFEM.Reg838[CCA1R2G])
	s.Mem.Poke(RegRxIGIA, 4, 0x20)
	s.Mem.Poke(RegRxIGIB, 4, 0x20)

	s.mu.Lock()
	s.tables++
	s.mu.Unlock()
	return nil
}

// TablesLoaded returns how many times LoadTables ran
func (s *SimChip) TablesLoaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables
}

// WriteUSBPHY implements InterfacePHYWriter
func (s *SimChip) WriteUSBPHY(offset, value uint16) error {
	s.mu.Lock()
	s.usbPHY[offset] = value
	s.mu.Unlock()
	return nil
}

// USBPHY returns the last value written at a USB PHY offset
func (s *SimChip) USBPHY(offset uint16) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.usbPHY[offset]
	return v, ok
}

// Options wires the simulated firmware, tables and USB PHY into a Device
func (s *SimChip) Options() []Option {
	return []Option{
		WithFirmware(s),
		WithTables(s),
		WithUSBPHYWriter(s),
	}
}
