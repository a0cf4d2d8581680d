package bus

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Register bridge framing: one command byte, a 24-bit big-endian register
// address, then four little-endian data bytes.
const (
	spiCmdWrite   = 0x80
	spiFrameSize  = 1 + 3 + 4
	spiAddrMax    = 0xFFFFFF
	spiTurnaround = 2 * time.Microsecond
)

// SPI is a register bus reached through an SPI-to-register bridge using periph.io.
// Bus accesses cannot fail from the caller's point of view; the first transport
// error is latched and reported by Err.
type SPI struct {
	mu     sync.Mutex
	conn   spi.Conn
	port   spi.PortCloser
	device string
	speed  physic.Frequency
	err    error
}

// NewSPI opens and initializes an SPI register bridge
func NewSPI(device string, speed uint32) (*SPI, error) {
	// Initialize periph.io host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI device %s: %w", device, err)
	}

	// Bridge requires SPI Mode 0 (CPOL=0, CPHA=0)
	conn, err := port.Connect(physic.Frequency(speed)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect to SPI device: %w", err)
	}

	return &SPI{
		conn:   conn,
		port:   port,
		device: device,
		speed:  physic.Frequency(speed) * physic.Hertz,
	}, nil
}

// Close closes the SPI device
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		err := s.port.Close()
		s.port = nil
		s.conn = nil
		return err
	}
	return nil
}

// Err returns the first transport error seen since the last ClearErr
func (s *SPI) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr resets the latched transport error
func (s *SPI) ClearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// DeviceInfo provides information about the SPI device
func (s *SPI) DeviceInfo() string {
	if s.conn == nil {
		return fmt.Sprintf("Device: %s (closed)", s.device)
	}
	return fmt.Sprintf("Device: %s, Speed: %s", s.device, s.speed)
}

func (s *SPI) Read8(addr uint32) uint8   { return uint8(s.read(addr, 1)) }
func (s *SPI) Read16(addr uint32) uint16 { return uint16(s.read(addr, 2)) }
func (s *SPI) Read32(addr uint32) uint32 { return s.read(addr, 4) }

func (s *SPI) Write8(addr uint32, value uint8)   { s.write(addr, 1, uint32(value)) }
func (s *SPI) Write16(addr uint32, value uint16) { s.write(addr, 2, uint32(value)) }
func (s *SPI) Write32(addr uint32, value uint32) { s.write(addr, 4, value) }

func (s *SPI) read(addr uint32, width int) uint32 {
	if addr > spiAddrMax {
		s.latch(fmt.Errorf("register 0x%X beyond bridge address space", addr))
		return 0
	}

	var tx, rx [spiFrameSize]byte
	s.frame(tx[:], uint8(width), addr)

	if err := s.transfer(tx[:], rx[:]); err != nil {
		s.latch(fmt.Errorf("failed to read register 0x%04X: %w", addr, err))
		return 0
	}

	v := binary.LittleEndian.Uint32(rx[4:])
	switch width {
	case 1:
		v &= 0xFF
	case 2:
		v &= 0xFFFF
	}
	return v
}

func (s *SPI) write(addr uint32, width int, value uint32) {
	if addr > spiAddrMax {
		s.latch(fmt.Errorf("register 0x%X beyond bridge address space", addr))
		return
	}

	var tx, rx [spiFrameSize]byte
	s.frame(tx[:], spiCmdWrite|uint8(width), addr)
	binary.LittleEndian.PutUint32(tx[4:], value)

	if err := s.transfer(tx[:], rx[:]); err != nil {
		s.latch(fmt.Errorf("failed to write register 0x%04X: %w", addr, err))
	}
}

func (s *SPI) frame(buf []byte, cmd uint8, addr uint32) {
	buf[0] = cmd
	buf[1] = byte(addr >> 16)
	buf[2] = byte(addr >> 8)
	buf[3] = byte(addr)
}

func (s *SPI) transfer(tx, rx []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("SPI device not open")
	}
	if err := s.conn.Tx(tx, rx); err != nil {
		return fmt.Errorf("SPI transfer failed: %w", err)
	}

	// Bridge turnaround between frames
	time.Sleep(spiTurnaround)
	return nil
}

func (s *SPI) latch(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// ValidateSPIDevice checks if the device can be opened
func ValidateSPIDevice(device string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return fmt.Errorf("SPI device %s not accessible: %w", device, err)
	}
	defer port.Close()

	return nil
}
