package rtw8822b

// SIPI port layout: 8-bit RF address in bits 27:20, 20-bit data below it
const (
	sipiAddrShift = 20
	sipiWordMask  = 0x0FFFFFFF
)

var (
	sipiWritePort = [2]uint32{RegSIPIA, RegSIPIB}
	rfReadWindow  = [2]uint32{RegRFBaseA, RegRFBaseB}
)

// SIPI is the RF accessor over the baseband serial interface. Reads come from
// the direct RF window, writes go through the per-path SIPI port.
type SIPI struct {
	bus Bus
}

// NewSIPI creates an RF accessor on bus
func NewSIPI(bus Bus) *SIPI {
	return &SIPI{bus: bus}
}

// ReadRF reads the masked field of RF register addr on path
func (s *SIPI) ReadRF(path RFPath, addr, mask uint32) uint32 {
	if int(path) >= len(rfReadWindow) {
		return 0
	}
	raw := s.bus.Read32(rfReadWindow[path]+addr<<2) & RFRegMask
	return (raw & mask) >> maskShift(mask)
}

// WriteRF writes data into the masked field of RF register addr on path.
// Partial masks read the current value first.
func (s *SIPI) WriteRF(path RFPath, addr, mask, data uint32) {
	if int(path) >= len(sipiWritePort) {
		return
	}
	if mask != RFRegMask {
		old := s.ReadRF(path, addr, RFRegMask)
		data = (old &^ mask) | ((data << maskShift(mask)) & mask)
	}
	word := (addr<<sipiAddrShift | data&RFRegMask) & sipiWordMask
	s.bus.Write32(sipiWritePort[path], word)
}

// DecodeSIPI splits a SIPI port word into RF address and data
func DecodeSIPI(word uint32) (addr, data uint32) {
	word &= sipiWordMask
	return word >> sipiAddrShift, word & RFRegMask
}

// RFReadAddr returns the direct-window bus address of RF register addr on path
func RFReadAddr(path RFPath, addr uint32) uint32 {
	return rfReadWindow[path&1] + addr<<2
}
