package rtw8822b

import (
	"fmt"
	"math/bits"
)

// Masked register helpers. Values are shifted to and from the mask's lowest set bit.

func maskShift(mask uint32) uint {
	if mask == 0 {
		return 0
	}
	return uint(bits.TrailingZeros32(mask))
}

func read32Mask(b Bus, addr, mask uint32) uint32 {
	return (b.Read32(addr) & mask) >> maskShift(mask)
}

func write32Mask(b Bus, addr, mask, data uint32) {
	if mask == MaskDWord {
		b.Write32(addr, data)
		return
	}
	old := b.Read32(addr)
	b.Write32(addr, (old&^mask)|((data<<maskShift(mask))&mask))
}

// write32sMask writes the path A register and its path B mirror
func write32sMask(b Bus, addr, mask, data uint32) {
	write32Mask(b, addr, mask, data)
	write32Mask(b, addr+pathBRegDelta, mask, data)
}

func write8Mask(b Bus, addr uint32, mask, data uint8) {
	old := b.Read8(addr)
	shift := maskShift(uint32(mask))
	b.Write8(addr, (old&^mask)|((data<<shift)&mask))
}

func set32(b Bus, addr, bitsToSet uint32) {
	b.Write32(addr, b.Read32(addr)|bitsToSet)
}

func clr32(b Bus, addr, bitsToClr uint32) {
	b.Write32(addr, b.Read32(addr)&^bitsToClr)
}

func set8(b Bus, addr uint32, bitsToSet uint8) {
	b.Write8(addr, b.Read8(addr)|bitsToSet)
}

func clr8(b Bus, addr uint32, bitsToClr uint8) {
	b.Write8(addr, b.Read8(addr)&^bitsToClr)
}

func set16(b Bus, addr uint32, bitsToSet uint16) {
	b.Write16(addr, b.Read16(addr)|bitsToSet)
}

func clr16(b Bus, addr uint32, bitsToClr uint16) {
	b.Write16(addr, b.Read16(addr)&^bitsToClr)
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func hex32(v uint32) string { return fmt.Sprintf("0x%08X", v) }
