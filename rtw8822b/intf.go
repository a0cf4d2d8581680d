package rtw8822b

import (
	"context"
	"fmt"
	"time"
)

// InterfacePHYGen selects an interface PHY parameter table
type InterfacePHYGen uint8

const (
	IntfUSB2 InterfacePHYGen = iota
	IntfUSB3
	IntfPCIeGen1
	IntfPCIeGen2
)

func (g InterfacePHYGen) String() string {
	switch g {
	case IntfUSB2:
		return "usb2"
	case IntfUSB3:
		return "usb3"
	case IntfPCIeGen1:
		return "pcie_gen1"
	case IntfPCIeGen2:
		return "pcie_gen2"
	}
	return fmt.Sprintf("intf(%d)", uint8(g))
}

// ParseInterfacePHYGen parses the names returned by String
func ParseInterfacePHYGen(s string) (InterfacePHYGen, error) {
	for g := IntfUSB2; g <= IntfPCIeGen2; g++ {
		if g.String() == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown interface phy generation %q", s)
}

// Interface PHY cut masks
const (
	intfCutA   = 1 << 0
	intfCutB   = 1 << 1
	intfCutC   = 1 << 2
	intfCutD   = 1 << 3
	intfCutAll = 0xffff

	intfPHYEnd = 0xffff
)

type intfPHYParam struct {
	offset  uint16
	value   uint16
	cutMask uint16
}

var (
	usb2Params = []intfPHYParam{
		{intfPHYEnd, 0x0000, intfCutAll},
	}
	usb3Params = []intfPHYParam{
		{0x0001, 0xA841, intfCutD},
		{intfPHYEnd, 0x0000, intfCutAll},
	}
	pcieGen1Params = []intfPHYParam{
		{0x0001, 0xA841, intfCutC},
		{0x0002, 0x60C6, intfCutC},
		{0x0008, 0x3596, intfCutC},
		{0x0009, 0x321C, intfCutC},
		{0x000A, 0x9623, intfCutC},
		{0x0020, 0x94FF, intfCutC},
		{0x0021, 0xFFCF, intfCutC},
		{0x0026, 0xC006, intfCutC},
		{0x0029, 0xFF0E, intfCutC},
		{0x002A, 0x1840, intfCutC},
		{intfPHYEnd, 0x0000, intfCutAll},
	}
	pcieGen2Params = []intfPHYParam{
		{0x0001, 0xA841, intfCutC},
		{0x0002, 0x60C6, intfCutC},
		{0x0008, 0x3597, intfCutC},
		{0x0009, 0x321C, intfCutC},
		{0x000A, 0x9623, intfCutC},
		{0x0020, 0x94FF, intfCutC},
		{0x0021, 0xFFCF, intfCutC},
		{0x0026, 0xC006, intfCutC},
		{0x0029, 0xFF0E, intfCutC},
		{0x002A, 0x3040, intfCutC},
		{intfPHYEnd, 0x0000, intfCutAll},
	}
)

func intfPHYTable(gen InterfacePHYGen) []intfPHYParam {
	switch gen {
	case IntfUSB2:
		return usb2Params
	case IntfUSB3:
		return usb3Params
	case IntfPCIeGen1:
		return pcieGen1Params
	case IntfPCIeGen2:
		return pcieGen2Params
	}
	return nil
}

// MDIO window
const (
	mdioPageSize   = 0x20
	mdioPageOffG1  = 0
	mdioPageOffG2  = 2
	mdioAddrMask   = 0x1f
	mdioRetries    = 20
	mdioRetryDelay = 10 * time.Microsecond
)

// ConfigInterfacePHY writes the interface PHY parameters for gen that apply
// to the configured cut. Tables end at offset 0xFFFF. Returns the number of
// entries written.
func (d *Device) ConfigInterfacePHY(ctx context.Context, gen InterfacePHYGen) (int, error) {
	d.beginOp()
	table := intfPHYTable(gen)
	if table == nil {
		return 0, fmt.Errorf("config interface phy: %s: %w", gen, ErrUnsupportedInterface)
	}

	usb := gen == IntfUSB2 || gen == IntfUSB3
	if usb && d.cfg.USBWriter == nil {
		return 0, fmt.Errorf("config interface phy: %s needs a USB PHY writer: %w", gen, ErrUnsupportedInterface)
	}

	cut := uint16(1) << d.cfg.Cut
	written := 0
	for _, p := range table {
		if p.offset == intfPHYEnd {
			break
		}
		if p.cutMask&cut == 0 {
			continue
		}
		var err error
		if usb {
			err = d.cfg.USBWriter.WriteUSBPHY(p.offset, p.value)
		} else {
			err = d.mdioWrite(uint8(p.offset), p.value, gen == IntfPCIeGen1)
		}
		if err != nil {
			return written, fmt.Errorf("config interface phy %s offset 0x%04x: %w", gen, p.offset, err)
		}
		written++
	}

	d.log.InfoContext(ctx, "Interface PHY configured", "gen", gen.String(), "cut", d.cfg.Cut.String(), "entries", written)
	return written, d.busErr("config interface phy")
}

func (d *Device) mdioWrite(addr uint8, data uint16, gen1 bool) error {
	b := d.bus
	b.Write16(RegMDIOV1, data)

	var page uint8
	if addr >= mdioPageSize {
		page = 1
	}
	if gen1 {
		page += mdioPageOffG1
	} else {
		page += mdioPageOffG2
	}
	b.Write8(RegPCIeMixCfg, addr&mdioAddrMask)
	b.Write8(RegPCIeMixCfg+3, page)
	write32Mask(b, RegPCIeMixCfg, BitMDIOWFlagV1, 1)

	for i := 0; i < mdioRetries; i++ {
		if b.Read8(RegPCIeMixCfg)&BitMDIOWFlagV1 == 0 {
			return nil
		}
		d.sleep(mdioRetryDelay)
	}
	return &HandshakeTimeoutError{Stage: "mdio write", Attempts: mdioRetries}
}
