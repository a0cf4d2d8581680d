package rtw8822b

import (
	"context"
	"log/slog"
	"sort"
)

// FEMClass is the front-end module topology
type FEMClass uint8

const (
	FEMInternal FEMClass = iota
	FEMExternal
	FEMInternal2GExternal5G
)

func (f FEMClass) String() string {
	switch f {
	case FEMExternal:
		return "efem"
	case FEMInternal2GExternal5G:
		return "ifem2g_efem5g"
	}
	return "ifem"
}

// SwitchKind selects the antenna-switch routine of a front-end variant
type SwitchKind uint8

const (
	SwitchIFEM SwitchKind = iota
	SwitchEFEM
)

func (s SwitchKind) String() string {
	if s == SwitchEFEM {
		return "efem"
	}
	return "ifem"
}

// CCAColumn indexes a CCATable by RX chain count and band
type CCAColumn uint8

const (
	CCA1R2G CCAColumn = iota
	CCA2R2G
	CCA1R5G
	CCA2R5G
)

func (c CCAColumn) dualRx() bool { return c == CCA2R2G || c == CCA2R5G }

// CCATable holds the three CCA register values per column
type CCATable struct {
	Reg82C [4]uint32
	Reg830 [4]uint32
	Reg838 [4]uint32
}

// Values returns the (0x82C, 0x830, 0x838) triple of a column
func (t *CCATable) Values(col CCAColumn) (r82c, r830, r838 uint32) {
	return t.Reg82C[col], t.Reg830[col], t.Reg838[col]
}

var ccaIFEM = CCATable{
	Reg82C: [4]uint32{0x75C97010, 0x75C97010, 0x75C97010, 0x75C97010},
	Reg830: [4]uint32{0x79a0eaaa, 0x79A0EAAC, 0x79a0eaaa, 0x79a0eaaa},
	Reg838: [4]uint32{0x87765541, 0x87746341, 0x87765541, 0x87746341},
}

var ccaEFEM = CCATable{
	Reg82C: [4]uint32{0x75B86010, 0x75B76010, 0x75B86010, 0x75B76010},
	Reg830: [4]uint32{0x79A0EAA8, 0x79A0EAAC, 0x79A0EAA8, 0x79a0eaaa},
	Reg838: [4]uint32{0x87766451, 0x87766431, 0x87766451, 0x87766431},
}

var ccaIFEMExt = CCATable{
	Reg82C: [4]uint32{0x75da8010, 0x75da8010, 0x75da8010, 0x75da8010},
	Reg830: [4]uint32{0x79a0eaaa, 0x97A0EAAC, 0x79a0eaaa, 0x79a0eaaa},
	Reg838: [4]uint32{0x87765541, 0x86666341, 0x87765561, 0x86666361},
}

// Threshold substitutions applied on top of the table values
const (
	reg830IFEMDual40 = 0x79a0ea28
	regL1WTEFEM      = 0x9194b2b9
	reg838Nudge      = 0x4
	reg838NudgeMask  = 0xf0
)

// RFEInfo describes one front-end SKU
type RFEInfo struct {
	CCA2G   *CCATable
	CCA5G   *CCATable
	FEM     FEMClass
	IFEMExt bool
	Switch  SwitchKind
}

// rfeDefs is sparse; every index missing here is rejected
var rfeDefs = map[uint8]RFEInfo{
	2: {CCA2G: &ccaIFEM, CCA5G: &ccaEFEM, FEM: FEMInternal2GExternal5G, Switch: SwitchEFEM},
	5: {CCA2G: &ccaIFEMExt, CCA5G: &ccaIFEMExt, FEM: FEMInternal, IFEMExt: true, Switch: SwitchIFEM},
}

// LookupRFE resolves the front-end descriptor for an efuse RFE option
func LookupRFE(option uint8) (RFEInfo, error) {
	info, ok := rfeDefs[option]
	if !ok {
		return RFEInfo{}, &RFEOptionError{Option: option}
	}
	return info, nil
}

// RFEOptions lists the defined RFE options in ascending order
func RFEOptions() []uint8 {
	out := make([]uint8, 0, len(rfeDefs))
	for k := range rfeDefs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ccaColumn picks the table column for a channel and RX path set
func ccaColumn(channel uint8, rx Path) CCAColumn {
	if channel <= 14 {
		if rx.single() {
			return CCA1R2G
		}
		return CCA2R2G
	}
	if rx.single() {
		return CCA1R5G
	}
	return CCA2R5G
}

// setChannelCCA programs the CCA thresholds for channel and bw
func (d *Device) setChannelCCA(ctx context.Context, channel uint8, bw Bandwidth, rfe RFEInfo) {
	table := rfe.CCA5G
	if channel <= 14 {
		table = rfe.CCA2G
	}
	col := ccaColumn(channel, d.antennaRx)
	r82c, r830, r838 := table.Values(col)

	var ifem, efem, rfeType bool
	switch rfe.FEM {
	case FEMExternal:
		efem = true
	case FEMInternal2GExternal5G:
		if channel <= 14 {
			ifem = true
		} else {
			efem = true
		}
	default:
		ifem = true
		rfeType = rfe.IFEMExt
	}

	if ifem {
		if (d.cfg.Cut == CutB && col.dualRx() && bw == BW40) ||
			(!rfeType && col == CCA2R5G && bw == BW40) ||
			(d.cfg.RFEOption == 5 && col == CCA2R5G) {
			r830 = reg830IFEMDual40
		}
	}

	d.bus.Write32(RegCCASel, r82c)
	d.bus.Write32(RegPDMFTh, r830)
	d.bus.Write32(RegCCA2nd, r838)

	if efem && d.cfg.Cut != CutB {
		d.bus.Write32(RegL1WT, regL1WTEFEM)
	}

	if bw == BW20 && ((channel >= 52 && channel <= 64) || (channel >= 100 && channel <= 144)) {
		write32Mask(d.bus, RegCCA2nd, reg838NudgeMask, reg838Nudge)
	}

	d.log.LogAttrs(ctx, slog.LevelDebug, "CCA applied",
		slog.Int("channel", int(channel)),
		slog.Int("column", int(col)),
		slog.String("reg82c", hex32(r82c)),
		slog.String("reg830", hex32(r830)),
		slog.String("reg838", hex32(r838)))
}

// Antenna switch codes written to the TRSW matrix low word
const (
	trswDual    = 0xa501 // either direction uses both paths
	trswMatched = 0xa500 // single path, TX == RX
	trswCrossed = 0xa005 // single path, TX != RX
	trswIFEM5G  = 0xa5a5
)

// RFE signal source codes per switch routine and band
type rfeSource struct {
	sel0   uint32 // RFESEL0 bits 23:0
	sel8   uint32 // RFESEL8 byte 1
	ctlBit uint32 // RFECTL bit cleared
}

var (
	efemSrc2G = rfeSource{sel0: 0x705770, sel8: 0x57, ctlBit: 1 << 4}
	efemSrc5G = rfeSource{sel0: 0x177517, sel8: 0x75, ctlBit: 1 << 5}
	ifemSrc2G = rfeSource{sel0: 0x745774, sel8: 0x57}
	ifemSrc5G = rfeSource{sel0: 0x477547, sel8: 0x75}
)

const rfeInvMask = (1 << 11) | (1 << 10) | 0x3f

// trswCode is the switch-matrix decision table shared by both routines
func trswCode(tx, rx Path) uint32 {
	switch {
	case tx == PathAB || rx == PathAB:
		return trswDual
	case tx == rx:
		return trswMatched
	default:
		return trswCrossed
	}
}

// setChannelRFE dispatches the variant's antenna-switch routine
func (d *Device) setChannelRFE(channel uint8, rfe RFEInfo) {
	switch rfe.Switch {
	case SwitchEFEM:
		d.switchEFEM(channel)
	default:
		d.switchIFEM(channel)
	}
}

func (d *Device) applyRFESource(src rfeSource) {
	write32sMask(d.bus, RegRFESel0, 0xffffff, src.sel0)
	write32sMask(d.bus, RegRFESel8, MaskByte1, src.sel8)
	if src.ctlBit != 0 {
		write32sMask(d.bus, RegRFECtl, src.ctlBit, 0)
	}
}

func (d *Device) switchEFEM(channel uint8) {
	if channel <= 14 {
		d.applyRFESource(efemSrc2G)
	} else {
		d.applyRFESource(efemSrc5G)
	}
	write32sMask(d.bus, RegRFEInv, rfeInvMask, 0)
	write32sMask(d.bus, RegTRSW, MaskLWord, trswCode(d.antennaTx, d.antennaRx))
}

func (d *Device) switchIFEM(channel uint8) {
	if channel <= 14 {
		d.applyRFESource(ifemSrc2G)
		write32sMask(d.bus, RegRFEInv, rfeInvMask, 0)
		write32sMask(d.bus, RegTRSW, MaskLWord, trswCode(d.antennaTx, d.antennaRx))
		return
	}
	d.applyRFESource(ifemSrc5G)
	write32sMask(d.bus, RegRFEInv, rfeInvMask, 0)
	write32sMask(d.bus, RegTRSW, MaskLWord, trswIFEM5G)
}
