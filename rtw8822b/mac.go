package rtw8822b

import (
	"context"
	"log/slog"
)

// MAC protocol defaults
const (
	wlanSlotTime        = 0x09
	wlanPIFSTime        = 0x19
	wlanSIFSCCKContTx   = 0x0A
	wlanSIFSOFDMContTx  = 0x0E
	wlanSIFSCCKTRx      = 0x10
	wlanSIFSOFDMTRx     = 0x10
	wlanVOTxopLimit     = 0x186 // 32 µs units
	wlanVITxopLimit     = 0x3BC // 32 µs units
	wlanRDGNav          = 0x05
	wlanTxopNav         = 0x1B
	wlanCCKRxTSF        = 0x30
	wlanOFDMRxTSF       = 0x30
	wlanTBTTProhibit    = 0x04 // 32 µs units
	wlanTBTTHoldTime    = 0x064
	wlanDrvEarlyInt     = 0x04
	wlanBcnDMATime      = 0x02
	wlanRxFilter0       = 0x0FFFFFFF
	wlanRxFilter2       = 0xFFFF
	wlanRCRCfg          = 0xE400220E
	wlanRxPktMaxSz      = 12288
	wlanAMPDUMaxTime    = 0x70
	wlanRTSLenTh        = 0xFF
	wlanRTSTxTimeTh     = 0x08
	wlanMaxAggPktLimit  = 0x20
	wlanRTSMaxAggLimit  = 0x20
	fastEDCATh          = 0x06
	wlanBARRetryLimit   = 0x01
	wlanRATryRateAggLim = 0x08
	wlanTxFuncCfg1      = 0x30
	wlanTxFuncCfg2      = 0x30
	wlanMACOptNormFunc1 = 0x98
	wlanMACOptFunc2     = 0x30810041
)

type macOpKind uint8

const (
	macWrite macOpKind = iota
	macSet
	macClr
)

// macRegOp is one entry of the MAC init register list
type macRegOp struct {
	kind  macOpKind
	width int
	addr  uint32
	value uint32
}

var macInitTable = []macRegOp{
	// protocol
	{macClr, 1, RegSWAMPDUBurst, BitPreTxCmd},
	{macWrite, 1, RegAMPDUMaxTime, wlanAMPDUMaxTime},
	{macSet, 1, RegTxHangCtrl, BitEnEOFV1},
	{macWrite, 4, RegProtModeCtrl, wlanRTSLenTh | wlanRTSTxTimeTh<<8 | wlanMaxAggPktLimit<<16 | wlanRTSMaxAggLimit<<24},
	{macWrite, 2, RegBARModeCtrl + 2, wlanBARRetryLimit | wlanRATryRateAggLim<<8},
	{macWrite, 1, RegFastEDCAVOVI, fastEDCATh},
	{macWrite, 1, RegFastEDCAVOVI + 2, fastEDCATh},
	{macWrite, 1, RegFastEDCABEBK, fastEDCATh},
	{macWrite, 1, RegFastEDCABEBK + 2, fastEDCATh},

	// EDCA
	{macClr, 1, RegTimer0SrcSel, BitTSFTSelTmr0},
	{macWrite, 2, RegTxPause, 0x0000},
	{macWrite, 1, RegSlot, wlanSlotTime},
	{macWrite, 1, RegPIFS, wlanPIFSTime},
	{macWrite, 4, RegSIFS, wlanSIFSCCKContTx | wlanSIFSOFDMContTx<<8 | wlanSIFSCCKTRx<<16 | wlanSIFSOFDMTRx<<24},
	{macWrite, 2, RegEDCAVOParam + 2, wlanVOTxopLimit},
	{macWrite, 2, RegEDCAVIParam + 2, wlanVITxopLimit},
	{macWrite, 4, RegRdNavNxt, wlanRDGNav | wlanTxopNav<<16},
	{macWrite, 2, RegRxTSFOffCCK, wlanCCKRxTSF | wlanOFDMRxTSF<<8},

	// beacon
	{macSet, 1, RegBcnCtrl, BitEnBcnFunc},
	{macWrite, 4, RegTBTTProhibit, wlanTBTTProhibit | wlanTBTTHoldTime<<8},
	{macWrite, 1, RegDrvErlyInt, wlanDrvEarlyInt},
	{macWrite, 1, RegBcnDMATim, wlanBcnDMATime},
	{macClr, 1, RegTxPtclCtrl + 1, BitSIFSBKEn >> 8},

	// WMAC
	{macWrite, 4, RegRxFltMap0, wlanRxFilter0},
	{macWrite, 2, RegRxFltMap2, wlanRxFilter2},
	{macWrite, 4, RegRCR, wlanRCRCfg},
	{macWrite, 1, RegRxPktLimit, wlanRxPktMaxSz >> 9},
	{macWrite, 1, RegTCR + 2, wlanTxFuncCfg2},
	{macWrite, 1, RegTCR + 1, wlanTxFuncCfg1},
	{macWrite, 4, RegWMACOptionFn + 8, wlanMACOptFunc2},
	{macWrite, 1, RegWMACOptionFn + 4, wlanMACOptNormFunc1},
}

func applyMACOp(b Bus, op macRegOp) {
	switch op.width {
	case 1:
		switch op.kind {
		case macSet:
			set8(b, op.addr, uint8(op.value))
		case macClr:
			clr8(b, op.addr, uint8(op.value))
		default:
			b.Write8(op.addr, uint8(op.value))
		}
	case 2:
		switch op.kind {
		case macSet:
			set16(b, op.addr, uint16(op.value))
		case macClr:
			clr16(b, op.addr, uint16(op.value))
		default:
			b.Write16(op.addr, uint16(op.value))
		}
	default:
		switch op.kind {
		case macSet:
			set32(b, op.addr, op.value)
		case macClr:
			clr32(b, op.addr, op.value)
		default:
			b.Write32(op.addr, op.value)
		}
	}
}

// MACInit applies the protocol, EDCA, beacon and WMAC register defaults
func (d *Device) MACInit(ctx context.Context) error {
	d.beginOp()
	for _, op := range macInitTable {
		applyMACOp(d.bus, op)
	}
	d.log.LogAttrs(ctx, slog.LevelInfo, "MAC initialized", slog.Int("registers", len(macInitTable)))
	return d.busErr("mac init")
}

// Sub-channel codes in REG_DATA_SC
const (
	sc20Upper   = 1
	sc20Upmost  = 3
	sc40Upper   = 9
	sc40Lower   = 10
	macClkSpeed = 80 // MHz
)

// MACChannel is the register-level MAC channel timing configurator
type MACChannel struct {
	bus Bus
}

// NewMACChannel creates a MAC channel configurator on bus
func NewMACChannel(bus Bus) *MACChannel {
	return &MACChannel{bus: bus}
}

// SetChannel programs TX sub-channel, RF mode, MAC clock and CCK check
func (m *MACChannel) SetChannel(channel uint8, bw Bandwidth, primary uint8) {
	b := m.bus

	txsc20 := uint32(primary)
	var txsc40 uint32
	if bw == BW80 {
		if txsc20 == sc20Upper || txsc20 == sc20Upmost {
			txsc40 = sc40Upper
		} else {
			txsc40 = sc40Lower
		}
	}
	b.Write8(RegDataSC, uint8(txsc20&0xf|(txsc40&0xf)<<4))

	v := b.Read32(RegWMACTRXPtcl) &^ BitRFMod
	switch bw {
	case BW80:
		v |= BitRFMod80M
	case BW40:
		v |= BitRFMod40M
	}
	b.Write32(RegWMACTRXPtcl, v)

	// MAC clock select: 80 MHz default encodes as 0
	b.Write32(RegAFECtrl1, b.Read32(RegAFECtrl1)&^BitMACClkSel)
	b.Write8(RegUsTimeTSF, macClkSpeed)
	b.Write8(RegUsTimeEDCA, macClkSpeed)

	cck := b.Read8(RegCCKCheck) &^ BitCheckCCKEn
	if channel > 35 {
		cck |= BitCheckCCKEn
	}
	b.Write8(RegCCKCheck, cck)
}
