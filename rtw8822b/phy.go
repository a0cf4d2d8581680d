package rtw8822b

import (
	"context"
	"fmt"
)

// PhySetParam powers the BB/RF domains, loads the vendor tables, trims the
// crystal, configures the TRX paths and hands the antenna switch to WL.
func (d *Device) PhySetParam(ctx context.Context) error {
	d.beginOp()
	b := d.bus

	set8(b, RegSysFuncEn, BitFenBBRstB|BitFenBBGlbRst)
	set8(b, RegRFCtrl, BitRFEn|BitRFRstB|BitRFSDMRstB)
	set32(b, RegWLRF1, BitWLRF1BBRFEn)

	clr32(b, RegRxPSel, BitRxPSelRst)

	if d.cfg.Tables != nil {
		if err := d.cfg.Tables.LoadTables(ctx); err != nil {
			return fmt.Errorf("phy set param: failed to load tables: %w", err)
		}
	} else {
		d.log.DebugContext(ctx, "No table loader configured, keeping current BB/RF coefficients")
	}

	xtal := uint32(d.cfg.CrystalCap & 0x3f)
	write32Mask(b, RegAFECtrl1, 0x7e000000, xtal)
	write32Mask(b, RegAFECtrl2, 0x7e, xtal)

	set32(b, RegRxPSel, BitRxPSelRst)

	if err := d.configTRXMode(ctx, d.antennaTx, d.antennaRx, false); err != nil {
		return fmt.Errorf("phy set param: %w", err)
	}

	d.rfeInit()

	// WL path controller and BB control
	write32Mask(b, RegWLBTCoexCtrl, 0x4000000, 1)
	write32Mask(b, RegLEDCfg, 0x01800000, 2)
	// antenna mux switch
	b.Write8(RegRFEInvMux, 0xff)
	write32Mask(b, RegRFEPathSel, 0x300, 0)
	write32Mask(b, RegRFEInv, 0x80000, 0)
	// SW control
	b.Write8(RegRFESel8, 0x77)
	// WL side controller, gnt_wl = 1, gnt_bt = 0
	write32Mask(b, RegWLBTCoexCtrl, 0xff000000, 0x0e)
	b.Write32(RegGntOverrideHi, 0x7700)
	b.Write32(RegGntOverride, 0xc00f0038)
	// WL 2G switch
	b.Write8(RegRFEInv+1, 0x2)

	d.log.InfoContext(ctx, "PHY parameters set", "crystal_cap", xtal)
	return d.busErr("phy set param")
}

// rfeInit configures the chip top mux for the RFE pins
func (d *Device) rfeInit() {
	b := d.bus
	write32Mask(b, RegSysPinMux, (1<<29)|(1<<28), 3)
	write32Mask(b, RegLEDCfg, (1<<26)|(1<<25), 0)
	write32Mask(b, RegGPIOMuxCfg, 1<<2, 1)

	write32Mask(b, RegRFEPathSel, 0x3f, 0x30)
	write32Mask(b, RegRFEPathSel, (1<<11)|(1<<10), 3)

	write32Mask(b, RegRFEInvMux, 0x3f, 0x3f)
	write32Mask(b, RegRFEInvMux, (1<<11)|(1<<10), 3)
}

// CfgLDO25 switches the 2.5 V LDO used by the efuse block
func (d *Device) CfgLDO25(ctx context.Context, enable bool) error {
	d.beginOp()
	addr := uint32(RegLDOEfuseCtrl + 3)
	if enable {
		set8(d.bus, addr, BitLDO25En)
	} else {
		clr8(d.bus, addr, BitLDO25En)
	}
	d.log.DebugContext(ctx, "LDO25 configured", "enable", enable)
	return d.busErr("cfg ldo25")
}

// FalseAlarm holds the false alarm counters since the last reset
type FalseAlarm struct {
	CCK   uint32 `json:"cck"`
	OFDM  uint32 `json:"ofdm"`
	Total uint32 `json:"total"`
}

// FalseAlarmStatistics reads and resets the CCK/OFDM false alarm counters.
// CCK is counted only while the CCK block is enabled.
func (d *Device) FalseAlarmStatistics(ctx context.Context) (FalseAlarm, error) {
	d.beginOp()
	b := d.bus

	cckEnabled := b.Read32(RegCCKEnable)&(1<<28) != 0
	fa := FalseAlarm{
		CCK:  uint32(b.Read16(RegCCKFACnt)),
		OFDM: uint32(b.Read16(RegOFDMFACnt)),
	}
	fa.Total = fa.OFDM
	if cckEnabled {
		fa.Total += fa.CCK
	}

	write32Mask(b, RegOFDMFARst, 1<<17, 1)
	write32Mask(b, RegOFDMFARst, 1<<17, 0)
	write32Mask(b, RegCCKFARst, 1<<15, 0)
	write32Mask(b, RegCCKFARst, 1<<15, 1)
	write32Mask(b, RegFARstAll, 1<<0, 1)
	write32Mask(b, RegFARstAll, 1<<0, 0)

	d.log.DebugContext(ctx, "False alarm statistics", "cck", fa.CCK, "ofdm", fa.OFDM, "total", fa.Total)
	return fa, d.busErr("false alarm statistics")
}
