package rtw8822b

import (
	"context"
	"errors"
	"testing"
)

func TestPhySetParam(t *testing.T) {
	d, sim := newTestDevice(t)
	d.cfg.CrystalCap = 0x25

	if err := d.PhySetParam(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sim.TablesLoaded() != 1 {
		t.Errorf("tables loaded %d times", sim.TablesLoaded())
	}
	if got := read32Mask(sim.Mem, RegAFECtrl1, 0x7e000000); got != 0x25 {
		t.Errorf("crystal trim (ctrl1) = 0x%x", got)
	}
	if got := read32Mask(sim.Mem, RegAFECtrl2, 0x7e); got != 0x25 {
		t.Errorf("crystal trim (ctrl2) = 0x%x", got)
	}
	if sim.Mem.Peek(RegSysFuncEn, 1)&(BitFenBBRstB|BitFenBBGlbRst) != BitFenBBRstB|BitFenBBGlbRst {
		t.Error("BB not released from reset")
	}
	if sim.Mem.Peek(RegGntOverride, 4) != 0xc00f0038 {
		t.Error("WL grant override not applied")
	}
	if sim.Mem.Peek(RegRxPSel, 4)&BitRxPSelRst != BitRxPSelRst {
		t.Error("RX path select reset not released")
	}
}

type brokenTables struct{}

func (brokenTables) LoadTables(context.Context) error { return errors.New("agc table checksum") }

func TestPhySetParamTableError(t *testing.T) {
	d, _ := newTestDevice(t, WithTables(brokenTables{}))
	if err := d.PhySetParam(context.Background()); err == nil {
		t.Fatal("expected table load error")
	}
}

func TestPhySetParamUnknownRFE(t *testing.T) {
	d, _ := newTestDevice(t, WithRFEOption(9))
	if err := d.PhySetParam(context.Background()); !errors.Is(err, ErrConfigIntegrity) {
		t.Fatalf("expected ErrConfigIntegrity, got %v", err)
	}
}

func TestCfgLDO25(t *testing.T) {
	d, sim := newTestDevice(t)
	ctx := context.Background()

	if err := d.CfgLDO25(ctx, true); err != nil {
		t.Fatal(err)
	}
	if sim.Mem.Peek(RegLDOEfuseCtrl+3, 1)&BitLDO25En == 0 {
		t.Error("LDO25 not enabled")
	}
	if err := d.CfgLDO25(ctx, false); err != nil {
		t.Fatal(err)
	}
	if sim.Mem.Peek(RegLDOEfuseCtrl+3, 1)&BitLDO25En != 0 {
		t.Error("LDO25 not disabled")
	}
}

func TestFalseAlarmStatistics(t *testing.T) {
	tests := []struct {
		name      string
		cckEnable bool
		want      FalseAlarm
	}{
		{"cck enabled", true, FalseAlarm{CCK: 7, OFDM: 30, Total: 37}},
		{"cck disabled", false, FalseAlarm{CCK: 7, OFDM: 30, Total: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sim := newTestDevice(t)
			if !tt.cckEnable {
				sim.Mem.Poke(RegCCKEnable, 4, 0)
			}
			sim.Mem.Poke(RegCCKFACnt, 2, 7)
			sim.Mem.Poke(RegOFDMFACnt, 2, 30)

			got, err := d.FalseAlarmStatistics(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if sim.Mem.Peek(RegFARstAll, 4)&1 != 0 {
				t.Error("counter reset left asserted")
			}
		})
	}
}
