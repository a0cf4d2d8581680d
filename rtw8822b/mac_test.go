package rtw8822b

import (
	"context"
	"testing"

	"github.com/linht/rfe-manager/internal/bus"
)

func TestMACInit(t *testing.T) {
	d, sim := newTestDevice(t)
	sim.Mem.Poke(RegSWAMPDUBurst, 1, 0xff)
	sim.Mem.Poke(RegTimer0SrcSel, 1, 0xff)

	if err := d.MACInit(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		addr  uint32
		width int
		want  uint32
	}{
		{RegSWAMPDUBurst, 1, 0xff &^ BitPreTxCmd},
		{RegAMPDUMaxTime, 1, 0x70},
		{RegProtModeCtrl, 4, 0x202008FF},
		{RegBARModeCtrl + 2, 2, 0x0801},
		{RegFastEDCABEBK + 2, 1, 0x06},
		{RegTimer0SrcSel, 1, 0xff &^ BitTSFTSelTmr0},
		{RegSlot, 1, 0x09},
		{RegSIFS, 4, 0x10100E0A},
		{RegEDCAVOParam + 2, 2, 0x0186},
		{RegEDCAVIParam + 2, 2, 0x03BC},
		{RegRdNavNxt, 4, 0x001B0005},
		{RegTBTTProhibit, 4, 0x00006404},
		{RegBcnCtrl, 1, BitEnBcnFunc},
		{RegRCR, 4, 0xE400220E},
		{RegRxPktLimit, 1, 24},
		{RegWMACOptionFn + 8, 4, 0x30810041},
	}
	for _, tt := range tests {
		if got := sim.Mem.Peek(tt.addr, tt.width); got != tt.want {
			t.Errorf("0x%04X = 0x%X, want 0x%X", tt.addr, got, tt.want)
		}
	}
}

func TestMACChannel(t *testing.T) {
	tests := []struct {
		channel uint8
		bw      Bandwidth
		primary uint8
		dataSC  uint32
		rfMod   uint32
		cck     bool
	}{
		{6, BW20, 0, 0x00, 0, false},
		{36, BW40, 1, 0x01, BitRFMod40M, true},
		{42, BW80, 1, 0x91, BitRFMod80M, true},
		{58, BW80, 2, 0xA2, BitRFMod80M, true},
	}

	for _, tt := range tests {
		mem := bus.NewMem()
		mem.Poke(RegWMACTRXPtcl, 4, BitRFMod|0x1)
		mem.Poke(RegAFECtrl1, 4, BitMACClkSel|0x1)

		NewMACChannel(mem).SetChannel(tt.channel, tt.bw, tt.primary)

		if got := mem.Peek(RegDataSC, 1); got != tt.dataSC {
			t.Errorf("ch %d: DATA_SC = 0x%02X, want 0x%02X", tt.channel, got, tt.dataSC)
		}
		if got := mem.Peek(RegWMACTRXPtcl, 4); got != tt.rfMod|0x1 {
			t.Errorf("ch %d: TRXPTCL = 0x%X", tt.channel, got)
		}
		if got := mem.Peek(RegAFECtrl1, 4); got != 0x1 {
			t.Errorf("ch %d: AFE_CTRL1 = 0x%X", tt.channel, got)
		}
		if mem.Peek(RegUsTimeTSF, 1) != macClkSpeed || mem.Peek(RegUsTimeEDCA, 1) != macClkSpeed {
			t.Errorf("ch %d: us timers not set", tt.channel)
		}
		if got := mem.Peek(RegCCKCheck, 1)&BitCheckCCKEn != 0; got != tt.cck {
			t.Errorf("ch %d: CCK check = %v, want %v", tt.channel, got, tt.cck)
		}
	}
}
