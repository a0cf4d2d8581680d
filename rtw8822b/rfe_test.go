package rtw8822b

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestLookupRFE(t *testing.T) {
	if got := RFEOptions(); !reflect.DeepEqual(got, []uint8{2, 5}) {
		t.Fatalf("RFEOptions() = %v, want [2 5]", got)
	}

	info, err := LookupRFE(2)
	if err != nil {
		t.Fatal(err)
	}
	if info.FEM != FEMInternal2GExternal5G || info.Switch != SwitchEFEM {
		t.Errorf("option 2: got %s/%s", info.FEM, info.Switch)
	}

	for _, opt := range []uint8{0, 1, 3, 4, 6, 255} {
		_, err := LookupRFE(opt)
		if !errors.Is(err, ErrConfigIntegrity) {
			t.Errorf("option %d: expected ErrConfigIntegrity, got %v", opt, err)
		}
	}
}

func TestSetChannelSelectsCCAFromDeclaredTable(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		option  uint8
		channel uint8
		rx      Path
		table   *CCATable
		col     CCAColumn
	}{
		{"rfe2 2G 1R", 2, 1, PathA, &ccaIFEM, CCA1R2G},
		{"rfe2 2G 2R", 2, 6, PathAB, &ccaIFEM, CCA2R2G},
		{"rfe2 5G 1R", 2, 36, PathB, &ccaEFEM, CCA1R5G},
		{"rfe2 5G 2R", 2, 149, PathAB, &ccaEFEM, CCA2R5G},
		{"rfe5 2G 1R", 5, 11, PathB, &ccaIFEMExt, CCA1R2G},
		{"rfe5 2G 2R", 5, 1, PathAB, &ccaIFEMExt, CCA2R2G},
		{"rfe5 5G 1R", 5, 36, PathA, &ccaIFEMExt, CCA1R5G},
		{"rfe5 5G 2R", 5, 165, PathAB, &ccaIFEMExt, CCA2R5G},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sim := newTestDevice(t, WithRFEOption(tt.option), WithAntenna(PathAB, tt.rx))
			if err := d.SetChannel(ctx, ChannelRequest{Channel: tt.channel, Bandwidth: BW20}); err != nil {
				t.Fatal(err)
			}

			want82c, want830, want838 := tt.table.Values(tt.col)
			if tt.option == 5 && tt.col == CCA2R5G {
				want830 = reg830IFEMDual40
			}

			if got := sim.Mem.Peek(RegCCASel, 4); got != want82c {
				t.Errorf("0x82C = 0x%08X, want 0x%08X", got, want82c)
			}
			if got := sim.Mem.Peek(RegPDMFTh, 4); got != want830 {
				t.Errorf("0x830 = 0x%08X, want 0x%08X", got, want830)
			}
			if got := sim.Mem.Peek(RegCCA2nd, 4); got != want838 {
				t.Errorf("0x838 = 0x%08X, want 0x%08X", got, want838)
			}
		})
	}
}

func TestSetChannelCCAThresholdAdjustments(t *testing.T) {
	ctx := context.Background()

	t.Run("dual rx 40 MHz on cut B", func(t *testing.T) {
		d, sim := newTestDevice(t, WithRFEOption(5), WithCut(CutB))
		if err := d.SetChannel(ctx, ChannelRequest{Channel: 6, Bandwidth: BW40, PrimaryIndex: 1}); err != nil {
			t.Fatal(err)
		}
		if got := sim.Mem.Peek(RegPDMFTh, 4); got != reg830IFEMDual40 {
			t.Errorf("0x830 = 0x%08X, want 0x%08X", got, uint32(reg830IFEMDual40))
		}
	})

	t.Run("efem linearity weight", func(t *testing.T) {
		d, sim := newTestDevice(t, WithRFEOption(2))
		if err := d.SetChannel(ctx, ChannelRequest{Channel: 36, Bandwidth: BW80}); err != nil {
			t.Fatal(err)
		}
		if got := sim.Mem.Peek(RegL1WT, 4); got != regL1WTEFEM {
			t.Errorf("0x83C = 0x%08X, want 0x%08X", got, uint32(regL1WTEFEM))
		}
	})

	t.Run("second stage nudge on DFS channels", func(t *testing.T) {
		d, sim := newTestDevice(t, WithRFEOption(5), WithAntenna(PathAB, PathA))
		if err := d.SetChannel(ctx, ChannelRequest{Channel: 52, Bandwidth: BW20}); err != nil {
			t.Fatal(err)
		}
		_, _, base := ccaIFEMExt.Values(CCA1R5G)
		want := base&^reg838NudgeMask | reg838Nudge<<4
		if got := sim.Mem.Peek(RegCCA2nd, 4); got != want {
			t.Errorf("0x838 = 0x%08X, want 0x%08X", got, want)
		}
	})
}

func TestSetAntennaNormalizesInvalidPaths(t *testing.T) {
	tests := []struct {
		tx, rx         Path
		wantTx, wantRx Path
	}{
		{0, 0, PathAB, PathAB},
		{PathA, 7, PathA, PathAB},
		{4, PathB, PathAB, PathB},
		{PathB, PathA, PathB, PathA},
	}

	for _, tt := range tests {
		d, sim := newTestDevice(t)
		if err := d.SetAntenna(context.Background(), tt.tx, tt.rx); err != nil {
			t.Fatalf("SetAntenna(%d, %d) failed: %v", tt.tx, tt.rx, err)
		}
		tx, rx := d.Antenna()
		if tx != tt.wantTx || rx != tt.wantRx {
			t.Errorf("SetAntenna(%d, %d) stored %s/%s, want %s/%s", tt.tx, tt.rx, tx, rx, tt.wantTx, tt.wantRx)
		}
		wantRxSel := uint32(tt.wantRx)<<4 | uint32(tt.wantRx)
		if got := sim.Mem.Peek(RegRxPSel, 1); got != wantRxSel {
			t.Errorf("RX path select = 0x%02X, want 0x%02X", got, wantRxSel)
		}
	}
}

func TestSetAntennaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, sim := newTestDevice(t, WithRFEOption(5))

	if err := d.SetAntenna(ctx, PathAB, PathAB); err != nil {
		t.Fatal(err)
	}

	sim.Mem.ResetLog()
	if err := d.SetAntenna(ctx, PathAB, PathAB); err != nil {
		t.Fatal(err)
	}
	first := sim.Mem.Writes()

	sim.Mem.ResetLog()
	if err := d.SetAntenna(ctx, PathAB, PathAB); err != nil {
		t.Fatal(err)
	}
	second := sim.Mem.Writes()

	if len(first) == 0 {
		t.Fatal("no writes recorded")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("write sequences differ: %d vs %d writes", len(first), len(second))
	}
}

func TestTRSWCode(t *testing.T) {
	tests := []struct {
		tx, rx Path
		want   uint32
	}{
		{PathAB, PathAB, trswDual},
		{PathA, PathAB, trswDual},
		{PathAB, PathB, trswDual},
		{PathA, PathA, trswMatched},
		{PathB, PathB, trswMatched},
		{PathA, PathB, trswCrossed},
		{PathB, PathA, trswCrossed},
	}
	for _, tt := range tests {
		if got := trswCode(tt.tx, tt.rx); got != tt.want {
			t.Errorf("trswCode(%s, %s) = 0x%04x, want 0x%04x", tt.tx, tt.rx, got, tt.want)
		}
	}
}

func TestIFEM5GUsesFixedSwitchCode(t *testing.T) {
	d, sim := newTestDevice(t, WithRFEOption(5), WithAntenna(PathA, PathB))
	if err := d.SetChannel(context.Background(), ChannelRequest{Channel: 100, Bandwidth: BW80}); err != nil {
		t.Fatal(err)
	}
	for _, addr := range []uint32{RegTRSW, RegTRSWB} {
		if got := sim.Mem.Peek(addr, 2); got != trswIFEM5G {
			t.Errorf("TRSW 0x%04X = 0x%04X, want 0x%04X", addr, got, trswIFEM5G)
		}
	}
}

func TestSetAntennaFailsLUTHandshake(t *testing.T) {
	d, _ := newTestDevice(t, WithRF(stuckRF{}))
	err := d.SetAntenna(context.Background(), PathA, PathA)
	var he *HandshakeTimeoutError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HandshakeTimeoutError, got %v", err)
	}
	if he.Attempts != lutRetries {
		t.Errorf("attempts = %d, want %d", he.Attempts, lutRetries)
	}
	if tx, rx := d.Antenna(); tx != PathA || rx != PathA {
		t.Errorf("paths not stored: %s/%s", tx, rx)
	}
}

// stuckRF never latches writes
type stuckRF struct{}

func (stuckRF) ReadRF(RFPath, uint32, uint32) uint32 { return 0 }
func (stuckRF) WriteRF(RFPath, uint32, uint32, uint32) {}
