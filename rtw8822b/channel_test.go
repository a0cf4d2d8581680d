package rtw8822b

import (
	"context"
	"errors"
	"testing"
)

func TestBandEdgeCode(t *testing.T) {
	tests := []struct {
		channel uint8
		want    uint32
		wantErr bool
	}{
		{1, 0, false},
		{14, 0, false},
		{36, 0x7, false},
		{64, 0x6, false},
		{100, 0x6, false},
		{144, 0x0, false},
		{149, 0x5, false},
		{177, 0x0, false},
		{34, 0, true},
		{15, 0, true},
		{50, 0, true},  // hole in the low band table
		{37, 0, true},  // odd 5 GHz channel below 149
		{178, 0, true}, // above the high band
	}

	for _, tt := range tests {
		got, err := bandEdgeCode(tt.channel)
		if tt.wantErr {
			var ce *ChannelError
			if !errors.As(err, &ce) || ce.Channel != tt.channel {
				t.Errorf("channel %d: expected *ChannelError, got %v", tt.channel, err)
			}
			if !errors.Is(err, ErrConfigIntegrity) {
				t.Errorf("channel %d: error does not wrap ErrConfigIntegrity", tt.channel)
			}
			continue
		}
		if err != nil {
			t.Errorf("channel %d: unexpected error %v", tt.channel, err)
			continue
		}
		if got != tt.want {
			t.Errorf("channel %d: got code 0x%x, want 0x%x", tt.channel, got, tt.want)
		}
	}
}

func TestSetChannelProgramsBandEdge(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct {
		channel uint8
		want    uint32
	}{
		{36, 0x7},
		{64, 0x6},
		{100, 0x6},
		{177, 0x0},
	} {
		d, sim := newTestDevice(t)
		if err := d.SetChannel(ctx, ChannelRequest{Channel: tt.channel, Bandwidth: BW20}); err != nil {
			t.Fatalf("SetChannel(%d) failed: %v", tt.channel, err)
		}
		got := NewSIPI(sim.Mem).ReadRF(RFPathA, RFMALSel, rfBEMask)
		if got != tt.want {
			t.Errorf("channel %d: RF 0xBE band edge = 0x%x, want 0x%x", tt.channel, got, tt.want)
		}
		if d.Channel() != tt.channel {
			t.Errorf("channel %d: stored channel = %d", tt.channel, d.Channel())
		}
	}
}

func TestSetChannelRejectsUnknownChannelWithoutWrites(t *testing.T) {
	d, sim := newTestDevice(t)
	sim.Mem.ResetLog()

	err := d.SetChannel(context.Background(), ChannelRequest{Channel: 34, Bandwidth: BW20})
	if !errors.Is(err, ErrConfigIntegrity) {
		t.Fatalf("expected ErrConfigIntegrity, got %v", err)
	}
	if w := sim.Mem.Writes(); len(w) != 0 {
		t.Fatalf("expected no register writes, got %d (first %s)", len(w), w[0])
	}
	if d.Channel() != 1 {
		t.Errorf("channel changed to %d after failed switch", d.Channel())
	}
}

func TestSetChannelRejectsUnknownRFEOption(t *testing.T) {
	d, sim := newTestDevice(t, WithRFEOption(3))
	sim.Mem.ResetLog()

	err := d.SetChannel(context.Background(), ChannelRequest{Channel: 36, Bandwidth: BW80})
	var re *RFEOptionError
	if !errors.As(err, &re) || re.Option != 3 {
		t.Fatalf("expected *RFEOptionError for option 3, got %v", err)
	}
	if len(sim.Mem.Writes()) != 0 {
		t.Error("register writes issued for an undefined front-end")
	}
}

func TestSetChannelRejectsBandwidthCode(t *testing.T) {
	d, _ := newTestDevice(t)
	err := d.SetChannel(context.Background(), ChannelRequest{Channel: 36, Bandwidth: Bandwidth(9)})
	if !errors.Is(err, ErrConfigIntegrity) {
		t.Fatalf("expected ErrConfigIntegrity, got %v", err)
	}
}

func TestChannel144PreBitOrdering(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		channel uint8
		wantBit bool
	}{
		{144, true},
		{36, false},
		{140, false},
		{6, false},
	}

	for _, tt := range tests {
		d, sim := newTestDevice(t)
		// leave the pre-bit set from an earlier switch
		sim.Mem.Poke(RFReadAddr(RFPathA, RFLUTDbg), 4, 1<<18)
		sim.Mem.ResetLog()

		if err := d.SetChannel(ctx, ChannelRequest{Channel: tt.channel, Bandwidth: BW20}); err != nil {
			t.Fatalf("SetChannel(%d) failed: %v", tt.channel, err)
		}

		preIdx, chIdx := -1, -1
		var preData uint32
		for i, w := range sipiWrites(sim.Mem) {
			if w.path != RFPathA {
				continue
			}
			if w.addr == RFLUTDbg && preIdx < 0 {
				preIdx, preData = i, w.data
			}
			if w.addr == RFChannel && chIdx < 0 {
				chIdx = i
			}
		}

		if preIdx < 0 || chIdx < 0 {
			t.Fatalf("channel %d: missing RF writes (0xDF at %d, 0x18 at %d)", tt.channel, preIdx, chIdx)
		}
		if preIdx > chIdx {
			t.Errorf("channel %d: RF 0xDF written after RF 0x18", tt.channel)
		}
		if got := preData&(1<<18) != 0; got != tt.wantBit {
			t.Errorf("channel %d: pre-bit = %v, want %v", tt.channel, got, tt.wantBit)
		}
	}
}

func TestRF18Value(t *testing.T) {
	tests := []struct {
		channel uint8
		bw      Bandwidth
		want    uint32
	}{
		{1, BW20, 1 | rf18BW20M},
		{36, BW80, 36 | rf18Band5G | rf18BW80M},
		{100, BW40, 100 | rf18Band5G | rf18RFSIGeCh80 | rf18BW40M},
		{149, BW20, 149 | rf18Band5G | rf18RFSIGtCh144 | rf18BW20M},
	}
	for _, tt := range tests {
		// stale band, channel and bandwidth bits must not survive
		got := rf18Value(0xFFFFF&^(1<<12), tt.channel, tt.bw)
		keep := uint32(0xFFFFF&^(1<<12)) &^ (rf18BandMask | rf18ChannelMask | rf18RFSIMask | rf18BWMask)
		if got != tt.want|keep {
			t.Errorf("rf18Value(%d, %s) = 0x%05x, want 0x%05x", tt.channel, tt.bw, got, tt.want|keep)
		}
	}
}

func TestSetChannelPathBFollowsRFType(t *testing.T) {
	ctx := context.Background()
	for _, oneT := range []bool{false, true} {
		opts := []Option{}
		if oneT {
			opts = append(opts, WithRF1T1R())
		}
		d, sim := newTestDevice(t, opts...)
		sim.Mem.ResetLog()
		if err := d.SetChannel(ctx, ChannelRequest{Channel: 11, Bandwidth: BW20}); err != nil {
			t.Fatal(err)
		}
		pathB := false
		for _, w := range sipiWrites(sim.Mem) {
			if w.path == RFPathB && w.addr == RFChannel {
				pathB = true
			}
		}
		if pathB == oneT {
			t.Errorf("1T1R=%v: path B channel write = %v", oneT, pathB)
		}
	}
}

func TestSupportedChannels(t *testing.T) {
	chans := SupportedChannels()
	seen := make(map[uint8]bool)
	for i, ch := range chans {
		if i > 0 && chans[i-1] >= ch {
			t.Fatalf("channels not strictly ascending at %d", i)
		}
		seen[ch] = true
		if _, err := bandEdgeCode(ch); err != nil {
			t.Errorf("listed channel %d rejected: %v", ch, err)
		}
	}
	for _, ch := range []uint8{1, 14, 36, 144, 165, 177} {
		if !seen[ch] {
			t.Errorf("channel %d missing", ch)
		}
	}
	if seen[50] || seen[114] || seen[163] {
		t.Error("band edge holes listed as supported")
	}
}

func TestCheckChannel(t *testing.T) {
	for _, ch := range []uint8{6, 42, 155} {
		if err := CheckChannel(ch); err != nil {
			t.Errorf("channel %d: %v", ch, err)
		}
	}
	for _, ch := range []uint8{0, 15, 37, 163, 181} {
		if err := CheckChannel(ch); !errors.Is(err, ErrConfigIntegrity) {
			t.Errorf("channel %d: got %v", ch, err)
		}
	}
}
