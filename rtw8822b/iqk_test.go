package rtw8822b

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoIQKCompletes(t *testing.T) {
	d, sim := newTestDevice(t)
	sim.Mem.Poke(RegIQKFailMsk, 4, 1<<16|0x03)

	res, err := d.DoIQK(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.TimedOut || res.Iterations != 0 {
		t.Errorf("result = %+v, want immediate completion", res)
	}
	if !res.Reload || res.FailMask != 0x03 {
		t.Errorf("reload=%v fail_mask=0x%02x", res.Reload, res.FailMask)
	}
	if res.Run != 1 {
		t.Errorf("run = %d, want 1", res.Run)
	}
	if got := sim.Mem.Peek(RFReadAddr(RFPathA, RFDTXLOK), 4); got != 0 {
		t.Errorf("RF 0x08 = 0x%05X after calibration, want 0", got)
	}
	if calls := sim.IQKCalls(); len(calls) != 1 || calls[0].Clear || calls[0].Segment {
		t.Errorf("firmware calls = %+v", calls)
	}
}

func TestDoIQKTimeoutIsNotFatal(t *testing.T) {
	sl := &countingSleeper{}
	d, sim := newTestDevice(t, WithSleeper(sl))
	sim.IQKSilent = true
	sim.Mem.Poke(RFReadAddr(RFPathA, RFDTXLOK), 4, 0x12345)

	res, err := d.DoIQK(context.Background())
	if err != nil {
		t.Fatalf("timeout surfaced as error: %v", err)
	}
	if !res.TimedOut || res.Iterations != iqkPollAttempts {
		t.Errorf("result = %+v, want timeout after %d polls", res, iqkPollAttempts)
	}
	if sl.calls != iqkPollAttempts || sl.total != iqkPollAttempts*20*time.Millisecond {
		t.Errorf("slept %d times for %s", sl.calls, sl.total)
	}
	if got := sim.Mem.Peek(RFReadAddr(RFPathA, RFDTXLOK), 4); got != 0 {
		t.Errorf("RF 0x08 not cleared on timeout: 0x%05X", got)
	}

	res, _ = d.DoIQK(context.Background())
	if res.Run != 2 {
		t.Errorf("run counter = %d, want 2", res.Run)
	}
}

func TestDoIQKWithoutFirmware(t *testing.T) {
	sim := NewSimChip()
	d := New(sim.Mem, WithLogger(discardLogger()), WithRFEOption(5))
	if _, err := d.DoIQK(context.Background()); !errors.Is(err, ErrNoFirmware) {
		t.Fatalf("expected ErrNoFirmware, got %v", err)
	}
}

type failingFirmware struct{}

func (failingFirmware) DoIQK(context.Context, IQKParams) error { return errors.New("h2c queue full") }

func TestDoIQKSubmitError(t *testing.T) {
	d, sim := newTestDevice(t, WithFirmware(failingFirmware{}))
	sim.Mem.ResetLog()
	if _, err := d.DoIQK(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	if len(sim.Mem.Ops()) != 0 {
		t.Error("bus touched after failed submission")
	}
}
