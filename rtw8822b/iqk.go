package rtw8822b

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// IQK completion handshake: firmware writes the sentinel into RF 0x08 of path A
const (
	iqkSentinel     = 0xabcde
	iqkPollAttempts = 300
	iqkPollInterval = 20 * time.Millisecond
	iqkReloadBit    = 1 << 16
	iqkFailMask     = 0xff
)

// ErrNoFirmware is returned by DoIQK when no firmware channel is configured
var ErrNoFirmware = errors.New("no firmware command channel")

// IQKResult reports a calibration run. TimedOut is diagnostic only.
type IQKResult struct {
	Iterations int   `json:"iterations"`
	TimedOut   bool  `json:"timed_out"`
	Reload     bool  `json:"reload"`
	FailMask   uint8 `json:"fail_mask"`
	Run        int   `json:"run"`
}

// DoIQK asks the firmware for IQ/DC calibration and waits for it to finish.
// A missing sentinel is logged and reported in the result, not returned as an
// error; RF 0x08 is cleared either way.
func (d *Device) DoIQK(ctx context.Context) (IQKResult, error) {
	d.beginOp()
	if d.cfg.Firmware == nil {
		return IQKResult{}, fmt.Errorf("do iqk: %w", ErrNoFirmware)
	}

	if err := d.cfg.Firmware.DoIQK(ctx, IQKParams{Clear: false, Segment: false}); err != nil {
		return IQKResult{}, fmt.Errorf("do iqk: failed to submit calibration command: %w", err)
	}

	rf := d.cfg.RF
	var res IQKResult
	done := false
	for res.Iterations < iqkPollAttempts {
		if rf.ReadRF(RFPathA, RFDTXLOK, RFRegMask) == iqkSentinel {
			done = true
			break
		}
		res.Iterations++
		d.sleep(iqkPollInterval)
	}
	rf.WriteRF(RFPathA, RFDTXLOK, RFRegMask, 0)

	res.TimedOut = !done
	if res.TimedOut {
		d.log.WarnContext(ctx, "IQK did not report completion",
			"error", &HandshakeTimeoutError{Stage: "IQK", Attempts: iqkPollAttempts})
	}

	msk := d.bus.Read32(RegIQKFailMsk)
	res.Reload = msk&iqkReloadBit != 0
	res.FailMask = uint8(msk & iqkFailMask)

	d.iqkRuns++
	res.Run = d.iqkRuns

	d.log.LogAttrs(ctx, slog.LevelInfo, "IQK finished",
		slog.Int("counter", res.Iterations),
		slog.Bool("reload", res.Reload),
		slog.Int("run", res.Run),
		slog.String("fail_mask", fmt.Sprintf("0x%02x", res.FailMask)))

	return res, d.busErr("do iqk")
}
