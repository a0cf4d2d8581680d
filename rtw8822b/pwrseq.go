package rtw8822b

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PowerSeqOp is a power sequence opcode
type PowerSeqOp uint8

const (
	CmdWrite PowerSeqOp = iota
	CmdPolling
	CmdDelay
	CmdEnd
)

func (op PowerSeqOp) String() string {
	switch op {
	case CmdWrite:
		return "write"
	case CmdPolling:
		return "poll"
	case CmdDelay:
		return "delay"
	}
	return "end"
}

// AddrSpace selects the register domain of a power sequence command
type AddrSpace uint8

const (
	AddrMAC AddrSpace = iota
	AddrSDIO
)

// Cut applicability masks
const (
	PwrCutA   = 1 << 1
	PwrCutB   = 1 << 2
	PwrCutC   = 1 << 3
	PwrCutD   = 1 << 4
	PwrCutAll = 0xFF
)

// Interface applicability masks
const (
	PwrIntfSDIO = 1 << 0
	PwrIntfUSB  = 1 << 1
	PwrIntfPCI  = 1 << 2
	PwrIntfAll  = PwrIntfSDIO | PwrIntfUSB | PwrIntfPCI
)

// Delay units carried in Value of a CmdDelay
const (
	DelayUS = 0
	DelayMS = 1
)

// Polling budget
const (
	pollAttempts = 20000
	pollInterval = 50 * time.Microsecond
)

// PowerSeqCmd is one step of a power sequence table
type PowerSeqCmd struct {
	Offset   uint16
	CutMask  uint8
	IntfMask uint8
	Base     AddrSpace
	Cmd      PowerSeqOp
	Mask     uint8
	Value    uint8
}

// PowerSeqResult summarizes an interpreter run
type PowerSeqResult struct {
	Executed     int `json:"executed"`
	Skipped      int `json:"skipped"`
	PollTimeouts int `json:"poll_timeouts"`
}

func (r *PowerSeqResult) add(o PowerSeqResult) {
	r.Executed += o.Executed
	r.Skipped += o.Skipped
	r.PollTimeouts += o.PollTimeouts
}

func cutMask(c Cut) uint8 { return 1 << (c + 1) }

func intfMask(h HCI) uint8 {
	switch h {
	case HCIUSB:
		return PwrIntfUSB
	case HCISDIO:
		return PwrIntfSDIO
	}
	return PwrIntfPCI
}

// PowerSequencer runs power sequence tables against a bus
type PowerSequencer struct {
	Bus     Bus
	Sleeper Sleeper
	Cut     Cut
	HCI     HCI
	Logger  *slog.Logger
}

// Run executes each sub-table of flow in order until its CmdEnd
func (s *PowerSequencer) Run(ctx context.Context, flow [][]PowerSeqCmd) PowerSeqResult {
	var total PowerSeqResult
	for _, seq := range flow {
		total.add(s.runOne(ctx, seq))
	}
	return total
}

func (s *PowerSequencer) runOne(ctx context.Context, seq []PowerSeqCmd) PowerSeqResult {
	var res PowerSeqResult
	cm, im := cutMask(s.Cut), intfMask(s.HCI)

	for _, cmd := range seq {
		if cmd.Cmd == CmdEnd {
			break
		}
		if cmd.CutMask&cm == 0 || cmd.IntfMask&im == 0 {
			res.Skipped++
			continue
		}
		res.Executed++

		addr := uint32(cmd.Offset)
		if cmd.Base == AddrSDIO {
			addr |= SDIOLocalOffset
		}

		switch cmd.Cmd {
		case CmdWrite:
			v := s.Bus.Read8(addr)
			v = v&^cmd.Mask | cmd.Value&cmd.Mask
			s.Bus.Write8(addr, v)
		case CmdPolling:
			if !s.poll(addr, cmd.Mask, cmd.Value) {
				res.PollTimeouts++
				s.logger().WarnContext(ctx, "Power sequence poll timed out",
					"offset", fmt.Sprintf("0x%04X", cmd.Offset),
					"mask", fmt.Sprintf("0x%02X", cmd.Mask),
					"value", fmt.Sprintf("0x%02X", cmd.Value))
			}
		case CmdDelay:
			if cmd.Value == DelayUS {
				s.Sleeper.Sleep(time.Duration(cmd.Offset) * time.Microsecond)
			} else {
				s.Sleeper.Sleep(time.Duration(cmd.Offset) * time.Millisecond)
			}
		}
	}
	return res
}

// poll waits for (reg & mask) == (value & mask). On PCIe the first exhausted
// budget pulses REG_SYS_PW_CTRL bit 3 and tries once more.
func (s *PowerSequencer) poll(addr uint32, mask, value uint8) bool {
	retried := false
	for {
		for i := 0; i < pollAttempts; i++ {
			if s.Bus.Read8(addr)&mask == value&mask {
				return true
			}
			s.Sleeper.Sleep(pollInterval)
		}

		if s.HCI != HCIPCIe || retried {
			return false
		}
		retried = true
		v := s.Bus.Read8(RegSysPwCtrl)
		s.Bus.Write8(RegSysPwCtrl, v|BitSysPwCtrlPFM)
		s.Bus.Write8(RegSysPwCtrl, v&^BitSysPwCtrlPFM)
	}
}

func (s *PowerSequencer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (d *Device) sequencer() *PowerSequencer {
	return &PowerSequencer{
		Bus:     d.bus,
		Sleeper: d.cfg.Sleeper,
		Cut:     d.cfg.Cut,
		HCI:     d.cfg.HCI,
		Logger:  d.log,
	}
}

// PowerOn runs the card enable flow (card-disabled to active)
func (d *Device) PowerOn(ctx context.Context) (PowerSeqResult, error) {
	d.beginOp()
	res := d.sequencer().Run(ctx, CardEnableFlow)
	d.log.InfoContext(ctx, "Power on sequence complete",
		"executed", res.Executed, "skipped", res.Skipped, "poll_timeouts", res.PollTimeouts)
	return res, d.busErr("power on")
}

// PowerOff runs the card disable flow (active to card-disabled)
func (d *Device) PowerOff(ctx context.Context) (PowerSeqResult, error) {
	d.beginOp()
	res := d.sequencer().Run(ctx, CardDisableFlow)
	d.log.InfoContext(ctx, "Power off sequence complete",
		"executed", res.Executed, "skipped", res.Skipped, "poll_timeouts", res.PollTimeouts)
	return res, d.busErr("power off")
}
