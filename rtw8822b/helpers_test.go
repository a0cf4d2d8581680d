package rtw8822b

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/linht/rfe-manager/internal/bus"
)

type countingSleeper struct {
	calls int
	total time.Duration
}

func (s *countingSleeper) Sleep(d time.Duration) {
	s.calls++
	s.total += d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDevice builds a Device on a fresh simulated chip with a zero-delay sleeper
func newTestDevice(t *testing.T, opts ...Option) (*Device, *SimChip) {
	t.Helper()
	sim := NewSimChip()
	base := []Option{
		WithLogger(discardLogger()),
		WithSleeper(SleeperFunc(func(time.Duration) {})),
		WithRFEOption(5),
	}
	base = append(base, sim.Options()...)
	return New(sim.Mem, append(base, opts...)...), sim
}

type sipiWrite struct {
	path RFPath
	addr uint32
	data uint32
}

// sipiWrites extracts RF writes from the bus log in order
func sipiWrites(m *bus.Mem) []sipiWrite {
	var out []sipiWrite
	for _, op := range m.Writes() {
		if op.Width != 4 {
			continue
		}
		var path RFPath
		switch op.Addr {
		case RegSIPIA:
			path = RFPathA
		case RegSIPIB:
			path = RFPathB
		default:
			continue
		}
		addr, data := DecodeSIPI(op.Value)
		out = append(out, sipiWrite{path: path, addr: addr, data: data})
	}
	return out
}

func writesTo(m *bus.Mem, addr uint32) []bus.Op {
	var out []bus.Op
	for _, op := range m.Writes() {
		if op.Addr == addr {
			out = append(out, op)
		}
	}
	return out
}
