package plugins

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linht/rfe-manager/rtw8822b"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRadioCollectorReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRadioCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewRadioCollector(reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}

	first.IQKTimeouts.Inc()
	if got := testutil.ToFloat64(second.IQKTimeouts); got != 1 {
		t.Errorf("collectors not shared: %v", got)
	}
}

func TestRadioCollectorObserve(t *testing.T) {
	col, err := NewRadioCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	col.ObserveOp("set_channel", time.Now(), nil)
	col.ObserveOp("set_channel", time.Now(), &rtw8822b.HandshakeTimeoutError{Stage: "rf mode lut"})
	col.ObserveChannel(rtw8822b.State{Channel: 6, Bandwidth: 20})
	col.ObserveIQK(rtw8822b.IQKResult{Iterations: 300, TimedOut: true})

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ok ops", col.Operations.WithLabelValues("set_channel", "ok"), 1},
		{"failed ops", col.Operations.WithLabelValues("set_channel", "error"), 1},
		{"handshake errors", col.Errors.WithLabelValues("handshake_timeout"), 1},
		{"2g switches", col.ChannelSwitches.WithLabelValues("2g"), 1},
		{"channel", col.Channel, 6},
		{"bandwidth", col.Bandwidth, 20},
		{"iqk timeouts", col.IQKTimeouts, 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}

	var nilCol *RadioCollector
	nilCol.ObserveOp("x", time.Now(), errors.New("ignored"))
	nilCol.SetFalseAlarm(rtw8822b.FalseAlarm{})
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&rtw8822b.RFEOptionError{Option: 1}, "config_integrity"},
		{fmt.Errorf("set channel: %w", &rtw8822b.ChannelError{Channel: 50}), "config_integrity"},
		{&rtw8822b.HandshakeTimeoutError{}, "handshake_timeout"},
		{rtw8822b.ErrShortBuffer, "format"},
		{&rtw8822b.PhyStatusPageError{}, "format"},
		{rtw8822b.ErrUnsupportedInterface, "unsupported_interface"},
		{errors.New("spi transfer failed"), "other"},
	}
	for _, tt := range tests {
		if got := errorClass(tt.err); got != tt.want {
			t.Errorf("errorClass(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	col, err := NewRadioCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	col.SetFalseAlarm(rtw8822b.FalseAlarm{CCK: 1, OFDM: 2, Total: 3})

	p, err := NewMetricsPlugin(col, "")
	if err != nil {
		t.Fatal(err)
	}
	app := fiber.New()
	p.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `rtw8822b_false_alarms{kind="total"} 3`) {
		t.Errorf("metrics body missing false alarm gauge:\n%s", body)
	}
}
