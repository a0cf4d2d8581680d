package plugins

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/linht/rfe-manager/rtw8822b"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RadioCollector bundles the Prometheus metrics of the radio plugin.
type RadioCollector struct {
	gatherer prometheus.Gatherer

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Errors            *prometheus.CounterVec
	ChannelSwitches   *prometheus.CounterVec
	IQKIterations     prometheus.Histogram
	IQKTimeouts       prometheus.Counter
	FalseAlarms       *prometheus.GaugeVec
	Channel           prometheus.Gauge
	Bandwidth         prometheus.Gauge
}

// NewRadioCollector registers the radio metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice returns the existing
// collectors.
func NewRadioCollector(reg prometheus.Registerer) (*RadioCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ops, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw8822b_operations_total",
		Help: "Radio operations, labeled by operation and result.",
	}, []string{"op", "result"}), "rtw8822b_operations_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rtw8822b_operation_duration_seconds",
		Help:    "Radio operation latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"op"}), "rtw8822b_operation_duration_seconds")
	if err != nil {
		return nil, err
	}

	errs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw8822b_errors_total",
		Help: "Failed radio operations by error class.",
	}, []string{"class"}), "rtw8822b_errors_total")
	if err != nil {
		return nil, err
	}

	switches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw8822b_channel_switches_total",
		Help: "Completed channel switches by band.",
	}, []string{"band"}), "rtw8822b_channel_switches_total")
	if err != nil {
		return nil, err
	}

	iqkIter, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtw8822b_iqk_poll_iterations",
		Help:    "Completion polls per IQK run.",
		Buckets: []float64{1, 5, 10, 50, 100, 200, 300},
	}), "rtw8822b_iqk_poll_iterations")
	if err != nil {
		return nil, err
	}

	iqkTimeouts, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw8822b_iqk_timeouts_total",
		Help: "IQK runs that never reported completion.",
	}), "rtw8822b_iqk_timeouts_total")
	if err != nil {
		return nil, err
	}

	fa, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtw8822b_false_alarms",
		Help: "False alarm counts from the last statistics read.",
	}, []string{"kind"}), "rtw8822b_false_alarms")
	if err != nil {
		return nil, err
	}

	channel, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtw8822b_channel",
		Help: "Currently programmed channel number.",
	}), "rtw8822b_channel")
	if err != nil {
		return nil, err
	}

	bw, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtw8822b_bandwidth_mhz",
		Help: "Currently programmed channel width in MHz.",
	}), "rtw8822b_bandwidth_mhz")
	if err != nil {
		return nil, err
	}

	return &RadioCollector{
		gatherer:          gatherer,
		Operations:        ops,
		OperationDuration: durations,
		Errors:            errs,
		ChannelSwitches:   switches,
		IQKIterations:     iqkIter,
		IQKTimeouts:       iqkTimeouts,
		FalseAlarms:       fa,
		Channel:           channel,
		Bandwidth:         bw,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RadioCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveOp records one radio operation
func (c *RadioCollector) ObserveOp(op string, start time.Time, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		c.Errors.WithLabelValues(errorClass(err)).Inc()
	}
	c.Operations.WithLabelValues(op, result).Inc()
	c.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveChannel records a completed channel switch
func (c *RadioCollector) ObserveChannel(st rtw8822b.State) {
	if c == nil {
		return
	}
	band := "5g"
	if st.Channel <= 14 {
		band = "2g"
	}
	c.ChannelSwitches.WithLabelValues(band).Inc()
	c.SetState(st)
}

// SetState updates the channel gauges
func (c *RadioCollector) SetState(st rtw8822b.State) {
	if c == nil {
		return
	}
	c.Channel.Set(float64(st.Channel))
	c.Bandwidth.Set(float64(st.Bandwidth))
}

// ObserveIQK records an IQK run
func (c *RadioCollector) ObserveIQK(res rtw8822b.IQKResult) {
	if c == nil {
		return
	}
	c.IQKIterations.Observe(float64(res.Iterations))
	if res.TimedOut {
		c.IQKTimeouts.Inc()
	}
}

// SetFalseAlarm publishes the last false alarm read
func (c *RadioCollector) SetFalseAlarm(fa rtw8822b.FalseAlarm) {
	if c == nil {
		return
	}
	c.FalseAlarms.WithLabelValues("cck").Set(float64(fa.CCK))
	c.FalseAlarms.WithLabelValues("ofdm").Set(float64(fa.OFDM))
	c.FalseAlarms.WithLabelValues("total").Set(float64(fa.Total))
}

// errorClass maps a radio error onto a metrics label
func errorClass(err error) string {
	switch {
	case errors.Is(err, rtw8822b.ErrConfigIntegrity):
		return "config_integrity"
	case errors.Is(err, rtw8822b.ErrHandshakeTimeout):
		return "handshake_timeout"
	case errors.Is(err, rtw8822b.ErrUnrecognizedFormat), errors.Is(err, rtw8822b.ErrShortBuffer):
		return "format"
	case errors.Is(err, rtw8822b.ErrUnsupportedInterface):
		return "unsupported_interface"
	}
	return "other"
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

// MetricsPlugin serves the Prometheus scrape endpoint
type MetricsPlugin struct {
	collector *RadioCollector
	path      string
}

// NewMetricsPlugin creates a metrics plugin serving collector at path
func NewMetricsPlugin(collector *RadioCollector, path string) (*MetricsPlugin, error) {
	if path == "" {
		path = "/metrics"
	}
	return &MetricsPlugin{collector: collector, path: path}, nil
}

// Name returns the plugin identifier
func (p *MetricsPlugin) Name() string {
	return "metrics"
}

// RegisterRoutes adds the scrape endpoint outside /api so scrapers need no session
func (p *MetricsPlugin) RegisterRoutes(app *fiber.App) {
	app.Get(p.path, adaptor.HTTPHandler(p.collector.Handler()))
	slog.Info("Metrics endpoint registered", "path", p.path)
}

// Shutdown performs cleanup
func (p *MetricsPlugin) Shutdown() error {
	return nil
}

func init() {
	Register("metrics", func(config interface{}) (Plugin, error) {
		var path string
		if configMap, ok := config.(map[string]interface{}); ok {
			if v, ok := configMap["path"].(string); ok {
				path = v
			}
		}

		collector, err := NewRadioCollector(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to register radio metrics: %w", err)
		}
		return NewMetricsPlugin(collector, path)
	})
}
