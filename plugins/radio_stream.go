package plugins

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/linht/rfe-manager/rtw8822b"
)

// Minimum period a client may ask for
const minStreamInterval = 100 * time.Millisecond

// StreamFrame is one update pushed on /api/radio/ws
type StreamFrame struct {
	StreamID   string               `json:"stream_id"`
	Seq        uint64               `json:"seq"`
	Time       time.Time            `json:"time"`
	Status     RadioStatus          `json:"status"`
	FalseAlarm *rtw8822b.FalseAlarm `json:"false_alarm,omitempty"`
	LastRx     *rtw8822b.PktStat    `json:"last_rx,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func (p *RadioPlugin) streamHandler() fiber.Handler {
	return websocket.New(p.handleStream)
}

// handleStream pushes a StreamFrame every interval until the client goes
// away or the plugin shuts down
func (p *RadioPlugin) handleStream(c *websocket.Conn) {
	interval := p.config.StreamInterval
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil {
		interval = time.Duration(ms) * time.Millisecond
		if interval < minStreamInterval {
			interval = minStreamInterval
		}
	}

	id, done := p.openStream()
	defer p.closeStream(id)
	slog.Info("Radio stream opened", "stream_id", id, "interval", interval)

	// Reader: the client sends nothing we use, but a read error means it left
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := uint64(0); ; seq++ {
		if err := c.WriteJSON(p.sample(context.Background(), id, seq)); err != nil {
			slog.Debug("Radio stream write failed", "stream_id", id, "error", err)
			return
		}

		select {
		case <-ticker.C:
		case <-done:
			return
		case <-gone:
			slog.Info("Radio stream closed by client", "stream_id", id)
			return
		}
	}
}

func (p *RadioPlugin) openStream() (string, chan struct{}) {
	id := uuid.New().String()
	done := make(chan struct{})

	p.streamsMu.Lock()
	p.streams[id] = done
	if p.samplerStop == nil {
		p.samplerStop = make(chan struct{})
		go p.runSampler(p.samplerStop)
	}
	p.streamsMu.Unlock()
	return id, done
}

func (p *RadioPlugin) closeStream(id string) {
	p.streamsMu.Lock()
	defer p.streamsMu.Unlock()
	if done, ok := p.streams[id]; ok {
		close(done)
		delete(p.streams, id)
	}
	if len(p.streams) == 0 {
		p.stopSamplerUnsafe()
	}
}

// stopSamplerUnsafe stops the shared sampler. Caller holds streamsMu.
func (p *RadioPlugin) stopSamplerUnsafe() {
	if p.samplerStop != nil {
		close(p.samplerStop)
		p.samplerStop = nil
	}
}

func (p *RadioPlugin) samplerActive() bool {
	p.streamsMu.Lock()
	defer p.streamsMu.Unlock()
	return p.samplerStop != nil
}

// runSampler reads the false alarm counters once per configured interval for
// all streams, so concurrent readers never reset each other's window
func (p *RadioPlugin) runSampler(stop chan struct{}) {
	ticker := time.NewTicker(p.config.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sampleFalseAlarm(context.Background())
		case <-stop:
			return
		}
	}
}

// sampleFalseAlarm reads (and resets) the counters into lastFA. The bus is
// never opened for this; a closed radio is skipped.
func (p *RadioPlugin) sampleFalseAlarm(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return
	}
	start := time.Now()
	_, err := p.readFalseAlarm(ctx, p.dev)
	p.collector.ObserveOp("false_alarm", start, err)
	p.lastFAErr = ""
	if err != nil {
		p.lastFAErr = err.Error()
	}
}

// sample builds one frame from the shared state without touching hardware
func (p *RadioPlugin) sample(_ context.Context, id string, seq uint64) StreamFrame {
	frame := StreamFrame{
		StreamID: id,
		Seq:      seq,
		Time:     time.Now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastFA != nil {
		fa := *p.lastFA
		frame.FalseAlarm = &fa
	}
	frame.Error = p.lastFAErr
	frame.Status = p.status()
	frame.LastRx = p.lastRx
	return frame
}
