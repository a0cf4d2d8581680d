package plugins

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/linht/rfe-manager/internal/bus"
	"github.com/linht/rfe-manager/internal/chipen"
	"github.com/linht/rfe-manager/rtw8822b"
)

// Bus kinds
const (
	BusSim  = "sim"
	BusSPI  = "spi"
	BusMMIO = "mmio"
)

// RadioConfig holds the radio plugin configuration
type RadioConfig struct {
	Bus       string `yaml:"bus"`
	SPIDevice string `yaml:"spi_device"`
	SPISpeed  uint32 `yaml:"spi_speed"`
	MMIOBase  uint64 `yaml:"mmio_base"`
	MMIOSize  int    `yaml:"mmio_size"`
	GPIOChip  string `yaml:"gpio_chip"`
	ChipEnPin int    `yaml:"chip_en_pin"` // -1 disables PDn control

	HCI          string `yaml:"hci"`
	Cut          string `yaml:"cut"`
	RFEOption    int    `yaml:"rfe_option"` // -1 takes the efuse value
	EfusePath    string `yaml:"efuse_path"`
	MPMode       bool   `yaml:"mp_mode"`
	RF1T1R       bool   `yaml:"rf_1t1r"`
	InterfacePHY string `yaml:"interface_phy"`

	Channel      int    `yaml:"channel"`
	Bandwidth    int    `yaml:"bandwidth"`
	PrimaryIndex int    `yaml:"primary_index"`
	AntennaTx    string `yaml:"antenna_tx"`
	AntennaRx    string `yaml:"antenna_rx"`

	StreamInterval time.Duration `yaml:"stream_interval"`

	// Sleeper overrides the HAL poll sleeper
	Sleeper rtw8822b.Sleeper `yaml:"-"`
}

// RadioStatus is the payload of GET /api/radio/status
type RadioStatus struct {
	rtw8822b.State
	Open      bool                 `json:"open"`
	PoweredOn bool                 `json:"powered_on"`
	Bus       string               `json:"bus"`
	BusInfo   string               `json:"bus_info,omitempty"`
	ChipEn    string               `json:"chip_en,omitempty"`
	ChipEnOn  *bool                `json:"chip_en_on,omitempty"`
	LastIQK   *rtw8822b.IQKResult  `json:"last_iqk,omitempty"`
	LastFA    *rtw8822b.FalseAlarm `json:"false_alarm,omitempty"`
}

// RadioPlugin drives one RTL8822B through the rtw8822b HAL. Device access is
// serialized by mu; the bus is opened on first use and held until Shutdown.
type RadioPlugin struct {
	config    RadioConfig
	collector *RadioCollector

	mu        sync.Mutex
	dev       *rtw8822b.Device
	sim       *rtw8822b.SimChip
	efuse     *rtw8822b.Efuse
	closer    io.Closer
	chipEn    *chipen.Line
	poweredOn bool
	lastIQK   *rtw8822b.IQKResult
	lastFA    *rtw8822b.FalseAlarm
	lastFAErr string
	lastRx    *rtw8822b.PktStat

	// streams share one false alarm sampler, running while any stream is open
	streamsMu   sync.Mutex
	streams     map[string]chan struct{}
	samplerStop chan struct{}
}

// NewRadioPlugin creates a new radio plugin instance
func NewRadioPlugin(cfg RadioConfig, collector *RadioCollector) (*RadioPlugin, error) {
	if cfg.Bus == "" {
		cfg.Bus = BusSim
	}
	switch cfg.Bus {
	case BusSim, BusSPI, BusMMIO:
	default:
		return nil, fmt.Errorf("unknown radio bus %q", cfg.Bus)
	}
	if cfg.Bus == BusSPI {
		if cfg.SPIDevice == "" {
			return nil, fmt.Errorf("spi_device is required for the spi bus")
		}
		if err := bus.ValidateSPIDevice(cfg.SPIDevice); err != nil {
			return nil, err
		}
	}
	if cfg.Bus == BusMMIO && (cfg.MMIOBase == 0 || cfg.MMIOSize <= 0) {
		return nil, fmt.Errorf("mmio_base and mmio_size are required for the mmio bus")
	}
	if cfg.SPISpeed == 0 {
		cfg.SPISpeed = 10000000 // Default 10 MHz
	}
	if cfg.Cut == "" {
		cfg.Cut = "C"
	}
	if cfg.Channel == 0 {
		cfg.Channel = 1
	}
	if cfg.Bandwidth == 0 {
		cfg.Bandwidth = 20
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = time.Second
	}

	slog.Info("Radio plugin initializing",
		"bus", cfg.Bus,
		"hci", cfg.HCI,
		"cut", cfg.Cut,
		"rfe_option", cfg.RFEOption,
		"efuse_path", cfg.EfusePath)

	return &RadioPlugin{
		config:    cfg,
		collector: collector,
		streams:   make(map[string]chan struct{}),
	}, nil
}

// Name returns the plugin identifier
func (p *RadioPlugin) Name() string {
	return "radio"
}

// RegisterRoutes adds the plugin's HTTP routes
func (p *RadioPlugin) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/radio")

	// Bring-up
	api.Post("/power", p.handlePower)
	api.Post("/interface-phy", p.handleInterfacePHY)
	api.Post("/mac-init", p.handleMACInit)
	api.Post("/phy-init", p.handlePHYInit)
	api.Post("/bringup", p.handleBringup)
	api.Post("/close", p.handleClose)

	// RF front-end
	api.Post("/channel", p.handleSetChannel)
	api.Post("/antenna", p.handleSetAntenna)
	api.Post("/iqk", p.handleIQK)
	api.Post("/txpower", p.handleTxPower)
	api.Post("/ldo25", p.handleLDO25)

	// Diagnostics
	api.Get("/status", p.handleStatus)
	api.Get("/rfe", p.handleRFE)
	api.Get("/channels", p.handleChannels)
	api.Get("/rates", p.handleRates)
	api.Get("/efuse", p.handleEfuse)
	api.Get("/false-alarm", p.handleFalseAlarm)
	api.Post("/rx-desc", p.handleRxDesc)
	api.Get("/registers", p.handleReadAllRegisters)
	api.Get("/reg/:addr", p.handleReadRegister)
	api.Post("/reg/:addr", p.handleWriteRegister)
	api.Get("/ws", p.streamHandler())

	slog.Info("Radio plugin routes registered")
}

// Shutdown stops all streams and releases the bus
func (p *RadioPlugin) Shutdown() error {
	p.streamsMu.Lock()
	for id, done := range p.streams {
		close(done)
		delete(p.streams, id)
	}
	p.stopSamplerUnsafe()
	p.streamsMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeUnsafe()
}

// open builds the Device on the configured bus. Caller holds mu.
func (p *RadioPlugin) open() error {
	if p.dev != nil {
		return nil
	}
	cfg := p.config

	hci, err := rtw8822b.ParseHCI(cfg.HCI)
	if err != nil {
		return err
	}
	cut, err := rtw8822b.ParseCut(cfg.Cut)
	if err != nil {
		return err
	}

	opts := []rtw8822b.Option{
		rtw8822b.WithLogger(slog.Default()),
		rtw8822b.WithHCI(hci),
		rtw8822b.WithCut(cut),
		rtw8822b.WithMPMode(cfg.MPMode),
	}

	var efuse *rtw8822b.Efuse
	if cfg.EfusePath != "" {
		data, err := os.ReadFile(cfg.EfusePath)
		if err != nil {
			return fmt.Errorf("failed to read efuse map: %w", err)
		}
		efuse, err = rtw8822b.ParseEfuse(data, hci)
		if efuse == nil {
			return fmt.Errorf("failed to parse efuse map: %w", err)
		}
		if err != nil {
			slog.Warn("Efuse map partially parsed", "path", cfg.EfusePath, "error", err)
		}
		opts = append(opts, rtw8822b.WithEfuse(efuse))
	}
	if cfg.RFEOption >= 0 {
		opts = append(opts, rtw8822b.WithRFEOption(uint8(cfg.RFEOption)))
	}
	if cfg.RF1T1R {
		opts = append(opts, rtw8822b.WithRF1T1R())
	}
	if cfg.Sleeper != nil {
		opts = append(opts, rtw8822b.WithSleeper(cfg.Sleeper))
	}
	if cfg.AntennaTx != "" || cfg.AntennaRx != "" {
		tx, rx, err := parseAntenna(cfg.AntennaTx, cfg.AntennaRx)
		if err != nil {
			return err
		}
		opts = append(opts, rtw8822b.WithAntenna(tx, rx))
	}

	var (
		regs   rtw8822b.Bus
		closer io.Closer
		sim    *rtw8822b.SimChip
	)
	switch cfg.Bus {
	case BusSPI:
		s, err := bus.NewSPI(cfg.SPIDevice, cfg.SPISpeed)
		if err != nil {
			return err
		}
		regs, closer = s, s
	case BusMMIO:
		m, err := bus.NewMMIO(cfg.MMIOBase, cfg.MMIOSize)
		if err != nil {
			return err
		}
		regs, closer = m, m
	default:
		sim = rtw8822b.NewSimChip()
		sim.Mem.SetLogging(false)
		regs = sim.Mem
		opts = append(opts, sim.Options()...)
	}

	if cfg.GPIOChip != "" && cfg.ChipEnPin >= 0 {
		line, err := chipen.Open(cfg.GPIOChip, cfg.ChipEnPin)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return err
		}
		p.chipEn = line
	}

	p.dev = rtw8822b.New(regs, opts...)
	p.sim = sim
	p.efuse = efuse
	p.closer = closer
	p.collector.SetState(p.dev.State())

	slog.Info("Radio opened", "bus", cfg.Bus, "info", p.busInfo())
	return nil
}

// closeUnsafe releases the bus and chip-enable line. Caller holds mu.
func (p *RadioPlugin) closeUnsafe() error {
	var errs []error
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close bus: %w", err))
		}
		p.closer = nil
	}
	if p.chipEn != nil {
		if err := p.chipEn.Close(); err != nil {
			errs = append(errs, err)
		}
		p.chipEn = nil
	}
	p.dev = nil
	p.sim = nil
	p.poweredOn = false
	return errors.Join(errs...)
}

func (p *RadioPlugin) busInfo() string {
	if p.dev == nil {
		return ""
	}
	if di, ok := p.dev.Bus().(interface{ DeviceInfo() string }); ok {
		return di.DeviceInfo()
	}
	if p.sim != nil {
		return "simulated chip"
	}
	return ""
}

// withDevice runs fn against the open Device under the plugin lock, tagging
// the operation with an id for log correlation and recording metrics.
func (p *RadioPlugin) withDevice(ctx context.Context, op string, fn func(context.Context, *rtw8822b.Device) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.open(); err != nil {
		return fmt.Errorf("failed to open radio: %w", err)
	}

	opID := uuid.New().String()
	start := time.Now()
	slog.DebugContext(ctx, "Radio operation", "op", op, "op_id", opID)

	err := fn(ctx, p.dev)
	p.collector.ObserveOp(op, start, err)
	if err != nil {
		slog.ErrorContext(ctx, "Radio operation failed", "op", op, "op_id", opID, "error", err)
	}
	return err
}

func parseAntenna(tx, rx string) (rtw8822b.Path, rtw8822b.Path, error) {
	txPath, err := rtw8822b.ParsePath(tx)
	if err != nil {
		return 0, 0, fmt.Errorf("tx: %w", err)
	}
	rxPath, err := rtw8822b.ParsePath(rx)
	if err != nil {
		return 0, 0, fmt.Errorf("rx: %w", err)
	}
	return txPath, rxPath, nil
}

func channelRequest(channel, bandwidth, primary int) (rtw8822b.ChannelRequest, error) {
	if channel < 1 || channel > 255 {
		return rtw8822b.ChannelRequest{}, fmt.Errorf("channel %d out of range", channel)
	}
	if bandwidth == 0 {
		bandwidth = 20
	}
	bw, err := rtw8822b.BandwidthFromMHz(bandwidth)
	if err != nil {
		return rtw8822b.ChannelRequest{}, err
	}
	if primary < 0 || primary > 4 {
		return rtw8822b.ChannelRequest{}, fmt.Errorf("primary_index %d out of range", primary)
	}
	return rtw8822b.ChannelRequest{
		Channel:      uint8(channel),
		Bandwidth:    bw,
		PrimaryIndex: uint8(primary),
	}, nil
}

// Bring-up handlers

func (p *RadioPlugin) handlePower(c *fiber.Ctx) error {
	var req struct {
		On bool `json:"on"`
	}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}

	var result rtw8822b.PowerSeqResult
	err := p.withDevice(c.UserContext(), "power", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		if req.On {
			result, err = p.powerOn(ctx, dev)
		} else {
			result, err = dev.PowerOff(ctx)
			p.poweredOn = false
		}
		return err
	})
	if err != nil {
		return SendRadioError(c, err)
	}

	msg := "Radio powered off"
	if req.On {
		msg = "Radio powered on"
	}
	return SendSuccess(c, result, msg)
}

// powerOn releases PDn when wired and runs the power-on flow. Caller holds mu.
func (p *RadioPlugin) powerOn(ctx context.Context, dev *rtw8822b.Device) (rtw8822b.PowerSeqResult, error) {
	if p.chipEn != nil {
		if err := p.chipEn.Cycle(); err != nil {
			return rtw8822b.PowerSeqResult{}, err
		}
	}
	result, err := dev.PowerOn(ctx)
	if err == nil {
		p.poweredOn = true
	}
	return result, err
}

func (p *RadioPlugin) handleInterfacePHY(c *fiber.Ctx) error {
	var req struct {
		Gen string `json:"gen"`
	}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	gen, err := rtw8822b.ParseInterfacePHYGen(req.Gen)
	if err != nil {
		return SendError(c, 400, err)
	}

	var n int
	err = p.withDevice(c.UserContext(), "interface_phy", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		n, err = dev.ConfigInterfacePHY(ctx, gen)
		return err
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, fiber.Map{"gen": gen.String(), "entries": n}, "Interface PHY configured")
}

func (p *RadioPlugin) handleMACInit(c *fiber.Ctx) error {
	err := p.withDevice(c.UserContext(), "mac_init", func(ctx context.Context, dev *rtw8822b.Device) error {
		return dev.MACInit(ctx)
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, nil, "MAC initialized")
}

func (p *RadioPlugin) handlePHYInit(c *fiber.Ctx) error {
	err := p.withDevice(c.UserContext(), "phy_init", func(ctx context.Context, dev *rtw8822b.Device) error {
		return dev.PhySetParam(ctx)
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, nil, "PHY parameters applied")
}

// BringupReport lists what a full bring-up did
type BringupReport struct {
	Power        rtw8822b.PowerSeqResult `json:"power"`
	InterfacePHY int                     `json:"interface_phy_entries"`
	State        rtw8822b.State          `json:"state"`
	IQK          rtw8822b.IQKResult      `json:"iqk"`
}

// Bringup runs power-on, interface PHY, MAC init, PHY setup, the configured
// default channel and an IQK pass
func (p *RadioPlugin) Bringup(ctx context.Context) (BringupReport, error) {
	var rep BringupReport
	cfg := p.config

	req, err := channelRequest(cfg.Channel, cfg.Bandwidth, cfg.PrimaryIndex)
	if err != nil {
		return rep, err
	}

	err = p.withDevice(ctx, "bringup", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		if rep.Power, err = p.powerOn(ctx, dev); err != nil {
			return fmt.Errorf("power on: %w", err)
		}
		if cfg.InterfacePHY != "" {
			gen, err := rtw8822b.ParseInterfacePHYGen(cfg.InterfacePHY)
			if err != nil {
				return err
			}
			if rep.InterfacePHY, err = dev.ConfigInterfacePHY(ctx, gen); err != nil {
				return fmt.Errorf("interface phy: %w", err)
			}
		}
		if err := dev.MACInit(ctx); err != nil {
			return fmt.Errorf("mac init: %w", err)
		}
		if err := dev.PhySetParam(ctx); err != nil {
			return fmt.Errorf("phy init: %w", err)
		}
		if err := dev.SetChannel(ctx, req); err != nil {
			return err
		}
		p.collector.ObserveChannel(dev.State())

		if rep.IQK, err = dev.DoIQK(ctx); err != nil {
			return fmt.Errorf("iqk: %w", err)
		}
		p.collector.ObserveIQK(rep.IQK)
		iqk := rep.IQK
		p.lastIQK = &iqk
		rep.State = dev.State()
		return nil
	})
	return rep, err
}

func (p *RadioPlugin) handleBringup(c *fiber.Ctx) error {
	rep, err := p.Bringup(c.UserContext())
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, rep, "Radio brought up")
}

func (p *RadioPlugin) handleClose(c *fiber.Ctx) error {
	p.mu.Lock()
	err := p.closeUnsafe()
	p.mu.Unlock()
	if err != nil {
		slog.Error("Failed to close radio", "error", err)
		return SendError(c, 500, err)
	}
	return SendSuccess(c, nil, "Radio closed")
}

// RF front-end handlers

func (p *RadioPlugin) handleSetChannel(c *fiber.Ctx) error {
	var body struct {
		Channel      int `json:"channel"`
		Bandwidth    int `json:"bandwidth"`
		PrimaryIndex int `json:"primary_index"`
	}
	if err := c.BodyParser(&body); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	req, err := channelRequest(body.Channel, body.Bandwidth, body.PrimaryIndex)
	if err != nil {
		return SendError(c, 400, err)
	}

	var st rtw8822b.State
	err = p.withDevice(c.UserContext(), "set_channel", func(ctx context.Context, dev *rtw8822b.Device) error {
		if err := dev.SetChannel(ctx, req); err != nil {
			return err
		}
		st = dev.State()
		p.collector.ObserveChannel(st)
		return nil
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, st, fmt.Sprintf("Channel set to %d", req.Channel))
}

func (p *RadioPlugin) handleSetAntenna(c *fiber.Ctx) error {
	var req struct {
		Tx string `json:"tx"`
		Rx string `json:"rx"`
	}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	tx, rx, err := parseAntenna(req.Tx, req.Rx)
	if err != nil {
		return SendError(c, 400, err)
	}

	var st rtw8822b.State
	err = p.withDevice(c.UserContext(), "set_antenna", func(ctx context.Context, dev *rtw8822b.Device) error {
		if err := dev.SetAntenna(ctx, tx, rx); err != nil {
			return err
		}
		st = dev.State()
		return nil
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, st, "Antenna paths set")
}

func (p *RadioPlugin) handleIQK(c *fiber.Ctx) error {
	var res rtw8822b.IQKResult
	err := p.withDevice(c.UserContext(), "iqk", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		if res, err = dev.DoIQK(ctx); err != nil {
			return err
		}
		p.collector.ObserveIQK(res)
		iqk := res
		p.lastIQK = &iqk
		return nil
	})
	if err != nil {
		return SendRadioError(c, err)
	}

	msg := "IQK complete"
	if res.TimedOut {
		msg = "IQK timed out, report cleared"
	}
	return SendSuccess(c, res, msg)
}

// TxPowerRequest carries a power index table as path -> rate name -> index.
// Rates not listed take Default.
type TxPowerRequest struct {
	Default int                       `json:"default" yaml:"default"`
	Table   map[string]map[string]int `json:"table" yaml:"table"`
}

// Build converts the request into a TxPowerTable
func (r TxPowerRequest) Build() (*rtw8822b.TxPowerTable, error) {
	if r.Default < 0 || r.Default > 0x7f {
		return nil, fmt.Errorf("default index %d out of range", r.Default)
	}

	var tbl rtw8822b.TxPowerTable
	for path := range tbl {
		for rate := range tbl[path] {
			tbl[path][rate] = uint8(r.Default)
		}
	}

	for pathName, rates := range r.Table {
		path, err := rtw8822b.ParsePath(pathName)
		if err != nil || path == rtw8822b.PathAB {
			return nil, fmt.Errorf("invalid tx power path %q", pathName)
		}
		idx := 0
		if path == rtw8822b.PathB {
			idx = 1
		}
		for rateName, v := range rates {
			rate, err := rtw8822b.ParseRate(rateName)
			if err != nil {
				return nil, err
			}
			if v < 0 || v > 0x7f {
				return nil, fmt.Errorf("index %d for %s out of range", v, rateName)
			}
			tbl[idx][rate] = uint8(v)
		}
	}
	return &tbl, nil
}

func (p *RadioPlugin) handleTxPower(c *fiber.Ctx) error {
	var req TxPowerRequest
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	tbl, err := req.Build()
	if err != nil {
		return SendError(c, 400, err)
	}

	err = p.withDevice(c.UserContext(), "tx_power", func(ctx context.Context, dev *rtw8822b.Device) error {
		return dev.SetTxPowerIndex(ctx, tbl)
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, nil, "TX power index programmed")
}

func (p *RadioPlugin) handleLDO25(c *fiber.Ctx) error {
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}

	err := p.withDevice(c.UserContext(), "ldo25", func(ctx context.Context, dev *rtw8822b.Device) error {
		return dev.CfgLDO25(ctx, req.Enable)
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, fiber.Map{"enabled": req.Enable}, "LDO25 updated")
}

// Diagnostics handlers

func (p *RadioPlugin) status() RadioStatus {
	st := RadioStatus{
		Open:      p.dev != nil,
		PoweredOn: p.poweredOn,
		Bus:       p.config.Bus,
		BusInfo:   p.busInfo(),
		LastIQK:   p.lastIQK,
		LastFA:    p.lastFA,
	}
	if p.dev != nil {
		st.State = p.dev.State()
	}
	if p.chipEn != nil {
		st.ChipEn = p.chipEn.Info()
		if on, err := p.chipEn.Enabled(); err == nil {
			st.ChipEnOn = &on
		} else {
			slog.Warn("Failed to read chip-enable line", "error", err)
		}
	}
	return st
}

func (p *RadioPlugin) handleStatus(c *fiber.Ctx) error {
	p.mu.Lock()
	st := p.status()
	p.mu.Unlock()
	return SendSuccess(c, st, "")
}

func rfeJSON(option uint8, info rtw8822b.RFEInfo) fiber.Map {
	return fiber.Map{
		"option":    option,
		"fem":       info.FEM.String(),
		"switch":    info.Switch.String(),
		"ifem_ext":  info.IFEMExt,
		"cca_2g":    info.CCA2G != nil,
		"cca_5g":    info.CCA5G != nil,
		"supported": true,
	}
}

func (p *RadioPlugin) handleRFE(c *fiber.Ctx) error {
	options := make([]fiber.Map, 0)
	for _, opt := range rtw8822b.RFEOptions() {
		info, _ := rtw8822b.LookupRFE(opt)
		options = append(options, rfeJSON(opt, info))
	}

	data := fiber.Map{"options": options}

	p.mu.Lock()
	if p.dev != nil {
		current := p.dev.State().RFEOption
		if info, err := rtw8822b.LookupRFE(current); err == nil {
			data["current"] = rfeJSON(current, info)
		} else {
			data["current"] = fiber.Map{"option": current, "supported": false, "error": err.Error()}
		}
	}
	p.mu.Unlock()

	return SendSuccess(c, data, "")
}

func (p *RadioPlugin) handleChannels(c *fiber.Ctx) error {
	subBands := make([]fiber.Map, 0)
	for _, sb := range rtw8822b.SubBands() {
		subBands = append(subBands, fiber.Map{"name": sb.Name, "first": sb.First, "last": sb.Last})
	}
	return SendSuccess(c, fiber.Map{
		"channels":  rtw8822b.SupportedChannels(),
		"sub_bands": subBands,
	}, "")
}

func (p *RadioPlugin) handleRates(c *fiber.Ctx) error {
	sections := make([]fiber.Map, 0, len(rtw8822b.RateSections))
	for _, rs := range rtw8822b.RateSections {
		names := make([]string, len(rs.Rates))
		for i, r := range rs.Rates {
			names[i] = rtw8822b.RateName(r)
		}
		sections = append(sections, fiber.Map{"name": rs.Name, "rates": names})
	}
	return SendSuccess(c, sections, "")
}

func (p *RadioPlugin) handleEfuse(c *fiber.Ctx) error {
	p.mu.Lock()
	err := p.open()
	efuse := p.efuse
	p.mu.Unlock()

	if err != nil {
		return SendError(c, 500, err)
	}
	if efuse == nil {
		return SendErrorMessage(c, 404, "No efuse map configured")
	}
	return SendSuccess(c, efuse, "")
}

// readFalseAlarm samples and resets the counters. Caller holds mu.
func (p *RadioPlugin) readFalseAlarm(ctx context.Context, dev *rtw8822b.Device) (rtw8822b.FalseAlarm, error) {
	fa, err := dev.FalseAlarmStatistics(ctx)
	if err != nil {
		return fa, err
	}
	p.collector.SetFalseAlarm(fa)
	p.lastFA = &fa
	return fa, nil
}

func (p *RadioPlugin) handleFalseAlarm(c *fiber.Ctx) error {
	// Reading resets the counters, so defer to the stream sampler while it runs
	if p.samplerActive() {
		p.mu.Lock()
		fa, errMsg := p.lastFA, p.lastFAErr
		p.mu.Unlock()
		if errMsg != "" {
			return SendErrorMessage(c, 500, errMsg)
		}
		if fa == nil {
			return SendSuccess(c, rtw8822b.FalseAlarm{}, "No sample yet")
		}
		return SendSuccess(c, *fa, "Sampled by stream")
	}

	var fa rtw8822b.FalseAlarm
	err := p.withDevice(c.UserContext(), "false_alarm", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		fa, err = p.readFalseAlarm(ctx, dev)
		return err
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, fa, "")
}

func (p *RadioPlugin) handleRxDesc(c *fiber.Ctx) error {
	var req struct {
		Hex string `json:"hex"`
	}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(req.Hex), ""))
	if err != nil {
		return SendErrorMessage(c, 400, "Invalid hex payload")
	}

	var st rtw8822b.PktStat
	err = p.withDevice(c.UserContext(), "rx_desc", func(ctx context.Context, dev *rtw8822b.Device) error {
		var err error
		if st, err = dev.DecodeRx(ctx, raw); err != nil {
			return err
		}
		pkt := st
		p.lastRx = &pkt
		return nil
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, st, "")
}

// ProfileReport lists the steps ApplyProfile performed
type ProfileReport struct {
	Steps []string            `json:"steps"`
	State rtw8822b.State      `json:"state"`
	IQK   *rtw8822b.IQKResult `json:"iqk,omitempty"`
}

// ApplyProfile programs a radio profile: antenna, channel, LDO25, TX power
// and optionally an IQK pass. The profile is validated before any register
// write.
func (p *RadioPlugin) ApplyProfile(ctx context.Context, prof RadioProfile) (ProfileReport, error) {
	var rep ProfileReport
	if err := prof.Validate(); err != nil {
		return rep, err
	}

	var (
		tx, rx  rtw8822b.Path
		hasAnt  = prof.AntennaTx != "" || prof.AntennaRx != ""
		req     rtw8822b.ChannelRequest
		hasChan = prof.Channel != 0
		tbl     *rtw8822b.TxPowerTable
		err     error
	)
	if hasAnt {
		if tx, rx, err = parseAntenna(prof.AntennaTx, prof.AntennaRx); err != nil {
			return rep, err
		}
	}
	if hasChan {
		if req, err = channelRequest(prof.Channel, prof.Bandwidth, prof.PrimaryIndex); err != nil {
			return rep, err
		}
	}
	if prof.TxPower != nil {
		if tbl, err = prof.TxPower.Build(); err != nil {
			return rep, err
		}
	}

	err = p.withDevice(ctx, "apply_profile", func(ctx context.Context, dev *rtw8822b.Device) error {
		if hasAnt {
			if err := dev.SetAntenna(ctx, tx, rx); err != nil {
				return fmt.Errorf("antenna: %w", err)
			}
			rep.Steps = append(rep.Steps, "antenna")
		}
		if hasChan {
			if err := dev.SetChannel(ctx, req); err != nil {
				return err
			}
			p.collector.ObserveChannel(dev.State())
			rep.Steps = append(rep.Steps, "channel")
		}
		if prof.LDO25 != nil {
			if err := dev.CfgLDO25(ctx, *prof.LDO25); err != nil {
				return fmt.Errorf("ldo25: %w", err)
			}
			rep.Steps = append(rep.Steps, "ldo25")
		}
		if tbl != nil {
			if err := dev.SetTxPowerIndex(ctx, tbl); err != nil {
				return fmt.Errorf("tx power: %w", err)
			}
			rep.Steps = append(rep.Steps, "txpower")
		}
		if prof.IQK {
			res, err := dev.DoIQK(ctx)
			if err != nil {
				return fmt.Errorf("iqk: %w", err)
			}
			p.collector.ObserveIQK(res)
			p.lastIQK = &res
			rep.IQK = &res
			rep.Steps = append(rep.Steps, "iqk")
		}
		rep.State = dev.State()
		return nil
	})
	return rep, err
}

// Register the plugin
func init() {
	Register("radio", func(config interface{}) (Plugin, error) {
		configMap, ok := config.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid config for radio plugin")
		}

		cfg := RadioConfig{RFEOption: -1, ChipEnPin: -1}
		cfg.Bus, _ = configMap["bus"].(string)
		cfg.SPIDevice, _ = configMap["spi_device"].(string)
		cfg.GPIOChip, _ = configMap["gpio_chip"].(string)
		cfg.HCI, _ = configMap["hci"].(string)
		cfg.Cut, _ = configMap["cut"].(string)
		cfg.EfusePath, _ = configMap["efuse_path"].(string)
		cfg.MPMode, _ = configMap["mp_mode"].(bool)
		cfg.RF1T1R, _ = configMap["rf_1t1r"].(bool)
		cfg.InterfacePHY, _ = configMap["interface_phy"].(string)
		cfg.AntennaTx, _ = configMap["antenna_tx"].(string)
		cfg.AntennaRx, _ = configMap["antenna_rx"].(string)

		if v, ok := configInt(configMap, "spi_speed"); ok {
			cfg.SPISpeed = uint32(v)
		}
		if v, ok := configInt(configMap, "mmio_base"); ok {
			cfg.MMIOBase = uint64(v)
		}
		if v, ok := configInt(configMap, "mmio_size"); ok {
			cfg.MMIOSize = int(v)
		}
		if v, ok := configInt(configMap, "chip_en_pin"); ok {
			cfg.ChipEnPin = int(v)
		}
		if v, ok := configInt(configMap, "rfe_option"); ok {
			cfg.RFEOption = int(v)
		}
		if v, ok := configInt(configMap, "channel"); ok {
			cfg.Channel = int(v)
		}
		if v, ok := configInt(configMap, "bandwidth"); ok {
			cfg.Bandwidth = int(v)
		}
		if v, ok := configInt(configMap, "primary_index"); ok {
			cfg.PrimaryIndex = int(v)
		}
		if v, ok := configInt(configMap, "stream_interval_ms"); ok {
			cfg.StreamInterval = time.Duration(v) * time.Millisecond
		}

		collector, err := NewRadioCollector(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to register radio metrics: %w", err)
		}
		return NewRadioPlugin(cfg, collector)
	})
}

// configInt reads an integer config value whatever numeric type the decoder produced
func configInt(m map[string]interface{}, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
