package rtw8822b

import (
	"log/slog"
	"time"
)

// Config holds the Device configuration.
type Config struct {
	// Logger receives structured diagnostics (optional, defaults to slog.Default)
	Logger *slog.Logger

	// Sleeper backs every bounded poll; tests inject a zero-delay sleeper
	Sleeper Sleeper

	// Collaborators. RF and MAC default to the register-level implementations.
	RF        RF
	MAC       MACChannelConfigurator
	Firmware  Firmware
	Tables    TableLoader
	USBWriter InterfacePHYWriter

	// Chip identity
	Cut       Cut
	HCI       HCI
	RF2T2R    bool
	RFEOption uint8

	// CrystalCap is the 6-bit crystal trim applied by PhySetParam
	CrystalCap uint8

	// MPMode enables factory test register codes for dual-path TX
	MPMode bool

	// Initial antenna paths
	AntennaTx Path
	AntennaRx Path
}

func defaultConfig() Config {
	return Config{
		Sleeper:   SleeperFunc(time.Sleep),
		Cut:       CutC,
		HCI:       HCIPCIe,
		RF2T2R:    true,
		AntennaTx: PathAB,
		AntennaRx: PathAB,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSleeper replaces time.Sleep for every poll loop.
//
// Example:
//
//	dev := rtw8822b.New(bus, rtw8822b.WithSleeper(rtw8822b.SleeperFunc(func(time.Duration) {})))
func WithSleeper(s Sleeper) Option {
	return func(c *Config) {
		c.Sleeper = s
	}
}

// WithRF sets the RF register accessor.
func WithRF(rf RF) Option {
	return func(c *Config) {
		c.RF = rf
	}
}

// WithMAC sets the MAC channel timing configurator.
func WithMAC(mac MACChannelConfigurator) Option {
	return func(c *Config) {
		c.MAC = mac
	}
}

// WithFirmware sets the firmware command channel used by DoIQK.
func WithFirmware(fw Firmware) Option {
	return func(c *Config) {
		c.Firmware = fw
	}
}

// WithTables sets the vendor table loader used by PhySetParam.
func WithTables(t TableLoader) Option {
	return func(c *Config) {
		c.Tables = t
	}
}

// WithUSBPHYWriter sets the USB PHY parameter writer.
func WithUSBPHYWriter(w InterfacePHYWriter) Option {
	return func(c *Config) {
		c.USBWriter = w
	}
}

// WithCut sets the silicon revision.
func WithCut(cut Cut) Option {
	return func(c *Config) {
		c.Cut = cut
	}
}

// WithHCI sets the host interface.
func WithHCI(hci HCI) Option {
	return func(c *Config) {
		c.HCI = hci
	}
}

// WithRFEOption sets the efuse front-end option.
func WithRFEOption(option uint8) Option {
	return func(c *Config) {
		c.RFEOption = option
	}
}

// WithRF1T1R marks a single-chain board; only path A RF registers are programmed.
func WithRF1T1R() Option {
	return func(c *Config) {
		c.RF2T2R = false
	}
}

// WithMPMode enables factory test (mass production) mode.
func WithMPMode(on bool) Option {
	return func(c *Config) {
		c.MPMode = on
	}
}

// WithAntenna sets the initial TX and RX paths. Invalid values become AB.
func WithAntenna(tx, rx Path) Option {
	return func(c *Config) {
		c.AntennaTx = normalizePath(tx)
		c.AntennaRx = normalizePath(rx)
	}
}

// WithEfuse takes the RFE option and crystal cap from a parsed efuse map.
func WithEfuse(e *Efuse) Option {
	return func(c *Config) {
		if e == nil {
			return
		}
		c.RFEOption = e.RFEOption
		c.CrystalCap = e.CrystalCap
	}
}
