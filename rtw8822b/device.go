// Package rtw8822b holds the RF front-end logic of the RTL8822B 802.11ac 2T2R
// chip: channel switching, RFE variant and CCA table selection, the power
// sequence interpreter, firmware-assisted IQ calibration, RX PHY status
// decoding and per-rate TX power index programming.
//
// A Device is not safe for concurrent use. Callers serialize access.
package rtw8822b

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Bus is an atomic 8/16/32-bit register accessor. Transports that can fail
// latch the first error and expose it through an Err() error method, which
// Device checks at the end of each public operation.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
}

// RFPath is the index of an RF chain
type RFPath uint8

const (
	RFPathA RFPath = iota
	RFPathB
)

// RF reads and writes RF synthesizer registers keyed by path, address and mask.
// Values are shifted to and from the mask's lowest set bit.
type RF interface {
	ReadRF(path RFPath, addr, mask uint32) uint32
	WriteRF(path RFPath, addr, mask, data uint32)
}

// MACChannelConfigurator updates MAC timing registers on a channel change
type MACChannelConfigurator interface {
	SetChannel(channel uint8, bw Bandwidth, primary uint8)
}

// IQKParams is the firmware IQ calibration request
type IQKParams struct {
	Clear   bool
	Segment bool
}

// Firmware submits commands to the on-chip firmware
type Firmware interface {
	DoIQK(ctx context.Context, p IQKParams) error
}

// Sleeper blocks for a bounded duration
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(time.Duration)

func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// TableLoader applies the vendor MAC/BB/AGC/RF coefficient tables
type TableLoader interface {
	LoadTables(ctx context.Context) error
}

// InterfacePHYWriter writes USB PHY parameters; PCIe goes through the MDIO window
type InterfacePHYWriter interface {
	WriteUSBPHY(offset, value uint16) error
}

// Path is a bitmask of antenna paths
type Path uint8

const (
	PathA  Path = 1
	PathB  Path = 2
	PathAB Path = PathA | PathB
)

func (p Path) String() string {
	switch p {
	case PathA:
		return "A"
	case PathB:
		return "B"
	case PathAB:
		return "AB"
	}
	return fmt.Sprintf("Path(%d)", uint8(p))
}

// Valid reports whether p is one of A, B, AB
func (p Path) Valid() bool {
	return p == PathA || p == PathB || p == PathAB
}

func (p Path) single() bool { return p == PathA || p == PathB }

// Bandwidth is the channel width class
type Bandwidth uint8

const (
	BW20 Bandwidth = iota
	BW40
	BW80
	BW5
	BW10
)

// BandwidthFromMHz maps 5/10/20/40/80 to a Bandwidth
func BandwidthFromMHz(mhz int) (Bandwidth, error) {
	switch mhz {
	case 5:
		return BW5, nil
	case 10:
		return BW10, nil
	case 20:
		return BW20, nil
	case 40:
		return BW40, nil
	case 80:
		return BW80, nil
	}
	return 0, fmt.Errorf("unsupported bandwidth %d MHz", mhz)
}

// MHz returns the width in MHz
func (b Bandwidth) MHz() int {
	switch b {
	case BW5:
		return 5
	case BW10:
		return 10
	case BW40:
		return 40
	case BW80:
		return 80
	}
	return 20
}

func (b Bandwidth) String() string { return fmt.Sprintf("%dMHz", b.MHz()) }

// Cut is the silicon revision
type Cut uint8

const (
	CutA Cut = iota
	CutB
	CutC
	CutD
)

func (c Cut) String() string { return string(rune('A' + c)) }

// HCI is the host controller interface
type HCI uint8

const (
	HCIPCIe HCI = iota
	HCIUSB
	HCISDIO
)

func (h HCI) String() string {
	switch h {
	case HCIUSB:
		return "usb"
	case HCISDIO:
		return "sdio"
	}
	return "pcie"
}

// ParseHCI maps a config name to an HCI
func ParseHCI(name string) (HCI, error) {
	switch name {
	case "", "pcie", "pci":
		return HCIPCIe, nil
	case "usb":
		return HCIUSB, nil
	case "sdio":
		return HCISDIO, nil
	}
	return 0, fmt.Errorf("unknown host interface %q", name)
}

// ParsePath maps "A", "B" or "AB" (any case) to a Path
func ParsePath(name string) (Path, error) {
	switch strings.ToUpper(name) {
	case "A":
		return PathA, nil
	case "B":
		return PathB, nil
	case "AB":
		return PathAB, nil
	}
	return 0, fmt.Errorf("unknown antenna path %q", name)
}

// ParseCut maps a silicon revision letter to a Cut
func ParseCut(name string) (Cut, error) {
	if len(name) != 1 {
		return 0, fmt.Errorf("unknown cut %q", name)
	}
	c := strings.ToUpper(name)[0]
	if c < 'A' || c > 'D' {
		return 0, fmt.Errorf("unknown cut %q", name)
	}
	return Cut(c - 'A'), nil
}

// ChannelRequest is a channel switch request. Band, band-edge code and front-end
// variant are derived per call.
type ChannelRequest struct {
	Channel      uint8
	Bandwidth    Bandwidth
	PrimaryIndex uint8
}

// Device is the HAL state of one RTL8822B
type Device struct {
	bus Bus
	cfg Config
	log *slog.Logger

	antennaTx      Path
	antennaRx      Path
	currentChannel uint8
	currentBW      Bandwidth
	iqkRuns        int
}

// New creates a Device on bus. Unset collaborators default to the register-level
// implementations in this package (SIPI for RF, MACChannel for MAC timing).
func New(bus Bus, opts ...Option) *Device {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.RF == nil {
		cfg.RF = NewSIPI(bus)
	}
	if cfg.MAC == nil {
		cfg.MAC = NewMACChannel(bus)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Device{
		bus:            bus,
		cfg:            cfg,
		log:            cfg.Logger.With("chip", "rtw8822b"),
		antennaTx:      cfg.AntennaTx,
		antennaRx:      cfg.AntennaRx,
		currentChannel: 1,
		currentBW:      BW20,
	}
}

// State is a snapshot of the HAL fields
type State struct {
	Channel   uint8  `json:"channel"`
	Bandwidth int    `json:"bandwidth_mhz"`
	AntennaTx string `json:"antenna_tx"`
	AntennaRx string `json:"antenna_rx"`
	Cut       string `json:"cut"`
	HCI       string `json:"hci"`
	RFEOption uint8  `json:"rfe_option"`
	MPMode    bool   `json:"mp_mode"`
	RFType    string `json:"rf_type"`
}

// State returns the current HAL state
func (d *Device) State() State {
	rfType := "2T2R"
	if !d.cfg.RF2T2R {
		rfType = "1T1R"
	}
	return State{
		Channel:   d.currentChannel,
		Bandwidth: d.currentBW.MHz(),
		AntennaTx: d.antennaTx.String(),
		AntennaRx: d.antennaRx.String(),
		Cut:       d.cfg.Cut.String(),
		HCI:       d.cfg.HCI.String(),
		RFEOption: d.cfg.RFEOption,
		MPMode:    d.cfg.MPMode,
		RFType:    rfType,
	}
}

// Antenna returns the stored TX and RX paths
func (d *Device) Antenna() (tx, rx Path) { return d.antennaTx, d.antennaRx }

// Channel returns the last successfully programmed channel
func (d *Device) Channel() uint8 { return d.currentChannel }

// Bus returns the underlying register bus
func (d *Device) Bus() Bus { return d.bus }

// beginOp drops a transport error latched by an earlier operation so each
// public operation reports only its own transfers
func (d *Device) beginOp() {
	if c, ok := d.bus.(interface{ ClearErr() }); ok {
		c.ClearErr()
	}
}

// busErr surfaces a latched transport error, if the bus keeps one
func (d *Device) busErr(op string) error {
	if eb, ok := d.bus.(interface{ Err() error }); ok {
		if err := eb.Err(); err != nil {
			return fmt.Errorf("%s: bus error: %w", op, err)
		}
	}
	return nil
}

func (d *Device) sleep(dur time.Duration) {
	d.cfg.Sleeper.Sleep(dur)
}
