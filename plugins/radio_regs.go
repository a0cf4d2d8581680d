package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linht/rfe-manager/rtw8822b"
)

// RegisterDescriptions names the registers shown by the register dump
var RegisterDescriptions = map[uint32]string{
	rtw8822b.RegSysFuncEn:    "System function enable",
	rtw8822b.RegSysPwCtrl:    "Power control",
	rtw8822b.RegAFECtrl1:     "AFE control 1 (crystal cap, MAC clock)",
	rtw8822b.RegAFECtrl2:     "AFE control 2 (crystal cap)",
	rtw8822b.RegLDOEfuseCtrl: "LDO25 / efuse power",
	rtw8822b.RegSysPinMux:    "Chip top mux",
	rtw8822b.RegDataSC:       "TX sub-channel",
	rtw8822b.RegWMACTRXPtcl:  "WMAC TRX protocol control",
	rtw8822b.RegRxPSel:       "RX path select",
	rtw8822b.RegTxPSel:       "TX path select",
	rtw8822b.RegCCASel:       "CCA select",
	rtw8822b.RegPDMFTh:       "Packet detection threshold",
	rtw8822b.RegCCA2nd:       "Second stage CCA",
	rtw8822b.RegADCClk:       "ADC clock, RX sub-band, bandwidth",
	rtw8822b.RegRxSB:         "CCK RX sideband",
	rtw8822b.RegRFEInvMux:    "RFE input/output select",
	rtw8822b.RegRFEPathSel:   "RFE source select",
}

// maxRegAddr bounds raw register access to the MAC/BB window
const maxRegAddr = 0xFFFF

// RegisterValue is one register access result
type RegisterValue struct {
	Address     string `json:"address"`
	Width       int    `json:"width"`
	Value       string `json:"value"`
	ValueDec    uint32 `json:"value_dec"`
	Description string `json:"description,omitempty"`
}

func parseRegAddr(s string) (uint32, error) {
	addr, err := strconv.ParseUint(s, 0, 32)
	if err != nil || addr > maxRegAddr {
		return 0, fmt.Errorf("invalid register address %q", s)
	}
	return uint32(addr), nil
}

func checkRegWidth(addr uint32, width int) error {
	switch width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("invalid register width %d", width)
	}
	if addr%uint32(width) != 0 {
		return fmt.Errorf("address 0x%04X not aligned to %d bytes", addr, width)
	}
	return nil
}

func readReg(b rtw8822b.Bus, addr uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(b.Read8(addr))
	case 2:
		return uint32(b.Read16(addr))
	}
	return b.Read32(addr)
}

func writeReg(b rtw8822b.Bus, addr uint32, width int, value uint32) {
	switch width {
	case 1:
		b.Write8(addr, uint8(value))
	case 2:
		b.Write16(addr, uint16(value))
	default:
		b.Write32(addr, value)
	}
}

// clearBusError drops a transport error latched before this access
func clearBusError(b rtw8822b.Bus) {
	if c, ok := b.(interface{ ClearErr() }); ok {
		c.ClearErr()
	}
}

// busError reports the sticky transfer error of hardware buses
func busError(b rtw8822b.Bus) error {
	if eb, ok := b.(interface{ Err() error }); ok {
		return eb.Err()
	}
	return nil
}

func regValue(addr uint32, width int, value uint32) RegisterValue {
	return RegisterValue{
		Address:     fmt.Sprintf("0x%04X", addr),
		Width:       width,
		Value:       fmt.Sprintf("0x%0*X", width*2, value),
		ValueDec:    value,
		Description: RegisterDescriptions[addr],
	}
}

func (p *RadioPlugin) handleReadRegister(c *fiber.Ctx) error {
	addr, err := parseRegAddr(c.Params("addr"))
	if err != nil {
		return SendErrorMessage(c, 400, "Invalid register address")
	}
	width := c.QueryInt("width", 4)
	if err := checkRegWidth(addr, width); err != nil {
		return SendError(c, 400, err)
	}

	var value uint32
	err = p.withDevice(c.UserContext(), "read_register", func(_ context.Context, dev *rtw8822b.Device) error {
		clearBusError(dev.Bus())
		value = readReg(dev.Bus(), addr, width)
		return busError(dev.Bus())
	})
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, regValue(addr, width, value), "")
}

func (p *RadioPlugin) handleWriteRegister(c *fiber.Ctx) error {
	addr, err := parseRegAddr(c.Params("addr"))
	if err != nil {
		return SendErrorMessage(c, 400, "Invalid register address")
	}

	req := struct {
		Value uint32 `json:"value"`
		Width int    `json:"width"`
	}{Width: 4}
	if err := c.BodyParser(&req); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}
	if err := checkRegWidth(addr, req.Width); err != nil {
		return SendError(c, 400, err)
	}
	if req.Width < 4 && req.Value>>(8*req.Width) != 0 {
		return SendErrorMessage(c, 400, "Value does not fit register width")
	}

	err = p.withDevice(c.UserContext(), "write_register", func(_ context.Context, dev *rtw8822b.Device) error {
		clearBusError(dev.Bus())
		writeReg(dev.Bus(), addr, req.Width, req.Value)
		return busError(dev.Bus())
	})
	if err != nil {
		return SendRadioError(c, err)
	}

	slog.Info("Register write", "address", fmt.Sprintf("0x%04X", addr), "width", req.Width, "value", fmt.Sprintf("0x%X", req.Value))
	return SendSuccess(c, nil, "Register written successfully")
}

func (p *RadioPlugin) handleReadAllRegisters(c *fiber.Ctx) error {
	addrs := make([]uint32, 0, len(RegisterDescriptions))
	for addr := range RegisterDescriptions {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	regList := make([]RegisterValue, 0, len(addrs))
	err := p.withDevice(c.UserContext(), "read_registers", func(_ context.Context, dev *rtw8822b.Device) error {
		clearBusError(dev.Bus())
		for _, addr := range addrs {
			width := 4
			switch {
			case addr%4 == 0:
			case addr%2 == 0:
				width = 2
			default:
				width = 1
			}
			regList = append(regList, regValue(addr, width, readReg(dev.Bus(), addr, width)))
		}
		return busError(dev.Bus())
	})
	if err != nil {
		return SendRadioError(c, err)
	}

	return SendSuccess(c, fiber.Map{
		"registers": regList,
		"count":     len(regList),
	}, "")
}
