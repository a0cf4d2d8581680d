package rtw8822b

import (
	"fmt"
	"net"
)

// Logical efuse map layout
const (
	EfuseLogicalSize = 768

	efuseTxPwrTable    = 0x10
	efuseTxPwrEntrySz  = 42
	efuseTxPwrEntries  = 4
	efuseChannelPlan   = 0xb8
	efuseXtalK         = 0xb9
	efuseThermalMeter  = 0xba
	efusePAType        = 0xbc
	efuseLNAType2G     = 0xbd
	efuseLNAType5G     = 0xbf
	efuseRFBoardOption = 0xc1
	efuseRFBTSetting   = 0xc3
	efuseRFEOption     = 0xca
	efuseCountryCode   = 0xcb
	efusePCIeMAC       = 0xd0
)

// TxPwrIdxBlob is one raw per-path TX power index block
type TxPwrIdxBlob [efuseTxPwrEntrySz]byte

// Efuse holds the fields extracted from the logical efuse map
type Efuse struct {
	RFEOption    uint8            `json:"rfe_option"`
	CrystalCap   uint8            `json:"crystal_cap"`
	ThermalMeter uint8            `json:"thermal_meter"`
	PAType2G     uint8            `json:"pa_type_2g"`
	PAType5G     uint8            `json:"pa_type_5g"`
	LNAType2G    uint8            `json:"lna_type_2g"`
	LNAType5G    uint8            `json:"lna_type_5g"`
	ChannelPlan  uint8            `json:"channel_plan"`
	CountryCode  string           `json:"country_code"`
	BTSetting    uint8            `json:"bt_setting"`
	Regd         uint8            `json:"regd"`
	TxPwrIdx     [4]TxPwrIdxBlob  `json:"-"`
	MAC          net.HardwareAddr `json:"mac"`
}

// ParseEfuse extracts chip parameters from a logical efuse map. Only the PCIe
// layout is supported; other interfaces return ErrUnsupportedInterface after
// the common fields are filled in.
func ParseEfuse(logMap []byte, hci HCI) (*Efuse, error) {
	if len(logMap) < efusePCIeMAC+6 {
		return nil, fmt.Errorf("efuse map of %d bytes: %w", len(logMap), ErrShortBuffer)
	}

	e := &Efuse{
		RFEOption:    logMap[efuseRFEOption],
		CrystalCap:   logMap[efuseXtalK],
		ThermalMeter: logMap[efuseThermalMeter],
		PAType2G:     logMap[efusePAType],
		PAType5G:     logMap[efusePAType],
		LNAType2G:    logMap[efuseLNAType2G],
		LNAType5G:    logMap[efuseLNAType5G],
		ChannelPlan:  logMap[efuseChannelPlan],
		CountryCode:  string(logMap[efuseCountryCode : efuseCountryCode+2]),
		BTSetting:    logMap[efuseRFBTSetting],
		Regd:         logMap[efuseRFBoardOption] & 0x7,
	}

	for i := range e.TxPwrIdx {
		off := efuseTxPwrTable + i*efuseTxPwrEntrySz
		copy(e.TxPwrIdx[i][:], logMap[off:off+efuseTxPwrEntrySz])
	}

	switch hci {
	case HCIPCIe:
		e.MAC = append(net.HardwareAddr(nil), logMap[efusePCIeMAC:efusePCIeMAC+6]...)
	default:
		return e, fmt.Errorf("efuse layout for %s: %w", hci, ErrUnsupportedInterface)
	}

	return e, nil
}
