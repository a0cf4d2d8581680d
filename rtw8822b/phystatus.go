package rtw8822b

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// PHY status layout
const (
	phyStatusPageMask = 0xf
	pwdbBias          = 110
	minRxPower        = -120

	// descriptor rates bounding the legacy OFDM range
	descRate11M  = 0x03
	descRateMCS0 = 0x0c
)

// PhyStatus is the decoded per-frame PHY status
type PhyStatus struct {
	Page        uint8     `json:"page"`
	RxPower     [2]int8   `json:"rx_power"`
	RSSI        uint8     `json:"rssi"`
	Bandwidth   Bandwidth `json:"-"`
	BandwidthHz int       `json:"bandwidth_mhz"`
	SignalPower int8      `json:"signal_power"`
}

func phyWord(buf []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(buf[4*i:])
}

// DecodePhyStatus decodes a PHY status blob. rate is the descriptor RX rate,
// which picks the legacy or HT sub-channel field on page 1. Pages other than
// 0 and 1 return *PhyStatusPageError.
func DecodePhyStatus(buf []byte, rate uint8) (PhyStatus, error) {
	if len(buf) < 4 {
		return PhyStatus{}, fmt.Errorf("phy status: %w", ErrShortBuffer)
	}

	page := buf[0] & phyStatusPageMask
	switch page {
	case 0:
		return decodePage0(buf), nil
	case 1:
		if len(buf) < 16 {
			return PhyStatus{}, fmt.Errorf("phy status page 1: %w", ErrShortBuffer)
		}
		return decodePage1(buf, rate), nil
	}
	return PhyStatus{}, &PhyStatusPageError{Page: page}
}

func decodePage0(buf []byte) PhyStatus {
	pwdb := uint8(phyWord(buf, 0) >> 8)

	var ps PhyStatus
	ps.Page = 0
	ps.RxPower[RFPathA] = int8(int(pwdb) - pwdbBias)
	ps.RSSI = rfPowerToRSSI(ps.RxPower[:1])
	ps.Bandwidth = BW20
	ps.BandwidthHz = BW20.MHz()
	ps.SignalPower = max8(ps.RxPower[RFPathA], minRxPower)
	return ps
}

func decodePage1(buf []byte, rate uint8) PhyStatus {
	w0, w1, w3 := phyWord(buf, 0), phyWord(buf, 1), phyWord(buf, 3)

	var rxsc uint8
	if rate > descRate11M && rate < descRateMCS0 {
		rxsc = uint8(w1>>8) & 0xf
	} else {
		rxsc = uint8(w1>>12) & 0xf
	}

	var bw Bandwidth
	switch {
	case rxsc >= 1 && rxsc <= 8:
		bw = BW20
	case rxsc >= 9 && rxsc <= 12:
		bw = BW40
	case rxsc >= 13:
		bw = BW80
	default:
		bw = rfModeBandwidth(uint8(w3>>28) & 0x3)
	}

	var ps PhyStatus
	ps.Page = 1
	ps.RxPower[RFPathA] = int8(int(uint8(w0>>16)) - pwdbBias)
	ps.RxPower[RFPathB] = int8(int(uint8(w0>>24)) - pwdbBias)
	ps.RSSI = rfPowerToRSSI(ps.RxPower[:])
	ps.Bandwidth = bw
	ps.BandwidthHz = bw.MHz()
	ps.SignalPower = max8(max8(ps.RxPower[RFPathA], ps.RxPower[RFPathB]), minRxPower)
	return ps
}

// rfModeBandwidth maps the RF mode field (0: 20, 1: 40, 2: 80 MHz)
func rfModeBandwidth(mode uint8) Bandwidth {
	switch mode {
	case 0:
		return BW20
	case 1:
		return BW40
	}
	return BW80
}

func max8(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

// powerToDB maps a path power in dBm to the 0..100 RSSI scale
func powerToDB(p int8) uint8 {
	switch {
	case p <= -100 || p >= 20:
		return 0
	case p >= 0:
		return 100
	}
	return uint8(100 + int(p))
}

// rfPowerToRSSI averages the paths in the linear domain
func rfPowerToRSSI(powers []int8) uint8 {
	if len(powers) == 0 {
		return 0
	}
	var sum float64
	for _, p := range powers {
		sum += math.Pow(10, float64(powerToDB(p))/10)
	}
	db := math.Round(10 * math.Log10(sum/float64(len(powers))))
	if db < 0 {
		return 0
	}
	return uint8(db)
}

// RX descriptor layout
const (
	RxDescSize = 24
)

// PktStat is a decoded RX descriptor with its PHY status
type PktStat struct {
	PktLen       uint16     `json:"pkt_len"`
	CRCErr       bool       `json:"crc_err"`
	ICVErr       bool       `json:"icv_err"`
	DrvInfoSize  uint8      `json:"drv_info_size"`
	Shift        uint8      `json:"shift"`
	HasPhyStatus bool       `json:"has_phy_status"`
	Decrypted    bool       `json:"decrypted"`
	MacID        uint8      `json:"mac_id"`
	IsC2H        bool       `json:"is_c2h"`
	PPDUCnt      uint8      `json:"ppdu_cnt"`
	Rate         uint8      `json:"rate"`
	TSFLow       uint32     `json:"tsf_low"`
	HeaderOffset int        `json:"header_offset"`
	Phy          *PhyStatus `json:"phy,omitempty"`
}

// QueryRxDesc parses a raw RX buffer starting with the 24-byte descriptor.
// Descriptor fields are returned even when the PHY status page is unknown;
// that case reports *PhyStatusPageError alongside.
func QueryRxDesc(raw []byte) (PktStat, error) {
	if len(raw) < RxDescSize {
		return PktStat{}, fmt.Errorf("rx descriptor: %w", ErrShortBuffer)
	}

	w0 := phyWord(raw, 0)
	w1 := phyWord(raw, 1)
	w2 := phyWord(raw, 2)
	w3 := phyWord(raw, 3)
	w5 := phyWord(raw, 5)

	st := PktStat{
		PktLen:       uint16(w0 & 0x3fff),
		CRCErr:       w0&(1<<14) != 0,
		ICVErr:       w0&(1<<15) != 0,
		DrvInfoSize:  uint8((w0>>16)&0xf) * 8,
		Shift:        uint8((w0 >> 24) & 0x3),
		HasPhyStatus: w0&(1<<26) != 0,
		Decrypted:    w0&(1<<27) == 0,
		MacID:        uint8(w1 & 0x7f),
		IsC2H:        w2&(1<<28) != 0,
		PPDUCnt:      uint8((w2 >> 29) & 0x3),
		Rate:         uint8(w3 & 0x7f),
		TSFLow:       w5,
	}
	st.HeaderOffset = RxDescSize + int(st.Shift) + int(st.DrvInfoSize)

	// C2H packets carry no PHY status of interest
	if st.IsC2H || !st.HasPhyStatus {
		return st, nil
	}

	off := RxDescSize + int(st.Shift)
	if off >= len(raw) {
		return st, fmt.Errorf("rx descriptor phy status: %w", ErrShortBuffer)
	}
	ps, err := DecodePhyStatus(raw[off:], st.Rate)
	if err != nil {
		return st, err
	}
	st.Phy = &ps
	return st, nil
}

// DecodeRx parses an RX buffer. Unknown PHY status pages are logged, not returned.
func (d *Device) DecodeRx(ctx context.Context, raw []byte) (PktStat, error) {
	st, err := QueryRxDesc(raw)
	if errors.Is(err, ErrUnrecognizedFormat) {
		d.log.WarnContext(ctx, "Unused phy status page", "error", err)
		return st, nil
	}
	return st, err
}
