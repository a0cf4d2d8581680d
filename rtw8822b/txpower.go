package rtw8822b

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DescRateMax bounds the descriptor rate index space
const DescRateMax = 0x54

// TxPowerTable holds the power index per RF path and descriptor rate
type TxPowerTable [2][DescRateMax]uint8

var txAGCBase = [2]uint32{RegTxAGCA, RegTxAGCB}

// RateSection is a group of descriptor rates programmed together
type RateSection struct {
	Name  string
	Rates []uint8
}

func rateRange(first, last uint8) []uint8 {
	out := make([]uint8, 0, last-first+1)
	for r := first; r <= last; r++ {
		out = append(out, r)
	}
	return out
}

// RateSections in hardware programming order. The order is fixed by the TXAGC
// register layout.
var RateSections = []RateSection{
	{"CCK", rateRange(0x00, 0x03)},
	{"OFDM", rateRange(0x04, 0x0b)},
	{"HT_1SS", rateRange(0x0c, 0x13)},
	{"HT_2SS", rateRange(0x14, 0x1b)},
	{"VHT_1SS", rateRange(0x2c, 0x35)},
	{"VHT_2SS", rateRange(0x36, 0x3f)},
}

var legacyRateNames = []string{"1M", "2M", "5.5M", "11M", "6M", "9M", "12M", "18M", "24M", "36M", "48M", "54M"}

// RateName returns the human name of a descriptor rate
func RateName(rate uint8) string {
	switch {
	case int(rate) < len(legacyRateNames):
		return legacyRateNames[rate]
	case rate >= 0x0c && rate <= 0x2b:
		return fmt.Sprintf("MCS%d", rate-0x0c)
	case rate >= 0x2c && rate <= 0x35:
		return fmt.Sprintf("VHT1SS_MCS%d", rate-0x2c)
	case rate >= 0x36 && rate <= 0x3f:
		return fmt.Sprintf("VHT2SS_MCS%d", rate-0x36)
	case rate >= 0x40 && rate < DescRateMax:
		return fmt.Sprintf("VHT%dSS_MCS%d", 3+(rate-0x40)/10, (rate-0x40)%10)
	}
	return fmt.Sprintf("0x%02x", rate)
}

// ParseRate accepts a rate name ("MCS7", "VHT2SS_MCS9", "5.5M") or a hex index ("0x0c")
func ParseRate(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 8)
		if err != nil || v >= DescRateMax {
			return 0, fmt.Errorf("invalid rate index %q", s)
		}
		return uint8(v), nil
	}
	for r := uint8(0); r < DescRateMax; r++ {
		if strings.EqualFold(RateName(r), s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rate %q", s)
}

// SetTxPowerIndex programs tbl into the TXAGC registers. Four consecutive rate
// indices are packed little-endian into one word, written when the rate's low
// two bits are 3. The accumulator carries across section boundaries.
func (d *Device) SetTxPowerIndex(ctx context.Context, tbl *TxPowerTable) error {
	d.beginOp()
	if tbl == nil {
		return fmt.Errorf("set tx power index: nil table")
	}

	writes := 0
	var acc uint32
	for path := range txAGCBase {
		for _, rs := range RateSections {
			for _, rate := range rs.Rates {
				shift := rate & 0x3
				acc |= uint32(tbl[path][rate]) << (8 * shift)
				if shift == 0x3 {
					d.bus.Write32(txAGCBase[path]+uint32(rate&0xfc), acc)
					acc = 0
					writes++
				}
			}
		}
	}

	d.log.DebugContext(ctx, "TX power index programmed", "words", writes)
	return d.busErr("set tx power index")
}
