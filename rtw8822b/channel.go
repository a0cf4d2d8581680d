package rtw8822b

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Band-edge (RF 0xBE) codes per 5 GHz sub-band, one entry per 2-channel step
// from the sub-band's first channel. 0xff marks a hole.
var (
	lowBandEdge    = []uint8{0x7, 0x6, 0x6, 0x5, 0x0, 0x0, 0x7, 0xff, 0x6, 0x5, 0x0, 0x0, 0x7, 0x6, 0x6}
	middleBandEdge = []uint8{0x6, 0x5, 0x0, 0x0, 0x7, 0x6, 0x6, 0xff, 0x0, 0x0, 0x7, 0x6, 0x6, 0x5, 0x0, 0xff, 0x7, 0x6, 0x6, 0x5, 0x0, 0x0, 0x7}
	highBandEdge   = []uint8{0x5, 0x5, 0x0, 0x7, 0x7, 0x6, 0x5, 0xff, 0x0, 0x7, 0x7, 0x6, 0x5, 0x5, 0x0}
)

const bandEdgeHole = 0xff

// SubBand is a 5 GHz channel range sharing one band-edge table
type SubBand struct {
	Name  string
	First uint8
	Last  uint8
}

var subBands = []struct {
	SubBand
	codes []uint8
}{
	{SubBand{"low", 36, 64}, lowBandEdge},
	{SubBand{"middle", 100, 144}, middleBandEdge},
	{SubBand{"high", 149, 177}, highBandEdge},
}

// bandEdgeCodes is keyed by channel number
var bandEdgeCodes = func() map[uint8]uint8 {
	m := make(map[uint8]uint8)
	for _, sb := range subBands {
		for i, code := range sb.codes {
			if code == bandEdgeHole {
				continue
			}
			m[sb.First+uint8(2*i)] = code
		}
	}
	return m
}()

// bandEdgeCode returns the RF 0xBE code for channel. 2.4 GHz channels use 0.
func bandEdgeCode(channel uint8) (uint32, error) {
	if channel >= 1 && channel <= 14 {
		return 0, nil
	}
	code, ok := bandEdgeCodes[channel]
	if !ok {
		return 0, &ChannelError{Channel: channel, Reason: "outside 2.4 GHz and every 5 GHz sub-band"}
	}
	return uint32(code), nil
}

// CheckChannel reports whether SetChannel accepts channel
func CheckChannel(channel uint8) error {
	_, err := bandEdgeCode(channel)
	return err
}

// SupportedChannels lists every channel SetChannel accepts
func SupportedChannels() []uint8 {
	out := make([]uint8, 0, 14+len(bandEdgeCodes))
	for ch := uint8(1); ch <= 14; ch++ {
		out = append(out, ch)
	}
	for ch := range bandEdgeCodes {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SubBands returns the 5 GHz sub-band boundaries
func SubBands() []SubBand {
	out := make([]SubBand, len(subBands))
	for i, sb := range subBands {
		out[i] = sb.SubBand
	}
	return out
}

func (b Bandwidth) valid() bool { return b <= BW10 }

// hardware bandwidth codes in REG_ADCCLK bits 1:0
const (
	adcBW20 = 0
	adcBW40 = 1
	adcBW80 = 2
)

// SetChannel moves the radio to req. The RFE option, channel and bandwidth are
// validated before the first register write; on failure the device keeps its
// previous configuration.
func (d *Device) SetChannel(ctx context.Context, req ChannelRequest) error {
	d.beginOp()
	rfe, err := LookupRFE(d.cfg.RFEOption)
	if err != nil {
		d.log.ErrorContext(ctx, "Channel switch refused", "error", err)
		return fmt.Errorf("set channel: %w", err)
	}

	be, err := bandEdgeCode(req.Channel)
	if err != nil {
		d.log.ErrorContext(ctx, "Channel switch refused", "error", err)
		return fmt.Errorf("set channel: %w", err)
	}

	if !req.Bandwidth.valid() {
		err := &ChannelError{Channel: req.Channel, Reason: fmt.Sprintf("bandwidth code %d", req.Bandwidth)}
		d.log.ErrorContext(ctx, "Channel switch refused", "error", err)
		return fmt.Errorf("set channel: %w", err)
	}

	ch, bw := req.Channel, req.Bandwidth

	d.setChannelBB(ch, bw, req.PrimaryIndex)
	d.cfg.MAC.SetChannel(ch, bw, req.PrimaryIndex)
	d.setChannelRF(ch, bw, be)
	d.setChannelRXDFIR(bw)
	d.toggleIGI()
	d.setChannelCCA(ctx, ch, bw, rfe)
	d.setChannelRFE(ch, rfe)

	if err := d.busErr("set channel"); err != nil {
		return err
	}

	d.currentChannel = ch
	d.currentBW = bw

	d.log.LogAttrs(ctx, slog.LevelInfo, "Channel set",
		slog.Int("channel", int(ch)),
		slog.String("bandwidth", bw.String()),
		slog.Int("primary", int(req.PrimaryIndex)),
		slog.Int("be", int(be)),
		slog.String("fem", rfe.FEM.String()))
	return nil
}

func (d *Device) setChannelBB(channel uint8, bw Bandwidth, primary uint8) {
	b := d.bus

	if channel <= 14 {
		write32Mask(b, RegRxPSel, 1<<28, 1)
		write32Mask(b, RegCCKCheck, BitCheckCCKEn, 0)
		write32Mask(b, RegENTxCCK, 1<<18, 0)
		write32Mask(b, RegRxCCAMsk, 0x0000FC00, 15)

		write32Mask(b, RegACGG2Tbl, 0x1f, 0)
		write32Mask(b, RegClkTrk, 0x1ffe0000, 0x96a)
		if channel == 14 {
			b.Write32(RegTxSF2, 0x00006577)
			write32Mask(b, RegTxSF6, MaskLWord, 0x0000)
		} else {
			b.Write32(RegTxSF2, 0x384f6577)
			write32Mask(b, RegTxSF6, MaskLWord, 0x1525)
		}

		write32Mask(b, RegRFEInv, 0x300, 2)
	} else if channel > 35 {
		write32Mask(b, RegENTxCCK, 1<<18, 1)
		write32Mask(b, RegCCKCheck, BitCheckCCKEn, 1)
		write32Mask(b, RegRxPSel, 1<<28, 0)
		write32Mask(b, RegRxCCAMsk, 0x0000FC00, 34)

		switch {
		case channel >= 36 && channel <= 64:
			write32Mask(b, RegACGG2Tbl, 0x1f, 1)
		case channel >= 100 && channel <= 144:
			write32Mask(b, RegACGG2Tbl, 0x1f, 2)
		case channel >= 149:
			write32Mask(b, RegACGG2Tbl, 0x1f, 3)
		}

		switch {
		case channel >= 36 && channel <= 48:
			write32Mask(b, RegClkTrk, 0x1ffe0000, 0x494)
		case channel >= 52 && channel <= 64:
			write32Mask(b, RegClkTrk, 0x1ffe0000, 0x453)
		case channel >= 100 && channel <= 116:
			write32Mask(b, RegClkTrk, 0x1ffe0000, 0x452)
		case channel >= 118 && channel <= 177:
			write32Mask(b, RegClkTrk, 0x1ffe0000, 0x412)
		}

		write32Mask(b, RegRFEInv, 0x300, 1)
	}

	adc := b.Read32(RegADCClk)
	switch bw {
	case BW40:
		if primary == 1 {
			set32(b, RegRxSB, 1<<4)
		} else {
			clr32(b, RegRxSB, 1<<4)
		}
		adc = adc&0xFF3FF300 | uint32(primary&0xf)<<2 | adcBW40
		b.Write32(RegADCClk, adc)
		write32Mask(b, RegADC160, 1<<30, 1)
	case BW80:
		adc = adc&0xFCEFCF00 | uint32(primary&0xf)<<2 | adcBW80
		b.Write32(RegADCClk, adc)
		write32Mask(b, RegADC160, 1<<30, 1)
		if d.cfg.RFEOption == 2 {
			write32Mask(b, RegL1PkWT, 0x0000f000, 6)
			write32Mask(b, RegADC40, 1<<10, 1)
		}
	case BW5:
		adc = adc&0xEFEEFE00 | 1<<6 | adcBW20
		b.Write32(RegADCClk, adc)
		write32Mask(b, RegADC160, 1<<30, 0)
		write32Mask(b, RegADC40, 1<<31, 1)
	case BW10:
		adc = adc&0xEFFEFF00 | 1<<7 | adcBW20
		b.Write32(RegADCClk, adc)
		write32Mask(b, RegADC160, 1<<30, 0)
		write32Mask(b, RegADC40, 1<<31, 1)
	default:
		adc = adc&0xFFCFFC00 | adcBW20
		b.Write32(RegADCClk, adc)
		write32Mask(b, RegADC160, 1<<30, 1)
	}
}

// rf18Value computes RF 0x18 from its current contents
func rf18Value(cur uint32, channel uint8, bw Bandwidth) uint32 {
	v := cur &^ (rf18BandMask | rf18ChannelMask | rf18RFSIMask | rf18BWMask)

	if channel <= 14 {
		v |= rf18Band2G
	} else {
		v |= rf18Band5G
	}
	v |= uint32(channel) & rf18ChannelMask

	if channel > 144 {
		v |= rf18RFSIGtCh144
	} else if channel >= 80 {
		v |= rf18RFSIGeCh80
	}

	switch bw {
	case BW40:
		v |= rf18BW40M
	case BW80:
		v |= rf18BW80M
	default:
		v |= rf18BW20M
	}
	return v
}

func (d *Device) setChannelRF(channel uint8, bw Bandwidth, be uint32) {
	rf := d.cfg.RF

	reg18 := rf18Value(rf.ReadRF(RFPathA, RFChannel, RFRegMask), channel, bw)

	rf.WriteRF(RFPathA, RFMALSel, rfBEMask, be)

	// 0xDF[18] must be set before RF18 is written for channel 144
	rf.WriteRF(RFPathA, RFLUTDbg, 1<<18, boolBit(channel == 144))

	rf.WriteRF(RFPathA, RFChannel, RFRegMask, reg18)
	if d.cfg.RF2T2R {
		rf.WriteRF(RFPathB, RFChannel, RFRegMask, reg18)
	}

	rf.WriteRF(RFPathA, RFXtalX2, 1<<19, 0)
	rf.WriteRF(RFPathA, RFXtalX2, 1<<19, 1)
}

func (d *Device) setChannelRXDFIR(bw Bandwidth) {
	b := d.bus
	const dfirMask = (1 << 29) | (1 << 28)

	switch bw {
	case BW40:
		write32Mask(b, RegACBB0, dfirMask, 1)
		write32Mask(b, RegACBBRxFIR, dfirMask, 0)
		write32sMask(b, RegTxDFIR, 1<<31, 0)
	case BW80:
		write32Mask(b, RegACBB0, dfirMask, 2)
		write32Mask(b, RegACBBRxFIR, dfirMask, 1)
		write32sMask(b, RegTxDFIR, 1<<31, 0)
	default:
		write32Mask(b, RegACBB0, dfirMask, 2)
		write32Mask(b, RegACBBRxFIR, dfirMask, 2)
		write32sMask(b, RegTxDFIR, 1<<31, 1)
	}
}

// toggleIGI drops the initial gain by 2 and restores it on both paths so the
// AGC re-settles, then reasserts the RX path selector
func (d *Device) toggleIGI() {
	b := d.bus
	const igiMask = 0x7f

	igi := read32Mask(b, RegRxIGIA, igiMask)
	write32Mask(b, RegRxIGIA, igiMask, igi-2)
	write32Mask(b, RegRxIGIA, igiMask, igi)
	write32Mask(b, RegRxIGIB, igiMask, igi-2)
	write32Mask(b, RegRxIGIB, igiMask, igi)

	rx := uint32(d.antennaRx)
	write32Mask(b, RegRxPSel, MaskByte0, 0)
	write32Mask(b, RegRxPSel, MaskByte0, rx|rx<<4)
}
