package rtw8822b

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RF mode LUT handshake
const (
	lutRetries    = 100
	lutPollDelay  = 2 * time.Microsecond
	lutWriteEn    = 0x80000
	lutAddr       = 0x00001
	lutData1      = 0x00034
	lutData0      = 0x4080c
	agcTargetOn   = 0x3231
	agcTargetIdle = 0x1111
)

func normalizePath(p Path) Path {
	if p.Valid() {
		return p
	}
	return PathAB
}

// SetAntenna stores the TX/RX path selection and reprograms the path muxes.
// Values outside {A, B, AB} are replaced by AB with a warning.
func (d *Device) SetAntenna(ctx context.Context, tx, rx Path) error {
	d.beginOp()
	if !tx.Valid() {
		d.log.WarnContext(ctx, "Unsupported TX path, using AB", "requested", uint8(tx), "error", ErrUnrecognizedFormat)
		tx = PathAB
	}
	if !rx.Valid() {
		d.log.WarnContext(ctx, "Unsupported RX path, using AB", "requested", uint8(rx), "error", ErrUnrecognizedFormat)
		rx = PathAB
	}

	d.antennaTx = tx
	d.antennaRx = rx

	if err := d.configTRXMode(ctx, tx, rx, false); err != nil {
		return fmt.Errorf("set antenna: %w", err)
	}
	if err := d.busErr("set antenna"); err != nil {
		return err
	}

	d.log.LogAttrs(ctx, slog.LevelInfo, "Antenna configured",
		slog.String("tx", tx.String()),
		slog.String("rx", rx.String()))
	return nil
}

// configTRXMode programs AGC targets, path muxes and MRC, writes the RF mode
// LUT, then replays the IGI toggle, CCA and antenna switch
func (d *Device) configTRXMode(ctx context.Context, tx, rx Path, tx2Path bool) error {
	rfe, err := LookupRFE(d.cfg.RFEOption)
	if err != nil {
		d.log.ErrorContext(ctx, "TRX mode refused", "error", err)
		return err
	}

	b := d.bus

	if (tx|rx)&PathA != 0 {
		write32Mask(b, RegAGCTrA, MaskLWord, agcTargetOn)
	} else {
		write32Mask(b, RegAGCTrA, MaskLWord, agcTargetIdle)
	}
	if (tx|rx)&PathB != 0 {
		write32Mask(b, RegAGCTrB, MaskLWord, agcTargetOn)
	} else {
		write32Mask(b, RegAGCTrB, MaskLWord, agcTargetIdle)
	}

	write32Mask(b, RegCDDTxP, (1<<19)|(1<<18), 3)
	write32Mask(b, RegTxPSel, (1<<29)|(1<<28), 1)
	write32Mask(b, RegTxPSel, 1<<30, 1)

	if tx&PathA != 0 {
		write32Mask(b, RegCDDTxP, 0xfff00000, 0x001)
		write32Mask(b, RegADCIni, 0xf0000000, 0x8)
	} else if tx&PathB != 0 {
		write32Mask(b, RegCDDTxP, 0xfff00000, 0x002)
		write32Mask(b, RegADCIni, 0xf0000000, 0x4)
	}

	if tx.single() {
		write32Mask(b, RegTxPSel1, 0xfff0, 0x01)
	} else {
		write32Mask(b, RegTxPSel1, 0xfff0, 0x43)
	}

	write32Mask(b, RegTxPSel, MaskByte0, uint32(tx)<<4|uint32(tx))

	if !tx.single() && (tx2Path || d.cfg.MPMode) {
		write32Mask(b, RegCDDTxP, 0xfff00000, 0x043)
		write32Mask(b, RegADCIni, 0xf0000000, 0xc)
	}

	write32Mask(b, RegRxDesc, 1<<22, 0)
	write32Mask(b, RegRxDesc, 1<<18, 0)

	if rx&PathA != 0 {
		write32Mask(b, RegADCIni, 0x0f000000, 0x0)
	} else if rx&PathB != 0 {
		write32Mask(b, RegADCIni, 0x0f000000, 0x5)
	}

	write32Mask(b, RegRxPSel, MaskByte0, uint32(rx)<<4|uint32(rx))

	mrc := boolBit(!rx.single())
	write32Mask(b, RegANTWT, 1<<16, mrc)
	write32Mask(b, RegHTSTFWT, 1<<28, mrc)
	write32Mask(b, RegMRC, 1<<23, mrc)

	if err := d.writeRFModeLUT(ctx); err != nil {
		return err
	}

	d.toggleIGI()
	// the CCA replay always uses channel 1 at 20 MHz
	d.setChannelCCA(ctx, 1, BW20, rfe)
	d.setChannelRFE(d.currentChannel, rfe)
	return nil
}

// writeRFModeLUT opens the RF mode LUT write port, waits for the address to
// latch, then writes the table entry
func (d *Device) writeRFModeLUT(ctx context.Context) error {
	rf := d.cfg.RF

	attempts := 0
	latched := false
	for attempts < lutRetries {
		attempts++
		rf.WriteRF(RFPathA, RFLUTWE, RFRegMask, lutWriteEn)
		rf.WriteRF(RFPathA, RFLUTWA, RFRegMask, lutAddr)

		d.sleep(lutPollDelay)
		if rf.ReadRF(RFPathA, RFLUTWA, RFRegMask) == lutAddr {
			latched = true
			break
		}
	}

	if !latched {
		err := &HandshakeTimeoutError{Stage: "RF mode table write", Attempts: attempts}
		d.log.ErrorContext(ctx, "Write RF mode table failed", "error", err)
		return err
	}

	d.log.DebugContext(ctx, "RF mode table address latched", "attempts", attempts)

	rf.WriteRF(RFPathA, RFLUTWE, RFRegMask, lutWriteEn)
	rf.WriteRF(RFPathA, RFLUTWA, RFRegMask, lutAddr)
	rf.WriteRF(RFPathA, RFLUTWD1, RFRegMask, lutData1)
	rf.WriteRF(RFPathA, RFLUTWD0, RFRegMask, lutData0)
	rf.WriteRF(RFPathA, RFLUTWE, RFRegMask, 0)
	rf.WriteRF(RFPathA, RFLUTWE, RFRegMask, 0)
	return nil
}
