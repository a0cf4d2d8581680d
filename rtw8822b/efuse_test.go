package rtw8822b

import (
	"errors"
	"testing"
)

func sampleEfuse() []byte {
	m := make([]byte, EfuseLogicalSize)
	for i := range m {
		m[i] = 0xff
	}
	m[efuseRFEOption] = 0x05
	m[efuseXtalK] = 0x2a
	m[efuseThermalMeter] = 0x1e
	m[efusePAType] = 0x00
	m[efuseLNAType2G] = 0x11
	m[efuseLNAType5G] = 0x22
	m[efuseChannelPlan] = 0x7f
	m[efuseCountryCode], m[efuseCountryCode+1] = 'A', 'T'
	m[efuseRFBoardOption] = 0xc1
	m[efuseRFBTSetting] = 0x10
	copy(m[efusePCIeMAC:], []byte{0x00, 0xe0, 0x4c, 0x88, 0x22, 0xb0})
	for i := 0; i < efuseTxPwrEntrySz; i++ {
		m[efuseTxPwrTable+i] = byte(i)
	}
	return m
}

func TestParseEfusePCIe(t *testing.T) {
	e, err := ParseEfuse(sampleEfuse(), HCIPCIe)
	if err != nil {
		t.Fatal(err)
	}
	if e.RFEOption != 5 || e.CrystalCap != 0x2a || e.ThermalMeter != 0x1e {
		t.Errorf("rf fields = %+v", e)
	}
	if e.CountryCode != "AT" || e.Regd != 1 {
		t.Errorf("country %q regd %d", e.CountryCode, e.Regd)
	}
	if e.MAC.String() != "00:e0:4c:88:22:b0" {
		t.Errorf("mac = %s", e.MAC)
	}
	if e.TxPwrIdx[0][41] != 41 || e.TxPwrIdx[1][0] != 0xff {
		t.Errorf("tx power blocks not split at %d bytes", efuseTxPwrEntrySz)
	}
}

func TestParseEfuseErrors(t *testing.T) {
	if _, err := ParseEfuse(make([]byte, 0x40), HCIPCIe); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short map: got %v", err)
	}

	e, err := ParseEfuse(sampleEfuse(), HCIUSB)
	if !errors.Is(err, ErrUnsupportedInterface) {
		t.Fatalf("usb: expected ErrUnsupportedInterface, got %v", err)
	}
	if e == nil || e.RFEOption != 5 || e.MAC != nil {
		t.Errorf("usb: partial efuse = %+v", e)
	}
}

func TestWithEfuse(t *testing.T) {
	e, err := ParseEfuse(sampleEfuse(), HCIPCIe)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := newTestDevice(t, WithRFEOption(0), WithEfuse(e))
	if st := d.State(); st.RFEOption != 5 {
		t.Errorf("rfe option = %d, want 5", st.RFEOption)
	}
	if d.cfg.CrystalCap != 0x2a {
		t.Errorf("crystal cap = 0x%x", d.cfg.CrystalCap)
	}
}
