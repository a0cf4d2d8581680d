package rtw8822b

import (
	"context"
	"errors"
	"testing"

	"github.com/linht/rfe-manager/internal/bus"
)

func TestConfigInterfacePHYPCIe(t *testing.T) {
	tests := []struct {
		gen      InterfacePHYGen
		cut      Cut
		want     int
		lastData uint32
		page     uint32
	}{
		{IntfPCIeGen1, CutC, 10, 0x1840, 1},
		{IntfPCIeGen2, CutC, 10, 0x3040, 3},
		{IntfPCIeGen1, CutD, 0, 0, 0},
	}

	for _, tt := range tests {
		d, sim := newTestDevice(t, WithCut(tt.cut))
		n, err := d.ConfigInterfacePHY(context.Background(), tt.gen)
		if err != nil {
			t.Fatalf("%s cut %s: %v", tt.gen, tt.cut, err)
		}
		if n != tt.want {
			t.Errorf("%s cut %s: wrote %d entries, want %d", tt.gen, tt.cut, n, tt.want)
		}
		if n == 0 {
			continue
		}
		if got := sim.Mem.Peek(RegMDIOV1, 2); got != tt.lastData {
			t.Errorf("%s: last MDIO data 0x%04X, want 0x%04X", tt.gen, got, tt.lastData)
		}
		// last entry is offset 0x2A, above the first page
		if got := sim.Mem.Peek(RegPCIeMixCfg, 1); got != 0x2a&mdioAddrMask {
			t.Errorf("%s: MDIO address 0x%02X", tt.gen, got)
		}
		if got := sim.Mem.Peek(RegPCIeMixCfg+3, 1); got != tt.page {
			t.Errorf("%s: MDIO page %d, want %d", tt.gen, got, tt.page)
		}
	}
}

func TestConfigInterfacePHYUSB(t *testing.T) {
	d, sim := newTestDevice(t, WithCut(CutD), WithHCI(HCIUSB))

	n, err := d.ConfigInterfacePHY(context.Background(), IntfUSB3)
	if err != nil || n != 1 {
		t.Fatalf("usb3: n=%d err=%v", n, err)
	}
	if v, ok := sim.USBPHY(0x0001); !ok || v != 0xA841 {
		t.Errorf("usb3 offset 1 = 0x%04X (%v)", v, ok)
	}

	n, err = d.ConfigInterfacePHY(context.Background(), IntfUSB2)
	if err != nil || n != 0 {
		t.Errorf("usb2: n=%d err=%v", n, err)
	}
}

func TestConfigInterfacePHYUSBNeedsWriter(t *testing.T) {
	sim := NewSimChip()
	d := New(sim.Mem, WithLogger(discardLogger()), WithCut(CutD))
	if _, err := d.ConfigInterfacePHY(context.Background(), IntfUSB3); !errors.Is(err, ErrUnsupportedInterface) {
		t.Fatalf("expected ErrUnsupportedInterface, got %v", err)
	}
}

func TestMDIOWriteTimeout(t *testing.T) {
	sl := &countingSleeper{}
	d := New(bus.NewMem(), WithLogger(discardLogger()), WithSleeper(sl))

	_, err := d.ConfigInterfacePHY(context.Background(), IntfPCIeGen1)
	var he *HandshakeTimeoutError
	if !errors.As(err, &he) || he.Attempts != mdioRetries {
		t.Fatalf("expected *HandshakeTimeoutError after %d attempts, got %v", mdioRetries, err)
	}
	if sl.calls != mdioRetries {
		t.Errorf("slept %d times, want %d", sl.calls, mdioRetries)
	}
}

func TestParseInterfacePHYGen(t *testing.T) {
	for g := IntfUSB2; g <= IntfPCIeGen2; g++ {
		got, err := ParseInterfacePHYGen(g.String())
		if err != nil || got != g {
			t.Errorf("round trip %s: %v %v", g, got, err)
		}
	}
	if _, err := ParseInterfacePHYGen("thunderbolt"); err == nil {
		t.Error("unknown generation accepted")
	}
}
