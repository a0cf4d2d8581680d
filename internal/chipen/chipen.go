// Package chipen drives the module's chip-enable (PDn) line.
package chipen

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Timing for the PDn line on RTL8822B modules
const (
	AssertHold  = 1 * time.Millisecond  // PDn low before release
	SettleDelay = 10 * time.Millisecond // power rails settle after release
)

// Line controls the PDn / CHIP_EN pin of the WLAN module
type Line struct {
	chip     *gpiocdev.Chip
	line     *gpiocdev.Line
	chipPath string
	pin      int
}

// Open requests the chip-enable pin as an output, initially high (enabled)
func Open(chipPath string, pin int) (*Line, error) {
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %s: %w", chipPath, err)
	}

	line, err := chip.RequestLine(
		pin,
		gpiocdev.AsOutput(1),
		gpiocdev.WithConsumer("rtw8822b-pdn"),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("failed to request chip-enable pin %d: %w", pin, err)
	}

	return &Line{
		chip:     chip,
		line:     line,
		chipPath: chipPath,
		pin:      pin,
	}, nil
}

// Close releases all GPIO resources
func (l *Line) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close chip-enable line: %w", err))
		}
		l.line = nil
	}

	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close GPIO chip: %w", err))
		}
		l.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing GPIO: %v", errs)
	}

	return nil
}

// Set drives the chip-enable line; true powers the module
func (l *Line) Set(enabled bool) error {
	if l.line == nil {
		return fmt.Errorf("chip-enable line not initialized")
	}

	value := 0
	if enabled {
		value = 1
	}

	if err := l.line.SetValue(value); err != nil {
		return fmt.Errorf("failed to set chip-enable to %v: %w", enabled, err)
	}

	return nil
}

// Enabled reads back the current line state
func (l *Line) Enabled() (bool, error) {
	if l.line == nil {
		return false, fmt.Errorf("chip-enable line not initialized")
	}

	value, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read chip-enable line: %w", err)
	}

	return value == 1, nil
}

// Cycle pulls PDn low, holds it, releases it and waits for the rails to settle
func (l *Line) Cycle() error {
	if err := l.Set(false); err != nil {
		return err
	}
	time.Sleep(AssertHold)

	if err := l.Set(true); err != nil {
		return err
	}
	time.Sleep(SettleDelay)

	return nil
}

// Info returns information about the line
func (l *Line) Info() string {
	if l.chip == nil {
		return fmt.Sprintf("GPIO: %s (closed)", l.chipPath)
	}
	return fmt.Sprintf("GPIO: %s (%s, %s), PDn Pin: %d",
		l.chipPath, l.chip.Name, l.chip.Label, l.pin)
}
