package rtw8822b

import (
	"errors"
	"fmt"
)

// Error classes. Typed errors below unwrap to one of these so callers can
// classify failures with errors.Is.
var (
	// ErrConfigIntegrity marks a request that cannot be honored with the
	// chip's declared configuration (RFE option, channel)
	ErrConfigIntegrity = errors.New("configuration integrity violation")

	// ErrHandshakeTimeout marks a bounded hardware handshake that ran out of retries
	ErrHandshakeTimeout = errors.New("handshake timeout")

	// ErrUnrecognizedFormat marks input the decoder does not understand
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrShortBuffer is returned when a descriptor or efuse map is truncated
	ErrShortBuffer = errors.New("short buffer")

	// ErrUnsupportedInterface is returned for host interfaces the chip support matrix lacks
	ErrUnsupportedInterface = errors.New("unsupported host interface")
)

// RFEOptionError indicates an efuse RFE option with no front-end definition.
type RFEOptionError struct {
	Option uint8
}

func (e *RFEOptionError) Error() string {
	return fmt.Sprintf("rfe_option %d has no front-end definition", e.Option)
}

func (e *RFEOptionError) Unwrap() error { return ErrConfigIntegrity }

// ChannelError indicates a channel outside every supported sub-band.
type ChannelError struct {
	Channel uint8
	Reason  string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %d not supported: %s", e.Channel, e.Reason)
}

func (e *ChannelError) Unwrap() error { return ErrConfigIntegrity }

// HandshakeTimeoutError indicates a polled status never reached the expected value.
type HandshakeTimeoutError struct {
	Stage    string
	Attempts int
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("%s: no acknowledge after %d attempts", e.Stage, e.Attempts)
}

func (e *HandshakeTimeoutError) Unwrap() error { return ErrHandshakeTimeout }

// PhyStatusPageError indicates a PHY status blob with an unknown page number.
type PhyStatusPageError struct {
	Page uint8
}

func (e *PhyStatusPageError) Error() string {
	return fmt.Sprintf("unknown phy status page %d", e.Page)
}

func (e *PhyStatusPageError) Unwrap() error { return ErrUnrecognizedFormat }
