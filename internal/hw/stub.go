//go:build !linux

package hw

import "errors"

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(lineSwitch, lineLEDButton int, onPinChange func(Pin, Level)) (*RealPort, error) {
	return nil, errors.New("hw: not supported on this platform (requires Linux)")
}

// SetDirection is not implemented on non-Linux platforms.
func (p *RealPort) SetDirection(pin Pin, dir Direction) {}

// SetLevel is not implemented on non-Linux platforms.
func (p *RealPort) SetLevel(pin Pin, level Level) {}

// SetPullUp is not implemented on non-Linux platforms.
func (p *RealPort) SetPullUp(pin Pin, on bool) {}

// SetInterruptMask is not implemented on non-Linux platforms.
func (p *RealPort) SetInterruptMask(pin Pin, on bool) {}

// ClearInterruptFlag is not implemented on non-Linux platforms.
func (p *RealPort) ClearInterruptFlag(pin Pin) {}

// SetPinChangeEnable is not implemented on non-Linux platforms.
func (p *RealPort) SetPinChangeEnable(on bool) {}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error { return nil }
