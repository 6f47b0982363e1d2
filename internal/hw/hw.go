// Package hw provides the hardware pin primitive with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation models a simulated register file for testing.
package hw

// Pin is a symbolic pin identifier. The mapping to a physical line number
// is the real port's concern; the core logic only ever uses these names.
type Pin int

const (
	// PinSwitch drives the UPS switch input (pulsed or level-controlled).
	PinSwitch Pin = iota
	// PinLEDButton is the dual-mode pin, multiplexed between LED output
	// and button sensing.
	PinLEDButton
)

// Default BCM line numbers, overridable via flags.
const (
	DefaultLineSwitch    = 17
	DefaultLineLEDButton = 27
)

// Direction is a pin's data direction.
type Direction int

const (
	Input Direction = iota
	Output
)

// Level is the electrical level of a pin: LOW or HIGH.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Port is the register-file abstraction behind the pin primitive.
// Operations are unconditional register writes with no feedback path, so
// none of them return errors; a real port logs failures and carries on.
type Port interface {
	// SetDirection configures a pin as input or output.
	SetDirection(pin Pin, dir Direction)

	// SetLevel drives a pin's output level. For a pin configured as
	// input, this controls the output latch only (no electrical effect
	// until the direction changes).
	SetLevel(pin Pin, level Level)

	// SetPullUp enables or disables a pin's internal pull-up.
	SetPullUp(pin Pin, on bool)

	// SetInterruptMask enables or disables a pin's pin-change interrupt
	// mask bit. The mask alone does not deliver events; the global
	// pin-change enable must also be on.
	SetInterruptMask(pin Pin, on bool)

	// ClearInterruptFlag discards any pending pin-change event for a pin.
	ClearInterruptFlag(pin Pin)

	// SetPinChangeEnable sets the global pin-change interrupt enable.
	SetPinChangeEnable(on bool)

	// Close releases hardware resources.
	Close() error
}

func (d Direction) String() string {
	if d == Output {
		return "OUTPUT"
	}
	return "INPUT"
}

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

func (p Pin) String() string {
	switch p {
	case PinSwitch:
		return "SWITCH"
	case PinLEDButton:
		return "LED_BUTTON"
	}
	return "UNKNOWN"
}
