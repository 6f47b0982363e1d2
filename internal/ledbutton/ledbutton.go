// Package ledbutton multiplexes one GPIO pin between an LED-driver role
// and a button-sensing role. The two roles are never active at the same
// time: every transition disables pin-change interrupt delivery before the
// pin's direction changes and re-enables it only after the new role is
// fully configured, so the interrupt handler can never observe a pin that
// is both an output and interrupt-enabled.
package ledbutton

import (
	"time"

	"github.com/sweeney/ups-adapter/internal/hw"
)

// BlinkTime is how long the LED stays lit (and stays dark) per blink.
const BlinkTime = 100 * time.Millisecond

// State is the current role of the dual-mode pin.
type State int

const (
	// ButtonSensing: pulled-up input with pin-change interrupt armed.
	ButtonSensing State = iota
	// LEDOn: output driven low (the LED is active-low).
	LEDOn
	// Disabled: high-impedance input, interrupt delivery off. Used before
	// deep sleep to minimize power draw.
	Disabled
)

func (s State) String() string {
	switch s {
	case ButtonSensing:
		return "BUTTON_SENSING"
	case LEDOn:
		return "LED_ON"
	case Disabled:
		return "DISABLED"
	}
	return "UNKNOWN"
}

// Controller owns the dual-mode pin. Not safe for concurrent use; the
// main control path is the only caller.
type Controller struct {
	port   hw.Port
	pin    hw.Pin
	ledOff bool
	state  State
}

// New creates a Controller for the given pin. ledOffMode permanently
// disables the LED role: every EnterLEDOn becomes a no-op, used to save
// power on battery. The controller starts in the Disabled state without
// touching the hardware; call one of the Enter methods to take ownership
// of the pin.
func New(port hw.Port, pin hw.Pin, ledOffMode bool) *Controller {
	return &Controller{
		port:   port,
		pin:    pin,
		ledOff: ledOffMode,
		state:  Disabled,
	}
}

// State returns the current role.
func (c *Controller) State() State { return c.state }

// LEDDisabled reports whether LED-off mode is active.
func (c *Controller) LEDDisabled() bool { return c.ledOff }

// EnterButtonSensing configures the pin as a pulled-up input and arms the
// pin-change interrupt. Any press that happened while the pin was in
// another role is discarded by clearing the pending flag before the mask
// and global enable are set. Reachable from any state.
func (c *Controller) EnterButtonSensing() {
	c.port.SetDirection(c.pin, hw.Input)
	c.port.SetPullUp(c.pin, true)
	c.port.ClearInterruptFlag(c.pin)
	c.port.SetInterruptMask(c.pin, true)
	c.port.SetPinChangeEnable(true)
	c.state = ButtonSensing
}

// EnterLEDOn turns the LED on. Interrupt delivery is torn down before the
// pin becomes an output, so the handler never sees the pin in its output
// role. No-op when LED-off mode is set.
func (c *Controller) EnterLEDOn() {
	if c.ledOff {
		return
	}
	c.port.SetPinChangeEnable(false)
	c.port.SetInterruptMask(c.pin, false)
	c.port.ClearInterruptFlag(c.pin)
	c.port.SetDirection(c.pin, hw.Output)
	c.port.SetLevel(c.pin, hw.Low) // active-low LED
	c.state = LEDOn
}

// EnterDisabled parks the pin for minimum power draw: global interrupt
// enable off, pin high-impedance, output latch low. The per-pin mask bit
// is deliberately left as-is; with the global enable off it has no effect,
// and button sensing rewrites it on re-entry anyway.
func (c *Controller) EnterDisabled() {
	c.port.SetPinChangeEnable(false)
	c.port.SetDirection(c.pin, hw.Input)
	c.port.SetLevel(c.pin, hw.Low)
	c.state = Disabled
}

// Blink flashes the LED n times and restores button sensing afterwards.
// In LED-off mode the LED never lights, but the call still blocks for the
// same total time so caller timing is unchanged.
func (c *Controller) Blink(n int, sleep func(time.Duration)) {
	for i := 0; i < n; i++ {
		c.EnterLEDOn()
		sleep(BlinkTime)
		c.EnterButtonSensing()
		if i < n-1 {
			sleep(BlinkTime)
		}
	}
}

