// Package ups implements the power controller for the UPS adapter: the
// on/off/restart decision logic and the timing-safe switch pulse generator.
//
// The controller does not track the target's power state itself. A
// switched UPS toggles state with every pulse, so the only defense against
// a redundant toggle is the optional external-voltage check; a
// voltage-controlled UPS follows the switch pin level directly and is
// naturally idempotent.
package ups

import (
	"log"
	"sync"
	"time"

	"github.com/sweeney/ups-adapter/internal/config"
	"github.com/sweeney/ups-adapter/internal/hw"
	"github.com/sweeney/ups-adapter/internal/voltage"
)

// Action kinds reported through Notify.
const (
	ActionPulse = "PULSE" // a timed pulse was issued
	ActionLevel = "LEVEL" // the switch pin level was set directly
	ActionSkip  = "SKIP"  // voltage check showed the action was redundant
)

// Action describes a completed or skipped power action.
type Action struct {
	Kind     string        // ActionPulse, ActionLevel or ActionSkip
	Op       string        // "on" or "off"
	Duration time.Duration // pulse length; zero for LEVEL and SKIP
}

// Controller owns the switch pin. All power actions are serialized on an
// internal mutex so a restart's off-delay-on sequence can never interleave
// with another action.
type Controller struct {
	// Voltage supplies external-voltage readings for the redundancy
	// check. May be nil, in which case checks are skipped and every
	// requested action is carried out.
	Voltage voltage.Reader

	// Cause is the process-wide shutdown cause, cleared at the start of
	// a restart. May be nil.
	Cause *config.CauseFlag

	// Notify, if non-nil, is called after every power action with a
	// description of what happened. Called with the action mutex held.
	Notify func(Action)

	// Sleep is the blocking delay primitive. Defaults to time.Sleep;
	// tests inject a recorder.
	Sleep func(time.Duration)

	mu      sync.Mutex
	port    hw.Port
	pin     hw.Pin
	cfg     config.ResetConfig
	timings *config.Timings
}

// New creates a Controller for the given switch pin.
func New(port hw.Port, pin hw.Pin, cfg config.ResetConfig, timings *config.Timings) *Controller {
	return &Controller{
		Sleep:   time.Sleep,
		port:    port,
		pin:     pin,
		cfg:     cfg,
		timings: timings,
	}
}

// Config returns the reset configuration the controller was built with.
func (c *Controller) Config() config.ResetConfig { return c.cfg }

// InitSwitchPin drives the switch pin to its resting state: output, high.
// Called once at startup before any power action.
func (c *Controller) InitSwitchPin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.port.SetLevel(c.pin, hw.High)
	c.port.SetDirection(c.pin, hw.Output)
}

// PushSwitch drives the switch pin low for d, then high again. The whole
// pulse runs to completion; there is no abort path. Callers snapshot d
// from the shared timing parameters before calling, so one pulse always
// uses one coherent duration.
func (c *Controller) PushSwitch(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushSwitch(d)
}

func (c *Controller) pushSwitch(d time.Duration) {
	c.port.SetLevel(c.pin, hw.Low)
	c.Sleep(d)
	c.port.SetLevel(c.pin, hw.High)
}

// Off requests the target be powered off.
//
// Voltage-controlled mode drives the switch pin low directly. Switched
// mode issues one pulse of the off duration, unless the configuration
// says to check the external voltage first and the reading shows the
// target is already off.
func (c *Controller) Off() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.off()
}

func (c *Controller) off() {
	if c.cfg.VoltageControlled() {
		c.port.SetLevel(c.pin, hw.Low)
		c.emit(Action{Kind: ActionLevel, Op: "off"})
		return
	}

	if c.cfg.ChecksVoltage() {
		if mv, ok := c.readVoltage(); ok && mv < voltage.MinPowerLevel {
			// Already off; a pulse would turn it back on.
			c.emit(Action{Kind: ActionSkip, Op: "off"})
			return
		}
	}

	d := c.timings.PulseOff()
	c.pushSwitch(d)
	c.emit(Action{Kind: ActionPulse, Op: "off", Duration: d})
}

// On requests the target be powered on. Symmetric to Off.
func (c *Controller) On() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.on()
}

func (c *Controller) on() {
	if c.cfg.VoltageControlled() {
		c.port.SetLevel(c.pin, hw.High)
		c.emit(Action{Kind: ActionLevel, Op: "on"})
		return
	}

	if c.cfg.ChecksVoltage() {
		if mv, ok := c.readVoltage(); ok && mv >= voltage.MinPowerLevel {
			// Already on; a pulse would turn it off.
			c.emit(Action{Kind: ActionSkip, Op: "on"})
			return
		}
	}

	d := c.timings.PulseOn()
	c.pushSwitch(d)
	c.emit(Action{Kind: ActionPulse, Op: "on", Duration: d})
}

// Restart power-cycles the target: clear the shutdown cause, power off,
// wait for the switch circuitry to settle, power on. The sequence holds
// the action mutex throughout, so no other power action can interleave.
// There is no partial-failure recovery; if the adapter itself loses power
// mid-sequence, the next boot starts from scratch.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Cause != nil {
		c.Cause.Clear()
	}

	c.off()
	c.Sleep(c.timings.Recovery())
	c.on()
}

// readVoltage samples the external voltage. A missing reader or a failed
// read returns ok=false: the redundancy check is only an optimization, so
// an unknown state means the requested action goes ahead.
func (c *Controller) readVoltage() (int, bool) {
	if c.Voltage == nil {
		return 0, false
	}
	mv, err := c.Voltage.ReadMillivolts()
	if err != nil {
		log.Printf("ups: voltage read failed, acting anyway: %v", err)
		return 0, false
	}
	return mv, true
}

func (c *Controller) emit(a Action) {
	if c.Notify != nil {
		c.Notify(a)
	}
}
