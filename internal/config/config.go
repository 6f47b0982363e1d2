// Package config holds the adapter's operating configuration: the 2-bit
// reset-configuration bitmask, the shared timing parameters, and the
// process-wide shutdown cause. The bitmask and LED-off mode are immutable
// during normal operation; the timing parameters may be changed at runtime
// by the host command path and are therefore snapshotted under a lock.
package config

import (
	"sync"
	"time"
)

// Reset-configuration bits, matching the original adapter's register layout.
const (
	bitTwoPulses       = 1 << 0 // switched UPS: each pulse toggles power
	bitCheckExtVoltage = 1 << 1 // consult measured voltage before pulsing
)

// ResetConfig is the 2-bit field selecting the power-control behavior.
// The zero value (neither bit set) is the default: voltage-level control
// with no voltage check. Undefined upper bits are ignored, not rejected.
type ResetConfig uint8

// NewResetConfig builds a ResetConfig from the two behavior flags.
func NewResetConfig(twoPulses, checkExtVoltage bool) ResetConfig {
	var c ResetConfig
	if twoPulses {
		c |= bitTwoPulses
	}
	if checkExtVoltage {
		c |= bitCheckExtVoltage
	}
	return c
}

// Switched reports whether the UPS is pulse-toggled.
func (c ResetConfig) Switched() bool { return c&bitTwoPulses != 0 }

// VoltageControlled reports whether the UPS power state follows the switch
// pin level directly.
func (c ResetConfig) VoltageControlled() bool { return !c.Switched() }

// ChecksVoltage reports whether power actions consult the measured external
// voltage to skip redundant pulses.
func (c ResetConfig) ChecksVoltage() bool { return c&bitCheckExtVoltage != 0 }

func (c ResetConfig) String() string {
	switch {
	case c.Switched() && c.ChecksVoltage():
		return "switched+voltage-check"
	case c.Switched():
		return "switched"
	case c.ChecksVoltage():
		return "level+voltage-check"
	default:
		return "level"
	}
}

// TimingValues is a coherent snapshot of all timing parameters.
type TimingValues struct {
	PulseLength         time.Duration
	PulseLengthOn       time.Duration
	PulseLengthOff      time.Duration
	SwitchRecoveryDelay time.Duration
}

// Timings holds the pulse and recovery durations behind a mutex. A host
// command may rewrite them while a power action is reading them; every
// read-before-use takes exactly one value under the lock so a pulse can
// never observe a torn update.
type Timings struct {
	mu sync.Mutex
	v  TimingValues
}

// NewTimings creates a Timings with the given initial values.
func NewTimings(v TimingValues) *Timings {
	return &Timings{v: v}
}

// Set replaces all timing parameters at once. This is the runtime
// configuration-update path.
func (t *Timings) Set(v TimingValues) {
	t.mu.Lock()
	t.v = v
	t.mu.Unlock()
}

// Snapshot returns a coherent copy of all values, for display.
func (t *Timings) Snapshot() TimingValues {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.v
}

// PulseOn returns the duration for an "on" pulse: PulseLengthOn, or
// PulseLength when the on-specific value is zero. The fallback lets a
// single shared default serve both directions until asymmetric tuning is
// configured explicitly.
func (t *Timings) PulseOn() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.v.PulseLengthOn != 0 {
		return t.v.PulseLengthOn
	}
	return t.v.PulseLength
}

// PulseOff returns the duration for an "off" pulse, with the same fallback
// as PulseOn.
func (t *Timings) PulseOff() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.v.PulseLengthOff != 0 {
		return t.v.PulseLengthOff
	}
	return t.v.PulseLength
}

// Recovery returns the switch recovery delay.
func (t *Timings) Recovery() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.v.SwitchRecoveryDelay
}

// Cause identifies why a shutdown was requested. The values mirror the
// original adapter's shutdown-level bits.
type Cause uint8

const (
	CauseNone       Cause = 0
	CauseInitiated  Cause = 1 << 1 // host requested the shutdown
	CauseExtVoltage Cause = 1 << 2 // external supply dropped
	CauseButton     Cause = 1 << 3 // front-panel button press
	CauseBatVoltage Cause = 1 << 7 // battery critically low
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseInitiated:
		return "initiated"
	case CauseExtVoltage:
		return "ext_voltage"
	case CauseButton:
		return "button"
	case CauseBatVoltage:
		return "bat_voltage"
	}
	return "unknown"
}

// CauseFlag is the process-wide shutdown cause. Shutdown-detection logic
// sets it; the power controller clears it at the start of a restart.
type CauseFlag struct {
	mu sync.Mutex
	c  Cause
}

// Set records a shutdown cause.
func (f *CauseFlag) Set(c Cause) {
	f.mu.Lock()
	f.c = c
	f.mu.Unlock()
}

// Get returns the current cause.
func (f *CauseFlag) Get() Cause {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c
}

// Clear resets the cause to none.
func (f *CauseFlag) Clear() {
	f.Set(CauseNone)
}
