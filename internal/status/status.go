// Package status provides a thread-safe status tracker for the ups-adapter
// daemon. It is read by HTTP handlers and the telemetry path.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ups-adapter/internal/config"
)

// LastAction is a local copy of the most recent power action, kept here so
// status does not depend on the controller package.
type LastAction struct {
	Kind     string // "PULSE", "LEVEL", "SKIP"
	Op       string // "on", "off"
	Duration time.Duration
	At       time.Time
}

// Config contains daemon configuration for display.
type Config struct {
	ResetConfig   string // human-readable decode of the 2-bit field
	Switched      bool
	ChecksVoltage bool
	LEDOffMode    bool
	Broker        string
	HTTPAddr      string
	PollMs        int64
	HeartbeatMs   int64
	LineSwitch    int
	LineLEDButton int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	VoltageMV     int
	VoltageOK     bool // false until the first successful read, or after a failed one
	LastAction    *LastAction
	Cause         string
	PinState      string // dual-mode pin role
	MQTTConnected bool
	Timings       config.TimingValues
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, config and
// initial timing values.
func NewTracker(startTime time.Time, cfg Config, timings config.TimingValues) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Timings:   timings,
			Cause:     config.CauseNone.String(),
		},
	}
}

// SetVoltage records the latest voltage sample. ok is false for a failed
// read; the previous value is kept for display but flagged stale.
func (t *Tracker) SetVoltage(mv int, ok bool) {
	t.mu.Lock()
	if ok {
		t.snap.VoltageMV = mv
	}
	t.snap.VoltageOK = ok
	t.mu.Unlock()
}

// SetLastAction records the most recent power action.
func (t *Tracker) SetLastAction(a LastAction) {
	t.mu.Lock()
	t.snap.LastAction = &a
	t.mu.Unlock()
}

// SetCause records the current shutdown cause.
func (t *Tracker) SetCause(cause string) {
	t.mu.Lock()
	t.snap.Cause = cause
	t.mu.Unlock()
}

// SetPinState records the dual-mode pin's current role.
func (t *Tracker) SetPinState(state string) {
	t.mu.Lock()
	t.snap.PinState = state
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetTimings records updated timing values after a host command.
func (t *Tracker) SetTimings(v config.TimingValues) {
	t.mu.Lock()
	t.snap.Timings = v
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
