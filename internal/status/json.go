package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	VoltageMV     int         `json:"voltage_mv"`
	VoltageOK     bool        `json:"voltage_ok"`
	LastAction    *ActionJSON `json:"last_action,omitempty"`
	Cause         string      `json:"shutdown_cause"`
	PinState      string      `json:"led_button_pin"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Timings       TimingsJSON `json:"timings"`
	Config        ConfigJSON  `json:"config"`
}

// ActionJSON is the JSON representation of the last power action.
type ActionJSON struct {
	Kind       string `json:"kind"`
	Op         string `json:"op"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	At         string `json:"at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// TimingsJSON is the JSON representation of the timing parameters.
type TimingsJSON struct {
	PulseMs    int64 `json:"pulse_ms"`
	PulseOnMs  int64 `json:"pulse_on_ms"`
	PulseOffMs int64 `json:"pulse_off_ms"`
	RecoveryMs int64 `json:"recovery_ms"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ResetConfig   string `json:"reset_config"`
	Switched      bool   `json:"switched"`
	ChecksVoltage bool   `json:"checks_voltage"`
	LEDOffMode    bool   `json:"led_off_mode"`
	Broker        string `json:"broker"`
	HTTPAddr      string `json:"http_addr"`
	PollMs        int64  `json:"poll_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	LineSwitch    int    `json:"line_switch"`
	LineLEDButton int    `json:"line_led_button"`
}

func buildInner(snap Snapshot) StatusInner {
	pin := snap.PinState
	if pin == "" {
		pin = "UNKNOWN"
	}

	inner := StatusInner{
		VoltageMV:     snap.VoltageMV,
		VoltageOK:     snap.VoltageOK,
		Cause:         snap.Cause,
		PinState:      pin,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
		},
		Timings: TimingsJSON{
			PulseMs:    snap.Timings.PulseLength.Milliseconds(),
			PulseOnMs:  snap.Timings.PulseLengthOn.Milliseconds(),
			PulseOffMs: snap.Timings.PulseLengthOff.Milliseconds(),
			RecoveryMs: snap.Timings.SwitchRecoveryDelay.Milliseconds(),
		},
		Config: ConfigJSON{
			ResetConfig:   snap.Config.ResetConfig,
			Switched:      snap.Config.Switched,
			ChecksVoltage: snap.Config.ChecksVoltage,
			LEDOffMode:    snap.Config.LEDOffMode,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			PollMs:        snap.Config.PollMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			LineSwitch:    snap.Config.LineSwitch,
			LineLEDButton: snap.Config.LineLEDButton,
		},
	}

	if snap.LastAction != nil {
		inner.LastAction = &ActionJSON{
			Kind:       snap.LastAction.Kind,
			Op:         snap.LastAction.Op,
			DurationMs: snap.LastAction.Duration.Milliseconds(),
			At:         snap.LastAction.At.UTC().Format(time.RFC3339),
		}
	}

	return inner
}

// FormatJSON renders a snapshot as the status JSON document.
func FormatJSON(snap Snapshot) []byte {
	doc := StatusJSON{Status: buildInner(snap)}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Snapshot contains only plain values; this cannot happen.
		return []byte(`{"status":{}}`)
	}
	return b
}
