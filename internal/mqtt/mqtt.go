// Package mqtt publishes power-action events and voltage telemetry with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for power-action events.
const Topic = "power/ups-adapter/events"

// TopicTelemetry is the MQTT topic for periodic voltage telemetry.
const TopicTelemetry = "power/ups-adapter/telemetry"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "power/ups-adapter/system"

// Publisher publishes adapter events to MQTT.
type Publisher interface {
	// Publish sends a power-action event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishTelemetry sends a voltage telemetry sample to the broker.
	PublishTelemetry(t Telemetry) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event represents a power action taken (or deliberately skipped) by the
// controller.
type Event struct {
	Timestamp  time.Time
	Action     string // "PULSE", "LEVEL", "SKIP"
	Op         string // "on", "off"
	DurationMs int64  // pulse length; zero for LEVEL and SKIP
	Cause      string // shutdown cause at the time of the action
}

// Telemetry is a periodic voltage sample.
type Telemetry struct {
	Timestamp     time.Time
	VoltageMV     int
	VoltageOK     bool // false if the last read failed
	UptimeSeconds int64
	Cause         string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Retained  bool   // Whether the message should be retained by the broker
}

// Payload represents the event message payload structure.
type Payload struct {
	UPS EventPayload `json:"ups"`
}

// EventPayload contains the power-action details.
type EventPayload struct {
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	Op         string `json:"op"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Cause      string `json:"cause,omitempty"`
}

// FormatPayload creates the JSON payload for a power-action event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		UPS: EventPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Action:     event.Action,
			Op:         event.Op,
			DurationMs: event.DurationMs,
			Cause:      event.Cause,
		},
	}
	return json.Marshal(payload)
}

// TelemetryPayload is the telemetry message envelope.
type TelemetryPayload struct {
	UPS TelemetryInner `json:"ups"`
}

// TelemetryInner contains the telemetry details.
type TelemetryInner struct {
	Timestamp     string `json:"timestamp"`
	VoltageMV     int    `json:"voltage_mv"`
	VoltageOK     bool   `json:"voltage_ok"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Cause         string `json:"shutdown_cause"`
}

// FormatTelemetryPayload creates the JSON payload for a telemetry sample.
func FormatTelemetryPayload(t Telemetry) ([]byte, error) {
	payload := TelemetryPayload{
		UPS: TelemetryInner{
			Timestamp:     t.Timestamp.UTC().Format(time.RFC3339),
			VoltageMV:     t.VoltageMV,
			VoltageOK:     t.VoltageOK,
			UptimeSeconds: t.UptimeSeconds,
			Cause:         t.Cause,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
