package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/ups-adapter/internal/config"
	"github.com/sweeney/ups-adapter/internal/hw"
	"github.com/sweeney/ups-adapter/internal/ledbutton"
	"github.com/sweeney/ups-adapter/internal/mqtt"
	"github.com/sweeney/ups-adapter/internal/status"
	"github.com/sweeney/ups-adapter/internal/voltage"
)

type loopHarness struct {
	deps      loopDeps
	port      *hw.FakePort
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	cause     *config.CauseFlag
	tick      chan time.Time
	button    chan hw.Level
	sig       chan os.Signal
	done      chan error
}

func newLoopHarness(t *testing.T, reader voltage.Reader, heartbeat time.Duration) *loopHarness {
	t.Helper()

	port := hw.NewFakePort()
	ledBtn := ledbutton.New(port, hw.PinLEDButton, false)
	ledBtn.EnterButtonSensing()

	publisher := mqtt.NewFakePublisher()
	publisher.Connected = true
	tracker := status.NewTracker(time.Now(), status.Config{}, config.TimingValues{})
	cause := &config.CauseFlag{}

	h := &loopHarness{
		port:      port,
		publisher: publisher,
		tracker:   tracker,
		cause:     cause,
		tick:      make(chan time.Time),
		button:    make(chan hw.Level),
		sig:       make(chan os.Signal),
		done:      make(chan error, 1),
	}
	h.deps = loopDeps{
		reader:    reader,
		publisher: publisher,
		status:    publisher,
		tracker:   tracker,
		ledBtn:    ledBtn,
		cause:     cause,
		heartbeat: heartbeat,
		now:       time.Now,
		sleep:     func(time.Duration) {},
		tick:      h.tick,
		button:    h.button,
		sig:       h.sig,
	}

	go func() { h.done <- runLoop(h.deps) }()
	return h
}

// stop shuts the loop down via SIGTERM and waits for it to return.
func (h *loopHarness) stop(t *testing.T) {
	t.Helper()
	h.sig <- syscall.SIGTERM
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after SIGTERM")
	}
}

func TestRunLoopButtonPress(t *testing.T) {
	h := newLoopHarness(t, nil, 0)

	h.button <- hw.Low // press (active-low)
	h.stop(t)

	if h.cause.Get() != config.CauseButton {
		t.Errorf("cause = %v, want button", h.cause.Get())
	}

	var buttonEvents int
	for _, e := range h.publisher.Events {
		if e.Action == "BUTTON" {
			buttonEvents++
			if e.Cause != "button" {
				t.Errorf("button event cause = %q, want button", e.Cause)
			}
		}
	}
	if buttonEvents != 1 {
		t.Errorf("expected 1 button event, got %d", buttonEvents)
	}

	// The blink drove the pin as an output and button sensing was
	// restored afterwards.
	sawOutput := false
	for _, op := range h.port.Ops {
		if op.Name == "direction" && op.Pin == hw.PinLEDButton && op.Dir == hw.Output {
			sawOutput = true
		}
	}
	if !sawOutput {
		t.Error("expected the blink to drive the LED pin")
	}
}

func TestRunLoopButtonReleaseIgnored(t *testing.T) {
	h := newLoopHarness(t, nil, 0)

	h.button <- hw.High // release edge
	h.stop(t)

	if h.cause.Get() != config.CauseNone {
		t.Errorf("cause = %v, want none (release must be ignored)", h.cause.Get())
	}
	for _, e := range h.publisher.Events {
		if e.Action == "BUTTON" {
			t.Error("release edge must not publish a button event")
		}
	}
}

func TestRunLoopVoltagePolling(t *testing.T) {
	reader := voltage.NewFakeReader(5080)
	h := newLoopHarness(t, reader, 0)

	h.tick <- time.Now()
	h.stop(t)

	snap := h.tracker.Snapshot()
	if snap.VoltageMV != 5080 || !snap.VoltageOK {
		t.Errorf("voltage = %d/%v, want 5080/true", snap.VoltageMV, snap.VoltageOK)
	}
	if !snap.MQTTConnected {
		t.Error("tracker should report MQTT connected")
	}
}

func TestRunLoopHeartbeatTelemetry(t *testing.T) {
	reader := voltage.NewFakeReader(4900)
	h := newLoopHarness(t, reader, time.Nanosecond)

	// First tick samples the voltage and, with the interval elapsed,
	// publishes telemetry.
	time.Sleep(time.Millisecond) // ensure the interval has passed
	h.tick <- time.Now()
	h.stop(t)

	if len(h.publisher.Telemetry) != 1 {
		t.Fatalf("expected 1 telemetry sample, got %d", len(h.publisher.Telemetry))
	}
	sample := h.publisher.Telemetry[0]
	if sample.VoltageMV != 4900 || !sample.VoltageOK {
		t.Errorf("telemetry voltage = %d/%v, want 4900/true", sample.VoltageMV, sample.VoltageOK)
	}
	if sample.Cause != "none" {
		t.Errorf("telemetry cause = %q, want none", sample.Cause)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	reader := voltage.NewFakeReader(4900)
	h := newLoopHarness(t, reader, 0)

	h.tick <- time.Now()
	h.tick <- time.Now()
	h.stop(t)

	if len(h.publisher.Telemetry) != 0 {
		t.Errorf("expected no telemetry with heartbeat disabled, got %d", len(h.publisher.Telemetry))
	}
}

func TestRunLoopShutdown(t *testing.T) {
	h := newLoopHarness(t, nil, 0)

	h.stop(t)

	var shutdowns int
	for _, e := range h.publisher.SystemEvents {
		if e.Event == "SHUTDOWN" {
			shutdowns++
			if e.Reason != "SIGTERM" {
				t.Errorf("shutdown reason = %q, want SIGTERM", e.Reason)
			}
			if !e.Retained {
				t.Error("shutdown event should be retained")
			}
		}
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 shutdown event, got %d", shutdowns)
	}

	// The dual-mode pin is parked before exit.
	if h.deps.ledBtn.State() != ledbutton.Disabled {
		t.Errorf("pin state = %v, want DISABLED", h.deps.ledBtn.State())
	}
	if h.port.PinChangeEnabled() {
		t.Error("pin-change interrupts should be off after shutdown")
	}
}
