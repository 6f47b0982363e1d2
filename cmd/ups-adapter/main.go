// Command ups-adapter drives a UPS power-cycling board for a Raspberry Pi:
// it owns the switch pin (timed pulses or level control), multiplexes the
// LED/button pin, publishes power actions and voltage telemetry to MQTT,
// and exposes an HTTP surface for status and host commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/ups-adapter/internal/config"
	"github.com/sweeney/ups-adapter/internal/hw"
	"github.com/sweeney/ups-adapter/internal/ledbutton"
	"github.com/sweeney/ups-adapter/internal/mqtt"
	"github.com/sweeney/ups-adapter/internal/status"
	"github.com/sweeney/ups-adapter/internal/ups"
	"github.com/sweeney/ups-adapter/internal/voltage"
	"github.com/sweeney/ups-adapter/internal/web"
)

func main() {
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status/control address (empty to disable)")
	poll := flag.Duration("poll", 1*time.Second, "Voltage polling interval")
	heartbeat := flag.Duration("heartbeat", 1*time.Minute, "Telemetry interval (0 to disable)")

	lineSwitch := flag.Int("pin-switch", hw.DefaultLineSwitch, "BCM line number for the switch pin")
	lineLEDButton := flag.Int("pin-ledbutton", hw.DefaultLineLEDButton, "BCM line number for the LED/button pin")

	switched := flag.Bool("switched", false, "UPS is pulse-toggled (two-pulse mode) rather than level-controlled")
	checkVoltage := flag.Bool("check-voltage", false, "Check external voltage before pulsing to skip redundant toggles")
	ledOff := flag.Bool("led-off", false, "Permanently disable the LED to save power")

	pulse := flag.Duration("pulse", 300*time.Millisecond, "Default switch pulse length")
	pulseOn := flag.Duration("pulse-on", 0, "Pulse length for power-on (0 = use -pulse)")
	pulseOff := flag.Duration("pulse-off", 0, "Pulse length for power-off (0 = use -pulse)")
	recovery := flag.Duration("recovery", 1*time.Second, "Switch recovery delay between off and on during restart")

	i2cAddr := flag.Uint("i2c-addr", voltage.DefaultAddr, "I2C address of the voltage monitor")
	printVoltage := flag.Bool("print-voltage", false, "Print the external voltage and exit")

	flag.Parse()

	opts := options{
		broker:        *broker,
		httpAddr:      *httpAddr,
		poll:          *poll,
		heartbeat:     *heartbeat,
		lineSwitch:    *lineSwitch,
		lineLEDButton: *lineLEDButton,
		cfg:           config.NewResetConfig(*switched, *checkVoltage),
		ledOff:        *ledOff,
		timings: config.TimingValues{
			PulseLength:         *pulse,
			PulseLengthOn:       *pulseOn,
			PulseLengthOff:      *pulseOff,
			SwitchRecoveryDelay: *recovery,
		},
		i2cAddr:      uint16(*i2cAddr),
		printVoltage: *printVoltage,
	}

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	broker        string
	httpAddr      string
	poll          time.Duration
	heartbeat     time.Duration
	lineSwitch    int
	lineLEDButton int
	cfg           config.ResetConfig
	ledOff        bool
	timings       config.TimingValues
	i2cAddr       uint16
	printVoltage  bool
}

func run(opts options) error {
	// Print-voltage mode needs no GPIO.
	if opts.printVoltage {
		reader, err := voltage.NewRealReader(opts.i2cAddr)
		if err != nil {
			return fmt.Errorf("init voltage monitor: %w", err)
		}
		defer reader.Close()
		mv, err := reader.ReadMillivolts()
		if err != nil {
			return fmt.Errorf("read voltage: %w", err)
		}
		fmt.Printf("external voltage: %d mV\n", mv)
		return nil
	}

	// Initialize GPIO. Button edges arrive on a channel so the run loop
	// stays the single place that mutates daemon state.
	buttonCh := make(chan hw.Level, 8)
	port, err := hw.NewRealPort(opts.lineSwitch, opts.lineLEDButton, func(pin hw.Pin, level hw.Level) {
		if pin != hw.PinLEDButton {
			return
		}
		select {
		case buttonCh <- level:
		default:
			// run loop is behind; drop rather than block the event goroutine
		}
	})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	// The voltage monitor is optional: without it, voltage checks are
	// skipped and every requested action is carried out.
	var reader voltage.Reader
	if r, err := voltage.NewRealReader(opts.i2cAddr); err != nil {
		log.Printf("voltage monitor unavailable, running without voltage checks: %v", err)
	} else {
		reader = r
		defer r.Close()
	}

	timings := config.NewTimings(opts.timings)
	cause := &config.CauseFlag{}

	controller := ups.New(port, hw.PinSwitch, opts.cfg, timings)
	controller.Voltage = reader
	controller.Cause = cause
	controller.InitSwitchPin()

	ledBtn := ledbutton.New(port, hw.PinLEDButton, opts.ledOff)
	ledBtn.EnterButtonSensing()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(opts.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		ResetConfig:   opts.cfg.String(),
		Switched:      opts.cfg.Switched(),
		ChecksVoltage: opts.cfg.ChecksVoltage(),
		LEDOffMode:    opts.ledOff,
		Broker:        opts.broker,
		HTTPAddr:      opts.httpAddr,
		PollMs:        opts.poll.Milliseconds(),
		HeartbeatMs:   opts.heartbeat.Milliseconds(),
		LineSwitch:    opts.lineSwitch,
		LineLEDButton: opts.lineLEDButton,
	}, opts.timings)
	tracker.SetPinState(ledBtn.State().String())

	// Every power action lands in the log, the tracker and MQTT.
	controller.Notify = func(a ups.Action) {
		now := time.Now()
		log.Printf("power: %s %s duration=%v", a.Kind, a.Op, a.Duration)
		tracker.SetLastAction(status.LastAction{
			Kind:     a.Kind,
			Op:       a.Op,
			Duration: a.Duration,
			At:       now,
		})
		tracker.SetCause(cause.Get().String())
		err := publisher.Publish(mqtt.Event{
			Timestamp:  now,
			Action:     a.Kind,
			Op:         a.Op,
			DurationMs: a.Duration.Milliseconds(),
			Cause:      cause.Get().String(),
		})
		if err != nil {
			log.Printf("publish error: %v", err)
		}
	}

	// Start HTTP status/control server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, controller, timings)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", opts.httpAddr)
	}

	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	log.Printf("started: config=%s poll=%v heartbeat=%v broker=%s",
		opts.cfg, opts.poll, opts.heartbeat, opts.broker)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		reader:    reader,
		publisher: publisher,
		status:    publisher,
		tracker:   tracker,
		ledBtn:    ledBtn,
		cause:     cause,
		heartbeat: opts.heartbeat,
		now:       time.Now,
		sleep:     time.Sleep,
		tick:      ticker.C,
		button:    buttonCh,
		sig:       sigCh,
	})
}

// loopDeps carries everything the run loop touches, so tests can inject
// fakes and drive the channels directly.
type loopDeps struct {
	reader    voltage.Reader // may be nil
	publisher mqtt.Publisher
	status    mqtt.ConnectionStatus // may be nil
	tracker   *status.Tracker
	ledBtn    *ledbutton.Controller
	cause     *config.CauseFlag
	heartbeat time.Duration
	now       func() time.Time
	sleep     func(time.Duration)
	tick      <-chan time.Time
	button    <-chan hw.Level
	sig       <-chan os.Signal
}

func runLoop(d loopDeps) error {
	startTime := d.now()
	lastHeartbeat := startTime

	for {
		select {
		case s := <-d.sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := d.publisher.PublishSystem(mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			// Park the dual-mode pin for minimum power draw.
			d.ledBtn.EnterDisabled()
			d.tracker.SetPinState(d.ledBtn.State().String())
			return nil

		case level := <-d.button:
			// Active-low button: a falling edge is a press, the rising
			// edge is the release.
			if level != hw.Low {
				continue
			}
			log.Printf("button pressed")
			d.cause.Set(config.CauseButton)
			d.tracker.SetCause(d.cause.Get().String())
			if err := d.publisher.Publish(mqtt.Event{
				Timestamp: d.now(),
				Action:    "BUTTON",
				Cause:     config.CauseButton.String(),
			}); err != nil {
				log.Printf("publish error: %v", err)
			}
			d.ledBtn.Blink(1, d.sleep)
			d.tracker.SetPinState(d.ledBtn.State().String())

		case <-d.tick:
			t := d.now()

			if d.reader != nil {
				mv, err := d.reader.ReadMillivolts()
				if err != nil {
					log.Printf("voltage read error: %v", err)
					d.tracker.SetVoltage(0, false)
				} else {
					d.tracker.SetVoltage(mv, true)
				}
			}

			if d.status != nil {
				d.tracker.SetMQTTConnected(d.status.IsConnected())
			}

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				snap := d.tracker.Snapshot()
				err := d.publisher.PublishTelemetry(mqtt.Telemetry{
					Timestamp:     t,
					VoltageMV:     snap.VoltageMV,
					VoltageOK:     snap.VoltageOK,
					UptimeSeconds: int64(t.Sub(startTime).Seconds()),
					Cause:         snap.Cause,
				})
				if err != nil {
					log.Printf("telemetry publish error: %v", err)
				}
			}
		}
	}
}
