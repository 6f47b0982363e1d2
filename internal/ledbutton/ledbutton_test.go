package ledbutton

import (
	"testing"
	"time"

	"github.com/sweeney/ups-adapter/internal/hw"
)

func TestEnterButtonSensing(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)

	c.EnterButtonSensing()

	if c.State() != ButtonSensing {
		t.Errorf("state = %v, want BUTTON_SENSING", c.State())
	}
	if port.Direction(hw.PinLEDButton) != hw.Input {
		t.Error("pin should be an input")
	}
	if !port.PullUp(hw.PinLEDButton) {
		t.Error("pull-up should be enabled")
	}
	if !port.InterruptMask(hw.PinLEDButton) {
		t.Error("interrupt mask should be set")
	}
	if !port.PinChangeEnabled() {
		t.Error("global pin-change enable should be set")
	}
}

func TestEnterButtonSensingClearsPendingFlagFirst(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)

	c.EnterButtonSensing()

	// The pending flag must be cleared before the mask and global enable
	// are set, or a stale press would fire immediately.
	flagAt, maskAt, enableAt := -1, -1, -1
	for i, op := range port.Ops {
		switch op.Name {
		case "flagclear":
			flagAt = i
		case "mask":
			maskAt = i
		case "pcen":
			enableAt = i
		}
	}
	if flagAt == -1 || maskAt == -1 || enableAt == -1 {
		t.Fatalf("missing ops: flag=%d mask=%d enable=%d", flagAt, maskAt, enableAt)
	}
	if flagAt > maskAt || flagAt > enableAt {
		t.Errorf("flag clear at %d must precede mask (%d) and enable (%d)", flagAt, maskAt, enableAt)
	}
}

func TestEnterLEDOn(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)
	c.EnterButtonSensing()

	c.EnterLEDOn()

	if c.State() != LEDOn {
		t.Errorf("state = %v, want LED_ON", c.State())
	}
	if port.Direction(hw.PinLEDButton) != hw.Output {
		t.Error("pin should be an output")
	}
	if port.Level(hw.PinLEDButton) != hw.Low {
		t.Error("LED is active-low; pin should be driven low")
	}
	if port.PinChangeEnabled() {
		t.Error("global pin-change enable should be off")
	}
	if port.InterruptMask(hw.PinLEDButton) {
		t.Error("interrupt mask should be cleared")
	}
}

func TestEnterLEDOnDisablesInterruptBeforeDirectionChange(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)
	c.EnterButtonSensing()
	port.Reset()

	c.EnterLEDOn()

	// Interrupts off strictly before the pin becomes an output.
	enableOffAt, outputAt := -1, -1
	for i, op := range port.Ops {
		if op.Name == "pcen" && !op.Bool && enableOffAt == -1 {
			enableOffAt = i
		}
		if op.Name == "direction" && op.Dir == hw.Output {
			outputAt = i
		}
	}
	if enableOffAt == -1 || outputAt == -1 {
		t.Fatalf("missing ops: enableOff=%d output=%d", enableOffAt, outputAt)
	}
	if enableOffAt > outputAt {
		t.Errorf("enable cleared at %d, after direction change at %d", enableOffAt, outputAt)
	}
}

func TestEnterLEDOnNoOpWhenLEDDisabled(t *testing.T) {
	states := []func(c *Controller){
		func(c *Controller) {}, // initial
		func(c *Controller) { c.EnterButtonSensing() },
		func(c *Controller) { c.EnterDisabled() },
	}

	for i, setup := range states {
		port := hw.NewFakePort()
		c := New(port, hw.PinLEDButton, true)
		setup(c)
		before := c.State()
		n := len(port.Ops)

		c.EnterLEDOn()

		if len(port.Ops) != n {
			t.Errorf("prior state %d: EnterLEDOn touched registers in LED-off mode: %+v", i, port.Ops[n:])
		}
		if c.State() != before {
			t.Errorf("prior state %d: state changed from %v to %v", i, before, c.State())
		}
	}
}

func TestEnterDisabled(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)
	c.EnterButtonSensing()

	c.EnterDisabled()

	if c.State() != Disabled {
		t.Errorf("state = %v, want DISABLED", c.State())
	}
	if port.PinChangeEnabled() {
		t.Error("global pin-change enable should be off")
	}
	if port.Direction(hw.PinLEDButton) != hw.Input {
		t.Error("pin should be high-impedance input")
	}
	if port.Level(hw.PinLEDButton) != hw.Low {
		t.Error("output latch should be low")
	}
	// Documented asymmetry: the mask bit is left as-is.
	if !port.InterruptMask(hw.PinLEDButton) {
		t.Error("mask bit must be left set by EnterDisabled")
	}
}

// TestNoOutputWhileInterruptEnabled replays every register operation from
// an arbitrary transition sequence and verifies the pin is never
// simultaneously an output and armed for pin-change interrupts.
func TestNoOutputWhileInterruptEnabled(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)

	sequence := []func(){
		c.EnterButtonSensing,
		c.EnterLEDOn,
		c.EnterButtonSensing,
		c.EnterDisabled,
		c.EnterButtonSensing,
		c.EnterLEDOn,
		c.EnterDisabled,
		c.EnterLEDOn,
		c.EnterButtonSensing,
	}
	for _, step := range sequence {
		step()
	}

	dir := hw.Input
	mask := false
	pcen := false
	for i, op := range port.Ops {
		if op.Pin == hw.PinLEDButton || op.Name == "pcen" {
			switch op.Name {
			case "direction":
				dir = op.Dir
			case "mask":
				mask = op.Bool
			case "pcen":
				pcen = op.Bool
			}
		}
		if dir == hw.Output && pcen {
			t.Fatalf("op %d (%+v): pin is an output with the global enable set", i, op)
		}
		if dir == hw.Output && mask && pcen {
			t.Fatalf("op %d (%+v): pin is an output with interrupts armed", i, op)
		}
	}
}

func TestBlink(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, false)
	c.EnterButtonSensing()

	var slept []time.Duration
	c.Blink(2, func(d time.Duration) { slept = append(slept, d) })

	if c.State() != ButtonSensing {
		t.Errorf("state after blink = %v, want BUTTON_SENSING", c.State())
	}
	// on, gap, on: three sleeps of BlinkTime
	if len(slept) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(slept))
	}
	for i, d := range slept {
		if d != BlinkTime {
			t.Errorf("sleep %d = %v, want %v", i, d, BlinkTime)
		}
	}
}

func TestBlinkLEDOffModeStillBlocks(t *testing.T) {
	port := hw.NewFakePort()
	c := New(port, hw.PinLEDButton, true)
	c.EnterButtonSensing()

	var total time.Duration
	c.Blink(3, func(d time.Duration) { total += d })

	if want := 5 * BlinkTime; total != want {
		t.Errorf("blocked %v, want %v", total, want)
	}
	// The pin must never have become an output.
	for _, op := range port.Ops {
		if op.Name == "direction" && op.Dir == hw.Output {
			t.Fatal("LED-off mode must never drive the pin as an output")
		}
	}
}
