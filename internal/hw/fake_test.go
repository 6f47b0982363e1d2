package hw

import "testing"

func TestFakePortInitialState(t *testing.T) {
	f := NewFakePort()

	if f.Direction(PinSwitch) != Input {
		t.Error("pins should power on as inputs")
	}
	if f.Level(PinSwitch) != Low {
		t.Error("pins should power on low")
	}
	if f.PullUp(PinLEDButton) {
		t.Error("pull-ups should power on disabled")
	}
	if f.InterruptMask(PinLEDButton) {
		t.Error("interrupt mask should power on clear")
	}
	if f.PinChangeEnabled() {
		t.Error("global pin-change enable should power on clear")
	}
}

func TestFakePortRecordsState(t *testing.T) {
	f := NewFakePort()

	f.SetDirection(PinSwitch, Output)
	f.SetLevel(PinSwitch, High)
	f.SetPullUp(PinLEDButton, true)
	f.SetInterruptMask(PinLEDButton, true)
	f.SetPinChangeEnable(true)

	if f.Direction(PinSwitch) != Output {
		t.Error("expected switch pin to be output")
	}
	if f.Level(PinSwitch) != High {
		t.Error("expected switch pin to be high")
	}
	if !f.PullUp(PinLEDButton) {
		t.Error("expected led/button pull-up enabled")
	}
	if !f.InterruptMask(PinLEDButton) {
		t.Error("expected led/button mask set")
	}
	if !f.PinChangeEnabled() {
		t.Error("expected global enable set")
	}
}

func TestFakePortOpLogOrder(t *testing.T) {
	f := NewFakePort()

	f.SetLevel(PinSwitch, Low)
	f.SetLevel(PinSwitch, High)
	f.ClearInterruptFlag(PinLEDButton)

	want := []Op{
		{Name: "level", Pin: PinSwitch, Bool: false},
		{Name: "level", Pin: PinSwitch, Bool: true},
		{Name: "flagclear", Pin: PinLEDButton},
	}

	if len(f.Ops) != len(want) {
		t.Fatalf("expected %d ops, got %d", len(want), len(f.Ops))
	}
	for i, op := range f.Ops {
		if op != want[i] {
			t.Errorf("op %d: got %+v, want %+v", i, op, want[i])
		}
	}
}

func TestFakePortLevelOps(t *testing.T) {
	f := NewFakePort()

	f.SetLevel(PinSwitch, Low)
	f.SetLevel(PinLEDButton, High) // different pin, must not appear
	f.SetLevel(PinSwitch, High)

	levels := f.LevelOps(PinSwitch)
	if len(levels) != 2 {
		t.Fatalf("expected 2 level ops, got %d", len(levels))
	}
	if levels[0] != Low || levels[1] != High {
		t.Errorf("expected [LOW HIGH], got %v", levels)
	}
}

func TestFakePortReset(t *testing.T) {
	f := NewFakePort()

	f.SetDirection(PinSwitch, Output)
	f.SetPinChangeEnable(true)
	f.Close()

	f.Reset()

	if len(f.Ops) != 0 {
		t.Error("expected empty op log after reset")
	}
	if f.Direction(PinSwitch) != Input {
		t.Error("expected input direction after reset")
	}
	if f.PinChangeEnabled() {
		t.Error("expected global enable clear after reset")
	}
	if f.Closed {
		t.Error("expected not closed after reset")
	}
}
