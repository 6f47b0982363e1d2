package hw

// Op records a single register operation applied to the FakePort.
// Bool carries the level for "level" ops and the on/off flag for
// "pullup", "mask" and "pcen" ops; it is unused for the others.
type Op struct {
	Name string // "direction", "level", "pullup", "mask", "flagclear", "pcen"
	Pin  Pin    // not meaningful for "pcen"
	Dir  Direction
	Bool bool
}

// pinRegs is the simulated register state of one pin.
type pinRegs struct {
	dir    Direction
	level  Level
	pullUp bool
	mask   bool
}

// FakePort is a simulated register file that records every operation in
// order. Tests assert against both the final state and the Ops log.
type FakePort struct {
	// Ops contains every operation in application order.
	Ops []Op

	// Closed tracks if Close was called.
	Closed bool

	pins map[Pin]*pinRegs
	pcen bool
}

// NewFakePort creates a FakePort with all pins as inputs, low, no pull-up,
// interrupts masked off and the global pin-change enable clear.
func NewFakePort() *FakePort {
	return &FakePort{pins: map[Pin]*pinRegs{}}
}

func (f *FakePort) pin(p Pin) *pinRegs {
	r, ok := f.pins[p]
	if !ok {
		r = &pinRegs{}
		f.pins[p] = r
	}
	return r
}

// SetDirection records a direction register write.
func (f *FakePort) SetDirection(pin Pin, dir Direction) {
	f.pin(pin).dir = dir
	f.Ops = append(f.Ops, Op{Name: "direction", Pin: pin, Dir: dir})
}

// SetLevel records an output register write.
func (f *FakePort) SetLevel(pin Pin, level Level) {
	f.pin(pin).level = level
	f.Ops = append(f.Ops, Op{Name: "level", Pin: pin, Bool: bool(level)})
}

// SetPullUp records a pull-up change.
func (f *FakePort) SetPullUp(pin Pin, on bool) {
	f.pin(pin).pullUp = on
	f.Ops = append(f.Ops, Op{Name: "pullup", Pin: pin, Bool: on})
}

// SetInterruptMask records a mask bit change.
func (f *FakePort) SetInterruptMask(pin Pin, on bool) {
	f.pin(pin).mask = on
	f.Ops = append(f.Ops, Op{Name: "mask", Pin: pin, Bool: on})
}

// ClearInterruptFlag records a pending-flag clear.
func (f *FakePort) ClearInterruptFlag(pin Pin) {
	f.Ops = append(f.Ops, Op{Name: "flagclear", Pin: pin})
}

// SetPinChangeEnable records a global enable change.
func (f *FakePort) SetPinChangeEnable(on bool) {
	f.pcen = on
	f.Ops = append(f.Ops, Op{Name: "pcen", Bool: on})
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Direction returns a pin's current direction.
func (f *FakePort) Direction(pin Pin) Direction { return f.pin(pin).dir }

// Level returns a pin's current output level.
func (f *FakePort) Level(pin Pin) Level { return f.pin(pin).level }

// PullUp returns whether a pin's pull-up is enabled.
func (f *FakePort) PullUp(pin Pin) bool { return f.pin(pin).pullUp }

// InterruptMask returns a pin's mask bit.
func (f *FakePort) InterruptMask(pin Pin) bool { return f.pin(pin).mask }

// PinChangeEnabled returns the global pin-change enable.
func (f *FakePort) PinChangeEnabled() bool { return f.pcen }

// LevelOps returns the sequence of level writes applied to a pin, in order.
func (f *FakePort) LevelOps(pin Pin) []Level {
	var levels []Level
	for _, op := range f.Ops {
		if op.Name == "level" && op.Pin == pin {
			levels = append(levels, Level(op.Bool))
		}
	}
	return levels
}

// Reset clears the op log and restores the power-on register state.
func (f *FakePort) Reset() {
	f.Ops = nil
	f.pins = map[Pin]*pinRegs{}
	f.pcen = false
	f.Closed = false
}
