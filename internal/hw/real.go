//go:build linux

package hw

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// debouncePeriod is applied to the button line by the kernel so a bouncy
// switch produces one event per press.
const debouncePeriod = 10 * time.Millisecond

// RealPort drives actual hardware through the Linux GPIO character device.
//
// The Port contract is register-style and infallible, so reconfiguration
// failures are logged rather than returned; the electrical state simply
// stays as it was, which is also what a failed register write would do.
type RealPort struct {
	chip  *gpiocdev.Chip
	lines map[Pin]*gpiocdev.Line

	// desired state per pin; flushed to the kernel on every change
	dir    map[Pin]Direction
	level  map[Pin]Level
	pullUp map[Pin]bool
	mask   map[Pin]bool
	pcen   bool

	onPinChange func(Pin, Level)
	offsets     map[Pin]int
	byOffset    map[int]Pin
}

// NewRealPort requests the switch and LED/button lines from gpiochip0.
// onPinChange is invoked from the event goroutine whenever a pin with an
// enabled interrupt mask changes level while the global enable is on; it
// may be nil.
func NewRealPort(lineSwitch, lineLEDButton int, onPinChange func(Pin, Level)) (*RealPort, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPort{
		chip:        chip,
		lines:       map[Pin]*gpiocdev.Line{},
		dir:         map[Pin]Direction{PinSwitch: Input, PinLEDButton: Input},
		level:       map[Pin]Level{},
		pullUp:      map[Pin]bool{},
		mask:        map[Pin]bool{},
		onPinChange: onPinChange,
		offsets:     map[Pin]int{PinSwitch: lineSwitch, PinLEDButton: lineLEDButton},
		byOffset:    map[int]Pin{lineSwitch: PinSwitch, lineLEDButton: PinLEDButton},
	}

	// Both lines start as inputs, matching Pi boot defaults. The event
	// handler must be attached at request time; edge detection itself is
	// toggled later via Reconfigure.
	for pin, offset := range p.offsets {
		line, err := chip.RequestLine(offset, gpiocdev.AsInput,
			gpiocdev.WithDebounce(debouncePeriod),
			gpiocdev.WithEventHandler(p.handleEvent))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s line %d: %w", pin, offset, err)
		}
		p.lines[pin] = line
	}

	return p, nil
}

func (p *RealPort) handleEvent(evt gpiocdev.LineEvent) {
	pin, ok := p.byOffset[evt.Offset]
	if !ok || p.onPinChange == nil {
		return
	}
	level := Low
	if evt.Type == gpiocdev.LineEventRisingEdge {
		level = High
	}
	p.onPinChange(pin, level)
}

// apply flushes a pin's desired direction, level, bias and edge state.
func (p *RealPort) apply(pin Pin) {
	line, ok := p.lines[pin]
	if !ok {
		return
	}

	var opts []gpiocdev.LineConfigOption
	if p.dir[pin] == Output {
		v := 0
		if p.level[pin] == High {
			v = 1
		}
		opts = append(opts, gpiocdev.AsOutput(v))
	} else {
		opts = append(opts, gpiocdev.AsInput)
		if p.pullUp[pin] {
			opts = append(opts, gpiocdev.WithPullUp)
		} else {
			opts = append(opts, gpiocdev.WithBiasDisabled)
		}
		if p.pcen && p.mask[pin] {
			opts = append(opts, gpiocdev.WithBothEdges)
		}
	}

	if err := line.Reconfigure(opts...); err != nil {
		log.Printf("hw: reconfigure %s: %v", pin, err)
	}
}

// SetDirection configures a pin as input or output.
func (p *RealPort) SetDirection(pin Pin, dir Direction) {
	p.dir[pin] = dir
	p.apply(pin)
}

// SetLevel drives a pin's output level.
func (p *RealPort) SetLevel(pin Pin, level Level) {
	p.level[pin] = level
	if p.dir[pin] != Output {
		// Output latch only; takes effect when the direction changes.
		return
	}
	v := 0
	if level == High {
		v = 1
	}
	if err := p.lines[pin].SetValue(v); err != nil {
		log.Printf("hw: set %s: %v", pin, err)
	}
}

// SetPullUp enables or disables a pin's pull-up bias.
func (p *RealPort) SetPullUp(pin Pin, on bool) {
	p.pullUp[pin] = on
	p.apply(pin)
}

// SetInterruptMask enables or disables edge delivery for a pin.
func (p *RealPort) SetInterruptMask(pin Pin, on bool) {
	p.mask[pin] = on
	p.apply(pin)
}

// ClearInterruptFlag is a no-op on the character device: the kernel
// discards queued events when edge detection is reconfigured off, which
// every role change here does first.
func (p *RealPort) ClearInterruptFlag(pin Pin) {}

// SetPinChangeEnable toggles edge delivery for all masked pins.
func (p *RealPort) SetPinChangeEnable(on bool) {
	p.pcen = on
	for pin := range p.lines {
		if p.dir[pin] == Input {
			p.apply(pin)
		}
	}
}

// Close releases GPIO resources, returning lines to inputs first so the
// switch line is not left driving through a reboot.
func (p *RealPort) Close() error {
	var errs []error
	for pin, line := range p.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", pin, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
