package voltage

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// INA219 register map (as wired on common Pi UPS hats).
const (
	DefaultAddr    = 0x43
	regBusVoltage  = 0x02
	regCalibration = 0x05
	calValue       = 26868
)

// RealReader samples bus voltage from an INA219 monitor over I2C.
type RealReader struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// NewRealReader opens the first available I2C bus and probes the monitor
// at the given address. Returns an error if no device answers, so the
// caller can fall back to running without a voltage check.
func NewRealReader(addr uint16) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init i2c host: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	dev := i2c.Dev{Bus: bus, Addr: addr}

	// Probe: a missing device fails the first register read.
	probe := make([]byte, 2)
	if err := dev.Tx([]byte{regBusVoltage}, probe); err != nil {
		bus.Close()
		return nil, fmt.Errorf("probe voltage monitor at %#x: %w", addr, err)
	}

	// Calibrate once so the shunt/current registers are meaningful too.
	cal := []byte{regCalibration, byte(calValue >> 8), byte(calValue & 0xFF)}
	if err := dev.Tx(cal, nil); err != nil {
		bus.Close()
		return nil, fmt.Errorf("calibrate voltage monitor: %w", err)
	}

	return &RealReader{bus: bus, dev: dev}, nil
}

// ReadMillivolts reads the bus voltage register. The INA219 packs the
// voltage in the top 13 bits at 4 mV per LSB.
func (r *RealReader) ReadMillivolts() (int, error) {
	raw := make([]byte, 2)
	if err := r.dev.Tx([]byte{regBusVoltage}, raw); err != nil {
		return 0, fmt.Errorf("read bus voltage: %w", err)
	}

	value := (int(raw[0]) << 8) | int(raw[1])
	return (value >> 3) * 4, nil
}

// Close releases the I2C bus.
func (r *RealReader) Close() error {
	return r.bus.Close()
}
