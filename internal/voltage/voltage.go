// Package voltage samples the external supply voltage feeding the target
// device. The real implementation reads an INA219-style fuel gauge over
// I2C; the fake returns scripted samples for testing.
package voltage

// MinPowerLevel is the millivolt threshold above which the target device
// is considered powered. Used to suppress redundant pulses on a switched
// UPS.
const MinPowerLevel = 4750

// Reader samples the external voltage.
type Reader interface {
	// ReadMillivolts returns the current external voltage in millivolts.
	ReadMillivolts() (int, error)

	// Close releases the underlying bus.
	Close() error
}
