package voltage

import "errors"

// FakeReader is a test double that returns scripted millivolt samples.
type FakeReader struct {
	// Samples contains scripted readings. Each call to ReadMillivolts
	// consumes the next sample; once exhausted, the last sample repeats.
	Samples []int

	// ReadError, if set, will be returned by ReadMillivolts.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool

	// Reads counts ReadMillivolts calls, including failed ones.
	Reads int

	index int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...int) *FakeReader {
	return &FakeReader{Samples: samples}
}

// ReadMillivolts returns the next scripted sample.
func (f *FakeReader) ReadMillivolts() (int, error) {
	f.Reads++

	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}
