package gpio

import "errors"

// FakePins is a test double that returns scripted sensor levels and
// records output writes.
type FakePins struct {
	// Samples contains scripted sensor levels to return.
	// Each call to ReadSensors() consumes the next sample.
	Samples [][2]bool

	// index tracks current position in Samples
	index int

	// Writes records every output write in order.
	Writes []PinWrite

	// Levels holds the last level written to each output pin.
	Levels map[int]bool

	// Closed tracks if Close was called
	Closed bool

	// ReadError and WriteError, if set, are returned by ReadSensors and Write.
	ReadError  error
	WriteError error
}

// PinWrite is one recorded output write.
type PinWrite struct {
	Pin  int
	High bool
}

// NewFakePins creates FakePins with the given samples.
func NewFakePins(samples ...[2]bool) *FakePins {
	return &FakePins{Samples: samples, Levels: make(map[int]bool)}
}

// ReadSensors returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakePins) ReadSensors() ([2]bool, error) {
	if f.ReadError != nil {
		return [2]bool{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return [2]bool{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Write records the output level.
func (f *FakePins) Write(pin int, high bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if f.Levels == nil {
		f.Levels = make(map[int]bool)
	}
	f.Writes = append(f.Writes, PinWrite{Pin: pin, High: high})
	f.Levels[pin] = high
	return nil
}

// Close marks the pins as closed.
func (f *FakePins) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the samples and clears recorded writes.
func (f *FakePins) Reset() {
	f.index = 0
	f.Closed = false
	f.Writes = nil
	f.Levels = make(map[int]bool)
}
