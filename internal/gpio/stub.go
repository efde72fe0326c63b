//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(chipName string, sensor1, sensor2 int) (*RealPins, error) {
	return nil, errUnsupported
}

// ReadSensors is not implemented on non-Linux platforms.
func (p *RealPins) ReadSensors() ([2]bool, error) {
	return [2]bool{true, true}, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (p *RealPins) Write(pin int, high bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *RealPins) Close() error {
	return nil
}
