// Package gpio provides host GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Pins reads the sensor inputs and drives output lines.
type Pins interface {
	// ReadSensors returns the raw levels of sensor 1 and 2 (true = high).
	// An unwired sensor reads high, the idle level of a pulled-up input.
	ReadSensors() ([2]bool, error)

	// Write drives an output line, requesting it as output on first use.
	Write(pin int, high bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering). NoPin marks an unwired line.
const (
	PinSensor1 = 14
	PinSensor2 = 23
	NoPin      = -1
)
