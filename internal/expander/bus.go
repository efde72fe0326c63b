package expander

import (
	"fmt"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// BusCloser is an I2C bus that must be released after use.
type BusCloser interface {
	drivers.I2C
	Close() error
}

// OpenBus opens a host I2C bus by name ("" selects the first available,
// "1" selects /dev/i2c-1 on a Raspberry Pi).
func OpenBus(name string) (BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}
