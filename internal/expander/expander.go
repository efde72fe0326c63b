// Package expander drives MCP23017-family I/O expanders over an I2C bus.
// Each device exposes two 8-bit ports (A and B). Zone outputs live on port A;
// port B is reserved for inputs on the main controller.
package expander

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

// Register addresses with IOCON.BANK cleared (power-on default).
const (
	RegIODIRA = 0x00
	RegIODIRB = 0x01
	RegGPPUA  = 0x0C
	RegGPPUB  = 0x0D
	RegGPIOA  = 0x12
	RegGPIOB  = 0x13
	RegOLATA  = 0x14
	RegOLATB  = 0x15

	// NumRegisters is the size of the register file.
	NumRegisters = 0x16
)

// BaseAddress is the 7-bit bus address of device id 0.
const BaseAddress = 0x20

// MaxID is the highest id selectable through the hardware address pins.
const MaxID = 7

// Port direction masks for PortMode.
const (
	AllOutput = byte(0x00)
	AllInput  = byte(0xFF)
)

// Port selects one 8-bit port of a device.
type Port uint8

const (
	PortA Port = 0
	PortB Port = 1
)

var (
	ErrInvalidID   = errors.New("expander: invalid device id")
	ErrInvalidPin  = errors.New("expander: invalid pin")
	ErrInvalidPort = errors.New("expander: invalid port")
)

// Device is one expander on the bus.
//
// Single-pin operations are read-modify-write on a shared register, so they
// are serialised through mu. Whole-port writes are a single transfer.
type Device struct {
	bus  drivers.I2C
	addr uint16
	mu   sync.Mutex
}

// New returns the device with the given id (0 = base address).
func New(bus drivers.I2C, id uint8) (*Device, error) {
	if id > MaxID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return &Device{bus: bus, addr: BaseAddress + uint16(id)}, nil
}

// Probe reports whether a device answers at the given id.
func Probe(bus drivers.I2C, id uint8) bool {
	if id > MaxID {
		return false
	}
	var buf [1]byte
	return bus.Tx(BaseAddress+uint16(id), []byte{RegIODIRA}, buf[:]) == nil
}

// Address returns the 7-bit bus address.
func (d *Device) Address() uint16 {
	return d.addr
}

// Begin configures both ports as inputs.
func (d *Device) Begin() error {
	if err := d.WriteRegister(RegIODIRA, AllInput); err != nil {
		return err
	}
	return d.WriteRegister(RegIODIRB, AllInput)
}

// ReadRegister reads one register.
func (d *Device) ReadRegister(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.bus.Tx(d.addr, []byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("expander 0x%02x: read reg 0x%02x: %w", d.addr, reg, err)
	}
	return buf[0], nil
}

// WriteRegister writes one register.
func (d *Device) WriteRegister(reg, value byte) error {
	if err := d.bus.Tx(d.addr, []byte{reg, value}, nil); err != nil {
		return fmt.Errorf("expander 0x%02x: write reg 0x%02x: %w", d.addr, reg, err)
	}
	return nil
}

// PortMode writes the direction register of a port (bit set = input).
func (d *Device) PortMode(p Port, mask byte) error {
	reg, err := portReg(p, RegIODIRA, RegIODIRB)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, mask)
}

// PortWrite sets the output level of all eight pins of a port.
func (d *Device) PortWrite(p Port, value byte) error {
	reg, err := portReg(p, RegGPIOA, RegGPIOB)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, value)
}

// PortRead returns the input level of all eight pins of a port.
func (d *Device) PortRead(p Port) (byte, error) {
	reg, err := portReg(p, RegGPIOA, RegGPIOB)
	if err != nil {
		return 0, err
	}
	return d.ReadRegister(reg)
}

// PortPullUp sets the pull-up enable mask of a port.
func (d *Device) PortPullUp(p Port, mask byte) error {
	reg, err := portReg(p, RegGPPUA, RegGPPUB)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, mask)
}

// PinMode sets the direction of a single pin (0..15).
func (d *Device) PinMode(pin uint8, input bool) error {
	return d.updateBit(pin, input, RegIODIRA, RegIODIRB)
}

// PinPullUp enables or disables the pull-up of a single pin.
func (d *Device) PinPullUp(pin uint8, enable bool) error {
	return d.updateBit(pin, enable, RegGPPUA, RegGPPUB)
}

// PinWrite sets one output pin. The current latch value is read from OLAT so
// that input pins sharing the port are not disturbed.
func (d *Device) PinWrite(pin uint8, level bool) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	latch, err := d.ReadRegister(pinReg(pin, RegOLATA, RegOLATB))
	if err != nil {
		return err
	}
	return d.WriteRegister(pinReg(pin, RegGPIOA, RegGPIOB), writeBit(latch, pin%8, level))
}

// PinRead returns the input level of one pin.
func (d *Device) PinRead(pin uint8) (bool, error) {
	if pin > 15 {
		return false, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	v, err := d.ReadRegister(pinReg(pin, RegGPIOA, RegGPIOB))
	if err != nil {
		return false, err
	}
	return (v>>(pin%8))&1 == 1, nil
}

func (d *Device) updateBit(pin uint8, value bool, regA, regB byte) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	reg := pinReg(pin, regA, regB)
	v, err := d.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.WriteRegister(reg, writeBit(v, pin%8, value))
}

// pinReg picks the port A or B register for pin 0..15.
func pinReg(pin uint8, regA, regB byte) byte {
	if pin < 8 {
		return regA
	}
	return regB
}

func portReg(p Port, regA, regB byte) (byte, error) {
	switch p {
	case PortA:
		return regA, nil
	case PortB:
		return regB, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidPort, p)
}

func writeBit(v byte, bit uint8, set bool) byte {
	if set {
		return v | 1<<bit
	}
	return v &^ (1 << bit)
}
