package expander

import (
	"errors"
	"sync"
)

// ErrNoDevice is returned by FakeBus for addresses with no device attached.
var ErrNoDevice = errors.New("expander: no device at address")

// FakeBus is a test double emulating expander register files.
// Only devices added with Attach answer.
type FakeBus struct {
	mu sync.Mutex

	// Devices holds the register file of each attached address.
	Devices map[uint16]*FakeDevice

	// TxError, if set, is returned by every transfer.
	TxError error

	// Transfers counts completed transfers.
	Transfers int
}

// FakeDevice is the emulated register state of one device.
type FakeDevice struct {
	Regs [NumRegisters]byte

	// Inputs is the external level driven onto each port (A, B).
	Inputs [2]byte

	// Writes records every (register, value) written.
	Writes []RegWrite
}

// RegWrite is one recorded register write.
type RegWrite struct {
	Reg   byte
	Value byte
}

// NewFakeBus returns a bus with devices attached at the given ids.
func NewFakeBus(ids ...uint8) *FakeBus {
	b := &FakeBus{Devices: make(map[uint16]*FakeDevice)}
	for _, id := range ids {
		b.Attach(id)
	}
	return b
}

// Attach adds a device in its power-on state (all pins input).
func (b *FakeBus) Attach(id uint8) *FakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := &FakeDevice{}
	d.Regs[RegIODIRA] = 0xFF
	d.Regs[RegIODIRB] = 0xFF
	b.Devices[BaseAddress+uint16(id)] = d
	return d
}

// Device returns the emulated device for id, or nil.
func (b *FakeBus) Device(id uint8) *FakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Devices[BaseAddress+uint16(id)]
}

// Tx implements drivers.I2C. The first written byte selects the register;
// further written bytes are stored sequentially, reads continue from the
// selected register.
func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.TxError != nil {
		return b.TxError
	}
	d, ok := b.Devices[addr]
	if !ok {
		return ErrNoDevice
	}
	b.Transfers++
	if len(w) == 0 {
		return nil
	}
	reg := int(w[0])
	for _, v := range w[1:] {
		if reg >= NumRegisters {
			break
		}
		d.write(byte(reg), v)
		reg++
	}
	for i := range r {
		if reg >= NumRegisters {
			r[i] = 0
			continue
		}
		r[i] = d.read(byte(reg))
		reg++
	}
	return nil
}

func (d *FakeDevice) write(reg, v byte) {
	d.Writes = append(d.Writes, RegWrite{Reg: reg, Value: v})
	switch reg {
	case RegGPIOA:
		d.Regs[RegOLATA] = v
	case RegGPIOB:
		d.Regs[RegOLATB] = v
	}
	d.Regs[reg] = v
}

func (d *FakeDevice) read(reg byte) byte {
	switch reg {
	case RegGPIOA:
		dir := d.Regs[RegIODIRA]
		return d.Regs[RegOLATA]&^dir | d.Inputs[0]&dir
	case RegGPIOB:
		dir := d.Regs[RegIODIRB]
		return d.Regs[RegOLATB]&^dir | d.Inputs[1]&dir
	}
	return d.Regs[reg]
}

// Output returns the latched output value of a port.
func (d *FakeDevice) Output(p Port) byte {
	if p == PortB {
		return d.Regs[RegOLATB]
	}
	return d.Regs[RegOLATA]
}
