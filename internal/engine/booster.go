package engine

// PinWriter drives one GPIO line.
type PinWriter interface {
	Write(pin int, high bool) error
}

// PinBooster drives the boost converter through two GPIO lines: Boost
// powers the converter, Enable connects the output path.
type PinBooster struct {
	Pins   PinWriter
	Boost  int
	Enable int
}

// BoostOn disconnects the output path and starts charging.
func (b PinBooster) BoostOn() error {
	if err := b.Pins.Write(b.Enable, false); err != nil {
		return err
	}
	return b.Pins.Write(b.Boost, true)
}

// BoostOff stops charging and reconnects the output path.
func (b PinBooster) BoostOff() error {
	if err := b.Pins.Write(b.Boost, false); err != nil {
		return err
	}
	return b.Pins.Write(b.Enable, true)
}
