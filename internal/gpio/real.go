//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives GPIO lines through the Linux GPIO character device.
type RealPins struct {
	chip    *gpiocdev.Chip
	sensors [2]*gpiocdev.Line

	mu      sync.Mutex
	outputs map[int]*gpiocdev.Line
}

// NewRealPins opens chip and requests the sensor lines as inputs with
// pull-up. A sensor pin of NoPin is left unwired.
func NewRealPins(chipName string, sensor1, sensor2 int) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	p := &RealPins{chip: chip, outputs: make(map[int]*gpiocdev.Line)}

	for i, pin := range []int{sensor1, sensor2} {
		if pin == NoPin {
			continue
		}
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request sensor%d pin %d: %w", i+1, pin, err)
		}
		p.sensors[i] = line
	}
	return p, nil
}

// ReadSensors returns the raw sensor levels.
func (p *RealPins) ReadSensors() ([2]bool, error) {
	levels := [2]bool{true, true}
	for i, line := range p.sensors {
		if line == nil {
			continue
		}
		v, err := line.Value()
		if err != nil {
			return levels, fmt.Errorf("read sensor%d pin: %w", i+1, err)
		}
		levels[i] = v != 0
	}
	return levels, nil
}

// Write drives pin, requesting it as an output the first time.
func (p *RealPins) Write(pin int, high bool) error {
	v := 0
	if high {
		v = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if line, ok := p.outputs[pin]; ok {
		if err := line.SetValue(v); err != nil {
			return fmt.Errorf("write pin %d: %w", pin, err)
		}
		return nil
	}
	line, err := p.chip.RequestLine(pin, gpiocdev.AsOutput(v))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	p.outputs[pin] = line
	return nil
}

// Close releases every line. Output lines are reconfigured as inputs
// first so nothing stays driven after the daemon exits.
func (p *RealPins) Close() error {
	var errs []error

	p.mu.Lock()
	for pin, line := range p.outputs {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	p.outputs = map[int]*gpiocdev.Line{}
	p.mu.Unlock()

	for i, line := range p.sensors {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor%d pin: %w", i+1, err))
		}
		p.sensors[i] = nil
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		p.chip = nil
	}
	return errors.Join(errs...)
}
