// Package sensor turns raw binary sensor levels into debounced logical
// states. It has no hardware dependencies; time is always passed in.
package sensor

import (
	"fmt"
	"time"
)

// Count is the number of sensor inputs.
const Count = 2

// Type is the configured kind of a sensor input.
type Type byte

const (
	TypeNone          Type = 0x00
	TypeRain          Type = 0x01
	TypeFlow          Type = 0x02
	TypeSoil          Type = 0x03
	TypeProgramSwitch Type = 0xF0
	TypeOther         Type = 0xFF
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeRain:
		return "rain"
	case TypeFlow:
		return "flow"
	case TypeSoil:
		return "soil"
	case TypeProgramSwitch:
		return "program_switch"
	case TypeOther:
		return "other"
	}
	return fmt.Sprintf("type(0x%02x)", byte(t))
}

// debounced reports whether the type uses on/off delay hysteresis.
func (t Type) debounced() bool {
	return t == TypeRain || t == TypeSoil
}

// MinDelay is the shortest on or off delay.
const MinDelay = 5 * time.Second

// Config is the configuration of one sensor input.
type Config struct {
	Type Type

	// IdleLevel is the level read while the sensor is not triggered:
	// true for a normally open contact on a pulled-up input.
	IdleLevel bool

	OnDelay  time.Duration
	OffDelay time.Duration
}

// EventType is a sensor state change.
type EventType string

const (
	EventActive        EventType = "SENSOR_ACTIVE"
	EventInactive      EventType = "SENSOR_INACTIVE"
	EventProgramSwitch EventType = "PROGRAM_SWITCH"
)

// Event is one state change, Sensor is 1 or 2.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Sensor    int
}

// Input is one sample of both sensor levels.
type Input struct {
	Levels [Count]bool
	Time   time.Time
}

// State is the observable state of one sensor.
type State struct {
	Type Type

	// Raw is the undebounced reading, true when triggered.
	Raw bool

	// Active is the debounced state.
	Active bool

	// LastActive is when the sensor last went inactive after being active.
	LastActive time.Time
}
