// Package status provides a thread-safe status tracker for the sprinkler
// daemon. It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs   int64
	Broker   string
	HTTPAddr string
	DataDir  string
	I2CBus   string
	Hardware string
}

// Station is the display state of one station.
type Station struct {
	SID      int
	Name     string
	Type     string
	On       bool
	Disabled bool
}

// Sensor is the display state of one sensor input.
type Sensor struct {
	Type   string
	Raw    bool
	Active bool
}

// EventCounts tracks the number of each event since startup.
type EventCounts struct {
	StationOn      int
	StationOff     int
	SensorActive   int
	SensorInactive int
	ProgramSwitch  int
	DispatchErrors int
	BusErrors      int
}

// Controller is the part of the snapshot owned by the control loop.
type Controller struct {
	Flags         Flags
	Boards        int
	Stations      []Station
	Sensors       [2]Sensor
	RainDelayStop time.Time
	Counts        EventCounts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Controller

	LastRebootCause string
	FactoryReset    bool
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// ActiveStations returns the indices of stations that are on.
func (s Snapshot) ActiveStations() []int {
	var out []int
	for _, st := range s.Stations {
		if st.On {
			out = append(out, st.SID)
		}
	}
	return out
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the controller state. Called from the control loop on
// every tick.
func (t *Tracker) Update(c Controller) {
	c.Stations = append([]Station(nil), c.Stations...)
	t.mu.Lock()
	t.snap.Controller = c
	t.mu.Unlock()
}

// SetBoot records how the controller came up.
func (t *Tracker) SetBoot(lastRebootCause string, factoryReset bool) {
	t.mu.Lock()
	t.snap.LastRebootCause = lastRebootCause
	t.snap.FactoryReset = factoryReset
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Stations = append([]Station(nil), t.snap.Stations...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
