package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string        `json:"event,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	Enabled         bool          `json:"enabled"`
	RainDelayed     bool          `json:"rain_delayed"`
	RainDelayStop   string        `json:"rain_delay_stop,omitempty"`
	Flags           uint32        `json:"flags"`
	Boards          int           `json:"boards"`
	Active          []int         `json:"active_stations"`
	Sensors         []SensorJSON  `json:"sensors"`
	LastRebootCause string        `json:"last_reboot_cause,omitempty"`
	FactoryReset    bool          `json:"factory_reset,omitempty"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	StartTime       string        `json:"start_time"`
	Timestamp       string        `json:"timestamp"`
	MQTT            MQTTStatus    `json:"mqtt"`
	Counts          CountsJSON    `json:"event_counts"`
	Stations        []StationJSON `json:"stations,omitempty"`
	Config          ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// SensorJSON is the JSON representation of one sensor.
type SensorJSON struct {
	Type   string `json:"type"`
	Raw    bool   `json:"raw"`
	Active bool   `json:"active"`
}

// StationJSON is the JSON representation of one station.
type StationJSON struct {
	SID      int    `json:"sid"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	On       bool   `json:"on"`
	Disabled bool   `json:"disabled,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	StationOn      int `json:"station_on"`
	StationOff     int `json:"station_off"`
	SensorActive   int `json:"sensor_active"`
	SensorInactive int `json:"sensor_inactive"`
	ProgramSwitch  int `json:"program_switch"`
	DispatchErrors int `json:"dispatch_errors"`
	BusErrors      int `json:"bus_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs   int64  `json:"poll_ms"`
	Broker   string `json:"broker"`
	HTTPAddr string `json:"http_addr"`
	DataDir  string `json:"data_dir"`
	I2CBus   string `json:"i2c_bus,omitempty"`
	Hardware string `json:"hardware"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Enabled:         snap.Flags.Enabled,
		RainDelayed:     snap.Flags.RainDelayed,
		Flags:           snap.Flags.Pack(),
		Boards:          snap.Boards,
		Active:          snap.ActiveStations(),
		LastRebootCause: snap.LastRebootCause,
		FactoryReset:    snap.FactoryReset,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			StationOn:      snap.Counts.StationOn,
			StationOff:     snap.Counts.StationOff,
			SensorActive:   snap.Counts.SensorActive,
			SensorInactive: snap.Counts.SensorInactive,
			ProgramSwitch:  snap.Counts.ProgramSwitch,
			DispatchErrors: snap.Counts.DispatchErrors,
			BusErrors:      snap.Counts.BusErrors,
		},
		Config: ConfigJSON{
			PollMs:   snap.Config.PollMs,
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
			DataDir:  snap.Config.DataDir,
			I2CBus:   snap.Config.I2CBus,
			Hardware: snap.Config.Hardware,
		},
	}
	if inner.Active == nil {
		inner.Active = []int{}
	}
	if !snap.RainDelayStop.IsZero() {
		inner.RainDelayStop = snap.RainDelayStop.UTC().Format(time.RFC3339)
	}
	for _, s := range snap.Sensors {
		inner.Sensors = append(inner.Sensors, SensorJSON{Type: s.Type, Raw: s.Raw, Active: s.Active})
	}
	return inner
}

// StationsJSON converts the station list.
func StationsJSON(snap Snapshot) []StationJSON {
	out := make([]StationJSON, 0, len(snap.Stations))
	for _, s := range snap.Stations {
		out = append(out, StationJSON{SID: s.SID, Name: s.Name, Type: s.Type, On: s.On, Disabled: s.Disabled})
	}
	return out
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason),
// including the station list.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	inner.Stations = StationsJSON(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
