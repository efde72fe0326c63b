// Package mqtt publishes station, sensor and system events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/sprinkler/internal/sensor"
)

// Topics.
const (
	TopicStations = "sprinkler/stations/events"
	TopicSensors  = "sprinkler/sensors/events"
	TopicSystem   = "sprinkler/system"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishStation sends a station transition.
	// Returns error if publishing fails (should not crash the process).
	PublishStation(event StationEvent) error

	// PublishSensor sends a sensor state change.
	PublishSensor(event sensor.Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StationEvent is one station turning on or off.
type StationEvent struct {
	Timestamp time.Time
	SID       int
	Name      string
	Type      string
	On        bool
}

// EventType returns STATION_ON or STATION_OFF.
func (e StationEvent) EventType() string {
	if e.On {
		return "STATION_ON"
	}
	return "STATION_OFF"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// StationPayload is the MQTT message for a station event.
type StationPayload struct {
	Station StationPayloadInner `json:"station"`
}

// StationPayloadInner contains the station event details.
type StationPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	SID       int    `json:"sid"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

// FormatStationPayload creates the JSON payload for a station event.
func FormatStationPayload(event StationEvent) ([]byte, error) {
	return json.Marshal(StationPayload{
		Station: StationPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.EventType(),
			SID:       event.SID,
			Name:      event.Name,
			Type:      event.Type,
		},
	})
}

// SensorPayload is the MQTT message for a sensor event.
type SensorPayload struct {
	Sensor SensorPayloadInner `json:"sensor"`
}

// SensorPayloadInner contains the sensor event details.
type SensorPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Sensor    int    `json:"sensor"`
}

// FormatSensorPayload creates the JSON payload for a sensor event.
func FormatSensorPayload(event sensor.Event) ([]byte, error) {
	return json.Marshal(SensorPayload{
		Sensor: SensorPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Sensor:    event.Sensor,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}
