package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 1000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080", Hardware: "ac"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 1000 {
		t.Errorf("Config.PollMs: got %d, want 1000", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Flags.Enabled {
		t.Error("expected Enabled=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(Controller{
		Flags:    Flags{Enabled: true, Sensor1Active: true},
		Boards:   2,
		Stations: []Station{{SID: 0, Name: "S01", On: true}, {SID: 1, Name: "S02"}},
		Counts:   EventCounts{StationOn: 3, SensorActive: 1},
	})

	snap := tr.Snapshot()
	if !snap.Flags.Enabled || !snap.Flags.Sensor1Active {
		t.Errorf("Flags: got %+v", snap.Flags)
	}
	if snap.Boards != 2 {
		t.Errorf("Boards: got %d, want 2", snap.Boards)
	}
	if len(snap.Stations) != 2 || snap.Stations[0].Name != "S01" {
		t.Errorf("Stations: got %+v", snap.Stations)
	}
	if snap.Counts.StationOn != 3 {
		t.Errorf("Counts.StationOn: got %d, want 3", snap.Counts.StationOn)
	}
	if got := snap.ActiveStations(); len(got) != 1 || got[0] != 0 {
		t.Errorf("ActiveStations: got %v", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetBoot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetBoot("web", true)

	snap := tr.Snapshot()
	if snap.LastRebootCause != "web" || !snap.FactoryReset {
		t.Errorf("got %q/%v", snap.LastRebootCause, snap.FactoryReset)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	stations := []Station{{SID: 0, On: true}}
	tr.Update(Controller{Stations: stations})

	snap1 := tr.Snapshot()
	stations[0].On = false
	snap1.Stations[0].Name = "changed"

	tr.Update(Controller{Flags: Flags{Enabled: true}, Stations: []Station{{SID: 0}}})

	if !snap1.Stations[0].On {
		t.Error("snapshot should be a copy; station was modified")
	}
	if snap1.Flags.Enabled {
		t.Error("snapshot should be a copy; flags were modified")
	}
	if tr.Snapshot().Stations[0].Name == "changed" {
		t.Error("mutating a snapshot leaked into the tracker")
	}
}

func TestFlagsPackRoundTrip(t *testing.T) {
	f := Flags{
		Enabled:       true,
		Sensor1:       true,
		SafeReboot:    true,
		Sensor2Active: true,
		DisplayBoard:  3,
		NetworkFails:  5,
	}
	v := f.Pack()
	if v&1 == 0 {
		t.Error("enabled should be bit 0")
	}
	if got := Unpack(v); got != f {
		t.Errorf("got %+v, want %+v", got, f)
	}
}

func TestFlagsPackMasksCounters(t *testing.T) {
	f := Flags{DisplayBoard: 0xFF, NetworkFails: 0xFF}
	got := Unpack(f.Pack())
	if got.DisplayBoard != 0x1F || got.NetworkFails != 0x07 {
		t.Errorf("got board=%d fails=%d", got.DisplayBoard, got.NetworkFails)
	}
	if got.Enabled || got.Sensor2Active {
		t.Error("counter overflow leaked into flag bits")
	}
}

func TestFlagsBoot(t *testing.T) {
	f := Flags{Enabled: true, RainDelayed: true, Sensor1Active: true, NetworkFails: 2, ProgramBusy: true}
	got := f.Boot()
	want := Flags{Enabled: true, RainDelayed: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Controller: Controller{
			Flags:         Flags{Enabled: true, RainDelayed: true},
			Boards:        1,
			Stations:      []Station{{SID: 0, Name: "S01", Type: "standard", On: true}, {SID: 1, Name: "S02", Type: "remote"}},
			Sensors:       [2]Sensor{{Type: "rain", Raw: true}, {Type: "none"}},
			RainDelayStop: start.Add(24 * time.Hour),
			Counts:        EventCounts{StationOn: 5, StationOff: 2},
		},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 1000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if !s.Enabled || !s.RainDelayed {
		t.Errorf("flags: enabled=%v rain_delayed=%v", s.Enabled, s.RainDelayed)
	}
	if s.RainDelayStop != "2026-01-02T00:00:00Z" {
		t.Errorf("RainDelayStop: got %q", s.RainDelayStop)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if len(s.Active) != 1 || s.Active[0] != 0 {
		t.Errorf("Active: got %v", s.Active)
	}
	if len(s.Stations) != 2 || s.Stations[1].Type != "remote" {
		t.Errorf("Stations: got %+v", s.Stations)
	}
	if len(s.Sensors) != 2 || s.Sensors[0].Type != "rain" || !s.Sensors[0].Raw {
		t.Errorf("Sensors: got %+v", s.Sensors)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.StationOn != 5 {
		t.Errorf("Counts.StationOn: got %d, want 5", s.Counts.StationOn)
	}
	// Event and Reason should be omitted
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected empty event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONNoActiveStations(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)
	status := raw["status"].(map[string]interface{})
	active, ok := status["active_stations"].([]interface{})
	if !ok || len(active) != 0 {
		t.Errorf("active_stations: got %v, want []", status["active_stations"])
	}
	if _, exists := status["rain_delay_stop"]; exists {
		t.Error("rain_delay_stop should be omitted when not delayed")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Controller: Controller{
			Flags:    Flags{Enabled: true},
			Stations: []Station{{SID: 0, Name: "S01", On: true}},
		},
		StartTime:       start,
		Now:             start.Add(15 * time.Minute),
		LastRebootCause: "power_on",
		Config:          Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "STARTUP" {
		t.Errorf("Event: got %q, want STARTUP", parsed.Status.Event)
	}
	if parsed.Status.LastRebootCause != "power_on" {
		t.Errorf("LastRebootCause: got %q", parsed.Status.LastRebootCause)
	}
	if parsed.Status.Stations != nil {
		t.Error("system events carry active stations only, not the station list")
	}
	if len(parsed.Status.Active) != 1 {
		t.Errorf("Active: got %v", parsed.Status.Active)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(Controller{
				Stations: []Station{{SID: 0, On: i%2 == 0}},
				Counts:   EventCounts{StationOn: i},
			})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = snap.ActiveStations()
		}
	}()

	wg.Wait()
}
