package mqtt

import "github.com/sweeney/sprinkler/internal/sensor"

// FakePublisher keeps everything handed to it in memory. Payloads are
// formatted exactly as RealPublisher would send them.
type FakePublisher struct {
	StationEvents []StationEvent
	SensorEvents  []sensor.Event
	// Payloads holds station and sensor payloads interleaved in publish order.
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError fails station and sensor publishes; PublishSystemError
	// fails system publishes. Nothing is recorded on failure.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishStation(event StationEvent) error {
	payload, err := f.event(FormatStationPayload(event))
	if err == nil {
		f.StationEvents = append(f.StationEvents, event)
		f.Payloads = append(f.Payloads, payload)
	}
	return err
}

func (f *FakePublisher) PublishSensor(event sensor.Event) error {
	payload, err := f.event(FormatSensorPayload(event))
	if err == nil {
		f.SensorEvents = append(f.SensorEvents, event)
		f.Payloads = append(f.Payloads, payload)
	}
	return err
}

func (f *FakePublisher) event(payload []byte, err error) ([]byte, error) {
	if f.PublishError != nil {
		return nil, f.PublishError
	}
	return payload, err
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool { return f.Connected }

// Reset forgets everything recorded, including configured errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
