package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/sprinkler/internal/sensor"
)

// OutboxSize is the number of messages kept while the broker is unreachable.
const OutboxSize = 256

// RealPublisher publishes to an actual MQTT broker. Messages published
// while disconnected are queued and sent on reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *outbox
}

// NewRealPublisher creates a publisher for the given broker. Connection
// happens in the background with automatic retry; the broker publishes an
// OFFLINE will on TopicSystem if the daemon vanishes.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{pending: newOutbox(OutboxSize)}

	will, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			p.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// PublishStation sends a station event (QoS 0, not retained).
func (p *RealPublisher) PublishStation(event StationEvent) error {
	payload, err := FormatStationPayload(event)
	if err != nil {
		return fmt.Errorf("format station payload: %w", err)
	}
	return p.send(message{topic: TopicStations, payload: payload})
}

// PublishSensor sends a sensor event (QoS 0, not retained).
func (p *RealPublisher) PublishSensor(event sensor.Event) error {
	payload, err := FormatSensorPayload(event)
	if err != nil {
		return fmt.Errorf("format sensor payload: %w", err)
	}
	return p.send(message{topic: TopicSensors, payload: payload})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(m message) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.pending.add(m)
		p.mu.Unlock()
		return nil
	}
	return p.publish(m)
}

func (p *RealPublisher) publish(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// flush replays queued messages after a (re)connect.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs := p.pending.take()
	p.mu.Unlock()

	for _, m := range msgs {
		if err := p.publish(m); err != nil {
			log.Printf("mqtt: replay: %v", err)
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d queued messages", len(msgs))
	}
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
