package mqtt

import "log"

// message is a serialized MQTT publish kept for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a bounded FIFO of messages queued while disconnected. When
// full the oldest message is dropped. Not safe for concurrent use.
type outbox struct {
	msgs    []message
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit}
}

func (o *outbox) add(m message) {
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs[len(o.msgs)-1] = m
		return
	}
	o.msgs = append(o.msgs, m)
}

// take returns every queued message, oldest first, and empties the outbox.
func (o *outbox) take() []message {
	if len(o.msgs) == 0 {
		return nil
	}
	if o.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", o.dropped)
	}
	out := o.msgs
	o.msgs = nil
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
