package sensor

import "time"

// channel tracks the timers of one sensor. A zero timer is not armed.
type channel struct {
	raw        bool
	active     bool
	onTimer    time.Time
	offTimer   time.Time
	lastActive time.Time
	keydown    time.Time
}

// Debouncer applies on/off delays to rain and soil sensors and detects
// program switch presses.
type Debouncer struct {
	cfg [Count]Config
	ch  [Count]channel
}

// New creates a debouncer with both sensors inactive.
func New(cfg [Count]Config) *Debouncer {
	return &Debouncer{cfg: cfg}
}

// Configure replaces the configuration and resets every timer.
func (d *Debouncer) Configure(cfg [Count]Config) {
	d.cfg = cfg
	d.ResetAll()
}

// Config returns the current configuration.
func (d *Debouncer) Config() [Count]Config {
	return d.cfg
}

// ResetAll zeroes every timer and forces both sensors inactive.
func (d *Debouncer) ResetAll() {
	for i := range d.ch {
		d.ch[i] = channel{}
	}
}

// Process takes one sample and returns the resulting state changes.
func (d *Debouncer) Process(in Input) []Event {
	var events []Event
	for i := range d.ch {
		cfg := d.cfg[i]
		ch := &d.ch[i]
		switch {
		case cfg.Type.debounced():
			if e, ok := d.debounce(ch, cfg, in.Levels[i], in.Time); ok {
				e.Sensor = i + 1
				events = append(events, e)
			}
		case cfg.Type == TypeProgramSwitch:
			if d.programSwitch(ch, cfg, in.Levels[i], in.Time) {
				events = append(events, Event{Timestamp: in.Time, Type: EventProgramSwitch, Sensor: i + 1})
			}
		}
	}
	return events
}

func (d *Debouncer) debounce(ch *channel, cfg Config, level bool, now time.Time) (Event, bool) {
	ch.raw = level != cfg.IdleLevel
	was := ch.active

	if ch.raw {
		if ch.onTimer.IsZero() {
			ch.onTimer = now.Add(atLeast(cfg.OnDelay))
			ch.offTimer = time.Time{}
		} else if now.After(ch.onTimer) {
			ch.active = true
		}
	} else {
		if ch.offTimer.IsZero() {
			ch.offTimer = now.Add(atLeast(cfg.OffDelay))
			ch.onTimer = time.Time{}
		} else if now.After(ch.offTimer) {
			ch.active = false
		}
	}

	switch {
	case ch.active && !was:
		return Event{Timestamp: now, Type: EventActive}, true
	case !ch.active && was:
		ch.lastActive = now
		return Event{Timestamp: now, Type: EventInactive}, true
	}
	return Event{}, false
}

// programSwitch records the time a press starts and reports a press once
// the switch is released at a later time.
func (d *Debouncer) programSwitch(ch *channel, cfg Config, level bool, now time.Time) bool {
	ch.raw = level != cfg.IdleLevel
	if ch.raw {
		if ch.keydown.IsZero() {
			ch.keydown = now
		}
		return false
	}
	if !ch.keydown.IsZero() && now.After(ch.keydown) {
		ch.keydown = time.Time{}
		return true
	}
	return false
}

func atLeast(d time.Duration) time.Duration {
	if d < MinDelay {
		return MinDelay
	}
	return d
}

// State returns the state of sensor n (1 or 2).
func (d *Debouncer) State(n int) State {
	if n < 1 || n > Count {
		return State{}
	}
	ch := d.ch[n-1]
	return State{
		Type:       d.cfg[n-1].Type,
		Raw:        ch.raw,
		Active:     ch.active,
		LastActive: ch.lastActive,
	}
}

// Active reports the debounced state of sensor n (1 or 2).
func (d *Debouncer) Active(n int) bool {
	return d.State(n).Active
}
