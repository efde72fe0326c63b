package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/sprinkler/internal/mqtt"
	"github.com/sweeney/sprinkler/internal/sensor"
	"github.com/sweeney/sprinkler/internal/status"
)

// Tick runs one control cycle: sample and debounce the sensors, expire the
// rain delay, commit the station bits to hardware and publish whatever
// changed. Failures are returned joined; the cycle always completes.
func (c *Controller) Tick(now time.Time) error {
	if c.engine == nil {
		return ErrNotStarted
	}
	var errs []error

	if c.cfg.Pins != nil {
		levels, err := c.cfg.Pins.ReadSensors()
		if err != nil {
			errs = append(errs, fmt.Errorf("read sensors: %w", err))
		} else {
			c.processSensors(levels, now)
		}
	}

	if c.flags.RainDelayed && now.Unix() >= int64(c.nv.RainDelayStop) {
		log.Printf("controller: rain delay expired")
		if err := c.RainDelayStop(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.engine.Commit(now); err != nil {
		c.counts.BusErrors++
		errs = append(errs, fmt.Errorf("commit: %w", err))
	}

	c.publishTransitions(now)
	c.publishState()
	return errors.Join(errs...)
}

func (c *Controller) processSensors(levels [2]bool, now time.Time) {
	events := c.sensors.Process(sensor.Input{Levels: levels, Time: now})

	s1, s2 := c.sensors.State(1), c.sensors.State(2)
	c.flags.Sensor1, c.flags.Sensor1Active = s1.Raw, s1.Active
	c.flags.Sensor2, c.flags.Sensor2Active = s2.Raw, s2.Active

	for _, ev := range events {
		log.Printf("event: %s sensor=%d", ev.Type, ev.Sensor)
		switch ev.Type {
		case sensor.EventActive:
			c.counts.SensorActive++
		case sensor.EventInactive:
			c.counts.SensorInactive++
		case sensor.EventProgramSwitch:
			c.counts.ProgramSwitch++
		}
		if c.cfg.Publisher == nil {
			continue
		}
		if err := c.cfg.Publisher.PublishSensor(ev); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

// publishTransitions reports every station that changed since the last
// call.
func (c *Controller) publishTransitions(now time.Time) {
	for _, tr := range c.engine.Transitions() {
		if tr.On {
			c.counts.StationOn++
		} else {
			c.counts.StationOff++
		}
		ev := mqtt.StationEvent{Timestamp: now, SID: tr.SID, On: tr.On}
		if tr.SID < len(c.stations) {
			ev.Name = c.stations[tr.SID].Name
			ev.Type = c.stations[tr.SID].Type
		}
		log.Printf("event: %s sid=%d name=%q", ev.EventType(), ev.SID, ev.Name)
		if c.cfg.Publisher == nil {
			continue
		}
		if err := c.cfg.Publisher.PublishStation(ev); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

// State returns the current controller state in display form.
func (c *Controller) State() status.Controller {
	st := status.Controller{
		Flags:  c.flags,
		Counts: c.counts,
	}
	if c.engine == nil {
		return st
	}
	st.Boards = c.engine.Boards()
	st.Stations = make([]status.Station, len(c.stations))
	for i, s := range c.stations {
		s.On = c.engine.Bit(s.SID)
		st.Stations[i] = s
	}
	for i := range st.Sensors {
		s := c.sensors.State(i + 1)
		st.Sensors[i] = status.Sensor{Type: s.Type.String(), Raw: s.Raw, Active: s.Active}
	}
	if c.flags.RainDelayed {
		st.RainDelayStop = time.Unix(int64(c.nv.RainDelayStop), 0).UTC()
	}
	return st
}

func (c *Controller) publishState() {
	if c.cfg.Tracker != nil {
		c.cfg.Tracker.Update(c.State())
	}
}

// Snapshot returns the tracker's view of the daemon.
func (c *Controller) Snapshot() status.Snapshot {
	if c.cfg.Tracker == nil {
		return status.Snapshot{Controller: c.State()}
	}
	return c.cfg.Tracker.Snapshot()
}

// Boards returns the number of configured boards.
func (c *Controller) Boards() int {
	if c.engine == nil {
		return 0
	}
	return c.engine.Boards()
}

// Bits returns the desired output bits of the configured boards.
func (c *Controller) Bits() []byte {
	if c.engine == nil {
		return nil
	}
	return c.engine.Bits()
}
