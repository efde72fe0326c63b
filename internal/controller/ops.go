package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/sprinkler/internal/engine"
	"github.com/sweeney/sprinkler/internal/station"
	"github.com/sweeney/sprinkler/internal/store"
)

// SetStation sets the desired state of station sid. Special stations are
// dispatched immediately; output boards follow on the next Tick. Turning a
// station on fails while the controller or the station is disabled.
func (c *Controller) SetStation(sid int, on bool) (engine.Change, error) {
	if c.engine == nil {
		return engine.NoChange, ErrNotStarted
	}
	if on {
		if !c.flags.Enabled {
			return engine.NoChange, ErrDisabled
		}
		if store.Has(&c.planes.Disabled, sid) {
			return engine.NoChange, fmt.Errorf("%w: %d", ErrStationDisabled, sid)
		}
	}
	change, err := c.engine.SetBit(sid, on)
	if err != nil {
		if change != engine.NoChange {
			c.counts.DispatchErrors++
		}
		return change, err
	}
	return change, nil
}

// ClearAll turns every station off.
func (c *Controller) ClearAll() error {
	if c.engine == nil {
		return ErrNotStarted
	}
	if err := c.engine.ClearAll(); err != nil {
		c.counts.DispatchErrors++
		return err
	}
	return nil
}

// Enable turns the controller on and persists the setting.
func (c *Controller) Enable() error {
	return c.setEnabled(true)
}

// Disable turns the controller off, persists the setting and turns every
// station off.
func (c *Controller) Disable() error {
	if err := c.setEnabled(false); err != nil {
		return err
	}
	return c.ClearAll()
}

func (c *Controller) setEnabled(on bool) error {
	if c.engine == nil {
		return ErrNotStarted
	}
	var v byte
	if on {
		v = 1
	}
	if err := c.opts.Set(store.OptDeviceEnable, v); err != nil {
		return err
	}
	if err := c.store.SaveIntOptions(&c.opts); err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	c.flags.Enabled = on
	log.Printf("controller: enabled=%t", on)
	return nil
}

// RainDelayStart starts a rain delay lasting until the given time.
func (c *Controller) RainDelayStart(until time.Time) error {
	if c.engine == nil {
		return ErrNotStarted
	}
	c.nv.RainDelayStop = uint32(until.Unix())
	if err := c.store.SaveNVData(&c.nv); err != nil {
		return fmt.Errorf("save nvdata: %w", err)
	}
	c.flags.RainDelayed = true
	log.Printf("controller: rain delay until %s", until.UTC().Format(time.RFC3339))
	return nil
}

// RainDelayStop ends a rain delay.
func (c *Controller) RainDelayStop() error {
	if c.engine == nil {
		return ErrNotStarted
	}
	c.nv.RainDelayStop = 0
	if err := c.store.SaveNVData(&c.nv); err != nil {
		return fmt.Errorf("save nvdata: %w", err)
	}
	c.flags.RainDelayed = false
	log.Printf("controller: rain delay stopped")
	return nil
}

// Options returns a copy of the integer options.
func (c *Controller) Options() store.IntOptions {
	return c.opts
}

// SetOption changes one integer option in memory. SaveOptions persists
// and applies it.
func (c *Controller) SetOption(id store.IntOption, v byte) error {
	return c.opts.Set(id, v)
}

// SaveOptions persists the integer options and applies them: the board
// count, and the sensor configuration (which resets the debouncer when it
// changed).
func (c *Controller) SaveOptions() error {
	if c.engine == nil {
		return ErrNotStarted
	}
	if err := c.store.SaveIntOptions(&c.opts); err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	boards := c.engine.Boards()
	err := c.applyOptions()
	if err != nil {
		c.counts.DispatchErrors++
	}
	c.flags.Enabled = c.opts.Enabled()
	if c.engine.Boards() != boards {
		err = errors.Join(err, c.loadStations())
	}
	return err
}

// SetStationData replaces station sid's record.
func (c *Controller) SetStationData(sid int, d *station.Data) error {
	if c.engine == nil {
		return ErrNotStarted
	}
	if err := c.store.SetStationData(sid, d); err != nil {
		return err
	}
	return c.loadStations()
}

// StationData returns station sid's record.
func (c *Controller) StationData(sid int) (station.Data, error) {
	return c.store.GetStationData(sid)
}

// SetPassword stores a new device password. It reports whether the stored
// value changed.
func (c *Controller) SetPassword(pw string) (bool, error) {
	return c.store.SaveStringOption(store.SoptPassword, pw)
}

// VerifyPassword compares pw with the stored password.
func (c *Controller) VerifyPassword(pw string) (bool, error) {
	return c.store.VerifyPassword(pw)
}

// Shutdown turns every station off and commits, recording the reboot
// cause for the next boot.
func (c *Controller) Shutdown(now time.Time, cause store.RebootCause) error {
	if c.engine == nil {
		return ErrNotStarted
	}
	var errs []error
	if err := c.engine.ClearAll(); err != nil {
		errs = append(errs, err)
	}
	if err := c.engine.Commit(now); err != nil {
		errs = append(errs, err)
	}
	c.nv.RebootCause = cause
	if err := c.store.SaveNVData(&c.nv); err != nil {
		errs = append(errs, fmt.Errorf("save nvdata: %w", err))
	}
	c.publishTransitions(now)
	c.publishState()
	return errors.Join(errs...)
}
