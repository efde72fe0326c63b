// Package controller owns the controller state: persisted options, status
// flags, the station engine, the special-station dispatcher and the sensor
// debouncer. All methods run on the control loop goroutine.
package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/sprinkler/internal/dispatch"
	"github.com/sweeney/sprinkler/internal/engine"
	"github.com/sweeney/sprinkler/internal/expander"
	"github.com/sweeney/sprinkler/internal/gpio"
	"github.com/sweeney/sprinkler/internal/mqtt"
	"github.com/sweeney/sprinkler/internal/sensor"
	"github.com/sweeney/sprinkler/internal/station"
	"github.com/sweeney/sprinkler/internal/status"
	"github.com/sweeney/sprinkler/internal/store"
	"tinygo.org/x/drivers"
)

var (
	// ErrNotStarted is returned by operations that need Begin first.
	ErrNotStarted = errors.New("controller: not started")

	// ErrDisabled is returned when turning a station on while the
	// controller is disabled.
	ErrDisabled = errors.New("controller: disabled")

	// ErrStationDisabled is returned when turning on a station whose
	// disabled attribute is set.
	ErrStationDisabled = errors.New("controller: station disabled")
)

// Pins reads the sensor inputs and drives host GPIO lines.
type Pins interface {
	ReadSensors() ([2]bool, error)
	Write(pin int, high bool) error
}

// Config wires a Controller.
type Config struct {
	Medium store.Medium
	Bus    drivers.I2C
	Pins   Pins

	// HWType is one of store.HWTypeAC, HWTypeDC or HWTypeLatch.
	HWType byte

	// Boost and BoostEnable are the DC boost converter lines, gpio.NoPin
	// when not fitted.
	Boost       int
	BoostEnable int

	Requests    dispatch.Requester
	RF          dispatch.RFTransmitter
	HTTPTimeout time.Duration

	Publisher mqtt.Publisher
	Tracker   *status.Tracker

	// Sleep waits for the boost converter; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Controller is the single owner of controller state.
type Controller struct {
	cfg   Config
	store *store.Store

	opts  store.IntOptions
	nv    store.NVData
	flags status.Flags

	engine   *engine.Engine
	dispatch *dispatch.Dispatcher
	sensors  *sensor.Debouncer

	main      *expander.Device
	expanders [station.MaxExtBoards]*expander.Device

	stations []status.Station
	planes   store.AttribPlanes
	counts   status.EventCounts
}

// New returns a controller over the given hardware. Nothing is touched
// until Begin.
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		store:   store.New(cfg.Medium),
		sensors: sensor.New([sensor.Count]sensor.Config{}),
	}
	c.dispatch = dispatch.New(c.store, c, dispatch.Config{
		Pins:     cfg.Pins,
		Requests: cfg.Requests,
		RF:       cfg.RF,
		Timeout:  cfg.HTTPTimeout,
	})
	return c
}

// Begin brings the controller up: configures the main expander, detects
// expansion boards, loads (or factory resets) persisted state, and turns
// every station off.
func (c *Controller) Begin(now time.Time) error {
	main, err := setupExpander(c.cfg.Bus, 0)
	if err != nil {
		return fmt.Errorf("main board: %w", err)
	}
	c.main = main

	detected := 0
	for id := 1; id <= station.MaxExtBoards; id++ {
		if !expander.Probe(c.cfg.Bus, uint8(id)) {
			continue
		}
		dev, err := setupExpander(c.cfg.Bus, uint8(id))
		if err != nil {
			log.Printf("controller: expansion board %d: %v", id, err)
			continue
		}
		c.expanders[id-1] = dev
		detected++
	}

	res, err := c.store.Setup()
	if err != nil {
		return fmt.Errorf("options setup: %w", err)
	}
	c.opts = res.Options
	c.nv = res.NV
	if c.cfg.Tracker != nil {
		c.cfg.Tracker.SetBoot(res.LastRebootCause.String(), res.FactoryReset)
	}

	c.flags = status.Flags{
		Enabled:     c.opts.Enabled(),
		RainDelayed: c.nv.RainDelayStop != 0 && int64(c.nv.RainDelayStop) > now.Unix(),
	}

	c.engine = engine.New(c.engineConfig())
	if err := c.applyOptions(); err != nil {
		log.Printf("controller: apply options: %v", err)
	}
	if want := c.opts.Boards() - 1; want > detected {
		log.Printf("controller: %d expansion boards configured, %d detected", want, detected)
	}

	if err := c.loadStations(); err != nil {
		return err
	}

	if err := c.engine.ClearAll(); err != nil {
		log.Printf("controller: clear all: %v", err)
	}
	if err := c.engine.Commit(now); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	c.engine.Transitions()

	log.Printf("controller: started boards=%d stations=%d enabled=%t factory_reset=%t last_reboot=%s",
		c.engine.Boards(), c.engine.Stations(), c.flags.Enabled, res.FactoryReset, res.LastRebootCause)
	c.publishState()
	return nil
}

func setupExpander(bus drivers.I2C, id uint8) (*expander.Device, error) {
	dev, err := expander.New(bus, id)
	if err != nil {
		return nil, err
	}
	if err := dev.Begin(); err != nil {
		return nil, err
	}
	if err := dev.PortMode(expander.PortA, expander.AllOutput); err != nil {
		return nil, err
	}
	return dev, nil
}

func (c *Controller) engineConfig() engine.Config {
	ec := engine.Config{
		Types:    c.store,
		Dispatch: c.dispatch,
		Settings: c,
		Main:     c.main,
		DC:       c.cfg.HWType == store.HWTypeDC,
		Sleep:    c.cfg.Sleep,
	}
	for i, dev := range c.expanders {
		if dev != nil {
			ec.Expanders[i] = dev
		}
	}
	if c.cfg.HWType == store.HWTypeDC && c.cfg.Boost != gpio.NoPin && c.cfg.BoostEnable != gpio.NoPin {
		ec.Booster = engine.PinBooster{Pins: c.cfg.Pins, Boost: c.cfg.Boost, Enable: c.cfg.BoostEnable}
	}
	return ec
}

// applyOptions pushes the in-memory options into the engine and debouncer.
// The debouncer is only reset when its configuration changed. Stations
// dropped by a smaller board count are switched off.
func (c *Controller) applyOptions() error {
	if cfg := sensor.FromOptions(&c.opts); cfg != c.sensors.Config() {
		c.sensors.Configure(cfg)
	}
	return c.engine.SetBoards(c.opts.Boards())
}

// loadStations refreshes the cached station names, types and attribute
// planes from the store.
func (c *Controller) loadStations() error {
	n := c.engine.Stations()
	planes, err := c.store.AttribPlanes(n)
	if err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	list := make([]status.Station, 0, n)
	for sid := 0; sid < n; sid++ {
		d, err := c.store.GetStationData(sid)
		if err != nil {
			return fmt.Errorf("load station %d: %w", sid, err)
		}
		list = append(list, status.Station{
			SID:      sid,
			Name:     d.Name,
			Type:     d.Type.String(),
			Disabled: d.Attrib.Disabled,
		})
	}
	c.planes = planes
	c.stations = list
	return nil
}

// Password returns the stored device password.
func (c *Controller) Password() (string, error) {
	return c.store.LoadStringOption(store.SoptPassword)
}

// AutoRefresh reports whether special stations are periodically re-sent.
func (c *Controller) AutoRefresh() bool {
	return c.opts.AutoRefresh()
}

// BoostTime returns the DC boost converter charge time.
func (c *Controller) BoostTime() time.Duration {
	return c.opts.BoostTime()
}
