// Command sprinkler runs the irrigation controller station core: it drives
// the output boards, debounces the sensors and publishes state changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/sprinkler/internal/config"
	"github.com/sweeney/sprinkler/internal/controller"
	"github.com/sweeney/sprinkler/internal/expander"
	"github.com/sweeney/sprinkler/internal/gpio"
	"github.com/sweeney/sprinkler/internal/httpreq"
	"github.com/sweeney/sprinkler/internal/mqtt"
	"github.com/sweeney/sprinkler/internal/station"
	"github.com/sweeney/sprinkler/internal/status"
	"github.com/sweeney/sprinkler/internal/store"
	"github.com/sweeney/sprinkler/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults apply when empty)")
	printState := flag.Bool("print-state", false, "Print sensor levels and detected boards, then exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	bus, err := expander.OpenBus(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("init i2c: %w", err)
	}
	defer bus.Close()

	pins, err := gpio.NewRealPins(cfg.GPIOChip, cfg.Pins.Sensor1, cfg.Pins.Sensor2)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer pins.Close()

	// Print state mode
	if printState {
		levels, err := pins.ReadSensors()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("sensor1: %s, sensor2: %s\n", levelString(levels[0]), levelString(levels[1]))
		for id := 0; id <= station.MaxExtBoards; id++ {
			fmt.Printf("board %d: %s\n", id, presentString(expander.Probe(bus, uint8(id))))
		}
		return nil
	}

	medium, err := store.NewDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:   cfg.Poll().Milliseconds(),
		Broker:   cfg.MQTT.Broker,
		HTTPAddr: cfg.HTTP.Addr,
		DataDir:  cfg.DataDir,
		I2CBus:   cfg.I2CBus,
		Hardware: cfg.Hardware,
	})

	ctrl := controller.New(controller.Config{
		Medium:      medium,
		Bus:         bus,
		Pins:        pins,
		HWType:      hwType(cfg.Hardware),
		Boost:       cfg.Pins.Boost,
		BoostEnable: cfg.Pins.BoostEnable,
		Requests:    httpreq.NewClient(),
		HTTPTimeout: cfg.HTTPTimeout(),
		Publisher:   publisher,
		Tracker:     tracker,
	})
	if err := ctrl.Begin(time.Now()); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}

	announce(publisher, publisher, tracker, time.Now(), "STARTUP", "")

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: poll=%v hardware=%s broker=%s heartbeat=%v", cfg.Poll(), cfg.Hardware, cfg.MQTT.Broker, cfg.Heartbeat())

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, cfg.Heartbeat(), time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			t := now()
			if err := ctrl.Shutdown(t, store.RebootShutdown); err != nil {
				log.Printf("shutdown: %v", err)
			}
			announce(publisher, mqttStatus, tracker, t, "SHUTDOWN", signalName(s))
			return nil

		case <-tick:
			t := now()
			if err := ctrl.Tick(t); err != nil {
				// Transport failures are not fatal; the next tick retries.
				log.Printf("tick: %v", err)
			}
			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				announce(publisher, nil, tracker, t, "HEARTBEAT", "")
			}
		}
	}
}

// announce publishes a lifecycle event carrying the full status snapshot.
// STARTUP and SHUTDOWN are retained so late subscribers see the last one.
func announce(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, t time.Time, name, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     name,
		Reason:    reason,
		Retained:  name != "HEARTBEAT",
	}
	if tracker != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		if name == "HEARTBEAT" {
			log.Printf("heartbeat: uptime=%v active=%v station_on=%d station_off=%d",
				snap.Uptime().Truncate(time.Second), snap.ActiveStations(), snap.Counts.StationOn, snap.Counts.StationOff)
		}
		event.RawPayload = status.FormatStatusEvent(snap, name, reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("publish %s: %v", strings.ToLower(name), err)
		return
	}
	if name != "HEARTBEAT" {
		log.Printf("published %s event", strings.ToLower(name))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func hwType(hardware string) byte {
	switch hardware {
	case config.HardwareDC:
		return store.HWTypeDC
	case config.HardwareLatch:
		return store.HWTypeLatch
	}
	return store.HWTypeAC
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

func presentString(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
