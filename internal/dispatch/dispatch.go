// Package dispatch actuates special stations: GPIO passthrough, remote
// peer controllers, generic HTTP triggers and RF transmitters.
package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/sprinkler/internal/httpreq"
	"github.com/sweeney/sprinkler/internal/station"
)

// ErrUnsupported is returned when no collaborator is wired for a station
// type.
var ErrUnsupported = errors.New("dispatch: station type not supported")

// Remote station run durations in seconds.
const (
	// LongDuration keeps a remote station on until it is switched off.
	LongDuration = 64800
	// RefreshDuration outlives one auto-refresh cycle over every station.
	RefreshDuration = 2 * station.MaxStations
)

// Stations reads persisted station records.
type Stations interface {
	GetStationData(sid int) (station.Data, error)
}

// PinWriter drives a host GPIO line.
type PinWriter interface {
	Write(pin int, high bool) error
}

// Requester sends one blocking request.
type Requester interface {
	Send(t httpreq.Target, payload []byte, callback func([]byte), timeout time.Duration) httpreq.Result
}

// RFTransmitter sends one RF code.
type RFTransmitter interface {
	Transmit(code uint32, timing uint16) error
}

// Settings supplies the controller options the dispatcher needs.
type Settings interface {
	Password() (string, error)
	AutoRefresh() bool
}

// Dispatcher switches special stations. It reads station records but never
// writes them.
type Dispatcher struct {
	stations Stations
	settings Settings
	pins     PinWriter
	requests Requester
	rf       RFTransmitter
	timeout  time.Duration
}

// Config wires the collaborators for each station type. A nil
// collaborator makes stations of that type fail with ErrUnsupported.
type Config struct {
	Pins     PinWriter
	Requests Requester
	RF       RFTransmitter
	Timeout  time.Duration // zero means httpreq.DefaultTimeout
}

// New returns a dispatcher reading records from stations.
func New(stations Stations, settings Settings, cfg Config) *Dispatcher {
	d := &Dispatcher{
		stations: stations,
		settings: settings,
		pins:     cfg.Pins,
		requests: cfg.Requests,
		rf:       cfg.RF,
		timeout:  cfg.Timeout,
	}
	if d.timeout <= 0 {
		d.timeout = httpreq.DefaultTimeout
	}
	return d
}

// Switch turns station sid on or off according to its type. Standard
// stations are a no-op.
func (d *Dispatcher) Switch(sid int, on bool) error {
	data, err := d.stations.GetStationData(sid)
	if err != nil {
		return fmt.Errorf("station %d: %w", sid, err)
	}
	if !data.Type.Special() {
		return nil
	}
	p, err := data.Decode()
	if err != nil {
		return fmt.Errorf("station %d (%s): %w", sid, data.Type, err)
	}
	if p == nil {
		return nil
	}

	switch p := p.(type) {
	case station.GPIOStation:
		err = d.switchGPIO(p, on)
	case station.RemoteStation:
		err = d.switchRemote(p, on)
	case station.HTTPStation:
		err = d.switchHTTP(p, on)
	case station.RFStation:
		err = d.switchRF(p, on)
	}
	if err != nil {
		return fmt.Errorf("station %d (%s): %w", sid, data.Type, err)
	}
	return nil
}

func (d *Dispatcher) switchGPIO(p station.GPIOStation, on bool) error {
	if d.pins == nil {
		return ErrUnsupported
	}
	return d.pins.Write(int(p.Pin), on == p.ActiveHigh)
}

func (d *Dispatcher) switchRemote(p station.RemoteStation, on bool) error {
	if d.requests == nil {
		return ErrUnsupported
	}
	pw, err := d.settings.Password()
	if err != nil {
		return err
	}
	dur := LongDuration
	if d.settings.AutoRefresh() {
		dur = RefreshDuration
	}
	req := RemoteRequest(pw, p, on, dur)
	return d.requests.Send(httpreq.FromIPv4(p.IP, p.Port), []byte(req), nil, d.timeout).Err()
}

func (d *Dispatcher) switchHTTP(p station.HTTPStation, on bool) error {
	if d.requests == nil {
		return ErrUnsupported
	}
	req := HTTPRequest(p, on)
	t := httpreq.Target{Host: p.Server, Port: p.Port}
	return d.requests.Send(t, []byte(req), nil, d.timeout).Err()
}

func (d *Dispatcher) switchRF(p station.RFStation, on bool) error {
	if d.rf == nil {
		return ErrUnsupported
	}
	return d.rf.Transmit(p.Code(on), p.Timing)
}

// RemoteRequest is the request line sent to a peer controller.
func RemoteRequest(password string, p station.RemoteStation, on bool, duration int) string {
	en := 0
	if on {
		en = 1
	}
	return fmt.Sprintf("GET /cm?pw=%s&sid=%d&en=%d&t=%d HTTP/1.0\r\nHOST: %s\r\n\r\n",
		password, p.SID, en, duration, p.IPString())
}

// HTTPRequest is the request sent to an HTTP station's server.
func HTTPRequest(p station.HTTPStation, on bool) string {
	return fmt.Sprintf("GET /%s HTTP/1.0\r\nHOST: %s\r\n\r\n", p.Command(on), p.Server)
}
