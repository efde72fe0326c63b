package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

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

var startTime = time.Date(2026, 6, 2, 6, 0, 0, 0, time.UTC)

// peer is a loopback TCP server that records request heads and answers
// each with a fixed body before closing.
type peer struct {
	ln       net.Listener
	requests chan string
}

func newPeer(t *testing.T) *peer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := &peer{ln: ln, requests: make(chan string, 8)}
	t.Cleanup(func() { ln.Close() })
	go p.serve()
	return p
}

func (p *peer) serve() {
	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}
		r := bufio.NewReader(conn)
		var head strings.Builder
		for {
			line, err := r.ReadString('\n')
			head.WriteString(line)
			if err != nil || line == "\r\n" {
				break
			}
		}
		p.requests <- head.String()
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\n{\"result\":1}"))
		conn.Close()
	}
}

func (p *peer) port() int {
	return p.ln.Addr().(*net.TCPAddr).Port
}

func (p *peer) next(t *testing.T) string {
	t.Helper()
	select {
	case req := <-p.requests:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("peer received no request")
		return ""
	}
}

type system struct {
	dir     string
	bus     *expander.FakeBus
	pins    *gpio.FakePins
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	ctrl    *controller.Controller
}

func startSystem(t *testing.T, dir string) *system {
	t.Helper()
	medium, err := store.NewDir(dir)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	s := &system{
		dir:     dir,
		bus:     expander.NewFakeBus(0, 1),
		pins:    gpio.NewFakePins([2]bool{true, true}),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(startTime, status.Config{DataDir: dir, Hardware: "ac"}),
	}
	s.ctrl = controller.New(controller.Config{
		Medium:      medium,
		Bus:         s.bus,
		Pins:        s.pins,
		HWType:      store.HWTypeAC,
		Boost:       gpio.NoPin,
		BoostEnable: gpio.NoPin,
		Requests:    httpreq.NewClient(),
		HTTPTimeout: 2 * time.Second,
		Publisher:   s.pub,
		Tracker:     s.tracker,
	})
	if err := s.ctrl.Begin(startTime); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return s
}

func setSpecial(t *testing.T, s *system, sid int, typ station.Type, payload string) {
	t.Helper()
	d, err := s.ctrl.StationData(sid)
	if err != nil {
		t.Fatalf("StationData: %v", err)
	}
	d.Type = typ
	if err := d.SetPayload([]byte(payload)); err != nil {
		t.Fatalf("SetPayload: %v", err)
	}
	if err := s.ctrl.SetStationData(sid, &d); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}
}

// TestIntegrationRemoteStation drives a remote station through the real
// request client against a loopback peer controller.
func TestIntegrationRemoteStation(t *testing.T) {
	p := newPeer(t)
	s := startSystem(t, t.TempDir())
	setSpecial(t, s, 2, station.TypeRemote, fmt.Sprintf("7f000001%04x%04x", p.port(), 6))

	if _, err := s.ctrl.SetStation(2, true); err != nil {
		t.Fatalf("SetStation on: %v", err)
	}
	req := p.next(t)
	want := fmt.Sprintf("GET /cm?pw=%s&sid=6&en=1&t=64800 HTTP/1.0\r\nHOST: 127.0.0.1\r\n\r\n", store.DefaultPassword)
	if req != want {
		t.Errorf("on request:\ngot  %q\nwant %q", req, want)
	}

	if _, err := s.ctrl.SetStation(2, false); err != nil {
		t.Fatalf("SetStation off: %v", err)
	}
	if req := p.next(t); !strings.Contains(req, "sid=6&en=0&t=64800") {
		t.Errorf("off request: %q", req)
	}

	if err := s.ctrl.Tick(startTime.Add(time.Second)); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.ctrl.State().Counts.DispatchErrors; got != 0 {
		t.Errorf("DispatchErrors: got %d", got)
	}
}

// TestIntegrationHTTPStation drives an HTTP station's on and off commands.
func TestIntegrationHTTPStation(t *testing.T) {
	p := newPeer(t)
	s := startSystem(t, t.TempDir())
	setSpecial(t, s, 1, station.TypeHTTP, fmt.Sprintf("127.0.0.1,%d,relay/1/on,relay/1/off", p.port()))

	if _, err := s.ctrl.SetStation(1, true); err != nil {
		t.Fatalf("SetStation on: %v", err)
	}
	if req := p.next(t); req != "GET /relay/1/on HTTP/1.0\r\nHOST: 127.0.0.1\r\n\r\n" {
		t.Errorf("on request: %q", req)
	}
	if _, err := s.ctrl.SetStation(1, false); err != nil {
		t.Fatalf("SetStation off: %v", err)
	}
	if req := p.next(t); !strings.HasPrefix(req, "GET /relay/1/off ") {
		t.Errorf("off request: %q", req)
	}
}

// TestIntegrationUnreachablePeer checks a dead remote station fails the
// dispatch without blocking the board commit.
func TestIntegrationUnreachablePeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := startSystem(t, t.TempDir())
	setSpecial(t, s, 0, station.TypeRemote, fmt.Sprintf("7f000001%04x%04x", port, 1))

	if _, err := s.ctrl.SetStation(0, true); err == nil {
		t.Error("expected connect error")
	}
	if _, err := s.ctrl.SetStation(3, true); err != nil {
		t.Fatalf("SetStation: %v", err)
	}
	if err := s.ctrl.Tick(startTime.Add(time.Second)); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if out := s.bus.Device(0).Output(expander.PortA); out != 0x09 {
		t.Errorf("board 0 output: got 0x%02x, want 0x09", out)
	}
}

// TestIntegrationPersistenceAcrossRestart checks state written through one
// controller is seen by the next one over the same data directory.
func TestIntegrationPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	s := startSystem(t, dir)
	if !s.tracker.Snapshot().FactoryReset {
		t.Fatal("first start should factory reset")
	}

	d, _ := s.ctrl.StationData(4)
	d.Name = "Vegetable beds"
	if err := s.ctrl.SetStationData(4, &d); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}
	if err := s.ctrl.SetOption(store.OptExtBoards, 1); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if err := s.ctrl.SaveOptions(); err != nil {
		t.Fatalf("SaveOptions: %v", err)
	}
	if _, err := s.ctrl.SetPassword("hunter2"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := s.ctrl.Shutdown(startTime.Add(time.Minute), store.RebootShutdown); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	s2 := startSystem(t, dir)
	snap := s2.tracker.Snapshot()
	if snap.FactoryReset {
		t.Error("second start should not factory reset")
	}
	if snap.LastRebootCause != "shutdown" {
		t.Errorf("LastRebootCause: got %q", snap.LastRebootCause)
	}
	if snap.Boards != 2 || len(snap.Stations) != 16 {
		t.Fatalf("boards=%d stations=%d", snap.Boards, len(snap.Stations))
	}
	if snap.Stations[4].Name != "Vegetable beds" {
		t.Errorf("station 4 name: got %q", snap.Stations[4].Name)
	}
	if ok, _ := s2.ctrl.VerifyPassword("hunter2"); !ok {
		t.Error("password not persisted")
	}
}

// TestIntegrationStatusServer serves the tracker over the real status
// server while the controller runs.
func TestIntegrationStatusServer(t *testing.T) {
	s := startSystem(t, t.TempDir())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := web.New("", s.tracker)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	if _, err := s.ctrl.SetStation(6, true); err != nil {
		t.Fatalf("SetStation: %v", err)
	}
	if err := s.ctrl.Tick(startTime.Add(time.Second)); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sj.Status.Active) != 1 || sj.Status.Active[0] != 6 {
		t.Errorf("active stations: got %v, want [6]", sj.Status.Active)
	}
	if sj.Status.LastRebootCause != "reset" || !sj.Status.FactoryReset {
		t.Errorf("boot info: cause=%q factory_reset=%t", sj.Status.LastRebootCause, sj.Status.FactoryReset)
	}
	if sj.Status.Config.DataDir != s.dir {
		t.Errorf("config data_dir: got %q", sj.Status.Config.DataDir)
	}
}

// TestIntegrationStartupPayloadFormat checks the STARTUP event carries the
// full status snapshot unchanged.
func TestIntegrationStartupPayloadFormat(t *testing.T) {
	s := startSystem(t, t.TempDir())
	snap := s.tracker.Snapshot()
	raw := status.FormatStatusEvent(snap, "STARTUP", "")

	if err := s.pub.PublishSystem(mqtt.SystemEvent{Event: "STARTUP", RawPayload: raw, Retained: true}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	var payload status.StatusJSON
	if err := json.Unmarshal(s.pub.SystemPayloads[0], &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Status.Event != "STARTUP" || !payload.Status.Enabled {
		t.Errorf("unexpected payload: %+v", payload.Status)
	}
	if payload.Status.Stations != nil {
		t.Error("system events should not carry the station list")
	}
}
