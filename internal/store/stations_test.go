package store

import (
	"errors"
	"testing"

	"github.com/sweeney/sprinkler/internal/station"
)

func TestStationDataRoundTrip(t *testing.T) {
	s := New(NewMem())
	in := station.Data{
		Name:   "Front lawn",
		Attrib: station.Attrib{Master: true, IgnoreSensor2: true},
		Type:   station.TypeRemote,
	}
	if err := in.SetPayload([]byte("7f0000011f900001")); err != nil {
		t.Fatalf("SetPayload: %v", err)
	}
	if err := s.SetStationData(13, &in); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}

	out, err := s.GetStationData(13)
	if err != nil {
		t.Fatalf("GetStationData: %v", err)
	}
	if out.Name != in.Name {
		t.Errorf("name: got %q, want %q", out.Name, in.Name)
	}
	if out.Attrib != in.Attrib {
		t.Errorf("attrib: got %+v, want %+v", out.Attrib, in.Attrib)
	}
	if out.Type != in.Type {
		t.Errorf("type: got %v, want %v", out.Type, in.Type)
	}
	if out.Payload != in.Payload {
		t.Error("payload differs after round trip")
	}
}

func TestStationRecordOffset(t *testing.T) {
	m := NewMem()
	s := New(m)
	d := station.Data{Name: "x"}
	if err := s.SetStationData(2, &d); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}
	if m.Writes[0].Off != 2*station.RecordSize {
		t.Errorf("offset: got %d, want %d", m.Writes[0].Off, 2*station.RecordSize)
	}
	if len(m.Writes[0].Data) != station.RecordSize {
		t.Errorf("length: got %d, want %d", len(m.Writes[0].Data), station.RecordSize)
	}
}

func TestStationFields(t *testing.T) {
	s := New(NewMem())
	d := DefaultStation(5)
	d.Type = station.TypeHTTP
	if err := s.SetStationData(5, &d); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}

	if err := s.SetStationName(5, "Veg beds"); err != nil {
		t.Fatalf("SetStationName: %v", err)
	}
	name, err := s.GetStationName(5)
	if err != nil || name != "Veg beds" {
		t.Errorf("name: got %q, %v", name, err)
	}

	typ, err := s.GetStationType(5)
	if err != nil || typ != station.TypeHTTP {
		t.Errorf("type: got %v, %v", typ, err)
	}

	want := station.Attrib{Disabled: true, IgnoreRainDelay: true}
	if err := s.SetStationAttrib(5, want); err != nil {
		t.Fatalf("SetStationAttrib: %v", err)
	}
	got, err := s.GetStationAttrib(5)
	if err != nil || got != want {
		t.Errorf("attrib: got %+v, %v", got, err)
	}

	// Name and attribute writes leave the payload alone.
	full, err := s.GetStationData(5)
	if err != nil {
		t.Fatalf("GetStationData: %v", err)
	}
	if full.Payload[0] != '0' {
		t.Errorf("payload clobbered: %q", full.Payload[0])
	}
}

func TestStationIndexBounds(t *testing.T) {
	s := New(NewMem())
	if _, err := s.GetStationData(station.MaxStations); !errors.Is(err, ErrUnknownStation) {
		t.Errorf("expected ErrUnknownStation, got %v", err)
	}
	if err := s.SetStationName(-1, "x"); !errors.Is(err, ErrUnknownStation) {
		t.Errorf("expected ErrUnknownStation, got %v", err)
	}
}

func TestAttribPlanes(t *testing.T) {
	s := New(NewMem())
	if err := s.FactoryReset(); err != nil {
		t.Fatalf("FactoryReset: %v", err)
	}

	d := DefaultStation(9)
	d.Attrib = station.Attrib{Disabled: true}
	d.Type = station.TypeGPIO
	if err := s.SetStationData(9, &d); err != nil {
		t.Fatalf("SetStationData: %v", err)
	}

	p, err := s.AttribPlanes(16)
	if err != nil {
		t.Fatalf("AttribPlanes: %v", err)
	}
	if p.Master[0] != 0xFF {
		t.Errorf("master board 0: got 0x%02x, want 0xff", p.Master[0])
	}
	if p.Master[1] != 0xFD {
		t.Errorf("master board 1: got 0x%02x, want 0xfd", p.Master[1])
	}
	if !Has(&p.Disabled, 9) || Has(&p.Disabled, 8) {
		t.Error("disabled plane wrong")
	}
	if !Has(&p.Special, 9) || p.Special[0] != 0 {
		t.Error("special plane wrong")
	}
	if p.Master[2] != 0 {
		t.Error("stations beyond n should not be projected")
	}
}
