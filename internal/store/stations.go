package store

import (
	"errors"
	"fmt"

	"github.com/sweeney/sprinkler/internal/station"
)

// ErrUnknownStation is returned for a station index outside 0..MaxStations-1.
var ErrUnknownStation = errors.New("store: unknown station")

func stationPos(sid int) (int64, error) {
	if sid < 0 || sid >= station.MaxStations {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStation, sid)
	}
	return int64(sid) * station.RecordSize, nil
}

// GetStationData reads one station record.
func (s *Store) GetStationData(sid int) (station.Data, error) {
	var d station.Data
	pos, err := stationPos(sid)
	if err != nil {
		return d, err
	}
	buf := make([]byte, station.RecordSize)
	if err := s.ReadBlock(StationsFile, pos, buf); err != nil {
		return d, err
	}
	if err := d.UnmarshalBinary(buf); err != nil {
		return d, err
	}
	return d, nil
}

// SetStationData writes one station record.
func (s *Store) SetStationData(sid int, d *station.Data) error {
	pos, err := stationPos(sid)
	if err != nil {
		return err
	}
	buf, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	return s.WriteBlock(StationsFile, pos, buf)
}

// GetStationName reads only the name field of a record.
func (s *Store) GetStationName(sid int) (string, error) {
	pos, err := stationPos(sid)
	if err != nil {
		return "", err
	}
	buf := make([]byte, station.NameSize)
	if err := s.ReadBlock(StationsFile, pos+station.NameOffset, buf); err != nil {
		return "", err
	}
	return station.DecodeName(buf), nil
}

// SetStationName rewrites the name field, zero padded.
func (s *Store) SetStationName(sid int, name string) error {
	pos, err := stationPos(sid)
	if err != nil {
		return err
	}
	buf := make([]byte, station.NameSize)
	copy(buf, name)
	return s.WriteBlock(StationsFile, pos+station.NameOffset, buf)
}

// GetStationType reads the type byte of a record.
func (s *Store) GetStationType(sid int) (station.Type, error) {
	pos, err := stationPos(sid)
	if err != nil {
		return 0, err
	}
	b, err := s.ReadByteAt(StationsFile, pos+station.TypeOffset)
	if err != nil {
		return 0, err
	}
	return station.Type(b), nil
}

// GetStationAttrib reads the attribute byte of a record.
func (s *Store) GetStationAttrib(sid int) (station.Attrib, error) {
	pos, err := stationPos(sid)
	if err != nil {
		return station.Attrib{}, err
	}
	b, err := s.ReadByteAt(StationsFile, pos+station.AttribOffset)
	if err != nil {
		return station.Attrib{}, err
	}
	return station.ParseAttrib(b), nil
}

// SetStationAttrib rewrites the attribute byte of a record.
func (s *Store) SetStationAttrib(sid int, a station.Attrib) error {
	pos, err := stationPos(sid)
	if err != nil {
		return err
	}
	return s.WriteByteAt(StationsFile, pos+station.AttribOffset, a.Byte())
}
