package store

import "github.com/sweeney/sprinkler/internal/station"

// AttribPlanes is the per-board bit-plane view of station attributes: one
// byte per board, one bit per station. It is derived from the station
// records and never written back.
type AttribPlanes struct {
	Master          [station.MaxBoards]byte
	IgnoreSensor1   [station.MaxBoards]byte
	Master2         [station.MaxBoards]byte
	Disabled        [station.MaxBoards]byte
	Sequential      [station.MaxBoards]byte
	IgnoreSensor2   [station.MaxBoards]byte
	IgnoreRainDelay [station.MaxBoards]byte
	Special         [station.MaxBoards]byte
}

// Has reports whether bit sid is set in plane.
func Has(plane *[station.MaxBoards]byte, sid int) bool {
	if sid < 0 || sid >= station.MaxStations {
		return false
	}
	bd, bit := station.BoardOf(sid)
	return plane[bd]&(1<<bit) != 0
}

// AttribPlanes builds the bit-plane projection for the first n stations.
func (s *Store) AttribPlanes(n int) (AttribPlanes, error) {
	var p AttribPlanes
	if n > station.MaxStations {
		n = station.MaxStations
	}
	for sid := 0; sid < n; sid++ {
		d, err := s.GetStationData(sid)
		if err != nil {
			return p, err
		}
		bd, bit := station.BoardOf(sid)
		mask := byte(1) << bit
		set := func(plane *[station.MaxBoards]byte, on bool) {
			if on {
				plane[bd] |= mask
			}
		}
		set(&p.Master, d.Attrib.Master)
		set(&p.IgnoreSensor1, d.Attrib.IgnoreSensor1)
		set(&p.Master2, d.Attrib.Master2)
		set(&p.Disabled, d.Attrib.Disabled)
		set(&p.Sequential, d.Attrib.Sequential)
		set(&p.IgnoreSensor2, d.Attrib.IgnoreSensor2)
		set(&p.IgnoreRainDelay, d.Attrib.IgnoreRainDelay)
		set(&p.Special, d.Type.Special())
	}
	return p, nil
}
