package store

import (
	"fmt"
	"log"

	"github.com/sweeney/sprinkler/internal/station"
)

// SetupResult is the controller state loaded (or created) by Setup.
type SetupResult struct {
	Options IntOptions
	NV      NVData

	// FactoryReset is true when the persisted state was rewritten.
	FactoryReset bool

	// LastRebootCause is the cause stored before this boot.
	LastRebootCause RebootCause
}

// NeedsReset reports whether the persisted state must be rewritten: the
// sentinel file is missing, the stored firmware version is too old, or a
// reset was requested through the reset option.
func (s *Store) NeedsReset() (bool, error) {
	if !s.Exists(DoneFile) || !s.Exists(IntOptionsFile) {
		return true, nil
	}
	var raw IntOptions
	if err := s.ReadBlock(IntOptionsFile, 0, raw[:]); err != nil {
		return false, err
	}
	if raw[OptFWVersion] < MinFWVersion || raw[OptReset] == ResetMarker {
		return true, nil
	}
	return false, nil
}

// Setup loads the persisted controller state, performing a factory reset
// first when NeedsReset says so.
func (s *Store) Setup() (SetupResult, error) {
	var res SetupResult

	reset, err := s.NeedsReset()
	if err != nil {
		return res, err
	}
	if reset {
		log.Printf("store: factory reset")
		if err := s.FactoryReset(); err != nil {
			return res, fmt.Errorf("factory reset: %w", err)
		}
		res.FactoryReset = true
		res.Options = DefaultIntOptions()
		res.NV = NVData{RebootCause: RebootReset}
		res.LastRebootCause = RebootReset
		return res, nil
	}

	if res.Options, err = s.LoadIntOptions(); err != nil {
		return res, err
	}
	if res.NV, err = s.LoadNVData(); err != nil {
		return res, err
	}
	res.LastRebootCause = res.NV.RebootCause
	res.NV.RebootCause = RebootPowerOn
	if err := s.SaveNVData(&res.NV); err != nil {
		return res, err
	}
	return res, nil
}

// FactoryReset rewrites every persisted file with defaults. The sentinel is
// removed first and written last so an interrupted reset repeats on the
// next boot.
func (s *Store) FactoryReset() error {
	if err := s.Remove(DoneFile); err != nil {
		return err
	}

	o := DefaultIntOptions()
	if err := s.SaveIntOptions(&o); err != nil {
		return err
	}

	if err := s.WriteBlock(StrOptionsFile, 0, make([]byte, NumStrOptions*StrSlotSize)); err != nil {
		return err
	}
	for id := StrOption(0); id < NumStrOptions; id++ {
		if _, err := s.SaveStringOption(id, id.Default()); err != nil {
			return err
		}
	}

	for sid := 0; sid < station.MaxStations; sid++ {
		d := DefaultStation(sid)
		if err := s.SetStationData(sid, &d); err != nil {
			return err
		}
	}

	nv := NVData{RebootCause: RebootReset}
	if err := s.SaveNVData(&nv); err != nil {
		return err
	}
	if err := s.WriteByteAt(ProgramsFile, 0, 0); err != nil {
		return err
	}
	return s.WriteByteAt(DoneFile, 0, 1)
}

// DefaultStation is the factory record for sid: a standard station that
// uses the master and runs sequentially.
func DefaultStation(sid int) station.Data {
	d := station.Data{
		Name:   station.DefaultName(sid),
		Attrib: station.Attrib{Master: true, Sequential: true},
		Type:   station.TypeStandard,
	}
	d.Payload[0] = '0'
	return d
}
