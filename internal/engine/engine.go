// Package engine owns the station bit-vector: the desired on/off state of
// every station, and the commit that pushes it to hardware.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/sprinkler/internal/expander"
	"github.com/sweeney/sprinkler/internal/station"
)

// ErrUnknownStation is returned for a station index out of range.
var ErrUnknownStation = errors.New("engine: unknown station")

// Change is the result of SetBit.
type Change int8

const (
	NoChange  Change = 0
	TurnedOn  Change = 1
	TurnedOff Change = -1
)

func (c Change) String() string {
	switch c {
	case TurnedOn:
		return "on"
	case TurnedOff:
		return "off"
	}
	return "unchanged"
}

// StationTypes looks up a station's type tag.
type StationTypes interface {
	GetStationType(sid int) (station.Type, error)
}

// Dispatcher actuates special stations.
type Dispatcher interface {
	Switch(sid int, on bool) error
}

// PortWriter sets the output level of one expander port.
type PortWriter interface {
	PortWrite(p expander.Port, v byte) error
}

// Booster charges the DC boost converter.
type Booster interface {
	BoostOn() error
	BoostOff() error
}

// Settings are the options read on every commit.
type Settings interface {
	AutoRefresh() bool
	BoostTime() time.Duration
}

// Config wires an Engine.
type Config struct {
	Types    StationTypes
	Dispatch Dispatcher
	Settings Settings

	// Main drives board 0. Expanders[i] drives board i+1; nil entries are
	// boards with no detected hardware.
	Main      PortWriter
	Expanders [station.MaxExtBoards]PortWriter

	// DC hardware charges the boost converter before switching a valve on.
	DC      bool
	Booster Booster

	// Sleep waits for the boost converter; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Transition is one station that changed state since the previous
// snapshot.
type Transition struct {
	SID int
	On  bool
}

// Engine aggregates station state across boards. It is not safe for
// concurrent use.
type Engine struct {
	cfg    Config
	boards int

	bits [station.MaxBoards]byte
	prev [station.MaxBoards]byte

	boostPending bool
	lastRefresh  int
}

// New returns an engine with one board and every station off.
func New(cfg Config) *Engine {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Engine{cfg: cfg, boards: 1, lastRefresh: -1}
}

// SetBoards sets the number of configured boards, clamped to
// 1..station.MaxBoards. Stations on boards that drop out of range are
// turned off, dispatching any active special station.
func (e *Engine) SetBoards(n int) error {
	if n < 1 {
		n = 1
	}
	if n > station.MaxBoards {
		n = station.MaxBoards
	}
	var errs []error
	for sid := n * station.PerBoard; sid < e.Stations(); sid++ {
		if err := e.set(sid, false); err != nil {
			errs = append(errs, err)
		}
	}
	e.boards = n
	return errors.Join(errs...)
}

// Boards returns the number of configured boards.
func (e *Engine) Boards() int {
	return e.boards
}

// Stations returns the number of configured stations.
func (e *Engine) Stations() int {
	return e.boards * station.PerBoard
}

// SetBit sets station sid to on. Nothing is written to hardware until
// Commit, but a special station is dispatched immediately. The bit changes
// even when dispatch fails; the error is returned alongside the change.
// Only stations on configured boards can be set.
func (e *Engine) SetBit(sid int, on bool) (Change, error) {
	if sid < 0 || sid >= e.Stations() {
		return NoChange, fmt.Errorf("%w: %d", ErrUnknownStation, sid)
	}
	change := e.change(sid, on)
	if change == NoChange {
		return NoChange, nil
	}
	return change, e.dispatch(sid, on)
}

func (e *Engine) set(sid int, on bool) error {
	if e.change(sid, on) == NoChange {
		return nil
	}
	return e.dispatch(sid, on)
}

// change flips the bit of sid and reports the transition.
func (e *Engine) change(sid int, on bool) Change {
	bd, bit := station.BoardOf(sid)
	mask := byte(1) << bit
	if (e.bits[bd]&mask != 0) == on {
		return NoChange
	}
	if !on {
		e.bits[bd] &^= mask
		return TurnedOff
	}
	e.bits[bd] |= mask
	if e.cfg.DC {
		e.boostPending = true
	}
	return TurnedOn
}

func (e *Engine) dispatch(sid int, on bool) error {
	if e.cfg.Types == nil || e.cfg.Dispatch == nil {
		return nil
	}
	t, err := e.cfg.Types.GetStationType(sid)
	if err != nil {
		return fmt.Errorf("station %d type: %w", sid, err)
	}
	if !t.Special() {
		return nil
	}
	return e.cfg.Dispatch.Switch(sid, on)
}

// ClearAll turns every configured station off, dispatching each active
// special station.
func (e *Engine) ClearAll() error {
	var errs []error
	for sid := 0; sid < e.Stations(); sid++ {
		if err := e.set(sid, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bit reports the desired state of station sid.
func (e *Engine) Bit(sid int) bool {
	if sid < 0 || sid >= station.MaxStations {
		return false
	}
	bd, bit := station.BoardOf(sid)
	return e.bits[bd]&(1<<bit) != 0
}

// Board returns the desired bits of one board.
func (e *Engine) Board(bd int) byte {
	if bd < 0 || bd >= station.MaxBoards {
		return 0
	}
	return e.bits[bd]
}

// Bits returns the desired bits of the configured boards.
func (e *Engine) Bits() []byte {
	return append([]byte(nil), e.bits[:e.boards]...)
}

// EngageBooster marks the boost converter for charging on the next commit.
func (e *Engine) EngageBooster() {
	e.boostPending = true
}

// BoostPending reports whether the next commit will charge the booster.
func (e *Engine) BoostPending() bool {
	return e.boostPending
}

// Commit applies the bit-vector to hardware: boost (DC only), board 0,
// each expansion board, and at most one special-station refresh. Detected
// boards beyond the configured count are held at zero. Failures on one
// board do not stop the others; all are returned joined.
func (e *Engine) Commit(now time.Time) error {
	var errs []error

	if e.boostPending && e.cfg.DC {
		if err := e.boost(); err != nil {
			errs = append(errs, err)
		}
		e.boostPending = false
	}

	if e.cfg.Main != nil {
		if err := e.cfg.Main.PortWrite(expander.PortA, e.bits[0]); err != nil {
			errs = append(errs, fmt.Errorf("board 0: %w", err))
		}
	}
	for i, x := range e.cfg.Expanders {
		if x == nil {
			continue
		}
		var v byte
		if i+1 < e.boards {
			v = e.bits[i+1]
		}
		if err := x.PortWrite(expander.PortA, v); err != nil {
			errs = append(errs, fmt.Errorf("board %d: %w", i+1, err))
		}
	}

	if e.cfg.Settings != nil && e.cfg.Settings.AutoRefresh() {
		if err := e.refresh(now); err != nil {
			errs = append(errs, fmt.Errorf("refresh: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) boost() error {
	if e.cfg.Booster == nil {
		return nil
	}
	if err := e.cfg.Booster.BoostOn(); err != nil {
		return fmt.Errorf("boost on: %w", err)
	}
	var wait time.Duration
	if e.cfg.Settings != nil {
		wait = e.cfg.Settings.BoostTime()
	}
	e.cfg.Sleep(wait)
	if err := e.cfg.Booster.BoostOff(); err != nil {
		return fmt.Errorf("boost off: %w", err)
	}
	return nil
}

// refresh re-sends the current state of the station selected by the clock,
// once per distinct selection.
func (e *Engine) refresh(now time.Time) error {
	sid := int(now.Unix() % int64(e.Stations()))
	if sid == e.lastRefresh {
		return nil
	}
	e.lastRefresh = sid
	return e.dispatch(sid, e.Bit(sid))
}

// Transitions returns the stations whose state differs from the previous
// snapshot and takes a new snapshot.
func (e *Engine) Transitions() []Transition {
	var out []Transition
	for bd := 0; bd < station.MaxBoards; bd++ {
		diff := e.bits[bd] ^ e.prev[bd]
		for bit := uint(0); bit < station.PerBoard; bit++ {
			if diff&(1<<bit) == 0 {
				continue
			}
			out = append(out, Transition{
				SID: bd*station.PerBoard + int(bit),
				On:  e.bits[bd]&(1<<bit) != 0,
			})
		}
	}
	e.prev = e.bits
	return out
}
