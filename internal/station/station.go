// Package station defines the persisted station record and the typed
// payloads of special (non-standard) stations.
package station

import (
	"bytes"
	"errors"
	"fmt"
)

// Record geometry. A record is [name][attrib][type][payload].
const (
	NameSize        = 32
	SpecialDataSize = 211
	RecordSize      = NameSize + 2 + SpecialDataSize
)

// Field offsets within a record.
const (
	NameOffset    = 0
	AttribOffset  = NameSize
	TypeOffset    = NameSize + 1
	PayloadOffset = NameSize + 2
)

// Board geometry.
const (
	PerBoard     = 8
	MaxExtBoards = 4
	MaxBoards    = 1 + MaxExtBoards
	MaxStations  = PerBoard * MaxBoards
)

// Type is the station type tag.
type Type byte

const (
	TypeStandard Type = 0x00
	TypeRF       Type = 0x01
	TypeRemote   Type = 0x02
	TypeGPIO     Type = 0x03
	TypeHTTP     Type = 0x04
	TypeOther    Type = 0xFF
)

func (t Type) String() string {
	switch t {
	case TypeStandard:
		return "standard"
	case TypeRF:
		return "rf"
	case TypeRemote:
		return "remote"
	case TypeGPIO:
		return "gpio"
	case TypeHTTP:
		return "http"
	case TypeOther:
		return "other"
	}
	return fmt.Sprintf("type(0x%02x)", byte(t))
}

// Special reports whether stations of this type need dispatching.
func (t Type) Special() bool {
	return t != TypeStandard
}

// Attribute bits.
const (
	AttrMaster byte = 1 << iota
	AttrIgnoreSensor1
	AttrMaster2
	AttrDisabled
	AttrSequential
	AttrIgnoreSensor2
	AttrIgnoreRainDelay
)

// Attrib is the decoded attribute byte. Bit 7 is unused. Station groups are
// not stored: the record carries a single attribute byte and every station
// belongs to the default group 0.
type Attrib struct {
	Master          bool
	IgnoreSensor1   bool
	Master2         bool
	Disabled        bool
	Sequential      bool
	IgnoreSensor2   bool
	IgnoreRainDelay bool
}

// ParseAttrib decodes an attribute byte.
func ParseAttrib(b byte) Attrib {
	return Attrib{
		Master:          b&AttrMaster != 0,
		IgnoreSensor1:   b&AttrIgnoreSensor1 != 0,
		Master2:         b&AttrMaster2 != 0,
		Disabled:        b&AttrDisabled != 0,
		Sequential:      b&AttrSequential != 0,
		IgnoreSensor2:   b&AttrIgnoreSensor2 != 0,
		IgnoreRainDelay: b&AttrIgnoreRainDelay != 0,
	}
}

// Byte encodes the attributes.
func (a Attrib) Byte() byte {
	var b byte
	set := func(on bool, bit byte) {
		if on {
			b |= bit
		}
	}
	set(a.Master, AttrMaster)
	set(a.IgnoreSensor1, AttrIgnoreSensor1)
	set(a.Master2, AttrMaster2)
	set(a.Disabled, AttrDisabled)
	set(a.Sequential, AttrSequential)
	set(a.IgnoreSensor2, AttrIgnoreSensor2)
	set(a.IgnoreRainDelay, AttrIgnoreRainDelay)
	return b
}

// ErrRecordSize is returned when decoding a buffer of the wrong length.
var ErrRecordSize = errors.New("station: bad record size")

// Data is one persisted station record.
type Data struct {
	Name    string
	Attrib  Attrib
	Type    Type
	Payload [SpecialDataSize]byte
}

// MarshalBinary encodes the record. Names longer than NameSize are truncated;
// shorter names are zero padded.
func (d *Data) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf[:NameSize], d.Name)
	buf[AttribOffset] = d.Attrib.Byte()
	buf[TypeOffset] = byte(d.Type)
	copy(buf[PayloadOffset:], d.Payload[:])
	return buf, nil
}

// UnmarshalBinary decodes a record of exactly RecordSize bytes.
func (d *Data) UnmarshalBinary(buf []byte) error {
	if len(buf) != RecordSize {
		return fmt.Errorf("%w: %d", ErrRecordSize, len(buf))
	}
	d.Name = DecodeName(buf[:NameSize])
	d.Attrib = ParseAttrib(buf[AttribOffset])
	d.Type = Type(buf[TypeOffset])
	copy(d.Payload[:], buf[PayloadOffset:])
	return nil
}

// SetPayload stores raw payload bytes, zero filling the remainder.
func (d *Data) SetPayload(raw []byte) error {
	if len(raw) > SpecialDataSize {
		return fmt.Errorf("%w: payload %d bytes exceeds %d", ErrMalformedPayload, len(raw), SpecialDataSize)
	}
	d.Payload = [SpecialDataSize]byte{}
	copy(d.Payload[:], raw)
	return nil
}

// DecodeName returns the name up to the first NUL.
func DecodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// DefaultName is the factory name of a station: "S" plus the zero padded
// one-based index ("S01", "S02", ...).
func DefaultName(sid int) string {
	return fmt.Sprintf("S%02d", sid+1)
}

// BoardOf splits a station index into board and bit.
func BoardOf(sid int) (board int, bit uint) {
	return sid >> 3, uint(sid & 7)
}
