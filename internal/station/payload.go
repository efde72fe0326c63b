package station

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedPayload is returned when a payload does not decode.
var ErrMalformedPayload = errors.New("station: malformed payload")

// Payload is the decoded type-specific data of a special station.
type Payload interface {
	Type() Type
}

// GPIOStation drives a host GPIO line directly.
// Wire form: two ASCII decimal digits (pin) + one ASCII digit (active level).
type GPIOStation struct {
	Pin        uint8
	ActiveHigh bool
}

func (GPIOStation) Type() Type { return TypeGPIO }

// RemoteStation is a station on a peer controller.
// Wire form: 8 hex digits IPv4, 4 hex digits port, 2 hex digits station index.
type RemoteStation struct {
	IP   [4]byte
	Port uint16
	SID  uint8
}

func (RemoteStation) Type() Type { return TypeRemote }

// IPString renders the address in dotted decimal.
func (r RemoteStation) IPString() string {
	return fmt.Sprintf("%d.%d.%d.%d", r.IP[0], r.IP[1], r.IP[2], r.IP[3])
}

// HTTPStation switches by requesting one of two paths on a server.
// Wire form: "server,port,on_cmd,off_cmd".
type HTTPStation struct {
	Server     string
	Port       uint16
	OnCommand  string
	OffCommand string
}

func (HTTPStation) Type() Type { return TypeHTTP }

// Command returns the path for the requested state.
func (h HTTPStation) Command(on bool) string {
	if on {
		return h.OnCommand
	}
	return h.OffCommand
}

// RFStation holds 433MHz transmitter codes.
// Wire form: 6 hex digits on code, 6 hex digits off code, 4 hex digits timing.
type RFStation struct {
	OnCode  uint32
	OffCode uint32
	Timing  uint16
}

func (RFStation) Type() Type { return TypeRF }

// Code returns the code for the requested state.
func (r RFStation) Code(on bool) uint32 {
	if on {
		return r.OnCode
	}
	return r.OffCode
}

const (
	gpioLen   = 3
	remoteLen = 8 + 4 + 4
	rfLen     = 6 + 6 + 4
)

// Decode parses the payload of a station of type t. Standard and other
// stations have no payload and return (nil, nil).
func Decode(t Type, raw []byte) (Payload, error) {
	if len(raw) > SpecialDataSize {
		raw = raw[:SpecialDataSize]
	}
	switch t {
	case TypeGPIO:
		return decodeGPIO(raw)
	case TypeRemote:
		return decodeRemote(raw)
	case TypeHTTP:
		return decodeHTTP(raw)
	case TypeRF:
		return decodeRF(raw)
	}
	return nil, nil
}

// Decode decodes the record's own payload.
func (d *Data) Decode() (Payload, error) {
	return Decode(d.Type, d.Payload[:])
}

func decodeGPIO(raw []byte) (Payload, error) {
	if len(raw) < gpioLen {
		return nil, fmt.Errorf("%w: gpio payload too short", ErrMalformedPayload)
	}
	pin, err := strconv.ParseUint(string(raw[:2]), 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: gpio pin %q", ErrMalformedPayload, raw[:2])
	}
	var active bool
	switch raw[2] {
	case '0':
	case '1':
		active = true
	default:
		return nil, fmt.Errorf("%w: gpio active level %q", ErrMalformedPayload, raw[2])
	}
	return GPIOStation{Pin: uint8(pin), ActiveHigh: active}, nil
}

func decodeRemote(raw []byte) (Payload, error) {
	if len(raw) < remoteLen {
		return nil, fmt.Errorf("%w: remote payload too short", ErrMalformedPayload)
	}
	ip, err := parseHex(raw[0:8])
	if err != nil {
		return nil, err
	}
	port, err := parseHex(raw[8:12])
	if err != nil {
		return nil, err
	}
	if port == 0 {
		return nil, fmt.Errorf("%w: remote port 0", ErrMalformedPayload)
	}
	sid, err := parseHex(raw[12:16])
	if err != nil {
		return nil, err
	}
	if sid >= MaxStations {
		return nil, fmt.Errorf("%w: remote sid %d out of range", ErrMalformedPayload, sid)
	}
	return RemoteStation{
		IP:   [4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)},
		Port: uint16(port),
		SID:  uint8(sid),
	}, nil
}

func decodeHTTP(raw []byte) (Payload, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	fields := bytes.Split(raw, []byte{','})
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: http payload needs server,port,on,off", ErrMalformedPayload)
	}
	server := string(fields[0])
	if server == "" {
		return nil, fmt.Errorf("%w: http server empty", ErrMalformedPayload)
	}
	port, err := strconv.ParseUint(string(fields[1]), 10, 16)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("%w: http port %q", ErrMalformedPayload, fields[1])
	}
	return HTTPStation{
		Server:     server,
		Port:       uint16(port),
		OnCommand:  string(fields[2]),
		OffCommand: string(fields[3]),
	}, nil
}

func decodeRF(raw []byte) (Payload, error) {
	if len(raw) < rfLen {
		return nil, fmt.Errorf("%w: rf payload too short", ErrMalformedPayload)
	}
	on, err := parseHex(raw[0:6])
	if err != nil {
		return nil, err
	}
	off, err := parseHex(raw[6:12])
	if err != nil {
		return nil, err
	}
	timing, err := parseHex(raw[12:16])
	if err != nil {
		return nil, err
	}
	return RFStation{OnCode: on, OffCode: off, Timing: uint16(timing)}, nil
}

// parseHex decodes a fixed-width hex field. Any non-hex digit is an error.
func parseHex(b []byte) (uint32, error) {
	var v uint32
	for _, c := range b {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, fmt.Errorf("%w: bad hex field %q", ErrMalformedPayload, b)
		}
	}
	return v, nil
}

// Encode renders a payload in its wire form.
func Encode(p Payload) ([]byte, error) {
	var s string
	switch v := p.(type) {
	case GPIOStation:
		if v.Pin > 99 {
			return nil, fmt.Errorf("%w: gpio pin %d", ErrMalformedPayload, v.Pin)
		}
		active := 0
		if v.ActiveHigh {
			active = 1
		}
		s = fmt.Sprintf("%02d%d", v.Pin, active)
	case RemoteStation:
		if v.SID >= MaxStations {
			return nil, fmt.Errorf("%w: remote sid %d", ErrMalformedPayload, v.SID)
		}
		s = fmt.Sprintf("%02x%02x%02x%02x%04x%04x", v.IP[0], v.IP[1], v.IP[2], v.IP[3], v.Port, v.SID)
	case HTTPStation:
		s = fmt.Sprintf("%s,%d,%s,%s", v.Server, v.Port, v.OnCommand, v.OffCommand)
	case RFStation:
		if v.OnCode > 0xFFFFFF || v.OffCode > 0xFFFFFF {
			return nil, fmt.Errorf("%w: rf code exceeds 24 bits", ErrMalformedPayload)
		}
		s = fmt.Sprintf("%06x%06x%04x", v.OnCode, v.OffCode, v.Timing)
	default:
		return nil, fmt.Errorf("%w: unknown payload %T", ErrMalformedPayload, p)
	}
	if len(s) > SpecialDataSize {
		return nil, fmt.Errorf("%w: payload %d bytes exceeds %d", ErrMalformedPayload, len(s), SpecialDataSize)
	}
	return []byte(s), nil
}
