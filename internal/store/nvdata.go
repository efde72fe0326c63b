package store

import (
	"encoding/binary"
	"fmt"
)

// RebootCause records why the controller last restarted.
type RebootCause byte

const (
	RebootNone        RebootCause = 0
	RebootReset       RebootCause = 1
	RebootButton      RebootCause = 2
	RebootResetAP     RebootCause = 3
	RebootTimer       RebootCause = 4
	RebootWeb         RebootCause = 5
	RebootWiFiDone    RebootCause = 6
	RebootFWUpdate    RebootCause = 7
	RebootWeatherFail RebootCause = 8
	RebootNetworkFail RebootCause = 9
	RebootNTP         RebootCause = 10
	RebootPowerOn     RebootCause = 99

	// RebootShutdown records a clean daemon stop.
	RebootShutdown RebootCause = 100
)

func (c RebootCause) String() string {
	switch c {
	case RebootNone:
		return "none"
	case RebootReset:
		return "reset"
	case RebootButton:
		return "button"
	case RebootResetAP:
		return "reset_ap"
	case RebootTimer:
		return "timer"
	case RebootWeb:
		return "web"
	case RebootWiFiDone:
		return "wifi_done"
	case RebootFWUpdate:
		return "fw_update"
	case RebootWeatherFail:
		return "weather_fail"
	case RebootNetworkFail:
		return "network_fail"
	case RebootNTP:
		return "ntp"
	case RebootPowerOn:
		return "power_on"
	case RebootShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("cause(%d)", byte(c))
}

// NVDataSize is the encoded size of NVData.
const NVDataSize = 13

// NVData is the persisted part of the controller status.
type NVData struct {
	Sunrise       uint16 // minutes after midnight
	Sunset        uint16
	RainDelayStop uint32 // unix seconds, 0 when not delayed
	ExternalIP    uint32
	RebootCause   RebootCause
}

func (d *NVData) MarshalBinary() ([]byte, error) {
	buf := make([]byte, NVDataSize)
	binary.LittleEndian.PutUint16(buf[0:], d.Sunrise)
	binary.LittleEndian.PutUint16(buf[2:], d.Sunset)
	binary.LittleEndian.PutUint32(buf[4:], d.RainDelayStop)
	binary.LittleEndian.PutUint32(buf[8:], d.ExternalIP)
	buf[12] = byte(d.RebootCause)
	return buf, nil
}

func (d *NVData) UnmarshalBinary(buf []byte) error {
	if len(buf) < NVDataSize {
		return fmt.Errorf("nvdata: short buffer %d", len(buf))
	}
	d.Sunrise = binary.LittleEndian.Uint16(buf[0:])
	d.Sunset = binary.LittleEndian.Uint16(buf[2:])
	d.RainDelayStop = binary.LittleEndian.Uint32(buf[4:])
	d.ExternalIP = binary.LittleEndian.Uint32(buf[8:])
	d.RebootCause = RebootCause(buf[12])
	return nil
}

// LoadNVData reads the non-volatile status record.
func (s *Store) LoadNVData() (NVData, error) {
	var d NVData
	buf := make([]byte, NVDataSize)
	if err := s.ReadBlock(NVDataFile, 0, buf); err != nil {
		return d, err
	}
	err := d.UnmarshalBinary(buf)
	return d, err
}

// SaveNVData writes the non-volatile status record.
func (s *Store) SaveNVData(d *NVData) error {
	buf, _ := d.MarshalBinary()
	return s.WriteBlock(NVDataFile, 0, buf)
}
