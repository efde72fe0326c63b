package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/sprinkler/internal/station"
)

// Firmware identity written to and checked against the option file.
const (
	FWVersion    = 219
	FWMinor      = 3
	MinFWVersion = 219
	HWVersion    = 0x40

	// ResetMarker in OptReset requests a factory reset on next setup.
	ResetMarker = 0xAA
)

// Hardware types.
const (
	HWTypeAC      = 0xAC
	HWTypeDC      = 0xDC
	HWTypeLatch   = 0x1A
	HWTypeUnknown = 0xFF
)

// IntOption indexes the one-byte integer options.
type IntOption int

const (
	OptFWVersion IntOption = iota
	OptTimezone
	OptUseNTP
	OptUseDHCP
	OptStaticIP1
	OptStaticIP2
	OptStaticIP3
	OptStaticIP4
	OptGatewayIP1
	OptGatewayIP2
	OptGatewayIP3
	OptGatewayIP4
	OptHTTPPort0
	OptHTTPPort1
	OptHWVersion
	OptExtBoards
	OptSequentialRetired
	OptStationDelayTime
	OptMasterStation
	OptMasterOnAdj
	OptMasterOffAdj
	OptURSRetired
	OptRSORetired
	OptWaterPercentage
	OptDeviceEnable
	OptIgnorePassword
	OptDeviceID
	OptLCDContrast
	OptLCDBacklight
	OptLCDDimming
	OptBoostTime
	OptUseWeather
	OptNTPIP1
	OptNTPIP2
	OptNTPIP3
	OptNTPIP4
	OptEnableLogging
	OptMasterStation2
	OptMasterOnAdj2
	OptMasterOffAdj2
	OptFWMinor
	OptPulseRate0
	OptPulseRate1
	OptRemoteExtMode
	OptDNSIP1
	OptDNSIP2
	OptDNSIP3
	OptDNSIP4
	OptSpecialAutoRefresh
	OptIFTTTEnable
	OptSensor1Type
	OptSensor1Option
	OptSensor2Type
	OptSensor2Option
	OptSensor1OnDelay
	OptSensor1OffDelay
	OptSensor2OnDelay
	OptSensor2OffDelay
	OptSubnetMask1
	OptSubnetMask2
	OptSubnetMask3
	OptSubnetMask4
	OptWiFiMode
	OptReset

	NumIntOptions
)

const wifiModeAP = 0xA9

type intOptionInfo struct {
	name string
	def  byte
	max  byte
}

var intOptionTable = [NumIntOptions]intOptionInfo{
	OptFWVersion:          {"fwv", FWVersion, 0},
	OptTimezone:           {"tz", 28, 108},
	OptUseNTP:             {"ntp", 1, 1},
	OptUseDHCP:            {"dhcp", 1, 1},
	OptStaticIP1:          {"ip1", 0, 255},
	OptStaticIP2:          {"ip2", 0, 255},
	OptStaticIP3:          {"ip3", 0, 255},
	OptStaticIP4:          {"ip4", 0, 255},
	OptGatewayIP1:         {"gw1", 0, 255},
	OptGatewayIP2:         {"gw2", 0, 255},
	OptGatewayIP3:         {"gw3", 0, 255},
	OptGatewayIP4:         {"gw4", 0, 255},
	OptHTTPPort0:          {"hp0", 144, 255},
	OptHTTPPort1:          {"hp1", 31, 255},
	OptHWVersion:          {"hwv", HWVersion, 0},
	OptExtBoards:          {"ext", 0, station.MaxExtBoards},
	OptSequentialRetired:  {"seq", 1, 1},
	OptStationDelayTime:   {"sdt", 120, 255},
	OptMasterStation:      {"mas", 0, station.MaxStations},
	OptMasterOnAdj:        {"mton", 120, 255},
	OptMasterOffAdj:       {"mtof", 120, 255},
	OptURSRetired:         {"urs", 0, 255},
	OptRSORetired:         {"rso", 0, 1},
	OptWaterPercentage:    {"wl", 100, 250},
	OptDeviceEnable:       {"den", 1, 1},
	OptIgnorePassword:     {"ipas", 0, 1},
	OptDeviceID:           {"devid", 0, 255},
	OptLCDContrast:        {"con", 150, 255},
	OptLCDBacklight:       {"lit", 100, 255},
	OptLCDDimming:         {"dim", 50, 255},
	OptBoostTime:          {"bst", 80, 250},
	OptUseWeather:         {"uwt", 0, 255},
	OptNTPIP1:             {"ntp1", 0, 255},
	OptNTPIP2:             {"ntp2", 0, 255},
	OptNTPIP3:             {"ntp3", 0, 255},
	OptNTPIP4:             {"ntp4", 0, 255},
	OptEnableLogging:      {"lg", 1, 1},
	OptMasterStation2:     {"mas2", 0, station.MaxStations},
	OptMasterOnAdj2:       {"mton2", 120, 255},
	OptMasterOffAdj2:      {"mtof2", 120, 255},
	OptFWMinor:            {"fwm", FWMinor, 0},
	OptPulseRate0:         {"fpr0", 100, 255},
	OptPulseRate1:         {"fpr1", 0, 255},
	OptRemoteExtMode:      {"re", 0, 1},
	OptDNSIP1:             {"dns1", 8, 255},
	OptDNSIP2:             {"dns2", 8, 255},
	OptDNSIP3:             {"dns3", 8, 255},
	OptDNSIP4:             {"dns4", 8, 255},
	OptSpecialAutoRefresh: {"sar", 0, 1},
	OptIFTTTEnable:        {"ife", 0, 255},
	OptSensor1Type:        {"sn1t", 0, 255},
	OptSensor1Option:      {"sn1o", 1, 1},
	OptSensor2Type:        {"sn2t", 0, 255},
	OptSensor2Option:      {"sn2o", 1, 1},
	OptSensor1OnDelay:     {"sn1on", 0, 255},
	OptSensor1OffDelay:    {"sn1of", 0, 255},
	OptSensor2OnDelay:     {"sn2on", 0, 255},
	OptSensor2OffDelay:    {"sn2of", 0, 255},
	OptSubnetMask1:        {"subn1", 255, 255},
	OptSubnetMask2:        {"subn2", 255, 255},
	OptSubnetMask3:        {"subn3", 255, 255},
	OptSubnetMask4:        {"subn4", 0, 255},
	OptWiFiMode:           {"wimod", wifiModeAP, 255},
	OptReset:              {"reset", 0, 1},
}

// Name returns the short JSON name of the option.
func (o IntOption) Name() string {
	if o < 0 || o >= NumIntOptions {
		return fmt.Sprintf("iopt%d", int(o))
	}
	return intOptionTable[o].name
}

// Max returns the largest value the option may be set to. Zero marks a
// read-only option.
func (o IntOption) Max() byte {
	if o < 0 || o >= NumIntOptions {
		return 0
	}
	return intOptionTable[o].max
}

// Editable reports whether users may change the option.
func (o IntOption) Editable() bool {
	return o.Max() != 0
}

var (
	ErrUnknownOption  = errors.New("store: unknown option")
	ErrReadOnlyOption = errors.New("store: read-only option")
)

// IntOptions holds every integer option in file order.
type IntOptions [NumIntOptions]byte

// DefaultIntOptions returns the factory defaults.
func DefaultIntOptions() IntOptions {
	var o IntOptions
	for i, info := range intOptionTable {
		o[i] = info.def
	}
	return o
}

// Get returns one option value.
func (o *IntOptions) Get(id IntOption) byte {
	if id < 0 || id >= NumIntOptions {
		return 0
	}
	return o[id]
}

// Set changes a user-editable option, clamping to its maximum.
func (o *IntOptions) Set(id IntOption, v byte) error {
	if id < 0 || id >= NumIntOptions {
		return fmt.Errorf("%w: %d", ErrUnknownOption, int(id))
	}
	if !id.Editable() {
		return fmt.Errorf("%w: %s", ErrReadOnlyOption, id.Name())
	}
	if max := id.Max(); v > max {
		v = max
	}
	o[id] = v
	return nil
}

// Boards returns the number of boards (main + expansion), never more than
// station.MaxBoards.
func (o *IntOptions) Boards() int {
	n := int(o[OptExtBoards]) + 1
	if n > station.MaxBoards {
		n = station.MaxBoards
	}
	return n
}

// Stations returns the number of configured stations.
func (o *IntOptions) Stations() int {
	return o.Boards() * station.PerBoard
}

// HTTPPort returns the two-byte HTTP port option.
func (o *IntOptions) HTTPPort() uint16 {
	return uint16(o[OptHTTPPort1])<<8 | uint16(o[OptHTTPPort0])
}

// BoostTime returns the DC boost converter charge time.
func (o *IntOptions) BoostTime() time.Duration {
	return time.Duration(int(o[OptBoostTime])<<2) * time.Millisecond
}

// AutoRefresh reports whether special stations are periodically re-sent.
func (o *IntOptions) AutoRefresh() bool {
	return o[OptSpecialAutoRefresh] != 0
}

// Enabled reports whether the controller is enabled.
func (o *IntOptions) Enabled() bool {
	return o[OptDeviceEnable] != 0
}

// StrOption indexes the string option slots.
type StrOption int

const (
	SoptPassword StrOption = iota
	SoptLocation
	SoptJavascriptURL
	SoptWeatherURL
	SoptWeatherOpts
	SoptIFTTTKey
	SoptSTASSID
	SoptSTAPass

	NumStrOptions
)

// StrSlotSize is the fixed size of each string option slot.
const StrSlotSize = 160

// DefaultPassword is the md5 of "opendoor".
const DefaultPassword = "a6d82bced638de3def1e9bbb4983225c"

var strOptionDefaults = [NumStrOptions]string{
	SoptPassword:      DefaultPassword,
	SoptLocation:      "42.36,-71.06",
	SoptJavascriptURL: "https://ui.opensprinkler.com/js",
	SoptWeatherURL:    "weather.opensprinkler.com",
}

// Default returns the factory value of a string option.
func (o StrOption) Default() string {
	if o < 0 || o >= NumStrOptions {
		return ""
	}
	return strOptionDefaults[o]
}

// LoadIntOptions reads the integer option file. The firmware identity
// fields are forced to the running version.
func (s *Store) LoadIntOptions() (IntOptions, error) {
	var o IntOptions
	if err := s.ReadBlock(IntOptionsFile, 0, o[:]); err != nil {
		return o, err
	}
	o[OptFWVersion] = FWVersion
	o[OptFWMinor] = FWMinor
	return o, nil
}

// SaveIntOptions writes the integer option file.
func (s *Store) SaveIntOptions(o *IntOptions) error {
	return s.WriteBlock(IntOptionsFile, 0, o[:])
}

// LoadStringOption reads one string option slot up to its terminator.
func (s *Store) LoadStringOption(id StrOption) (string, error) {
	if id < 0 || id >= NumStrOptions {
		return "", fmt.Errorf("%w: sopt %d", ErrUnknownOption, int(id))
	}
	buf := make([]byte, StrSlotSize)
	if err := s.ReadBlock(StrOptionsFile, int64(id)*StrSlotSize, buf); err != nil {
		return "", err
	}
	return station.DecodeName(buf), nil
}

// SaveStringOption stores a string option unless the stored value already
// matches. A value shorter than the slot is written with its terminator
// only; the rest of the slot is left as is. A value at or over capacity
// fills the slot without a terminator. It reports whether a write happened.
func (s *Store) SaveStringOption(id StrOption, value string) (bool, error) {
	if id < 0 || id >= NumStrOptions {
		return false, fmt.Errorf("%w: sopt %d", ErrUnknownOption, int(id))
	}
	pos := int64(id) * StrSlotSize
	same, err := s.CompareBlock(StrOptionsFile, pos, []byte(value), StrSlotSize)
	if err != nil {
		return false, err
	}
	if same {
		return false, nil
	}

	var data []byte
	if len(value) >= StrSlotSize {
		data = []byte(value[:StrSlotSize])
	} else {
		data = append([]byte(value), 0)
	}
	if err := s.WriteBlock(StrOptionsFile, pos, data); err != nil {
		return false, err
	}
	return true, nil
}

// VerifyPassword compares pw with the stored password.
func (s *Store) VerifyPassword(pw string) (bool, error) {
	return s.CompareBlock(StrOptionsFile, int64(SoptPassword)*StrSlotSize, []byte(pw), StrSlotSize)
}
