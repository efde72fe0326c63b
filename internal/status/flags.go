package status

// Flags is the controller status bit-field. Enabled and RainDelayed are
// restored from persisted state on boot; everything else is transient.
type Flags struct {
	Enabled       bool
	RainDelayed   bool
	Sensor1       bool // raw reading
	ProgramBusy   bool
	HasCurrSense  bool
	SafeReboot    bool
	Sensor2       bool // raw reading
	Sensor1Active bool // debounced
	Sensor2Active bool // debounced
	DisplayBoard  uint8
	NetworkFails  uint8
}

// Bit layout of Pack.
const (
	flagEnabled = 1 << iota
	flagRainDelayed
	flagSensor1
	flagProgramBusy
	flagHasCurrSense
	flagSafeReboot
	flagSensor2
	flagSensor1Active
	flagSensor2Active

	displayBoardShift = 9
	displayBoardMask  = 0x1F
	networkFailsShift = 14
	networkFailsMask  = 0x07
)

// Pack encodes the flags into one word.
func (f Flags) Pack() uint32 {
	var v uint32
	set := func(on bool, bit uint32) {
		if on {
			v |= bit
		}
	}
	set(f.Enabled, flagEnabled)
	set(f.RainDelayed, flagRainDelayed)
	set(f.Sensor1, flagSensor1)
	set(f.ProgramBusy, flagProgramBusy)
	set(f.HasCurrSense, flagHasCurrSense)
	set(f.SafeReboot, flagSafeReboot)
	set(f.Sensor2, flagSensor2)
	set(f.Sensor1Active, flagSensor1Active)
	set(f.Sensor2Active, flagSensor2Active)
	v |= uint32(f.DisplayBoard&displayBoardMask) << displayBoardShift
	v |= uint32(f.NetworkFails&networkFailsMask) << networkFailsShift
	return v
}

// Unpack decodes a word produced by Pack.
func Unpack(v uint32) Flags {
	return Flags{
		Enabled:       v&flagEnabled != 0,
		RainDelayed:   v&flagRainDelayed != 0,
		Sensor1:       v&flagSensor1 != 0,
		ProgramBusy:   v&flagProgramBusy != 0,
		HasCurrSense:  v&flagHasCurrSense != 0,
		SafeReboot:    v&flagSafeReboot != 0,
		Sensor2:       v&flagSensor2 != 0,
		Sensor1Active: v&flagSensor1Active != 0,
		Sensor2Active: v&flagSensor2Active != 0,
		DisplayBoard:  uint8(v>>displayBoardShift) & displayBoardMask,
		NetworkFails:  uint8(v>>networkFailsShift) & networkFailsMask,
	}
}

// Boot returns the flags as they stand after a restart: persisted fields
// kept, transient fields cleared.
func (f Flags) Boot() Flags {
	return Flags{Enabled: f.Enabled, RainDelayed: f.RainDelayed}
}
