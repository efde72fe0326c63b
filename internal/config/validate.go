package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}

	switch strings.ToLower(cfg.Hardware) {
	case HardwareAC, HardwareDC, HardwareLatch:
	default:
		return fmt.Errorf("hardware %q: must be one of ac, dc, latch", cfg.Hardware)
	}

	pins := map[string]int{
		"sensor1":      cfg.Pins.Sensor1,
		"sensor2":      cfg.Pins.Sensor2,
		"boost":        cfg.Pins.Boost,
		"boost_enable": cfg.Pins.BoostEnable,
	}
	owner := make(map[int]string)
	for _, name := range []string{"sensor1", "sensor2", "boost", "boost_enable"} {
		pin := pins[name]
		if pin == NoPin {
			continue
		}
		if pin < 0 || pin > 63 {
			return fmt.Errorf("pins.%s: %d out of range", name, pin)
		}
		if other, ok := owner[pin]; ok {
			return fmt.Errorf("pins.%s: line %d already used by pins.%s", name, pin, other)
		}
		owner[pin] = name
	}

	// DC boards cannot open valves without the boost converter.
	if strings.ToLower(cfg.Hardware) == HardwareDC &&
		(cfg.Pins.Boost == NoPin || cfg.Pins.BoostEnable == NoPin) {
		return fmt.Errorf("hardware dc requires pins.boost and pins.boost_enable")
	}

	if cfg.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", cfg.PollMs)
	}
	if cfg.HTTPTimeoutMs <= 0 {
		return fmt.Errorf("http_timeout_ms must be positive, got %d", cfg.HTTPTimeoutMs)
	}
	if cfg.HeartbeatMs < 0 {
		return fmt.Errorf("heartbeat_ms must not be negative, got %d", cfg.HeartbeatMs)
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must be set")
	}
	return nil
}
