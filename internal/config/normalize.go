package config

import (
	"os"
	"strings"
	"time"
)

// Normalize applies post-validation normalization.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Hardware = strings.ToLower(cfg.Hardware)

	if cfg.MQTT.ClientID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "unknown"
		}
		cfg.MQTT.ClientID = "sprinkler-" + host
	}
}

// Poll returns the control loop interval.
func (c Config) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// HTTPTimeout returns the special-station request timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval; zero disables heartbeats.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}
