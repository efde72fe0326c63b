// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Hardware variants of the main board.
const (
	HardwareAC    = "ac"
	HardwareDC    = "dc"
	HardwareLatch = "latch"
)

// NoPin marks an unwired GPIO line.
const NoPin = -1

type Config struct {
	DataDir       string     `yaml:"data_dir"`
	I2CBus        string     `yaml:"i2c_bus"`
	GPIOChip      string     `yaml:"gpio_chip"`
	Hardware      string     `yaml:"hardware"`
	Pins          PinsConfig `yaml:"pins"`
	PollMs        int        `yaml:"poll_ms"`
	HTTPTimeoutMs int        `yaml:"http_timeout_ms"`
	HeartbeatMs   int        `yaml:"heartbeat_ms"`
	MQTT          MQTTConfig `yaml:"mqtt"`
	HTTP          HTTPConfig `yaml:"http"`
}

// ---- PINS ----

// PinsConfig holds BCM line numbers; NoPin leaves a line unwired.
type PinsConfig struct {
	Sensor1     int `yaml:"sensor1"`
	Sensor2     int `yaml:"sensor2"`
	Boost       int `yaml:"boost"`
	BoostEnable int `yaml:"boost_enable"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// ---- HTTP ----

type HTTPConfig struct {
	// Addr is the status server listen address; empty disables it.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:       "/var/lib/sprinkler",
		I2CBus:        "",
		GPIOChip:      "gpiochip0",
		Hardware:      HardwareAC,
		Pins:          PinsConfig{Sensor1: 14, Sensor2: 23, Boost: NoPin, BoostEnable: NoPin},
		PollMs:        1000,
		HTTPTimeoutMs: 30000,
		HeartbeatMs:   15 * 60 * 1000,
		MQTT:          MQTTConfig{Broker: "tcp://localhost:1883"},
		HTTP:          HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults, validates and normalizes the result.
// An empty path yields the normalized defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys. Fields absent from
// data keep their current values.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
