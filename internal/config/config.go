// SPDX-License-Identifier: MIT

// Package config holds the renderer's startup configuration: the fixed set
// of CLI flags from spec section 6, optionally pre-seeded from a YAML file
// and environment variables via koanf (see koanf.go). Nothing here is
// persisted at runtime; the renderer never writes this file back.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ConfigFilePath is the default location for an optional configuration file.
const ConfigFilePath = "/etc/grender/config.yaml"

// DefaultPort is used when --port is unset; 0 means "ephemeral port".
const DefaultPort = 49494

// Config is the renderer's full startup configuration, covering the CLI
// surface in spec section 6 plus the DeviceIdentity/PlayerOptions fields
// from section 3.
type Config struct {
	Name          string `yaml:"name" koanf:"name"`
	InterfaceName string `yaml:"interface_name" koanf:"interface_name"`
	Port          int    `yaml:"port" koanf:"port"`
	UUID          string `yaml:"uuid" koanf:"uuid"`
	Card          string `yaml:"card" koanf:"card"`
	SelemName     string `yaml:"selem_name" koanf:"selem_name"`
	BufferTimeUs  int    `yaml:"buffer_time" koanf:"buffer_time"`
	LatencyTimeUs int    `yaml:"latency_time" koanf:"latency_time"`
	Volume        int    `yaml:"volume" koanf:"volume"`
}

// DefaultConfig returns the configuration defaults named in spec section 6.
func DefaultConfig() *Config {
	return &Config{
		Name:          "grender",
		InterfaceName: "",
		Port:          DefaultPort,
		UUID:          "",
		Card:          "hw:0",
		SelemName:     "DAC volume",
		BufferTimeUs:  200000,
		LatencyTimeUs: 10000,
		Volume:        0,
	}
}

// LoadConfig reads and parses an optional YAML configuration file. A
// missing file is not an error: callers should fall back to DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is administrator-supplied
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration for invalid values. Name, Card and
// SelemName may never be empty; Port must be in [0,65535]; the ALSA timing
// parameters must be positive, with latency-time not exceeding
// buffer-time; Volume must be in [0,100] ("0 seeds from hardware" is a
// valid value, not an error).
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if c.Card == "" {
		return fmt.Errorf("card must not be empty")
	}
	if c.SelemName == "" {
		return fmt.Errorf("selem-name must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in [0,65535]")
	}
	if c.BufferTimeUs <= 0 {
		return fmt.Errorf("buffer-time must be positive")
	}
	if c.LatencyTimeUs <= 0 {
		return fmt.Errorf("latency-time must be positive")
	}
	if c.LatencyTimeUs > c.BufferTimeUs {
		return fmt.Errorf("latency-time must not exceed buffer-time")
	}
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume must be in [0,100]")
	}
	return nil
}
