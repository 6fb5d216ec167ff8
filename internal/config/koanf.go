// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// KoanfConfig layers an optional YAML file under GRENDER_* environment
// variables, producing a Config that the CLI flags in cmd/grender then
// override field-by-field (flags win — see cmd/grender/main.go). This
// mirrors the precedence chain of a koanf-based loader without the
// device-map complexity a per-device loader would need: this schema is
// flat (one set of renderer options), so the env TransformFunc only strips
// the prefix and lowercases the rest (GRENDER_BUFFER_TIME -> buffer_time,
// matching Config's koanf tags) instead of the prefix-table matching a
// multi-device schema would require.
type KoanfConfig struct {
	k         *koanf.Koanf
	mu        sync.RWMutex
	filePath  string
	envPrefix string
}

// Option configures a KoanfConfig.
type Option func(*KoanfConfig) error

// WithYAMLFile sets the YAML configuration file path.
func WithYAMLFile(path string) Option {
	return func(kc *KoanfConfig) error {
		kc.filePath = path
		return nil
	}
}

// WithEnvPrefix sets the environment variable prefix (default "GRENDER").
func WithEnvPrefix(prefix string) Option {
	return func(kc *KoanfConfig) error {
		kc.envPrefix = prefix
		return nil
	}
}

// NewKoanfConfig creates a koanf-based loader with precedence (highest to
// lowest): environment variables, YAML file, built-in defaults.
func NewKoanfConfig(opts ...Option) (*KoanfConfig, error) {
	kc := &KoanfConfig{
		k:         koanf.New("."),
		envPrefix: "GRENDER",
	}

	for _, opt := range opts {
		if err := opt(kc); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if err := kc.reload(); err != nil {
		return nil, err
	}

	return kc, nil
}

// Load unmarshals the layered configuration on top of DefaultConfig and
// validates the result.
func (kc *KoanfConfig) Load() (*Config, error) {
	cfg := DefaultConfig()

	kc.mu.RLock()
	k := kc.k
	kc.mu.RUnlock()

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (kc *KoanfConfig) reload() error {
	newK := koanf.New(".")

	if kc.filePath != "" {
		if err := loadFileIfExists(newK, kc.filePath); err != nil {
			return fmt.Errorf("load YAML file: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: kc.envPrefix + "_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.TrimPrefix(k, kc.envPrefix+"_")
			return strings.ToLower(k), v
		},
	})

	if err := newK.Load(envProvider, nil); err != nil {
		return fmt.Errorf("load environment variables: %w", err)
	}

	kc.mu.Lock()
	kc.k = newK
	kc.mu.Unlock()

	return nil
}

// loadFileIfExists loads a YAML file into k, tolerating a missing file:
// this configuration layer is entirely optional per spec section 6, since
// every field also has a CLI flag default.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if strings.Contains(err.Error(), "no such file") {
			return nil
		}
		return err
	}
	return nil
}
