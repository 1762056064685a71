// Package config loads the optional lifeview.yaml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the optional lifeview.yaml configuration.
type Config struct {
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Sim       SimConfig       `yaml:"sim"`
}

// LifecycleConfig tunes the coordinator.
type LifecycleConfig struct {
	MinimumLoadingTime   Duration  `yaml:"minimum_loading_time,omitempty"`
	MinimumHydratingTime Duration  `yaml:"minimum_hydrating_time,omitempty"`
	InitialLoadTimeout   *Duration `yaml:"initial_load_timeout,omitempty"`
	PreserveStaleData    *bool     `yaml:"preserve_stale_data,omitempty"`
	MaxStaleTime         Duration  `yaml:"max_stale_time,omitempty"`
}

// SimConfig tunes the simulated source.
type SimConfig struct {
	MinLatency    Duration `yaml:"min_latency,omitempty"`
	MaxLatency    Duration `yaml:"max_latency,omitempty"`
	ErrorRate     float64  `yaml:"error_rate,omitempty"`
	DuplicateRate float64  `yaml:"duplicate_rate,omitempty"`
	Rows          int      `yaml:"rows,omitempty"`
	DedupWindow   Duration `yaml:"dedup_window,omitempty"`
}

// Duration wraps time.Duration with YAML string parsing ("250ms", "2s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoadOptional reads the config file if present. A missing file yields
// the defaults.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Sim: SimConfig{
			MinLatency:    Duration(150 * time.Millisecond),
			MaxLatency:    Duration(900 * time.Millisecond),
			ErrorRate:     0.3,
			DuplicateRate: 0.2,
			Rows:          6,
			DedupWindow:   Duration(50 * time.Millisecond),
		},
	}
}

func (c *Config) validate() error {
	if c.Sim.ErrorRate < 0 || c.Sim.ErrorRate > 1 {
		return fmt.Errorf("sim.error_rate must be within [0, 1], got %v", c.Sim.ErrorRate)
	}
	if c.Sim.DuplicateRate < 0 || c.Sim.DuplicateRate > 1 {
		return fmt.Errorf("sim.duplicate_rate must be within [0, 1], got %v", c.Sim.DuplicateRate)
	}
	if c.Sim.MaxLatency < c.Sim.MinLatency {
		return fmt.Errorf("sim.max_latency must not be below sim.min_latency")
	}
	if c.Sim.Rows < 0 {
		return fmt.Errorf("sim.rows must not be negative")
	}
	return nil
}
