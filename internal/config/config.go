// Package config holds the session settings and loads them from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"croquis/internal/scan"
	"croquis/internal/session"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	MaxDrawSeconds  = 3600
	MaxBreakSeconds = 600

	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

// Config is the user-tunable part of a session.
type Config struct {
	DrawSeconds  int               `yaml:"draw_seconds"`
	BreakSeconds int               `yaml:"break_seconds"`
	Order        session.OrderMode `yaml:"order"`
	ChunkSize    int               `yaml:"chunk_size"`
	LocatorStore string            `yaml:"locator_store"`
	StoreDir     string            `yaml:"store_dir,omitempty"` // bolt scratch directory, default os.TempDir
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		DrawSeconds:  60,
		BreakSeconds: 10,
		Order:        session.OrderName,
		ChunkSize:    scan.DefaultChunkSize,
		LocatorStore: StoreMemory,
	}
}

// Load reads path on top of Defaults. An empty path returns Defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.DrawSeconds < 1 || c.DrawSeconds > MaxDrawSeconds {
		return fmt.Errorf("%w: draw seconds %d outside 1..%d", ErrInvalid, c.DrawSeconds, MaxDrawSeconds)
	}
	if c.BreakSeconds < 0 || c.BreakSeconds > MaxBreakSeconds {
		return fmt.Errorf("%w: break seconds %d outside 0..%d", ErrInvalid, c.BreakSeconds, MaxBreakSeconds)
	}
	if c.Order != session.OrderName && c.Order != session.OrderRandom {
		return fmt.Errorf("%w: unknown order %d", ErrInvalid, c.Order)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1", ErrInvalid)
	}
	if c.LocatorStore != StoreMemory && c.LocatorStore != StoreBolt {
		return fmt.Errorf("%w: locator store %q (want %s or %s)", ErrInvalid, c.LocatorStore, StoreMemory, StoreBolt)
	}
	return nil
}

// Timing returns the scheduler timing for these settings.
func (c Config) Timing() session.Timing {
	return session.Timing{DrawSeconds: c.DrawSeconds, BreakSeconds: c.BreakSeconds}
}

// Save writes the settings as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
