// Package config loads the optional sharesave configuration file and the
// account credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the optional sharesave configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. Nil means unset.
type DefaultsConfig struct {
	Workers      *int     `toml:"workers"`
	BatchSize    *int     `toml:"batch_size"`
	PollInterval *string  `toml:"poll_interval"`
	RateLimit    *float64 `toml:"rate_limit"`
	TUI          *bool    `toml:"tui"`
	MetricsAddr  *string  `toml:"metrics_addr"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Teal   *string `toml:"teal"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Dim    *string `toml:"dim"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sharesave", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config file at path. A missing file
// yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if err := cfg.Defaults.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (d DefaultsConfig) validate() error {
	if d.Workers != nil && *d.Workers < 1 {
		return fmt.Errorf("defaults.workers must be at least 1, got %d", *d.Workers)
	}
	if d.BatchSize != nil && *d.BatchSize < 1 {
		return fmt.Errorf("defaults.batch_size must be at least 1, got %d", *d.BatchSize)
	}
	if d.RateLimit != nil && *d.RateLimit < 0 {
		return fmt.Errorf("defaults.rate_limit must not be negative, got %g", *d.RateLimit)
	}
	if d.PollInterval != nil {
		if _, err := d.PollIntervalDuration(); err != nil {
			return err
		}
	}
	return nil
}

// PollIntervalDuration parses poll_interval. It returns 0 when unset.
func (d DefaultsConfig) PollIntervalDuration() (time.Duration, error) {
	if d.PollInterval == nil {
		return 0, nil
	}
	v, err := time.ParseDuration(*d.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("defaults.poll_interval: %w", err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("defaults.poll_interval must be positive, got %s", v)
	}
	return v, nil
}
