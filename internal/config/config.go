// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all converter settings.
type Config struct {
	Source  SourceConfig  `yaml:"source" toml:"source"`
	Convert ConvertConfig `yaml:"convert" toml:"convert"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// SourceConfig selects the scene source.
type SourceConfig struct {
	Name    string `yaml:"name" toml:"name"`         // Registered source name
	TempDir string `yaml:"temp_dir" toml:"temp_dir"` // Staging directory for in-memory loads
}

// ConvertConfig holds pipeline settings.
type ConvertConfig struct {
	Workers    int    `yaml:"workers" toml:"workers"` // 0 means one per CPU
	Generator  string `yaml:"generator" toml:"generator"`
	DebounceMS int    `yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Name: "manifest",
		},
		Convert: ConvertConfig{
			Workers:    0,
			Generator:  "usdglb",
			DebounceMS: 200,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Convert.DebounceMS) * time.Millisecond
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if c.Source.Name == "" {
		return fmt.Errorf("config: source.name is empty")
	}
	if c.Convert.Workers < 0 {
		return fmt.Errorf("config: convert.workers is %d", c.Convert.Workers)
	}
	if c.Convert.DebounceMS < 0 {
		return fmt.Errorf("config: convert.debounce_ms is %d", c.Convert.DebounceMS)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}
