// Package config loads and validates the planner tool configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/QuantaPlan/internal/errors"
)

// Config represents the complete planner configuration.
type Config struct {
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Planner configuration
	Planner PlannerConfig `json:"planner"`
}

// PlannerConfig represents planner-specific configuration.
type PlannerConfig struct {
	// TraceEnumeration enables debug traces of the memo build and
	// index assignment.
	TraceEnumeration bool `json:"trace_enumeration"`

	// MaxIndexesPerCatalog caps the catalog size accepted from
	// external sources. Zero means unlimited.
	MaxIndexesPerCatalog int `json:"max_indexes_per_catalog"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Planner: PlannerConfig{
			TraceEnumeration:     false,
			MaxIndexesPerCatalog: 64,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOErrorf("failed to read config file: %v", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse config file").
			WithDetailf("%v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ConfigInvalid, "invalid log level: %s", c.LogLevel).
			WithHint("valid levels are debug, info, warn, error")
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return errors.Newf(errors.ConfigInvalid, "invalid log format: %s", c.LogFormat).
			WithHint("valid formats are json, text")
	}

	if c.Planner.MaxIndexesPerCatalog < 0 {
		return errors.Newf(errors.ConfigInvalid,
			"max indexes per catalog cannot be negative: %d", c.Planner.MaxIndexesPerCatalog)
	}

	return nil
}

// String renders the effective configuration for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("log_level=%s log_format=%s trace_enumeration=%t max_indexes=%d",
		c.LogLevel, c.LogFormat, c.Planner.TraceEnumeration, c.Planner.MaxIndexesPerCatalog)
}
