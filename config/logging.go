package config

import (
	"fmt"

	"github.com/kilianp07/gridsim/core/readings"
)

// LoggingConfig defines settings for reading log storage and rotation.
type LoggingConfig struct {
	// Backend selects the log store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the log store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = readings.BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case readings.BackendJSONL:
			c.Path = "readings.jsonl"
		case readings.BackendSQLite:
			c.Path = "readings.db"
		}
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case readings.BackendNone:
		return nil
	case readings.BackendJSONL, readings.BackendSQLite:
	default:
		return fmt.Errorf("logging: unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("logging: path is required")
	}
	return nil
}

// Options converts the section into reading store options.
func (c LoggingConfig) Options() readings.Options {
	return readings.Options{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
