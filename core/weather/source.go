// Package weather provides environment data sources and the agent that
// broadcasts samples to environment-driven producers.
package weather

import (
	"fmt"
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

// Source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
)

// Source returns the conditions for the hour containing at.
type Source interface {
	Sample(at time.Time) (model.WeatherSample, error)
}

// Config selects and parameterises the weather source.
type Config struct {
	Source      string  `json:"source"`
	CSVPath     string  `json:"csv_path"`
	Latitude    float64 `json:"latitude"`
	ElevationKM float64 `json:"elevation_km"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Source == "" {
		c.Source = SourceSynthetic
	}
	if c.Latitude == 0 {
		c.Latitude = 51.5
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Source {
	case SourceSynthetic:
	case SourceCSV:
		if c.CSVPath == "" {
			return fmt.Errorf("weather: csv_path is required for the csv source")
		}
	default:
		return fmt.Errorf("weather: unknown source %q", c.Source)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("weather: latitude %v out of range", c.Latitude)
	}
	return nil
}

// NewSource builds the configured source.
func NewSource(c Config) (Source, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Source {
	case SourceCSV:
		return LoadCSV(c.CSVPath)
	default:
		return NewSynthetic(c.Latitude, c.ElevationKM), nil
	}
}
