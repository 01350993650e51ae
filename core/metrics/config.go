package metrics

import (
	"fmt"

	"github.com/kilianp07/gridsim/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort string                 `json:"prometheus_port"`
	// EmissionFactor is the grid emission factor in g CO2 per kWh used by
	// energy KPIs.
	EmissionFactor float64 `json:"emission_factor"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.EmissionFactor == 0 {
		c.EmissionFactor = 56
	}
}

// Validate checks the sink entries.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	if c.EmissionFactor < 0 {
		return fmt.Errorf("metrics.emission_factor must be >= 0")
	}
	return nil
}

// SinkConfigs returns Sinks with EmissionFactor filled into the energy sinks
// that do not set their own.
func (c Config) SinkConfigs() []factory.ModuleConfig {
	out := make([]factory.ModuleConfig, len(c.Sinks))
	for i, s := range c.Sinks {
		out[i] = s
		if s.Type != "energy" {
			continue
		}
		if _, ok := s.Conf["emission_factor"]; ok {
			continue
		}
		conf := make(map[string]any, len(s.Conf)+1)
		for k, v := range s.Conf {
			conf[k] = v
		}
		conf["emission_factor"] = c.EmissionFactor
		out[i].Conf = conf
	}
	return out
}
