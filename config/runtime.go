package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/clock"
	"github.com/kilianp07/gridsim/core/network"
)

// RuntimeConfig tunes the pacing of a run.
type RuntimeConfig struct {
	// TickInterval is the wall-clock time between two ticks.
	TickInterval time.Duration `json:"tick_interval"`
	// AggregationWindow is the wait of the lowest aggregators; higher
	// levels wait proportionally to their height.
	AggregationWindow time.Duration `json:"aggregation_window"`
	// AdmissionWindow is the wait of a CPO for demand requests. Zero
	// derives it from AggregationWindow.
	AdmissionWindow time.Duration `json:"admission_window"`
	Seed            int64         `json:"seed"`
	// EventBuffer is the per-subscriber capacity of the event bus.
	EventBuffer int `json:"event_buffer"`
}

// SetDefaults applies sane defaults.
func (c *RuntimeConfig) SetDefaults() {
	if c.TickInterval == 0 {
		c.TickInterval = clock.DefaultInterval
	}
	if c.AggregationWindow == 0 {
		c.AggregationWindow = network.DefaultWindow
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 4096
	}
}

// Validate rejects negative durations.
func (c RuntimeConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("runtime.tick_interval must be > 0")
	}
	if c.AggregationWindow <= 0 {
		return fmt.Errorf("runtime.aggregation_window must be > 0")
	}
	if c.AdmissionWindow < 0 {
		return fmt.Errorf("runtime.admission_window must be >= 0")
	}
	return nil
}

// Settings converts the section into agent settings.
func (c RuntimeConfig) Settings() agent.Settings {
	return agent.Settings{
		TickInterval:      c.TickInterval,
		AggregationWindow: c.AggregationWindow,
		AdmissionWindow:   c.AdmissionWindow,
		Seed:              c.Seed,
	}
}
