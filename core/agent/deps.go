package agent

import (
	"time"

	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/logger"
	"github.com/kilianp07/gridsim/core/topology"
)

// LoggerFactory returns a logger for a component at a threshold.
type LoggerFactory func(component, threshold string) logger.Logger

// Settings holds runtime tuning shared by all agents.
type Settings struct {
	// TickInterval is the wall-clock time between two ticks.
	TickInterval time.Duration
	// AggregationWindow bounds the wait of an aggregator one level above
	// the leaves. Higher aggregators wait proportionally to their height.
	AggregationWindow time.Duration
	// AdmissionWindow bounds the wait of a CPO for demand requests.
	AdmissionWindow time.Duration
	// Seed makes stochastic agents reproducible.
	Seed int64
}

// Deps are the collaborators handed to every constructor.
type Deps struct {
	Fabric   fabric.Fabric
	Events   *events.Bus
	Logger   LoggerFactory
	Tree     *topology.Tree
	Settings Settings
}

func (d Deps) logger(component, threshold string) logger.Logger {
	if d.Logger == nil {
		return nopLogger{}
	}
	return d.Logger(component, threshold)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)          {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)           {}
func (nopLogger) Warnf(string, ...any)           {}
func (nopLogger) Errorf(string, ...any)          {}
