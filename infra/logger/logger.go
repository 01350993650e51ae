package logger

import corelogger "github.com/kilianp07/gridsim/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns an info level Logger for the given component. The output
// format is selected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component, corelogger.LevelInfo)
}

// NewWithLevel returns a Logger for component filtered at the given
// threshold. Invalid thresholds fall back to info.
func NewWithLevel(component, threshold string) Logger {
	lvl, err := corelogger.ParseLevel(threshold)
	if err != nil {
		lvl = corelogger.LevelInfo
	}
	return NewZerologLogger(component, lvl)
}

// Factory builds loggers for agents. It is passed to components that need to
// create per-agent loggers.
type Factory func(component, threshold string) Logger

// NopFactory returns NopLogger for every component.
func NopFactory(string, string) Logger { return NopLogger{} }
