package topology

import (
	"fmt"

	"github.com/kilianp07/gridsim/core/factory"
)

// ConfigError reports a malformed or ambiguous topology. It is fatal at
// startup.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Path == "" {
		return "config error: " + msg
	}
	return fmt.Sprintf("config error at %s: %s", e.Path, msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UnknownAssetTypeError is returned when no agent constructor is registered
// for a node type.
type UnknownAssetTypeError struct {
	Type    string
	Address string
}

func (e *UnknownAssetTypeError) Error() string {
	return fmt.Sprintf("%s is not a valid asset type and cannot be instantiated", e.Type)
}

func (e *UnknownAssetTypeError) Unwrap() error { return factory.ErrUnknownType }

func configErr(path, format string, args ...any) error {
	return &ConfigError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
