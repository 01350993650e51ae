package factory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownType is returned by Create when no factory is registered for a type.
var ErrUnknownType = errors.New("unknown module type")

// ModuleConfig contains the type name and raw configuration for a module.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory constructs an implementation of T from a configuration value of type C.
type Factory[C, T any] func(C) (T, error)

// Registry stores factories keyed by type name.
type Registry[C, T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[C, T]
}

// NewRegistry returns an empty factory registry.
func NewRegistry[C, T any]() *Registry[C, T] {
	return &Registry[C, T]{factories: make(map[string]Factory[C, T])}
}

// Register adds a factory for the given type name.
func (r *Registry[C, T]) Register(name string, f Factory[C, T]) error {
	if f == nil {
		return fmt.Errorf("factory nil for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("factory already registered for %s", name)
	}
	r.factories[name] = f
	return nil
}

// Has reports whether a factory is registered for name.
func (r *Registry[C, T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Types lists the registered type names in sorted order.
func (r *Registry[C, T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create instantiates the module registered under name.
func (r *Registry[C, T]) Create(name string, conf C) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %s", ErrUnknownType, name)
	}
	return f(conf)
}

// ModuleRegistry is the registry shape used for modules configured through
// ModuleConfig entries.
type ModuleRegistry[T any] = Registry[map[string]any, T]

// NewModuleRegistry returns an empty registry keyed by ModuleConfig types.
func NewModuleRegistry[T any]() *ModuleRegistry[T] {
	return NewRegistry[map[string]any, T]()
}

// CreateModule instantiates a module from its configuration entry.
func CreateModule[T any](r *ModuleRegistry[T], cfg ModuleConfig) (T, error) {
	return r.Create(cfg.Type, cfg.Conf)
}

// Decode fills out the provided struct using json tags. Numeric strings and
// ints are converted to the target field type.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
