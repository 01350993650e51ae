package agent

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/gridsim/core/logger"
	"github.com/kilianp07/gridsim/core/monitoring"
)

// Runtime starts agents and supervises their behaviours.
type Runtime struct {
	log    logger.Logger
	agents []Agent
}

// NewRuntime returns a runtime for agents. Setup hooks and behaviours are
// started in slice order.
func NewRuntime(log logger.Logger, agents ...Agent) *Runtime {
	if log == nil {
		log = nopLogger{}
	}
	return &Runtime{log: log, agents: agents}
}

// Agents returns the supervised agents.
func (r *Runtime) Agents() []Agent { return r.agents }

// Setup runs every Initializer hook in order.
func (r *Runtime) Setup(ctx context.Context) error {
	for _, a := range r.agents {
		if in, ok := a.(Initializer); ok {
			if err := in.Setup(ctx); err != nil {
				return fmt.Errorf("setup %s: %w", a.Address(), err)
			}
		}
	}
	return nil
}

// Run starts all behaviours and blocks until they return. A behaviour that
// fails or panics cancels the others. Cancellation of ctx is a normal stop.
func (r *Runtime) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range r.agents {
		for _, b := range a.Behaviours() {
			g.Go(func() error {
				tags := map[string]string{"agent": a.Address(), "behaviour": b.Name()}
				err := monitoring.Guard(tags, func() error { return b.Run(gctx) })
				if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				r.log.Errorf("behaviour %s of %s failed: %v", b.Name(), a.Address(), err)
				monitoring.CaptureException(err, tags)
				return fmt.Errorf("%s %s: %w", a.Address(), b.Name(), err)
			})
		}
	}
	return g.Wait()
}

// Close closes every agent mailbox.
func (r *Runtime) Close() {
	for _, a := range r.agents {
		a.Close()
	}
}
