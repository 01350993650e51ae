// Package clock implements the agent that drives simulated time.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Type is the agent type of the clock.
const Type = "clock"

// DefaultInterval is the wall-clock interval used when none is configured.
const DefaultInterval = time.Second

// State is the lifecycle of the clock.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Clock broadcasts one tick per interval on the time topic. Tick i carries
// the timestamp start + i*rate; tick N is final and stops the clock.
type Clock struct {
	*agent.Base
	window   topology.Window
	interval time.Duration
	pub      *fabric.Publisher

	state   atomic.Int32
	emitted atomic.Int64
	done    chan struct{}
	once    sync.Once
}

// New connects the clock at its reserved address.
func New(window topology.Window, deps agent.Deps) (*Clock, error) {
	base, err := agent.NewServiceBase(topology.ClockAddress, Type, deps)
	if err != nil {
		return nil, err
	}
	interval := deps.Settings.TickInterval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{
		Base:     base,
		window:   window,
		interval: interval,
		pub:      fabric.NewPublisher(deps.Fabric, topology.ClockAddress, fabric.TopicTime),
		done:     make(chan struct{}),
	}, nil
}

// Behaviours implements agent.Agent.
func (c *Clock) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("tick", c.run)}
}

// Done is closed once the final tick has been broadcast.
func (c *Clock) Done() <-chan struct{} { return c.done }

// Ticks returns the number of ticks of the run.
func (c *Clock) Ticks() int { return c.window.Ticks() }

// Emitted returns the number of ticks broadcast so far.
func (c *Clock) Emitted() int { return int(c.emitted.Load()) }

// State returns the lifecycle state.
func (c *Clock) State() State { return State(c.state.Load()) }

// Subscribers lists the agents receiving ticks.
func (c *Clock) Subscribers() []string { return c.pub.Subscribers() }

func (c *Clock) run(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return nil
	}
	n := c.window.Ticks()
	c.drain(ctx)
	if n == 0 {
		c.stop(0)
		return nil
	}
	c.Log.Infof("clock started: %d ticks of %v every %v", n, c.window.Step(), c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for i := 1; ; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-c.Inbox():
			if !ok {
				return nil
			}
			c.handle(ctx, m)
		case <-ticker.C:
			tick := model.Tick{Seq: i, Timestamp: c.window.At(i), Rate: c.window.Rate, Final: i == n}
			if err := c.pub.Broadcast(ctx, tick); err != nil {
				c.Log.Warnf("tick %d: %v", i, err)
			}
			c.emitted.Store(int64(i))
			c.Emit(events.TickEvent{Tick: tick})
			c.Log.Debugf("tick %d/%d at %s", i, n, tick.Timestamp.Format(time.RFC3339))
			if i == n {
				c.stop(n)
				return nil
			}
			i++
		}
	}
}

// drain handles the subscriptions queued before the clock started.
func (c *Clock) drain(ctx context.Context) {
	for {
		select {
		case m, ok := <-c.Inbox():
			if !ok {
				return
			}
			c.handle(ctx, m)
		default:
			return
		}
	}
}

func (c *Clock) handle(ctx context.Context, m fabric.Message) {
	handled, err := c.pub.Handle(ctx, m)
	if err != nil {
		c.Log.Warnf("subscription from %s: %v", m.From, err)
	}
	if !handled {
		c.Log.Debugf("ignoring %s from %s", m.Topic, m.From)
	}
}

func (c *Clock) stop(n int) {
	c.once.Do(func() {
		c.state.Store(int32(Stopped))
		c.Emit(events.ClockStoppedEvent{Ticks: n, At: c.window.At(n)})
		c.Log.Infof("clock stopped after %d ticks", n)
		close(c.done)
	})
}
