package agent

import (
	"context"
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

// Behaviour is one long-running task of an agent.
type Behaviour interface {
	Name() string
	Run(ctx context.Context) error
}

type funcBehaviour struct {
	name string
	fn   func(context.Context) error
}

func (b funcBehaviour) Name() string                  { return b.name }
func (b funcBehaviour) Run(ctx context.Context) error { return b.fn(ctx) }

// NewBehaviour wraps fn as a Behaviour.
func NewBehaviour(name string, fn func(context.Context) error) Behaviour {
	return funcBehaviour{name: name, fn: fn}
}

// Agent is a node of the running simulation.
type Agent interface {
	Address() string
	Type() string
	Behaviours() []Behaviour
	Close()
}

// Initializer is implemented by agents that must send messages before any
// behaviour starts. Setup hooks run sequentially in topology order.
type Initializer interface {
	Setup(ctx context.Context) error
}

// Producer computes generation from the environment. The result is in kW,
// positive for generation.
type Producer interface {
	Produce(w model.WeatherSample) (kw float64, status string)
}

// Consumer computes its uncontrolled demand at a simulated time. The result
// is in kW and positive.
type Consumer interface {
	Demand(at time.Time) (kw float64, status string)
}

// Aggregator sums the readings of its children.
type Aggregator interface {
	Expected() []string
	History() []model.PowerReading
}

// Timer drives simulated time.
type Timer interface {
	Done() <-chan struct{}
	Ticks() int
}

// WeatherAdvisor publishes environment samples.
type WeatherAdvisor interface {
	Latest() (model.WeatherSample, bool)
}

// Admitter arbitrates demand under a capacity ceiling.
type Admitter interface {
	CapacityKW() float64
}
