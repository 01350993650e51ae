package weather

import (
	"context"
	"sync"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Type is the agent type of the weather service.
const Type = "weather"

// Agent samples its Source on every tick and broadcasts the sample on the
// weather topic when it differs from the previous one.
type Agent struct {
	*agent.Base
	src Source
	pub *fabric.Publisher

	mu     sync.RWMutex
	latest model.WeatherSample
	has    bool
}

// NewAgent connects the weather agent at its reserved address.
func NewAgent(src Source, deps agent.Deps) (*Agent, error) {
	base, err := agent.NewServiceBase(topology.WeatherAddress, Type, deps)
	if err != nil {
		return nil, err
	}
	return &Agent{
		Base: base,
		src:  src,
		pub:  fabric.NewPublisher(deps.Fabric, topology.WeatherAddress, fabric.TopicWeather),
	}, nil
}

// Setup subscribes to the clock.
func (a *Agent) Setup(ctx context.Context) error {
	return a.Subs.Subscribe(ctx, topology.ClockAddress, fabric.TopicTime)
}

// Behaviours implements agent.Agent.
func (a *Agent) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("broadcast", a.run)}
}

// Latest returns the last broadcast sample.
func (a *Agent) Latest() (model.WeatherSample, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.has
}

func (a *Agent) run(ctx context.Context) error {
	for m := range fabric.Filter(ctx, a.Inbox()) {
		if handled, err := a.pub.Handle(ctx, m); handled {
			if err != nil {
				a.Log.Warnf("subscription from %s: %v", m.From, err)
			}
			continue
		}
		if m.Topic != fabric.TopicTime {
			a.Log.Debugf("ignoring %s from %s", m.Topic, m.From)
			continue
		}
		tick, err := fabric.Decode[model.Tick](m)
		if err != nil {
			a.Log.Warnf("%v", err)
			continue
		}
		a.onTick(ctx, tick)
	}
	return ctx.Err()
}

func (a *Agent) onTick(ctx context.Context, tick model.Tick) {
	sample, err := a.src.Sample(tick.Timestamp)
	if err != nil {
		a.Log.Warnf("tick %d: %v", tick.Seq, err)
		return
	}
	a.mu.Lock()
	changed := !a.has || !sample.Equal(a.latest)
	if changed {
		a.latest = sample
		a.has = true
	}
	a.mu.Unlock()
	if !changed {
		return
	}
	a.Log.Debugw("weather changed", map[string]any{
		"tick":       tick.Seq,
		"irradiance": sample.IrradianceWM2,
		"ambient":    sample.AmbientTemperature,
		"wind":       sample.WindSpeedMS,
	})
	if err := a.pub.Broadcast(ctx, sample); err != nil {
		a.Log.Warnf("broadcast weather: %v", err)
	}
}
