package prosumer

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/factory"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Agent types.
const (
	TypeSolarPanel      = "solarpanel"
	TypeWindTurbine     = "windturbine"
	TypeChargingStation = "chargingstation"
)

// DefaultWindMaxKW applies to turbines declared without max_power_kw.
const DefaultWindMaxKW = 2000.0

// SolarConfig holds the parameters of a solar panel node.
type SolarConfig struct {
	MaxPowerKW float64 `json:"max_power_kw"`
	Factor     float64 `json:"factor"`
}

// Solar is the generation model of a photovoltaic panel.
type Solar struct{ cfg SolarConfig }

// Produce implements agent.Producer.
func (s Solar) Produce(w model.WeatherSample) (float64, string) {
	kw := SolarOutput(s.cfg.MaxPowerKW, s.cfg.Factor, w)
	if kw <= 0 {
		return 0, StatusOff
	}
	return kw, StatusGenerating
}

// WindConfig holds the parameters of a wind turbine node.
type WindConfig struct {
	MaxPowerKW  float64 `json:"max_power_kw"`
	Factor      float64 `json:"factor"`
	RotorAreaM2 float64 `json:"rotor_area_m2"`
}

// Wind is the generation model of a turbine.
type Wind struct{ cfg WindConfig }

// Produce implements agent.Producer.
func (t Wind) Produce(w model.WeatherSample) (float64, string) {
	return WindOutput(t.cfg.MaxPowerKW, t.cfg.Factor, t.cfg.RotorAreaM2, w)
}

// NewSolarPanel is the constructor registered for TypeSolarPanel.
func NewSolarPanel(spec agent.Spec) (agent.Agent, error) {
	cfg := SolarConfig{Factor: 1}
	if err := factory.Decode(spec.Node.Params, &cfg); err != nil {
		return nil, fmt.Errorf("solar panel %s: %w", spec.Node.Address, err)
	}
	if cfg.MaxPowerKW <= 0 {
		return nil, &topology.ConfigError{Path: spec.Node.Address, Reason: "solar panel requires a positive max_power_kw"}
	}
	return NewEnvProducer(spec, Solar{cfg: cfg})
}

// NewWindTurbine is the constructor registered for TypeWindTurbine.
func NewWindTurbine(spec agent.Spec) (agent.Agent, error) {
	cfg := WindConfig{Factor: 1, MaxPowerKW: DefaultWindMaxKW, RotorAreaM2: 1}
	if err := factory.Decode(spec.Node.Params, &cfg); err != nil {
		return nil, fmt.Errorf("wind turbine %s: %w", spec.Node.Address, err)
	}
	if cfg.RotorAreaM2 <= 0 {
		return nil, &topology.ConfigError{Path: spec.Node.Address, Reason: "rotor_area_m2 must be positive"}
	}
	return NewEnvProducer(spec, Wind{cfg: cfg})
}

// EnvProducer is a leaf whose output depends on the weather. On each tick
// it reports the output of its model for the latest weather sample.
//
// A tick whose hour is not yet covered by a received sample is held for a
// short grace period so that a sample broadcast for the same tick is used.
// Samples are only broadcast on change, so an expired grace means the
// previous sample is still current.
type EnvProducer struct {
	*agent.Base
	model agent.Producer
	grace time.Duration

	latest    model.WeatherSample
	hasSample bool
	confirmed time.Time
}

// NewEnvProducer binds model to the node of spec.
func NewEnvProducer(spec agent.Spec, m agent.Producer) (*EnvProducer, error) {
	base, err := agent.NewBase(spec.Node, spec.Parent, spec.Deps)
	if err != nil {
		return nil, err
	}
	grace := spec.Deps.Settings.AggregationWindow / 4
	if grace <= 0 {
		grace = 10 * time.Millisecond
	}
	return &EnvProducer{Base: base, model: m, grace: grace}, nil
}

// Model returns the generation model.
func (p *EnvProducer) Model() agent.Producer { return p.model }

// Setup subscribes to weather then time.
func (p *EnvProducer) Setup(ctx context.Context) error {
	if err := p.Subs.Subscribe(ctx, topology.WeatherAddress, fabric.TopicWeather); err != nil {
		return err
	}
	return p.Subs.Subscribe(ctx, topology.ClockAddress, fabric.TopicTime)
}

// Behaviours implements agent.Agent.
func (p *EnvProducer) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("produce", p.run)}
}

func (p *EnvProducer) fresh(ts time.Time) bool {
	hour := ts.Truncate(time.Hour)
	if hour.Equal(p.confirmed) {
		return true
	}
	return p.hasSample && p.latest.Timestamp.Equal(hour)
}

func (p *EnvProducer) run(ctx context.Context) error {
	var (
		pending *model.Tick
		timer   = time.NewTimer(time.Hour)
	)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if pending == nil {
			return
		}
		p.confirmed = pending.Timestamp.Truncate(time.Hour)
		p.produce(ctx, *pending)
		pending = nil
		timer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			flush()
		case m, ok := <-p.Inbox():
			if !ok {
				return nil
			}
			switch m.Topic {
			case fabric.TopicWeather:
				w, err := fabric.Decode[model.WeatherSample](m)
				if err != nil {
					p.Log.Warnf("%v", err)
					continue
				}
				p.latest, p.hasSample = w, true
				if pending != nil && p.fresh(pending.Timestamp) {
					flush()
				}
			case fabric.TopicTime:
				tick, err := fabric.Decode[model.Tick](m)
				if err != nil {
					p.Log.Warnf("%v", err)
					continue
				}
				flush()
				if p.fresh(tick.Timestamp) {
					p.produce(ctx, tick)
					continue
				}
				pending = &tick
				timer.Reset(p.grace)
			default:
				p.Log.Debugf("ignoring %s from %s", m.Topic, m.From)
			}
		}
	}
}

func (p *EnvProducer) produce(ctx context.Context, tick model.Tick) {
	var kw float64
	status := StatusOff
	if p.hasSample {
		kw, status = p.model.Produce(p.latest)
	}
	if err := p.Report(ctx, tick.Timestamp, kw, status); err != nil {
		p.Log.Debugf("report tick %d: %v", tick.Seq, err)
	}
}
