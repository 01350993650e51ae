package prosumer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/factory"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// ChargingConfig holds the parameters of a charging station node.
type ChargingConfig struct {
	MaxPowerKW    float64 `json:"max_power_kw"`
	Factor        float64 `json:"factor"`
	Smart         bool    `json:"smart"`
	CPO           string  `json:"cpo"`
	StartHour     *int    `json:"start_hour"`
	DurationHours *int    `json:"duration_hours"`
}

// ChargingStation draws power while its session is active. A non-smart
// station draws max_power_kw * factor. A smart station asks its CPO for
// that power every tick and draws what it is granted.
type ChargingStation struct {
	*agent.Base
	cfg     ChargingConfig
	session Session

	pending *model.DemandRequest
}

// NewChargingStation is the constructor registered for TypeChargingStation.
func NewChargingStation(spec agent.Spec) (agent.Agent, error) {
	addr := spec.Node.Address
	cfg := ChargingConfig{Factor: 1}
	if err := factory.Decode(spec.Node.Params, &cfg); err != nil {
		return nil, fmt.Errorf("charging station %s: %w", addr, err)
	}
	if cfg.MaxPowerKW <= 0 {
		return nil, &topology.ConfigError{Path: addr, Reason: "charging station requires a positive max_power_kw"}
	}
	if cfg.Smart && cfg.CPO == "" {
		return nil, &topology.ConfigError{Path: addr, Reason: "smart charging station requires a cpo"}
	}
	session := RandomSession(NewRand(spec.Deps.Settings.Seed, addr))
	if cfg.StartHour != nil {
		if *cfg.StartHour < 0 || *cfg.StartHour > 23 {
			return nil, &topology.ConfigError{Path: addr, Reason: "start_hour must be within 0-23"}
		}
		session.StartHour = *cfg.StartHour
	}
	if cfg.DurationHours != nil {
		if *cfg.DurationHours < 0 || *cfg.DurationHours > 24 {
			return nil, &topology.ConfigError{Path: addr, Reason: "duration_hours must be within 0-24"}
		}
		session.DurationHours = *cfg.DurationHours
	}
	base, err := agent.NewBase(spec.Node, spec.Parent, spec.Deps)
	if err != nil {
		return nil, err
	}
	base.Log.Debugf("session from %02dh for %dh (smart=%t)", session.StartHour, session.DurationHours, cfg.Smart)
	return &ChargingStation{Base: base, cfg: cfg, session: session}, nil
}

// Session returns the daily charging window.
func (c *ChargingStation) Session() Session { return c.session }

// Smart reports whether the station is controlled by a CPO.
func (c *ChargingStation) Smart() bool { return c.cfg.Smart }

// Demand implements agent.Consumer.
func (c *ChargingStation) Demand(at time.Time) (float64, string) {
	if !c.session.Active(at.Hour()) {
		return 0, StatusIdle
	}
	return c.cfg.MaxPowerKW * c.cfg.Factor, StatusCharging
}

// Setup subscribes to time and registers smart stations with their CPO.
func (c *ChargingStation) Setup(ctx context.Context) error {
	if err := c.Subs.Subscribe(ctx, topology.ClockAddress, fabric.TopicTime); err != nil {
		return err
	}
	if !c.cfg.Smart {
		return nil
	}
	reg := model.StationRegistration{Station: c.Address(), MaxPowerKW: c.cfg.MaxPowerKW * c.cfg.Factor}
	return c.Send(ctx, c.cfg.CPO, fabric.TopicRegisterStation, reg)
}

// Behaviours implements agent.Agent.
func (c *ChargingStation) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("charge", c.run)}
}

func (c *ChargingStation) run(ctx context.Context) error {
	for m := range fabric.Filter(ctx, c.Inbox(), fabric.TopicTime, fabric.TopicAllocation) {
		switch m.Topic {
		case fabric.TopicTime:
			tick, err := fabric.Decode[model.Tick](m)
			if err != nil {
				c.Log.Warnf("%v", err)
				continue
			}
			c.onTick(ctx, tick)
		case fabric.TopicAllocation:
			d, err := fabric.Decode[model.AllocationDecision](m)
			if err != nil {
				c.Log.Warnf("%v", err)
				continue
			}
			c.onDecision(ctx, d)
		}
	}
	return ctx.Err()
}

func (c *ChargingStation) onTick(ctx context.Context, tick model.Tick) {
	kw, status := c.Demand(tick.Timestamp)
	if !c.cfg.Smart {
		c.report(ctx, tick.Timestamp, kw, status)
		return
	}
	if c.pending != nil {
		c.Log.Warnf("no allocation received for %s", c.pending.Tick.Format(time.RFC3339))
		c.pending = nil
	}
	if kw <= 0 {
		// outside the session there is nothing to admit
		c.report(ctx, tick.Timestamp, 0, status)
		return
	}
	req := model.DemandRequest{Station: c.Address(), Tick: tick.Timestamp, RequestedKW: kw}
	c.pending = &req
	if err := c.Send(ctx, c.cfg.CPO, fabric.TopicDemandRequest, req); err != nil {
		// without the CPO the station cannot be granted anything
		c.pending = nil
		c.report(ctx, tick.Timestamp, 0, StatusIdle)
	}
}

func (c *ChargingStation) onDecision(ctx context.Context, d model.AllocationDecision) {
	if c.pending == nil || !d.Tick.Equal(c.pending.Tick) {
		c.Log.Debugf("discarding stale allocation for %s", d.Tick.Format(time.RFC3339))
		return
	}
	granted := math.Max(0, math.Min(d.GrantedKW, c.pending.RequestedKW))
	c.pending = nil
	status := StatusIdle
	if granted > 0 {
		status = StatusCharging
	}
	if d.Throttled() {
		c.Log.Debugf("throttled to %.3f kW of %.3f kW", granted, d.RequestedKW)
	}
	c.report(ctx, d.Tick, granted, status)
}

// report sends the draw as a negative reading.
func (c *ChargingStation) report(ctx context.Context, ts time.Time, drawKW float64, status string) {
	kw := 0.0
	if drawKW > 0 {
		kw = -drawKW
	}
	if err := c.Report(ctx, ts, kw, status); err != nil {
		c.Log.Debugf("report %s: %v", ts.Format(time.RFC3339), err)
	}
}
