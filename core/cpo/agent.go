package cpo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/factory"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Type is the agent type of the CPO.
const Type = "cpo"

// DefaultAdmissionWindow is used when neither the admission nor the
// aggregation window is configured.
const DefaultAdmissionWindow = 100 * time.Millisecond

// Config holds the parameters of a CPO node. The capacity is capacity_kw
// when set, else the CPO's own max_power_kw, else the limit of the network
// it governs.
type Config struct {
	CapacityKW        *float64 `json:"capacity_kw"`
	MaxPowerKW        *float64 `json:"max_power_kw"`
	NetworkMaxPowerKW *float64 `json:"network_max_power_kw"`
	Network           string   `json:"network"`
}

// Capacity resolves the ceiling of c.
func (c Config) Capacity() (float64, error) {
	for _, v := range []*float64{c.CapacityKW, c.MaxPowerKW, c.NetworkMaxPowerKW} {
		if v != nil {
			return *v, nil
		}
	}
	return 0, fmt.Errorf("no capacity: set capacity_kw or max_power_kw, or give the governed network a max_power_kw")
}

type admission struct {
	tick     time.Time
	requests map[string]model.DemandRequest
	deadline time.Time
}

// CPO collects the demand requests of a tick and answers each with an
// AllocationDecision computed by Allocate.
type CPO struct {
	*agent.Base
	capacity float64
	network  string
	window   time.Duration
	now      func() time.Time

	arrival  map[string]int
	stations []string
	rounds   map[int64]*admission
	resolved time.Time
}

// New is the constructor registered for Type.
func New(spec agent.Spec) (agent.Agent, error) {
	var cfg Config
	if err := factory.Decode(spec.Node.Params, &cfg); err != nil {
		return nil, fmt.Errorf("cpo %s: %w", spec.Node.Address, err)
	}
	capacity, err := cfg.Capacity()
	if err != nil {
		return nil, &topology.ConfigError{Path: spec.Node.Address, Err: err}
	}
	base, err := agent.NewBase(spec.Node, spec.Parent, spec.Deps)
	if err != nil {
		return nil, err
	}
	window := spec.Deps.Settings.AdmissionWindow
	if window <= 0 {
		window = spec.Deps.Settings.AggregationWindow / 2
	}
	if window <= 0 {
		window = DefaultAdmissionWindow
	}
	base.Log.Infof("capacity %.3f kW for network %s", capacity, cfg.Network)
	return &CPO{
		Base:     base,
		capacity: capacity,
		network:  cfg.Network,
		window:   window,
		now:      time.Now,
		arrival:  map[string]int{},
		rounds:   map[int64]*admission{},
	}, nil
}

// CapacityKW implements agent.Admitter.
func (c *CPO) CapacityKW() float64 { return c.capacity }

// Stations lists registered stations in arrival order.
func (c *CPO) Stations() []string { return append([]string(nil), c.stations...) }

// Behaviours implements agent.Agent.
func (c *CPO) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("admit", c.run)}
}

func (c *CPO) run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			c.expire(ctx)
		case m, ok := <-c.Inbox():
			if !ok {
				return nil
			}
			c.handle(ctx, m)
		}
		c.arm(timer)
	}
}

func (c *CPO) handle(ctx context.Context, m fabric.Message) {
	switch m.Topic {
	case fabric.TopicRegisterStation:
		reg, err := fabric.Decode[model.StationRegistration](m)
		if err != nil {
			c.Log.Warnf("%v", err)
			return
		}
		c.register(reg.Station)
	case fabric.TopicDemandRequest:
		req, err := fabric.Decode[model.DemandRequest](m)
		if err != nil {
			c.Log.Warnf("%v", err)
			return
		}
		c.request(ctx, req)
	default:
		c.Log.Debugf("ignoring %s from %s", m.Topic, m.From)
	}
}

// register assigns the next arrival order to station. Registering twice
// keeps the first position.
func (c *CPO) register(station string) int {
	if order, ok := c.arrival[station]; ok {
		return order
	}
	order := len(c.stations)
	c.arrival[station] = order
	c.stations = append(c.stations, station)
	c.Log.Debugf("station %s registered with arrival order %d", station, order)
	return order
}

func (c *CPO) request(ctx context.Context, req model.DemandRequest) {
	if !c.resolved.IsZero() && !req.Tick.After(c.resolved) {
		if _, open := c.rounds[req.Tick.UnixNano()]; !open {
			c.Log.Warnf("late demand from %s for %s", req.Station, req.Tick.Format(time.RFC3339))
			return
		}
	}
	req.ArrivalOrder = c.register(req.Station)
	key := req.Tick.UnixNano()
	r, ok := c.rounds[key]
	if !ok {
		r = &admission{tick: req.Tick, requests: map[string]model.DemandRequest{}, deadline: c.now().Add(c.window)}
		c.rounds[key] = r
	}
	r.requests[req.Station] = req
	if len(r.requests) >= len(c.stations) {
		c.resolve(ctx, r)
	}
}

func (c *CPO) expire(ctx context.Context) {
	now := c.now()
	var due []*admission
	for _, r := range c.rounds {
		if !now.Before(r.deadline) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].tick.Before(due[j].tick) })
	for _, r := range due {
		c.Log.Debugf("admission window expired for %s with %d of %d stations", r.tick.Format(time.RFC3339), len(r.requests), len(c.stations))
		c.resolve(ctx, r)
	}
}

func (c *CPO) arm(timer *time.Timer) {
	timer.Stop()
	var next time.Time
	for _, r := range c.rounds {
		if next.IsZero() || r.deadline.Before(next) {
			next = r.deadline
		}
	}
	if !next.IsZero() {
		timer.Reset(max(0, next.Sub(c.now())))
	}
}

func (c *CPO) resolve(ctx context.Context, r *admission) {
	delete(c.rounds, r.tick.UnixNano())
	if r.tick.After(c.resolved) {
		c.resolved = r.tick
	}
	reqs := make([]model.DemandRequest, 0, len(r.requests))
	requested := 0.0
	for _, q := range r.requests {
		reqs = append(reqs, q)
		requested += q.RequestedKW
	}
	decisions := Allocate(c.capacity, reqs)
	granted := Granted(decisions)
	if granted < requested {
		c.Log.Infof("demand %.3f kW over capacity %.3f kW at %s, granted %.3f kW",
			requested, c.capacity, r.tick.Format(time.RFC3339), granted)
	}
	for _, d := range decisions {
		if err := c.Send(ctx, d.Station, fabric.TopicAllocation, d); err != nil {
			c.Log.Debugf("decision for %s: %v", d.Station, err)
		}
	}
	c.Record(r.tick, granted, "")
	c.Emit(events.AllocationEvent{
		CPO:         c.Address(),
		Tick:        r.tick,
		CapacityKW:  c.capacity,
		RequestedKW: requested,
		GrantedKW:   granted,
		Decisions:   decisions,
	})
}
