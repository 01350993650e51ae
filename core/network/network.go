// Package network implements the aggregating agents of the topology. A
// network sums the readings of its direct children once per tick and
// reports the total to its own parent; the root network's total is the grid
// aggregate.
package network

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Type is the agent type of networks.
const Type = topology.NetworkType

// Statuses of aggregate readings.
const (
	StatusComplete = "complete"
	StatusDegraded = "degraded"
)

// DefaultWindow is the per-level aggregation window used when none is set.
const DefaultWindow = 200 * time.Millisecond

type round struct {
	tick     time.Time
	readings map[string]float64
	deadline time.Time
}

// Network buffers the readings of its children per tick. A round is
// flushed when every child has reported or when its deadline passes, in
// which case silent children count as zero.
type Network struct {
	*agent.Base
	expected   []string
	childSet   map[string]struct{}
	window     time.Duration
	maxPowerKW float64
	hasMax     bool
	now        func() time.Time

	rounds      map[int64]*round
	lastFlushed time.Time

	mu      sync.RWMutex
	history []model.PowerReading
}

// New is the constructor registered for Type.
func New(spec agent.Spec) (agent.Agent, error) {
	return NewNetwork(spec)
}

// NewNetwork builds the aggregator of spec.Node.
func NewNetwork(spec agent.Spec) (*Network, error) {
	n := spec.Node
	if n.Kind != topology.KindNetwork {
		return nil, fmt.Errorf("network %s: node is a %s", n.Address, n.Kind)
	}
	base, err := agent.NewBase(n, spec.Parent, spec.Deps)
	if err != nil {
		return nil, err
	}
	unit := spec.Deps.Settings.AggregationWindow
	if unit <= 0 {
		unit = DefaultWindow
	}
	expected := n.ChildAddresses()
	set := make(map[string]struct{}, len(expected))
	for _, c := range expected {
		set[c] = struct{}{}
	}
	maxKW, hasMax := n.Float(topology.ParamMaxPowerKW)
	return &Network{
		Base:       base,
		expected:   expected,
		childSet:   set,
		window:     unit * time.Duration(max1(n.Height())),
		maxPowerKW: maxKW,
		hasMax:     hasMax,
		now:        time.Now,
		rounds:     map[int64]*round{},
	}, nil
}

func max1(h int) int {
	if h < 1 {
		return 1
	}
	return h
}

// Expected implements agent.Aggregator.
func (n *Network) Expected() []string { return append([]string(nil), n.expected...) }

// Window returns how long a round waits for silent children.
func (n *Network) Window() time.Duration { return n.window }

// History implements agent.Aggregator. Only the root keeps a history.
func (n *Network) History() []model.PowerReading {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]model.PowerReading(nil), n.history...)
}

// Setup subscribes to the clock so rounds start even when no child reports.
func (n *Network) Setup(ctx context.Context) error {
	return n.Subs.Subscribe(ctx, topology.ClockAddress, fabric.TopicTime)
}

// Behaviours implements agent.Agent.
func (n *Network) Behaviours() []agent.Behaviour {
	return []agent.Behaviour{agent.NewBehaviour("aggregate", n.run)}
}

func (n *Network) run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			n.expire(ctx)
		case m, ok := <-n.Inbox():
			if !ok {
				return nil
			}
			n.handle(ctx, m)
		}
		n.arm(timer)
	}
}

func (n *Network) handle(ctx context.Context, m fabric.Message) {
	switch m.Topic {
	case fabric.TopicTime:
		tick, err := fabric.Decode[model.Tick](m)
		if err != nil {
			n.Log.Warnf("%v", err)
			return
		}
		if r := n.open(tick.Timestamp); r != nil {
			n.maybeFlush(ctx, r)
		}
	case fabric.TopicPowerUpdate:
		reading, err := fabric.Decode[model.PowerReading](m)
		if err != nil {
			n.Log.Warnf("%v", err)
			return
		}
		n.accept(ctx, reading)
	default:
		n.Log.Debugf("ignoring %s from %s", m.Topic, m.From)
	}
}

// accept buffers a child reading for its tick.
func (n *Network) accept(ctx context.Context, r model.PowerReading) {
	if _, ok := n.childSet[r.Source]; !ok {
		n.Log.Warnf("reading from %s which is not a child", r.Source)
		return
	}
	rd := n.open(r.Tick)
	if rd == nil {
		n.Log.Debugf("late reading from %s for %s discarded", r.Source, r.Tick.Format(time.RFC3339))
		return
	}
	rd.readings[r.Source] = r.PowerKW
	n.maybeFlush(ctx, rd)
}

// open returns the round of tick, starting it if needed. It returns nil
// for ticks that were already flushed.
func (n *Network) open(tick time.Time) *round {
	key := tick.UnixNano()
	if r, ok := n.rounds[key]; ok {
		return r
	}
	if !n.lastFlushed.IsZero() && !tick.After(n.lastFlushed) {
		return nil
	}
	r := &round{
		tick:     tick,
		readings: make(map[string]float64, len(n.expected)),
		deadline: n.now().Add(n.window),
	}
	n.rounds[key] = r
	return r
}

func (n *Network) maybeFlush(ctx context.Context, r *round) {
	if len(r.readings) < len(n.expected) {
		return
	}
	n.flush(ctx, r, nil)
}

// expire flushes every round whose deadline has passed, oldest first.
func (n *Network) expire(ctx context.Context) {
	now := n.now()
	for _, r := range n.ordered() {
		if now.Before(r.deadline) {
			continue
		}
		var missing []string
		for _, c := range n.expected {
			if _, ok := r.readings[c]; !ok {
				missing = append(missing, c)
			}
		}
		n.flush(ctx, r, missing)
	}
}

func (n *Network) ordered() []*round {
	out := make([]*round, 0, len(n.rounds))
	for _, r := range n.rounds {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tick.Before(out[j].tick) })
	return out
}

func (n *Network) arm(timer *time.Timer) {
	timer.Stop()
	var next time.Time
	for _, r := range n.rounds {
		if next.IsZero() || r.deadline.Before(next) {
			next = r.deadline
		}
	}
	if next.IsZero() {
		return
	}
	timer.Reset(max(0, next.Sub(n.now())))
}

// Sum adds the readings of expected children in order, counting absent
// children as zero.
func Sum(expected []string, readings map[string]float64) float64 {
	vals := make([]float64, len(expected))
	for i, c := range expected {
		vals[i] = readings[c]
	}
	return floats.Sum(vals)
}

func (n *Network) flush(ctx context.Context, r *round, missing []string) {
	delete(n.rounds, r.tick.UnixNano())
	if r.tick.After(n.lastFlushed) {
		n.lastFlushed = r.tick
	}
	total := Sum(n.expected, r.readings)
	status := StatusComplete
	if len(missing) > 0 {
		status = StatusDegraded
		n.Log.Warnf("aggregation window expired for %s: %d of %d children silent %v",
			r.tick.Format(time.RFC3339), len(missing), len(n.expected), missing)
		n.Emit(events.DegradationEvent{Aggregator: n.Address(), Tick: r.tick, Missing: missing})
	}
	if n.hasMax && math.Abs(total) > n.maxPowerKW {
		n.Log.Warnf("aggregate %.3f kW exceeds capacity %.3f kW at %s", total, n.maxPowerKW, r.tick.Format(time.RFC3339))
	}
	if n.Parent() == "" {
		n.mu.Lock()
		n.history = append(n.history, model.PowerReading{Source: n.Address(), Tick: r.tick, PowerKW: total, Status: status})
		n.mu.Unlock()
	}
	if err := n.Report(ctx, r.tick, total, status); err != nil {
		n.Log.Debugf("report %s: %v", r.tick.Format(time.RFC3339), err)
	}
}
