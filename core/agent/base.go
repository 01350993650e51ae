package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/logger"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

// Base carries the identity, mailbox and last reported state shared by all
// agent types. Concrete agents embed it.
type Base struct {
	address string
	parent  string
	typ     string
	kind    topology.Kind
	ep      fabric.Endpoint
	fab     fabric.Fabric
	bus     *events.Bus

	Log  logger.Logger
	Subs *fabric.Subscriptions

	mu       sync.RWMutex
	power    float64
	status   string
	lastTick time.Time
}

// NewBase connects a mailbox for node.
func NewBase(node *topology.Node, parent string, deps Deps) (*Base, error) {
	return newBase(node.Address, parent, node.Type, node.Kind, node.LogThreshold, mailboxSize(node, deps.Tree), deps)
}

// NewServiceBase connects a mailbox for a service agent that has no
// topology node, such as the clock.
func NewServiceBase(address, typ string, deps Deps) (*Base, error) {
	return newBase(address, "", typ, topology.KindAsset, "", mailboxSize(nil, deps.Tree), deps)
}

// mailboxSize returns the inbox capacity node needs in tree. Service agents
// (nil node) receive one subscription per node before they start. A CPO
// receives a registration and a request per station and tick. A network
// receives one update per child and tick. Two ticks may be in flight.
func mailboxSize(node *topology.Node, tree *topology.Tree) int {
	if tree == nil {
		return 0
	}
	switch {
	case node == nil:
		return 2 * len(tree.Nodes())
	case node.Interaction:
		return 3 * len(tree.Nodes())
	case node.Kind == topology.KindNetwork:
		return 2 * (len(node.Children) + 1)
	}
	return 0
}

func newBase(address, parent, typ string, kind topology.Kind, threshold string, size int, deps Deps) (*Base, error) {
	if deps.Fabric == nil {
		return nil, errors.New("agent: fabric is required")
	}
	ep, err := fabric.ConnectSize(deps.Fabric, address, size)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", address, err)
	}
	return &Base{
		address: address,
		parent:  parent,
		typ:     typ,
		kind:    kind,
		ep:      ep,
		fab:     deps.Fabric,
		bus:     deps.Events,
		Log:     deps.logger(address, threshold),
		Subs:    fabric.NewSubscriptions(deps.Fabric, address),
	}, nil
}

func (b *Base) Address() string { return b.address }

// Parent returns the parent address, or "" for top level agents.
func (b *Base) Parent() string { return b.parent }

func (b *Base) Type() string { return b.typ }

// Inbox returns the agent mailbox.
func (b *Base) Inbox() <-chan fabric.Message { return b.ep.Inbox() }

// Sender returns the fabric used for outgoing messages.
func (b *Base) Sender() fabric.Sender { return b.fab }

// Close closes the mailbox.
func (b *Base) Close() { b.ep.Close() }

// Emit publishes an observation event.
func (b *Base) Emit(ev events.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}

// Send addresses body to another agent. Failures are logged and published
// as DeliveryFailureEvent before being returned.
func (b *Base) Send(ctx context.Context, to, topic string, body any) error {
	m, err := fabric.NewMessage(b.address, to, topic, body)
	if err != nil {
		return err
	}
	if err := b.fab.Send(ctx, m); err != nil {
		b.DeliveryFailed(to, topic, err)
		return err
	}
	return nil
}

// DeliveryFailed records a failed send that did not go through Send.
func (b *Base) DeliveryFailed(to, topic string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	b.Log.Warnf("deliver %s to %s: %v", topic, to, err)
	b.Emit(events.DeliveryFailureEvent{From: b.address, To: to, Topic: topic, Err: err})
}

// Record stores the state of a tick without reporting it.
func (b *Base) Record(tick time.Time, kw float64, status string) {
	b.mu.Lock()
	b.power = kw
	b.status = status
	b.lastTick = tick
	b.mu.Unlock()
}

// Report records the reading of a tick, sends it to the parent and
// publishes a ReadingEvent.
func (b *Base) Report(ctx context.Context, tick time.Time, kw float64, status string) error {
	b.Record(tick, kw, status)
	r := model.PowerReading{Source: b.address, Tick: tick, PowerKW: kw, Status: status}
	b.Emit(events.ReadingEvent{
		Reading:   r,
		NodeType:  b.typ,
		Aggregate: b.kind == topology.KindNetwork,
		Root:      b.kind == topology.KindNetwork && b.parent == "",
	})
	if b.parent == "" {
		return nil
	}
	return b.Send(ctx, b.parent, fabric.TopicPowerUpdate, r)
}

// Power returns the last reported power in kW.
func (b *Base) Power() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.power
}

// Status returns the last reported status.
func (b *Base) Status() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// LastTick returns the timestamp of the last tick handled.
func (b *Base) LastTick() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTick
}
