package fabric

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	corefabric "github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/infra/logger"
)

// endpoint is a broker-fed mailbox. Messages arriving while the inbox is
// full are dropped and counted.
type endpoint struct {
	address string
	ch      chan corefabric.Message
	log     logger.Logger
	release func()

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	once    sync.Once
}

func newEndpoint(address string, size int, log logger.Logger) *endpoint {
	return &endpoint{address: address, ch: make(chan corefabric.Message, size), log: log}
}

func (e *endpoint) Address() string                  { return e.address }
func (e *endpoint) Inbox() <-chan corefabric.Message { return e.ch }

// Dropped reports how many messages were lost to a full inbox.
func (e *endpoint) Dropped() uint64 { return e.dropped.Load() }

// receive decodes a raw envelope and queues it.
func (e *endpoint) receive(payload []byte) {
	var m corefabric.Message
	if err := json.Unmarshal(payload, &m); err != nil {
		e.log.Warnf("discarding malformed message for %s: %v", e.address, err)
		return
	}
	if m.To != e.address {
		e.log.Warnf("discarding message for %s received by %s", m.To, e.address)
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- m:
	default:
		e.dropped.Add(1)
		e.log.Warnf("mailbox of %s full, dropping %s from %s", e.address, m.Topic, m.From)
	}
}

func (e *endpoint) Close() {
	e.once.Do(func() {
		if e.release != nil {
			e.release()
		}
		e.shut()
	})
}

func (e *endpoint) shut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

// registry tracks the endpoints of a transport.
type registry struct {
	mu        sync.Mutex
	endpoints map[string]*endpoint
	closed    bool
}

func newRegistry() *registry {
	return &registry{endpoints: make(map[string]*endpoint)}
}

func (r *registry) add(ep *endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return corefabric.ErrClosed
	}
	if _, ok := r.endpoints[ep.address]; ok {
		return errDuplicate(ep.address)
	}
	r.endpoints[ep.address] = ep
	return nil
}

func (r *registry) remove(address string) {
	r.mu.Lock()
	delete(r.endpoints, address)
	r.mu.Unlock()
}

// closeAll marks the registry closed and returns the open endpoints.
func (r *registry) closeAll() []*endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	out := make([]*endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep)
	}
	r.endpoints = map[string]*endpoint{}
	return out
}

func (r *registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
