package fabric

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMailboxSize is the inbox capacity used when none is configured.
const DefaultMailboxSize = 1024

// Memory is an in-process Fabric backed by buffered channels. Send never
// blocks: a message for a full or unknown mailbox fails with
// ErrDeliveryFailure.
type Memory struct {
	mu        sync.RWMutex
	endpoints map[string]*memEndpoint
	size      int
	closed    bool
}

// NewMemory returns a Memory fabric whose inboxes hold size messages.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &Memory{endpoints: make(map[string]*memEndpoint), size: size}
}

// Connect registers a mailbox for address.
func (f *Memory) Connect(address string) (Endpoint, error) {
	return f.ConnectSize(address, f.size)
}

// ConnectSize registers a mailbox holding max(size, configured) messages.
func (f *Memory) ConnectSize(address string, size int) (Endpoint, error) {
	size = max(size, f.size)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if _, ok := f.endpoints[address]; ok {
		return nil, fmt.Errorf("address %s already connected", address)
	}
	ep := &memEndpoint{address: address, ch: make(chan Message, size), fab: f}
	f.endpoints[address] = ep
	return ep, nil
}

// Send delivers m to the mailbox of m.To.
func (f *Memory) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrDeliveryFailure, m.Topic, m.To, err)
	}
	f.mu.RLock()
	ep, ok := f.endpoints[m.To]
	f.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s to %s: no such address", ErrDeliveryFailure, m.Topic, m.To)
	}
	return ep.deliver(m)
}

// Close closes every mailbox.
func (f *Memory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	eps := f.endpoints
	f.endpoints = map[string]*memEndpoint{}
	f.mu.Unlock()
	for _, ep := range eps {
		ep.shut()
	}
	return nil
}

func (f *Memory) drop(address string) {
	f.mu.Lock()
	delete(f.endpoints, address)
	f.mu.Unlock()
}

type memEndpoint struct {
	address string
	fab     *Memory
	mu      sync.RWMutex
	ch      chan Message
	closed  bool
}

func (e *memEndpoint) Address() string       { return e.address }
func (e *memEndpoint) Inbox() <-chan Message { return e.ch }

func (e *memEndpoint) deliver(m Message) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("%w: %s to %s: mailbox closed", ErrDeliveryFailure, m.Topic, m.To)
	}
	select {
	case e.ch <- m:
		return nil
	default:
		return fmt.Errorf("%w: %s to %s: mailbox full", ErrDeliveryFailure, m.Topic, m.To)
	}
}

func (e *memEndpoint) Close() {
	e.fab.drop(e.address)
	e.shut()
}

func (e *memEndpoint) shut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
