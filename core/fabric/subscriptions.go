package fabric

import (
	"context"
	"sync"
)

type subKey struct {
	owner string
	topic string
}

// Subscriptions tracks the topics an agent subscribed to so repeated
// subscribe calls send a single request.
type Subscriptions struct {
	s    Sender
	self string

	mu     sync.Mutex
	active map[subKey]struct{}
}

// NewSubscriptions returns an empty subscription set for self.
func NewSubscriptions(s Sender, self string) *Subscriptions {
	return &Subscriptions{s: s, self: self, active: map[subKey]struct{}{}}
}

// Subscribe asks owner to add self to topic. It is a no-op when the
// subscription is already active.
func (s *Subscriptions) Subscribe(ctx context.Context, owner, topic string) error {
	k := subKey{owner, topic}
	s.mu.Lock()
	_, ok := s.active[k]
	s.mu.Unlock()
	if ok {
		return nil
	}
	if err := s.request(ctx, owner, TopicSubscribe, topic); err != nil {
		return err
	}
	s.mu.Lock()
	s.active[k] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Unsubscribe asks owner to remove self from topic.
func (s *Subscriptions) Unsubscribe(ctx context.Context, owner, topic string) error {
	k := subKey{owner, topic}
	s.mu.Lock()
	_, ok := s.active[k]
	delete(s.active, k)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.request(ctx, owner, TopicUnsubscribe, topic)
}

// Active reports whether self is subscribed to topic at owner.
func (s *Subscriptions) Active(owner, topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[subKey{owner, topic}]
	return ok
}

func (s *Subscriptions) request(ctx context.Context, owner, kind, topic string) error {
	m, err := NewMessage(s.self, owner, kind, SubscribeRequest{Topic: topic})
	if err != nil {
		return err
	}
	return s.s.Send(ctx, m)
}
