package fabric

import (
	"context"
	"errors"
	"sync"
)

// Publisher owns the subscriber list of one broadcast topic.
type Publisher struct {
	s     Sender
	from  string
	topic string

	mu     sync.Mutex
	subs   []string
	index  map[string]struct{}
	latest *Message
}

// NewPublisher returns a Publisher that sends topic messages from address.
func NewPublisher(s Sender, from, topic string) *Publisher {
	return &Publisher{s: s, from: from, topic: topic, index: map[string]struct{}{}}
}

// Topic returns the published topic.
func (p *Publisher) Topic() string { return p.topic }

// Add registers subscriber. It reports false when the subscriber was
// already present. A new subscriber immediately receives the latest
// published message, if any.
func (p *Publisher) Add(ctx context.Context, subscriber string) (bool, error) {
	p.mu.Lock()
	if _, ok := p.index[subscriber]; ok {
		p.mu.Unlock()
		return false, nil
	}
	p.index[subscriber] = struct{}{}
	p.subs = append(p.subs, subscriber)
	latest := p.latest
	p.mu.Unlock()

	if latest == nil {
		return true, nil
	}
	return true, p.s.Send(ctx, latest.Readdress(subscriber))
}

// Remove drops subscriber and reports whether it was present.
func (p *Publisher) Remove(subscriber string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[subscriber]; !ok {
		return false
	}
	delete(p.index, subscriber)
	for i, s := range p.subs {
		if s == subscriber {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			break
		}
	}
	return true
}

// Subscribers returns the subscribers in registration order.
func (p *Publisher) Subscribers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subs...)
}

// Broadcast sends body to every subscriber. Failed deliveries do not stop
// the broadcast and are returned joined.
func (p *Publisher) Broadcast(ctx context.Context, body any) error {
	m, err := NewMessage(p.from, "", p.topic, body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.latest = &m
	subs := append([]string(nil), p.subs...)
	p.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := p.s.Send(ctx, m.Readdress(sub)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Handle applies subscribe and unsubscribe requests for this topic. It
// reports whether m was consumed.
func (p *Publisher) Handle(ctx context.Context, m Message) (bool, error) {
	if m.Topic != TopicSubscribe && m.Topic != TopicUnsubscribe {
		return false, nil
	}
	req, err := Decode[SubscribeRequest](m)
	if err != nil {
		return true, err
	}
	if req.Topic != p.topic {
		return false, nil
	}
	if m.Topic == TopicUnsubscribe {
		p.Remove(m.From)
		return true, nil
	}
	_, err = p.Add(ctx, m.From)
	return true, err
}
