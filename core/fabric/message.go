package fabric

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message topics.
const (
	TopicSubscribe       = "subscribe"
	TopicUnsubscribe     = "unsubscribe"
	TopicTime            = "time"
	TopicWeather         = "weather"
	TopicPowerUpdate     = "power_update"
	TopicDemandRequest   = "demand_request"
	TopicAllocation      = "allocation"
	TopicRegisterStation = "register_station"
)

// Message is the envelope exchanged between agents.
type Message struct {
	ID     string          `json:"id"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Topic  string          `json:"topic"`
	Body   json.RawMessage `json:"body,omitempty"`
	SentAt time.Time       `json:"sent_at"`
}

// SubscribeRequest is the body of subscribe and unsubscribe messages.
type SubscribeRequest struct {
	Topic string `json:"topic"`
}

// NewMessage encodes body into a new addressed message.
func NewMessage(from, to, topic string, body any) (Message, error) {
	m := Message{
		ID:     uuid.NewString(),
		From:   from,
		To:     to,
		Topic:  topic,
		SentAt: time.Now().UTC(),
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s body: %w", topic, err)
		}
		m.Body = raw
	}
	return m, nil
}

// Readdress returns a copy of m addressed to another recipient with a fresh
// ID.
func (m Message) Readdress(to string) Message {
	m.ID = uuid.NewString()
	m.To = to
	m.SentAt = time.Now().UTC()
	return m
}

// Decode unmarshals the body of m into a value of type T.
func Decode[T any](m Message) (T, error) {
	var v T
	if len(m.Body) == 0 {
		return v, fmt.Errorf("decode %s from %s: empty body", m.Topic, m.From)
	}
	if err := json.Unmarshal(m.Body, &v); err != nil {
		return v, fmt.Errorf("decode %s from %s: %w", m.Topic, m.From, err)
	}
	return v, nil
}
