// Package mqtt defines the broker client used by the MQTT message fabric.
package mqtt

import "context"

// Handler receives the payload of a message published on a subscribed topic.
type Handler func(topic string, payload []byte)

// Client is a minimal publish/subscribe broker client.
type Client interface {
	// Publish sends payload to topic, retrying transient failures.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe routes every message on topic to h. Subscriptions survive
	// reconnects.
	Subscribe(topic string, h Handler) error
	Unsubscribe(topic string) error
	Disconnect()
}
