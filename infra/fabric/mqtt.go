package fabric

import (
	"context"
	"encoding/json"

	corefabric "github.com/kilianp07/gridsim/core/fabric"
	coremqtt "github.com/kilianp07/gridsim/core/mqtt"
	"github.com/kilianp07/gridsim/infra/logger"
)

// MQTT is a Fabric carried by an MQTT broker. It owns the client and
// disconnects it on Close.
type MQTT struct {
	cli    coremqtt.Client
	domain string
	size   int
	log    logger.Logger
	reg    *registry
}

// NewMQTT returns a fabric publishing under domain. size is the inbox
// capacity of every endpoint.
func NewMQTT(cli coremqtt.Client, domain string, size int) *MQTT {
	if size <= 0 {
		size = corefabric.DefaultMailboxSize
	}
	return &MQTT{cli: cli, domain: domain, size: size, log: logger.New("fabric_mqtt"), reg: newRegistry()}
}

// Topic returns the broker topic of an agent address.
func (f *MQTT) Topic(address string) string {
	return f.domain + "/agents/" + address
}

// Connect subscribes to the topic of address.
func (f *MQTT) Connect(address string) (corefabric.Endpoint, error) {
	return f.ConnectSize(address, f.size)
}

// ConnectSize is Connect with an inbox of at least size messages.
func (f *MQTT) ConnectSize(address string, size int) (corefabric.Endpoint, error) {
	ep := newEndpoint(address, max(size, f.size), f.log)
	if err := f.reg.add(ep); err != nil {
		return nil, err
	}
	topic := f.Topic(address)
	if err := f.cli.Subscribe(topic, func(_ string, payload []byte) { ep.receive(payload) }); err != nil {
		f.reg.remove(address)
		return nil, err
	}
	ep.release = func() {
		f.reg.remove(address)
		if err := f.cli.Unsubscribe(topic); err != nil {
			f.log.Warnf("unsubscribe %s: %v", topic, err)
		}
	}
	return ep, nil
}

// Send publishes m on the topic of its recipient.
func (f *MQTT) Send(ctx context.Context, m corefabric.Message) error {
	if err := ctx.Err(); err != nil {
		return deliveryErr(m, err)
	}
	if f.reg.isClosed() {
		return deliveryErr(m, corefabric.ErrClosed)
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return deliveryErr(m, err)
	}
	if err := f.cli.Publish(ctx, f.Topic(m.To), payload); err != nil {
		return deliveryErr(m, err)
	}
	return nil
}

// Close closes every endpoint and disconnects the client.
func (f *MQTT) Close() error {
	eps := f.reg.closeAll()
	if eps == nil {
		return nil
	}
	for _, ep := range eps {
		ep.Close()
	}
	f.cli.Disconnect()
	return nil
}
