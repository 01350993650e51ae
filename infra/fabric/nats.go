package fabric

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	corefabric "github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/infra/logger"
)

type subscription interface {
	Unsubscribe() error
}

type natsConn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb func(subj string, data []byte)) (subscription, error)
	FlushTimeout(d time.Duration) error
	Drain() error
}

type natsAdapter struct{ nc *nats.Conn }

func (a natsAdapter) Publish(subj string, data []byte) error { return a.nc.Publish(subj, data) }

func (a natsAdapter) Subscribe(subj string, cb func(string, []byte)) (subscription, error) {
	return a.nc.Subscribe(subj, func(m *nats.Msg) { cb(m.Subject, m.Data) })
}

func (a natsAdapter) FlushTimeout(d time.Duration) error { return a.nc.FlushTimeout(d) }
func (a natsAdapter) Drain() error                       { return a.nc.Drain() }

// NATSConfig defines the connection parameters of the NATS transport.
type NATSConfig struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	Token         string `json:"token"`
	MaxReconnects int    `json:"max_reconnects"`
	TimeoutMS     int    `json:"timeout_ms"`
}

var natsConnect = func(cfg NATSConfig) (natsConn, error) {
	opts := []nats.Option{nats.Name(cfg.Name), nats.MaxReconnects(cfg.MaxReconnects)}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.TimeoutMS > 0 {
		opts = append(opts, nats.Timeout(time.Duration(cfg.TimeoutMS)*time.Millisecond))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	return natsAdapter{nc: nc}, nil
}

// NATS is a Fabric carried by a NATS server.
type NATS struct {
	conn   natsConn
	domain string
	size   int
	log    logger.Logger
	reg    *registry
}

// DialNATS connects to the server described by cfg.
func DialNATS(cfg NATSConfig, domain string, size int) (*NATS, error) {
	conn, err := natsConnect(cfg)
	if err != nil {
		return nil, err
	}
	return newNATS(conn, domain, size), nil
}

func newNATS(conn natsConn, domain string, size int) *NATS {
	if size <= 0 {
		size = corefabric.DefaultMailboxSize
	}
	return &NATS{conn: conn, domain: domain, size: size, log: logger.New("fabric_nats"), reg: newRegistry()}
}

// Subject returns the NATS subject of an agent address.
func (f *NATS) Subject(address string) string {
	return f.domain + ".agents." + strings.ReplaceAll(address, "/", ".")
}

// Connect subscribes to the subject of address. The subscription is flushed
// so messages sent right after Connect returns are not lost.
func (f *NATS) Connect(address string) (corefabric.Endpoint, error) {
	return f.ConnectSize(address, f.size)
}

// ConnectSize is Connect with an inbox of at least size messages.
func (f *NATS) ConnectSize(address string, size int) (corefabric.Endpoint, error) {
	ep := newEndpoint(address, max(size, f.size), f.log)
	if err := f.reg.add(ep); err != nil {
		return nil, err
	}
	subj := f.Subject(address)
	sub, err := f.conn.Subscribe(subj, func(_ string, data []byte) { ep.receive(data) })
	if err != nil {
		f.reg.remove(address)
		return nil, err
	}
	if err := f.conn.FlushTimeout(2 * time.Second); err != nil {
		f.log.Warnf("flush after subscribing %s: %v", subj, err)
	}
	ep.release = func() {
		f.reg.remove(address)
		if err := sub.Unsubscribe(); err != nil {
			f.log.Warnf("unsubscribe %s: %v", subj, err)
		}
	}
	return ep, nil
}

// Send publishes m on the subject of its recipient.
func (f *NATS) Send(ctx context.Context, m corefabric.Message) error {
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
	if err := f.conn.Publish(f.Subject(m.To), payload); err != nil {
		return deliveryErr(m, err)
	}
	return nil
}

// Close closes every endpoint and drains the connection.
func (f *NATS) Close() error {
	eps := f.reg.closeAll()
	if eps == nil {
		return nil
	}
	for _, ep := range eps {
		ep.Close()
	}
	return f.conn.Drain()
}
