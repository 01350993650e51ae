package fabric

import (
	"fmt"

	"github.com/nats-io/nats.go"

	corefabric "github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/infra/mqtt"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendMQTT   = "mqtt"
	BackendNATS   = "nats"
)

// Config selects and configures the message fabric.
type Config struct {
	Backend     string      `json:"backend"`
	Domain      string      `json:"domain"`
	MailboxSize int         `json:"mailbox_size"`
	MQTT        mqtt.Config `json:"mqtt"`
	NATS        NATSConfig  `json:"nats"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Domain == "" {
		c.Domain = "gridsim"
	}
	if c.MailboxSize <= 0 {
		c.MailboxSize = corefabric.DefaultMailboxSize
	}
	if c.NATS.URL == "" {
		c.NATS.URL = nats.DefaultURL
	}
	if c.NATS.Name == "" {
		c.NATS.Name = c.Domain
	}
}

// Validate checks the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNATS:
	case BackendMQTT:
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown fabric backend %s", c.Backend)
	}
	if c.Domain == "" {
		return fmt.Errorf("fabric domain is required")
	}
	return nil
}

// New builds the fabric selected by cfg.
func New(cfg Config) (corefabric.Fabric, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return corefabric.NewMemory(cfg.MailboxSize), nil
	case BackendMQTT:
		cli, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connect mqtt: %w", err)
		}
		return NewMQTT(cli, cfg.Domain, cfg.MailboxSize), nil
	case BackendNATS:
		f, err := DialNATS(cfg.NATS, cfg.Domain, cfg.MailboxSize)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fabric backend %s", cfg.Backend)
	}
}
