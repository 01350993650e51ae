package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/topology"
	"github.com/kilianp07/gridsim/core/weather"
	"github.com/kilianp07/gridsim/infra/fabric"
	"github.com/kilianp07/gridsim/pkg/export"
)

// Config is a complete simulation configuration: the grid topology plus the
// sections tuning the runtime around it.
type Config struct {
	SimulationTime    topology.SimulationTimeSpec `json:"simulation_time"`
	InteractionAsset  *topology.AssetSpec         `json:"interaction_asset"`
	InteractionAssets []topology.AssetSpec        `json:"interaction_assets"`
	Network           *topology.NetworkSpec       `json:"network"`

	Runtime RuntimeConfig  `json:"runtime"`
	Fabric  fabric.Config  `json:"fabric"`
	Weather weather.Config `json:"weather"`
	Logging LoggingConfig  `json:"logging"`
	Metrics metrics.Config `json:"metrics"`
	Sentry  SentryConfig   `json:"sentry"`
	Export  export.Config  `json:"export"`
	API     APIConfig      `json:"api"`
}

// Document returns the topology part of the configuration.
func (c *Config) Document() topology.Document {
	return topology.Document{
		SimulationTime:    c.SimulationTime,
		InteractionAsset:  c.InteractionAsset,
		InteractionAssets: c.InteractionAssets,
		Network:           c.Network,
	}
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Runtime.SetDefaults()
	c.Fabric.SetDefaults()
	c.Weather.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section. The topology itself is checked by
// topology.Parse.
func (c *Config) Validate() error {
	for _, validate := range []func() error{
		c.Runtime.Validate,
		c.Fabric.Validate,
		c.Weather.Validate,
		c.Logging.Validate,
		c.Metrics.Validate,
		c.Export.Validate,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a YAML or JSON configuration file. Environment variables
// prefixed with K_ override file values, with "__" separating nested keys
// (K_FABRIC__BACKEND=nats).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
