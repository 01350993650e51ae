package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/core/readings"
	"github.com/kilianp07/gridsim/core/topology"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

const yamlConfig = `simulation_time:
  rate: 60
  simulation_start_date: "2024-06-01T00:00:00Z"
  simulation_end_date: "2024-06-01T01:00:00Z"
network:
  name: root
  children:
    - asset:
        name: pv
        type: solarpanel
        args:
          peak_power_kw: 5
runtime:
  tick_interval: 50ms
  aggregation_window: 10ms
  seed: 7
fabric:
  backend: mqtt
  domain: test
  mqtt:
    broker: "tcp://localhost:1883"
    client_id: "cli"
    username: "user"
    password: "pass"
weather:
  source: synthetic
  latitude: 48.8
logging:
  backend: sqlite
metrics:
  sinks:
    - type: "nop"
  prometheus_port: ":2112"
sentry:
  dsn: "https://key@sentry.example/1"
export:
  csv_path: out.csv
api:
  addr: ":8080"
`

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", yamlConfig))
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"rate", cfg.SimulationTime.Rate, 60.0},
		{"network", cfg.Network.Name, "root"},
		{"asset", cfg.Network.Children[0].Asset.Type, "solarpanel"},
		{"tick_interval", cfg.Runtime.TickInterval, 50 * time.Millisecond},
		{"aggregation_window", cfg.Runtime.AggregationWindow, 10 * time.Millisecond},
		{"seed", cfg.Runtime.Seed, int64(7)},
		{"event_buffer", cfg.Runtime.EventBuffer, 4096},
		{"fabric.backend", cfg.Fabric.Backend, "mqtt"},
		{"fabric.domain", cfg.Fabric.Domain, "test"},
		{"broker", cfg.Fabric.MQTT.Broker, "tcp://localhost:1883"},
		{"username", cfg.Fabric.MQTT.Username, "user"},
		{"latitude", cfg.Weather.Latitude, 48.8},
		{"logging.backend", cfg.Logging.Backend, readings.BackendSQLite},
		{"logging.path", cfg.Logging.Path, "readings.db"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
		{"sentry", cfg.Sentry.DSN, "https://key@sentry.example/1"},
		{"export", cfg.Export.CSVPath, "out.csv"},
		{"api", cfg.API.Addr, ":8080"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	tree, err := topology.Parse(cfg.Document(), nil)
	require.NoError(t, err)
	assert.Equal(t, "root", tree.Root.Address)
}

func TestLoadJSONDefaults(t *testing.T) {
	data := `{
  "simulation_time": {"rate": 1, "simulation_start_date": "2024-01-01", "simulation_end_date": "2024-01-02"},
  "interaction_asset": {"name": "cpo", "type": "cpo", "max_power_kw": 20}
}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Runtime.TickInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.Runtime.AggregationWindow)
	assert.Equal(t, "memory", cfg.Fabric.Backend)
	assert.Equal(t, "gridsim", cfg.Fabric.Domain)
	assert.Equal(t, "synthetic", cfg.Weather.Source)
	assert.Equal(t, readings.BackendNone, cfg.Logging.Backend)
	assert.Equal(t, 56.0, cfg.Metrics.EmissionFactor)
	assert.Equal(t, "cpo", cfg.Document().InteractionAsset.Name)

	settings := cfg.Runtime.Settings()
	assert.Equal(t, cfg.Runtime.TickInterval, settings.TickInterval)
	assert.Equal(t, cfg.Runtime.AggregationWindow, settings.AggregationWindow)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_FABRIC__BACKEND", "nats")
	t.Setenv("K_FABRIC__DOMAIN", "fromenv")
	cfg, err := Load(writeConfig(t, "config.yaml", yamlConfig))
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.Fabric.Backend)
	assert.Equal(t, "fromenv", cfg.Fabric.Domain)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		data string
	}{
		{"extension", "config.toml", "a = 1"},
		{"syntax", "config.yaml", "runtime: [oops"},
		{"fabric", "config.yaml", "fabric:\n  backend: carrier-pigeon\n"},
		{"logging", "config.yaml", "logging:\n  backend: postgres\n"},
		{"weather", "config.yaml", "weather:\n  source: csv\n"},
		{"runtime", "config.yaml", "runtime:\n  admission_window: -1s\n"},
		{"export", "config.yaml", "export:\n  chart_path: chart.png\n"},
		{"metrics", "config.yaml", "metrics:\n  sinks:\n    - config: {}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.file, tc.data))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoggingOptions(t *testing.T) {
	c := LoggingConfig{Backend: readings.BackendJSONL, MaxSizeMB: 5, MaxBackups: 2}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	o := c.Options()
	assert.Equal(t, "readings.jsonl", o.Path)
	assert.Equal(t, 5, o.MaxSizeMB)
	assert.Equal(t, 2, o.MaxBackups)
}
