package metrics_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/gridsim/core/factory"
	metrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/model"
	_ "github.com/kilianp07/gridsim/infra/metrics"
)

func TestNewMetricsSinkWithoutConfigIsNop(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)
}

func TestGridSinksFromYAML(t *testing.T) {
	kpiPath := filepath.Join(t.TempDir(), "kpi.db")
	data := `sinks:
  - type: prometheus
  - type: energy
    conf:
      path: ` + kpiPath + `
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	confs := cfg.SinkConfigs()
	require.Len(t, confs, 2)
	assert.Equal(t, 56.0, confs[1].Conf["emission_factor"])

	s, err := metrics.NewMetricsSink(confs)
	require.NoError(t, err)
	multi, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	require.Len(t, multi.Sinks, 2)
	defer multi.Close()

	tick := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := []metrics.ReadingSample{
		{Reading: model.PowerReading{Source: "grid/pv1", Tick: tick, PowerKW: 1.08, Status: "generating"}, NodeType: "solarpanel", Step: time.Hour},
		{Reading: model.PowerReading{Source: "grid", Tick: tick, PowerKW: 1.08}, NodeType: "network", Aggregate: true, Root: true, Step: time.Hour},
	}
	require.NoError(t, s.RecordReadings(samples))
	require.NoError(t, multi.RecordAllocation(metrics.AllocationSample{CPO: "operator", Tick: tick, CapacityKW: 10, RequestedKW: 22, GrantedKW: 10, Throttled: 1, Stations: 2}))

	_, err = os.Stat(kpiPath)
	assert.NoError(t, err, "energy sink persists daily KPIs in sqlite")
}

func TestGridSinksUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"prometheus"},{"type":"carbon-ledger"}]}`), &cfg))
	_, err := metrics.NewMetricsSink(cfg.SinkConfigs())
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}

func TestEnergySinkRejectsBadConf(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "energy", Conf: map[string]any{"emission_factor": "lots"}}})
	assert.Error(t, err)
}
