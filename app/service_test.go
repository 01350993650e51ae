package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/config"
	corefabric "github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/network"
	"github.com/kilianp07/gridsim/core/readings"
	"github.com/kilianp07/gridsim/core/topology"
)

func ptr(v float64) *float64 { return &v }

func panels(n int) []topology.ChildSpec {
	out := make([]topology.ChildSpec, n)
	for i := range out {
		out[i] = topology.ChildSpec{Asset: &topology.AssetSpec{
			Name:       fmt.Sprintf("pv%d", i+1),
			Type:       "solarpanel",
			MaxPowerKW: ptr(0.3),
			Factor:     ptr(3.6),
		}}
	}
	return out
}

func baseConfig(children []topology.ChildSpec) *config.Config {
	cfg := &config.Config{
		SimulationTime: topology.SimulationTimeSpec{
			Rate:  3600,
			Start: "2024-06-01T08:00:00Z",
			End:   "2024-06-01T12:00:00Z",
		},
		Network: &topology.NetworkSpec{Name: "grid", Children: children},
		Runtime: config.RuntimeConfig{
			TickInterval:      60 * time.Millisecond,
			AggregationWindow: 20 * time.Millisecond,
			Seed:              1,
		},
	}
	cfg.SetDefaults()
	return cfg
}

func run(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	require.NoError(t, cfg.Validate())
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = svc.Run(ctx)
	require.NoError(t, err)
	return svc
}

func TestFourPanelsProduceFourTimesOne(t *testing.T) {
	one := run(t, baseConfig(panels(1))).History()
	four := run(t, baseConfig(panels(4))).History()
	require.Len(t, one, 4)
	require.Len(t, four, 4)

	for i := range one {
		require.Equal(t, one[i].Tick, four[i].Tick)
		require.Equal(t, network.StatusComplete, one[i].Status, "tick %s", one[i].Tick)
		require.Equal(t, network.StatusComplete, four[i].Status, "tick %s", four[i].Tick)
		assert.Greater(t, one[i].PowerKW, 0.0, "tick %s", one[i].Tick)
		assert.Equal(t, 4*one[i].PowerKW, four[i].PowerKW, "tick %s", one[i].Tick)
	}
}

func TestRunWithMoreNodesThanMailboxSize(t *testing.T) {
	n := corefabric.DefaultMailboxSize + 76
	cfg := baseConfig(panels(n))
	cfg.Runtime.TickInterval = 200 * time.Millisecond
	cfg.Runtime.AggregationWindow = 100 * time.Millisecond

	svc := run(t, cfg)

	assert.Len(t, svc.clock.Subscribers(), n+2)
	history := svc.History()
	require.Len(t, history, 4)
	for _, r := range history {
		assert.Greater(t, r.PowerKW, 0.0, "tick %s", r.Tick)
	}
}

func TestRunRecordsObservations(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(panels(2))
	cfg.Logging = config.LoggingConfig{Backend: readings.BackendJSONL, Path: filepath.Join(dir, "readings.jsonl")}
	cfg.Export.CSVPath = filepath.Join(dir, "grid.csv")
	cfg.Export.JSONPath = filepath.Join(dir, "grid.json")

	svc := run(t, cfg)

	assert.Equal(t, "grid", svc.Root())
	assert.Equal(t, time.Hour, svc.Step())
	assert.Equal(t, 40*time.Millisecond, svc.DrainGrace())

	st, ok := svc.Status().Get("grid/pv1")
	require.True(t, ok)
	assert.Equal(t, "solarpanel", st.Type)
	assert.Greater(t, st.Readings, 0)

	root, ok := svc.Status().Get("grid")
	require.True(t, ok)
	assert.True(t, root.Aggregate)

	recs, err := svc.store.Query(context.Background(), readings.Query{Source: "grid", Aggregates: true})
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	for _, p := range []string{cfg.Export.CSVPath, cfg.Export.JSONPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSmartChargingStaysUnderCapacity(t *testing.T) {
	start, duration := 0, 24
	station := func(name string) topology.ChildSpec {
		return topology.ChildSpec{Asset: &topology.AssetSpec{
			Name:       name,
			Type:       "chargingstation",
			MaxPowerKW: ptr(11),
			Args: map[string]any{
				"smart":          true,
				"cpo":            "operator",
				"start_hour":     start,
				"duration_hours": duration,
			},
		}}
	}
	cfg := baseConfig([]topology.ChildSpec{station("cs1"), station("cs2")})
	cfg.InteractionAsset = &topology.AssetSpec{Name: "operator", Type: "cpo", Args: map[string]any{"capacity_kw": 10.0}}

	svc := run(t, cfg)

	history := svc.History()
	require.NotEmpty(t, history)
	for _, r := range history {
		assert.LessOrEqual(t, r.PowerKW, 0.0)
		assert.GreaterOrEqual(t, r.PowerKW, -10.0-1e-6, "tick %s", r.Tick)
	}

	cpo, ok := svc.Status().Get("operator")
	require.True(t, ok)
	require.NotNil(t, cpo.Admission)
	assert.Equal(t, 10.0, cpo.Admission.CapacityKW)
	assert.GreaterOrEqual(t, cpo.Admission.RequestedKW, 11.0)
	assert.LessOrEqual(t, cpo.Admission.GrantedKW, 10.0+1e-9)
}

func TestNewRejectsUnknownType(t *testing.T) {
	cfg := baseConfig([]topology.ChildSpec{{Asset: &topology.AssetSpec{Name: "x", Type: "fusion"}}})
	_, err := New(cfg)
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := baseConfig(panels(1))
	cfg.Runtime.TickInterval = time.Hour
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sum, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Ticks)
}
