package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/metrics/energy"
)

func TestEnergySink_Daily(t *testing.T) {
	store := energy.NewMemoryStore()
	s, err := NewEnergySink(store, 50, prometheus.NewRegistry())
	require.NoError(t, err)

	pv := sample("grid/pv1", "solarpanel", 3, "generating")
	pv2 := pv
	pv2.Reading.Tick = pv.Reading.Tick.Add(time.Hour)
	ev := sample("grid/ev1", "chargingstation", -11, "charging")
	require.NoError(t, s.RecordReadings([]coremetrics.ReadingSample{pv, pv2, ev}))

	recs, err := store.Query("grid/pv1", pv.Reading.Tick, pv.Reading.Tick)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 6.0, recs[0].GeneratedKWh, 1e-9)

	assert.InDelta(t, 6.0, testutil.ToFloat64(s.generated.WithLabelValues("grid/pv1", "2024-06-01")), 1e-9)
	assert.InDelta(t, 300.0, testutil.ToFloat64(s.co2.WithLabelValues("grid/pv1", "2024-06-01")), 1e-9)
	assert.InDelta(t, 11.0, testutil.ToFloat64(s.consumed.WithLabelValues("grid/ev1", "2024-06-01")), 1e-9)
}

func TestEnergySink_SkipsZeroStep(t *testing.T) {
	store := energy.NewMemoryStore()
	s, err := NewEnergySink(store, 50, prometheus.NewRegistry())
	require.NoError(t, err)
	r := sample("grid/pv1", "solarpanel", 3, "generating")
	r.Step = 0
	require.NoError(t, s.RecordReadings([]coremetrics.ReadingSample{r}))
	recs, _ := store.Query("grid/pv1", r.Reading.Tick, r.Reading.Tick)
	assert.Empty(t, recs)
}
