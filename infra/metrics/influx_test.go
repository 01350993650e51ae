package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/gridsim/core/metrics"
)

func lineServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func lines(points ...*write.Point) string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	}
	return strings.Join(out, "\n")
}

func TestInfluxSink_RecordReadings(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	a := sample("grid/pv1", "solarpanel", 3.14159, "generating")
	b := sample("grid", "network", 3.14159, "")
	b.Aggregate = true
	require.NoError(t, sink.RecordReadings([]coremetrics.ReadingSample{a, b}))

	p1 := write.NewPointWithMeasurement("power_reading").
		AddTag("address", "grid/pv1").
		AddTag("node_type", "solarpanel").
		AddTag("aggregate", "false").
		AddTag("status", "generating").
		AddField("power_kw", 3.142).
		SetTime(a.Reading.Tick)
	p2 := write.NewPointWithMeasurement("power_reading").
		AddTag("address", "grid").
		AddTag("node_type", "network").
		AddTag("aggregate", "true").
		AddField("power_kw", 3.142).
		SetTime(b.Reading.Tick)
	got := bodies()
	require.Len(t, got, 1)
	assert.Equal(t, lines(p1, p2), got[0])
}

func TestInfluxSink_RecordReadingsEmpty(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	require.NoError(t, sink.RecordReadings(nil))
	assert.Empty(t, bodies())
}

func TestInfluxSink_RecordAllocation(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	ev := coremetrics.AllocationSample{CPO: "cpo", Tick: now, CapacityKW: 10, RequestedKW: 36, GrantedKW: 10, Throttled: 2, Stations: 4}
	require.NoError(t, sink.RecordAllocation(ev))
	p := write.NewPointWithMeasurement("cpo_allocation").
		AddTag("cpo", "cpo").
		AddField("capacity_kw", 10.0).
		AddField("requested_kw", 36.0).
		AddField("granted_kw", 10.0).
		AddField("throttled", 2).
		AddField("stations", 4).
		SetTime(now)
	got := bodies()
	require.Len(t, got, 1)
	assert.Equal(t, lines(p), got[0])
}

func TestInfluxSink_RecordDegradation(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordDegradation(coremetrics.DegradationSample{Aggregator: "grid", Tick: now, Missing: []string{"grid/a", "grid/b"}}))
	p := write.NewPointWithMeasurement("aggregation_degraded").
		AddTag("aggregator", "grid").
		AddField("missing", 2).
		AddField("children", "grid/a,grid/b").
		SetTime(now)
	got := bodies()
	require.Len(t, got, 1)
	assert.Equal(t, lines(p), got[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
