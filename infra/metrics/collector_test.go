package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/gridstatus"
	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/readings"
)

type captureSink struct {
	mu       sync.Mutex
	readings []coremetrics.ReadingSample
	allocs   []coremetrics.AllocationSample
	failures []coremetrics.DeliverySample
	ticks    int
}

func (c *captureSink) RecordReadings(s []coremetrics.ReadingSample) error {
	c.mu.Lock()
	c.readings = append(c.readings, s...)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RecordAllocation(ev coremetrics.AllocationSample) error {
	c.mu.Lock()
	c.allocs = append(c.allocs, ev)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RecordDeliveryFailure(ev coremetrics.DeliverySample) error {
	c.mu.Lock()
	c.failures = append(c.failures, ev)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) RecordTick(coremetrics.TickSample) error {
	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := events.NewBus(64)
	sink := &captureSink{}
	store := readings.NopStore{}
	status := gridstatus.NewMemoryStore()
	done := StartEventCollector(context.Background(), bus, Collector{
		Sink:   sink,
		Store:  store,
		Status: status,
		Step:   time.Hour,
	})

	tick := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bus.Publish(events.TickEvent{Tick: model.Tick{Seq: 1, Timestamp: tick}})
	bus.Publish(events.ReadingEvent{
		Reading:  model.PowerReading{Source: "grid/pv1", Tick: tick, PowerKW: 2, Status: "generating"},
		NodeType: "solarpanel",
	})
	bus.Publish(events.DegradationEvent{Aggregator: "grid", Tick: tick, Missing: []string{"grid/pv2"}})
	bus.Publish(events.AllocationEvent{
		CPO: "cpo", Tick: tick, CapacityKW: 10, RequestedKW: 20, GrantedKW: 10,
		Decisions: []model.AllocationDecision{
			{Station: "a", GrantedKW: 10, RequestedKW: 10},
			{Station: "b", GrantedKW: 0, RequestedKW: 10},
		},
	})
	bus.Publish(events.DeliveryFailureEvent{From: "grid/pv1", To: "grid", Topic: "power_update", Err: errors.New("full")})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	assert.Equal(t, 1, sink.ticks)
	require.Len(t, sink.readings, 1)
	assert.Equal(t, time.Hour, sink.readings[0].Step)
	require.Len(t, sink.allocs, 1)
	assert.Equal(t, 1, sink.allocs[0].Throttled)
	assert.Equal(t, 2, sink.allocs[0].Stations)
	require.Len(t, sink.failures, 1)
	assert.Equal(t, "full", sink.failures[0].Error)

	st, ok := status.Get("grid/pv1")
	require.True(t, ok)
	assert.Equal(t, 2.0, st.PowerKW)
	grid, ok := status.Get("grid")
	require.True(t, ok)
	assert.Equal(t, []string{"grid/pv2"}, grid.Missing)
	cpo, ok := status.Get("cpo")
	require.True(t, ok)
	require.NotNil(t, cpo.Admission)
	assert.Equal(t, 10.0, cpo.Admission.GrantedKW)
}

func TestStartEventCollector_NilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, Collector{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}

func TestStartEventCollector_Cancel(t *testing.T) {
	bus := events.NewBus(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, Collector{})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
