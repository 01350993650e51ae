package cpo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/core/agent"
	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/fabric"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/topology"
)

type cpoFixture struct {
	fab      *fabric.Memory
	cpo      *CPO
	bus      *events.Bus
	stations map[string]fabric.Endpoint
}

func newCPOFixture(t *testing.T, params map[string]any, window time.Duration, stations ...string) *cpoFixture {
	t.Helper()
	fab := fabric.NewMemory(64)
	t.Cleanup(func() { fab.Close() })
	f := &cpoFixture{fab: fab, bus: events.NewBus(16), stations: map[string]fabric.Endpoint{}}
	for _, s := range stations {
		ep, err := fab.Connect(s)
		require.NoError(t, err)
		f.stations[s] = ep
	}
	node := &topology.Node{Name: "cpo", Address: "cpo", Type: Type, Kind: topology.KindAsset, Interaction: true, Params: params}
	a, err := New(agent.Spec{Node: node, Deps: agent.Deps{Fabric: fab, Events: f.bus, Settings: agent.Settings{AdmissionWindow: window}}})
	require.NoError(t, err)
	f.cpo = a.(*CPO)
	return f
}

func (f *cpoFixture) send(t *testing.T, from, topic string, body any) {
	t.Helper()
	m, err := fabric.NewMessage(from, "cpo", topic, body)
	require.NoError(t, err)
	require.NoError(t, f.fab.Send(context.Background(), m))
}

func (f *cpoFixture) start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = f.cpo.run(ctx) }()
}

func (f *cpoFixture) decision(t *testing.T, station string) model.AllocationDecision {
	t.Helper()
	select {
	case m := <-f.stations[station].Inbox():
		d, err := fabric.Decode[model.AllocationDecision](m)
		require.NoError(t, err)
		return d
	case <-time.After(time.Second):
		t.Fatalf("no decision for %s", station)
		return model.AllocationDecision{}
	}
}

func TestCPOGrantsInRegistrationOrder(t *testing.T) {
	f := newCPOFixture(t, map[string]any{"max_power_kw": 20.0}, time.Second, "a", "b", "c")
	for _, s := range []string{"a", "b", "c"} {
		f.send(t, s, fabric.TopicRegisterStation, model.StationRegistration{Station: s, MaxPowerKW: 11})
	}
	// requests arrive in a different order than registrations
	for s, kw := range map[string]float64{"c": 8, "a": 10, "b": 8} {
		f.send(t, s, fabric.TopicDemandRequest, model.DemandRequest{Station: s, Tick: tick, RequestedKW: kw})
	}
	f.start(t)

	assert.Equal(t, 10.0, f.decision(t, "a").GrantedKW)
	assert.Equal(t, 8.0, f.decision(t, "b").GrantedKW)
	d := f.decision(t, "c")
	assert.Equal(t, 2.0, d.GrantedKW)
	assert.True(t, d.Tick.Equal(tick))
	assert.Equal(t, []string{"a", "b", "c"}, f.cpo.Stations())
}

func TestCPOResolvesOnWindowExpiry(t *testing.T) {
	f := newCPOFixture(t, map[string]any{"capacity_kw": 5.0, "max_power_kw": 50.0}, 20*time.Millisecond, "a", "b")
	sub := f.bus.Subscribe()
	f.send(t, "a", fabric.TopicRegisterStation, model.StationRegistration{Station: "a"})
	f.send(t, "b", fabric.TopicRegisterStation, model.StationRegistration{Station: "b"})
	f.send(t, "a", fabric.TopicDemandRequest, model.DemandRequest{Station: "a", Tick: tick, RequestedKW: 11})
	f.start(t)

	d := f.decision(t, "a")
	assert.Equal(t, 5.0, d.GrantedKW)
	assert.True(t, d.Throttled())

	ev := (<-sub).(events.AllocationEvent)
	assert.Equal(t, 5.0, ev.CapacityKW)
	assert.Equal(t, 11.0, ev.RequestedKW)
	assert.Equal(t, 5.0, ev.GrantedKW)

	// a request for a resolved tick is dropped
	f.send(t, "b", fabric.TopicDemandRequest, model.DemandRequest{Station: "b", Tick: tick, RequestedKW: 1})
	select {
	case m := <-f.stations["b"].Inbox():
		t.Fatalf("unexpected decision %s", m.Body)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestCPOUnregisteredStationJoins(t *testing.T) {
	f := newCPOFixture(t, map[string]any{"max_power_kw": 3.0}, time.Second, "x")
	f.send(t, "x", fabric.TopicDemandRequest, model.DemandRequest{Station: "x", Tick: tick, RequestedKW: 4})
	f.start(t)
	assert.Equal(t, 3.0, f.decision(t, "x").GrantedKW)
}

func TestConfigCapacity(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	c, err := Config{CapacityKW: v(1), MaxPowerKW: v(2), NetworkMaxPowerKW: v(3)}.Capacity()
	require.NoError(t, err)
	assert.Equal(t, 1.0, c)
	c, _ = Config{MaxPowerKW: v(2), NetworkMaxPowerKW: v(3)}.Capacity()
	assert.Equal(t, 2.0, c)
	c, _ = Config{NetworkMaxPowerKW: v(3)}.Capacity()
	assert.Equal(t, 3.0, c)
	_, err = Config{}.Capacity()
	assert.Error(t, err)
}

func TestNewWithoutCapacity(t *testing.T) {
	fab := fabric.NewMemory(1)
	defer fab.Close()
	node := &topology.Node{Name: "cpo", Address: "cpo", Type: Type, Kind: topology.KindAsset, Params: map[string]any{}}
	_, err := New(agent.Spec{Node: node, Deps: agent.Deps{Fabric: fab}})
	var cerr *topology.ConfigError
	assert.ErrorAs(t, err, &cerr)
}
