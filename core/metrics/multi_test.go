package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/gridsim/core/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordReadings([]ReadingSample) error {
	r.count++
	return nil
}

func (r *recordSink) RecordAllocation(AllocationSample) error {
	r.count++
	return nil
}

type failingSink struct{}

func (failingSink) RecordReadings([]ReadingSample) error { return errors.New("boom") }

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	require.NoError(t, m.RecordReadings(nil))
	require.NoError(t, m.RecordAllocation(AllocationSample{}))
	require.NoError(t, m.RecordTick(TickSample{}))
	assert.Equal(t, 2, s1.count)
	assert.Equal(t, 2, s2.count)
}

func TestMultiSink_FirstError(t *testing.T) {
	s := &recordSink{}
	m := NewMultiSink(failingSink{}, s)
	assert.Error(t, m.RecordReadings(nil))
	assert.Equal(t, 0, s.count)
}

func TestReadingSample_EnergyKWh(t *testing.T) {
	s := ReadingSample{Step: 30 * 60 * 1e9}
	s.Reading.PowerKW = 4
	assert.InDelta(t, 2.0, s.EnergyKWh(), 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	c := Config{}
	c.SetDefaults()
	assert.Equal(t, 56.0, c.EmissionFactor)
	require.NoError(t, c.Validate())
	c.Sinks = append(c.Sinks, factoryConfig(""))
	assert.Error(t, c.Validate())
}

func factoryConfig(typ string) factory.ModuleConfig { return factory.ModuleConfig{Type: typ} }

type closingSink struct {
	NopSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	a, b := &closingSink{}, &closingSink{}
	m := NewMultiSink(a, NopSink{}, b)
	m.Close()
	if !a.closed || !b.closed {
		t.Fatalf("sinks not closed: %v %v", a.closed, b.closed)
	}
}
