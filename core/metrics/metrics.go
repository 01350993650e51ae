package metrics

import (
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

// ReadingSample is one reported reading together with its node metadata.
type ReadingSample struct {
	Reading   model.PowerReading
	NodeType  string
	Aggregate bool
	Root      bool
	// Step is the simulated duration covered by the reading.
	Step time.Duration
}

// EnergyKWh returns the energy of the reading over its step.
func (s ReadingSample) EnergyKWh() float64 {
	return s.Reading.PowerKW * s.Step.Hours()
}

// MetricsSink records power readings for observability purposes.
type MetricsSink interface {
	RecordReadings(samples []ReadingSample) error
}

// TickSample captures one clock tick.
type TickSample struct {
	Tick model.Tick
	Time time.Time
}

// TickRecorder records clock ticks.
type TickRecorder interface {
	RecordTick(ev TickSample) error
}

// DegradationSample captures an aggregation round flushed on its deadline.
type DegradationSample struct {
	Aggregator string
	Tick       time.Time
	Missing    []string
}

// DegradationRecorder records degraded aggregation rounds.
type DegradationRecorder interface {
	RecordDegradation(ev DegradationSample) error
}

// AllocationSample summarises one CPO admission round.
type AllocationSample struct {
	CPO         string
	Tick        time.Time
	CapacityKW  float64
	RequestedKW float64
	GrantedKW   float64
	Throttled   int
	Stations    int
}

// AllocationRecorder records CPO admission rounds.
type AllocationRecorder interface {
	RecordAllocation(ev AllocationSample) error
}

// DeliverySample captures a failed send.
type DeliverySample struct {
	From  string
	To    string
	Topic string
	Error string
	Time  time.Time
}

// DeliveryRecorder records delivery failures.
type DeliveryRecorder interface {
	RecordDeliveryFailure(ev DeliverySample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordReadings([]ReadingSample) error       { return nil }
func (NopSink) RecordTick(TickSample) error                { return nil }
func (NopSink) RecordDegradation(DegradationSample) error  { return nil }
func (NopSink) RecordAllocation(AllocationSample) error    { return nil }
func (NopSink) RecordDeliveryFailure(DeliverySample) error { return nil }
