package events

import (
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

// TickEvent is published by the clock for every tick it broadcasts.
type TickEvent struct {
	Tick model.Tick
}

func (TickEvent) Kind() string { return "tick" }

// ReadingEvent is published whenever an agent reports a reading. Aggregate
// is true for network nodes; Root marks the grid aggregate.
type ReadingEvent struct {
	Reading   model.PowerReading
	NodeType  string
	Aggregate bool
	Root      bool
}

func (ReadingEvent) Kind() string { return "reading" }

// DegradationEvent records an aggregation round that flushed on its deadline.
type DegradationEvent struct {
	Aggregator string
	Tick       time.Time
	Missing    []string
}

func (DegradationEvent) Kind() string { return "degradation" }

// AllocationEvent summarises one admission round of a CPO.
type AllocationEvent struct {
	CPO         string
	Tick        time.Time
	CapacityKW  float64
	RequestedKW float64
	GrantedKW   float64
	Decisions   []model.AllocationDecision
}

func (AllocationEvent) Kind() string { return "allocation" }

// DeliveryFailureEvent is published when a send fails.
type DeliveryFailureEvent struct {
	From  string
	To    string
	Topic string
	Err   error
}

func (DeliveryFailureEvent) Kind() string { return "delivery_failure" }

// ClockStoppedEvent is published once the clock has emitted its final tick.
type ClockStoppedEvent struct {
	Ticks int
	At    time.Time
}

func (ClockStoppedEvent) Kind() string { return "clock_stopped" }
