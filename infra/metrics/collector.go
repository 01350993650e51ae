package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/gridsim/core/events"
	"github.com/kilianp07/gridsim/core/gridstatus"
	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/readings"
	"github.com/kilianp07/gridsim/infra/logger"
)

// Collector routes bus events to the observation stack. Nil fields are
// skipped.
type Collector struct {
	Sink   coremetrics.MetricsSink
	Store  readings.Store
	Status gridstatus.Store
	// Step is the simulated duration of one tick.
	Step time.Duration
	Log  logger.Logger
}

// StartEventCollector subscribes to the event bus and records every event.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus *events.Bus, c Collector) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil {
		close(done)
		return done
	}
	if c.Log == nil {
		c.Log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				c.handle(ctx, ev)
			}
		}
	}()
	return done
}

func (c Collector) handle(ctx context.Context, ev events.Event) {
	switch e := ev.(type) {
	case events.ReadingEvent:
		c.reading(ctx, e)
	case events.TickEvent:
		if r, ok := c.Sink.(coremetrics.TickRecorder); ok {
			c.check("tick", r.RecordTick(coremetrics.TickSample{Tick: e.Tick, Time: time.Now()}))
		}
	case events.DegradationEvent:
		if c.Status != nil {
			c.Status.RecordDegradation(e.Aggregator, e.Tick, e.Missing)
		}
		if r, ok := c.Sink.(coremetrics.DegradationRecorder); ok {
			c.check("degradation", r.RecordDegradation(coremetrics.DegradationSample{
				Aggregator: e.Aggregator,
				Tick:       e.Tick,
				Missing:    e.Missing,
			}))
		}
	case events.AllocationEvent:
		throttled := 0
		for _, d := range e.Decisions {
			if d.Throttled() {
				throttled++
			}
		}
		if c.Status != nil {
			c.Status.RecordAllocation(e.CPO, gridstatus.LastAllocation{
				Tick:        e.Tick,
				CapacityKW:  e.CapacityKW,
				RequestedKW: e.RequestedKW,
				GrantedKW:   e.GrantedKW,
			})
		}
		if r, ok := c.Sink.(coremetrics.AllocationRecorder); ok {
			c.check("allocation", r.RecordAllocation(coremetrics.AllocationSample{
				CPO:         e.CPO,
				Tick:        e.Tick,
				CapacityKW:  e.CapacityKW,
				RequestedKW: e.RequestedKW,
				GrantedKW:   e.GrantedKW,
				Throttled:   throttled,
				Stations:    len(e.Decisions),
			}))
		}
	case events.DeliveryFailureEvent:
		if r, ok := c.Sink.(coremetrics.DeliveryRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			c.check("delivery", r.RecordDeliveryFailure(coremetrics.DeliverySample{
				From:  e.From,
				To:    e.To,
				Topic: e.Topic,
				Error: errStr,
				Time:  time.Now(),
			}))
		}
	}
}

func (c Collector) reading(ctx context.Context, e events.ReadingEvent) {
	r := e.Reading
	if c.Status != nil {
		c.Status.Observe(r.Source, e.NodeType, e.Aggregate, r.Tick, r.PowerKW, r.Status)
	}
	if c.Store != nil {
		c.check("store", c.Store.Append(ctx, readings.Record{
			Tick:      r.Tick,
			Source:    r.Source,
			NodeType:  e.NodeType,
			PowerKW:   r.PowerKW,
			Status:    r.Status,
			Aggregate: e.Aggregate,
		}))
	}
	if c.Sink != nil {
		c.check("readings", c.Sink.RecordReadings([]coremetrics.ReadingSample{{
			Reading:   r,
			NodeType:  e.NodeType,
			Aggregate: e.Aggregate,
			Root:      e.Root,
			Step:      c.Step,
		}}))
	}
}

func (c Collector) check(what string, err error) {
	if err != nil {
		c.Log.Warnf("metrics %s: %v", what, err)
	}
}
