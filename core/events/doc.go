// Package events defines the observation events agents publish on the event
// bus while a simulation runs.
//
// Available event types:
//   - TickEvent: the clock emitted a tick
//   - ReadingEvent: an agent reported its power for a tick
//   - DegradationEvent: an aggregator flushed with silent children
//   - AllocationEvent: a CPO resolved the demand of a tick
//   - DeliveryFailureEvent: a message could not be handed to the fabric
//   - ClockStoppedEvent: the final tick was emitted
package events

import "github.com/kilianp07/gridsim/internal/eventbus"

// Event is implemented by every event type.
type Event interface {
	Kind() string
}

// Bus carries simulation events.
type Bus = eventbus.TypedBus[Event]

// NewBus returns a bus with the given per-subscriber buffer.
func NewBus(buffer int) *Bus {
	return eventbus.NewTyped[Event](eventbus.WithBuffer(buffer))
}
