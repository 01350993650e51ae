// Package ecokpi rebuilds daily energy KPIs from a persisted reading log.
package ecokpi

import (
	"time"

	"github.com/kilianp07/gridsim/core/metrics/energy"
	"github.com/kilianp07/gridsim/core/readings"
)

// Backfill processes historical leaf readings and populates the store. step
// is the simulated duration of one tick. Aggregate readings are skipped so
// energy is not counted twice.
func Backfill(store energy.Store, history []readings.Record, step time.Duration) error {
	for _, h := range history {
		if h.Aggregate {
			continue
		}
		kwh := h.PowerKW * step.Hours()
		rec := energy.Record{Address: h.Source, Date: energy.Day(h.Tick)}
		if kwh >= 0 {
			rec.GeneratedKWh = kwh
		} else {
			rec.ConsumedKWh = -kwh
		}
		if err := store.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
