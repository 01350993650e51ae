// Package energy aggregates per-node energy KPIs by simulated day.
package energy

import "time"

// Record aggregates energy metrics for a node and day.
type Record struct {
	Address      string
	Date         time.Time
	GeneratedKWh float64
	ConsumedKWh  float64
}

// NetKWh is generation minus consumption.
func (r Record) NetKWh() float64 { return r.GeneratedKWh - r.ConsumedKWh }

// CO2Avoided returns the grams of CO2 avoided by generation using the
// emission factor in g/kWh.
func (r Record) CO2Avoided(factor float64) float64 {
	return r.GeneratedKWh * factor
}

// Coverage returns the ratio of generated to consumed energy.
func (r Record) Coverage() float64 {
	if r.ConsumedKWh == 0 {
		if r.GeneratedKWh == 0 {
			return 0
		}
		return r.GeneratedKWh
	}
	return r.GeneratedKWh / r.ConsumedKWh
}
