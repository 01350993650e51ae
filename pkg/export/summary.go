// Package export writes the end-of-run summary of the grid aggregate.
package export

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/network"
)

// Summary describes the grid aggregate over a run.
type Summary struct {
	Ticks     int       `json:"ticks"`
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`
	AverageKW float64   `json:"average_kw"`
	HighestKW float64   `json:"highest_kw"`
	HighestAt time.Time `json:"highest_at,omitempty"`
	LowestKW  float64   `json:"lowest_kw"`
	LowestAt  time.Time `json:"lowest_at,omitempty"`
	StdDevKW  float64   `json:"stddev_kw"`
	// NetEnergyKWh integrates the aggregate over the tick step.
	NetEnergyKWh float64 `json:"net_energy_kwh"`
	Degraded     int     `json:"degraded_ticks"`
}

// Summarize computes the statistics of history, one reading per tick in
// order. step is the simulated duration of a tick.
func Summarize(history []model.PowerReading, step time.Duration) Summary {
	s := Summary{Ticks: len(history)}
	if len(history) == 0 {
		return s
	}
	values := make([]float64, len(history))
	for i, r := range history {
		values[i] = r.PowerKW
		if r.Status == network.StatusDegraded {
			s.Degraded++
		}
	}
	s.Start = history[0].Tick
	s.End = history[len(history)-1].Tick
	s.AverageKW = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDevKW = stat.StdDev(values, nil)
	}
	hi := floats.MaxIdx(values)
	lo := floats.MinIdx(values)
	s.HighestKW, s.HighestAt = values[hi], history[hi].Tick
	s.LowestKW, s.LowestAt = values[lo], history[lo].Tick
	s.NetEnergyKWh = floats.Sum(values) * step.Hours()
	return s
}
