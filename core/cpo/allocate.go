// Package cpo implements the charge-point operator: a top level agent that
// keeps the combined draw of its smart charging stations under a capacity
// ceiling by granting power first come, first served.
package cpo

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/gridsim/core/model"
)

func nonNegative(v float64) decimal.Decimal {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Allocate distributes capacityKW over requests. When the total demand
// fits, every request is granted in full. Otherwise requests are served in
// arrival order (station address breaks ties) and each receives the lesser
// of its request and the remaining capacity. Negative requests and a
// negative capacity count as zero.
//
// Decisions are returned in serving order. The sum of grants never exceeds
// the capacity and no grant exceeds its request, both in decimal and when
// the float grants are added in serving order: a grant that would push the
// float sum past the capacity is lowered by the last ulp.
func Allocate(capacityKW float64, requests []model.DemandRequest) []model.AllocationDecision {
	if len(requests) == 0 {
		return nil
	}
	ordered := append([]model.DemandRequest(nil), requests...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ArrivalOrder != ordered[j].ArrivalOrder {
			return ordered[i].ArrivalOrder < ordered[j].ArrivalOrder
		}
		return ordered[i].Station < ordered[j].Station
	})

	capacity := nonNegative(capacityKW)
	total := decimal.Zero
	for _, r := range ordered {
		total = total.Add(nonNegative(r.RequestedKW))
	}
	slack := total.LessThanOrEqual(capacity)

	remaining := capacity
	ceiling, _ := capacity.Float64()
	ulp := math.Nextafter(ceiling, math.Inf(1)) - ceiling
	sum := 0.0
	out := make([]model.AllocationDecision, 0, len(ordered))
	for _, r := range ordered {
		req := nonNegative(r.RequestedKW)
		grant := req
		if !slack {
			grant = decimal.Min(req, remaining)
			remaining = remaining.Sub(grant)
		}
		g, _ := grant.Float64()
		for g > 0 && sum+g > ceiling {
			g = math.Max(0, g-ulp)
		}
		sum += g
		rq, _ := req.Float64()
		out = append(out, model.AllocationDecision{
			Station:     r.Station,
			Tick:        r.Tick,
			GrantedKW:   g,
			RequestedKW: rq,
		})
	}
	return out
}

// Granted returns the sum of grants using exact arithmetic.
func Granted(decisions []model.AllocationDecision) float64 {
	sum := decimal.Zero
	for _, d := range decisions {
		sum = sum.Add(decimal.NewFromFloat(d.GrantedKW))
	}
	f, _ := sum.Float64()
	return f
}
