package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/gridsim/app"
	"github.com/kilianp07/gridsim/pkg/export"
)

// RunScenario runs sc to completion and checks its expectations.
func RunScenario(t *testing.T, sc *Scenario) export.Summary {
	svc, err := app.New(sc.Config)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sum, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("scenario %s: run: %v", sc.Name, err)
	}

	exp := sc.Expected
	if exp.Ticks > 0 && sum.Ticks != exp.Ticks {
		t.Errorf("scenario %s expected %d ticks, got %d", sc.Name, exp.Ticks, sum.Ticks)
	}
	if exp.MaxDegraded != nil && sum.Degraded > *exp.MaxDegraded {
		t.Errorf("scenario %s expected at most %d degraded ticks, got %d", sc.Name, *exp.MaxDegraded, sum.Degraded)
	}
	if exp.MinAverageKW != nil && sum.AverageKW < *exp.MinAverageKW {
		t.Errorf("scenario %s average %.3f kW below %.3f", sc.Name, sum.AverageKW, *exp.MinAverageKW)
	}
	if exp.MaxAverageKW != nil && sum.AverageKW > *exp.MaxAverageKW {
		t.Errorf("scenario %s average %.3f kW above %.3f", sc.Name, sum.AverageKW, *exp.MaxAverageKW)
	}
	if exp.MinLowestKW != nil && sum.LowestKW < *exp.MinLowestKW {
		t.Errorf("scenario %s lowest %.3f kW below %.3f", sc.Name, sum.LowestKW, *exp.MinLowestKW)
	}
	if exp.MaxHighestKW != nil && sum.HighestKW > *exp.MaxHighestKW {
		t.Errorf("scenario %s highest %.3f kW above %.3f", sc.Name, sum.HighestKW, *exp.MaxHighestKW)
	}
	return sum
}
