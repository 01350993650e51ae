package metrics

import (
	"github.com/kilianp07/gridsim/core/factory"
	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/metrics/energy"
	"github.com/kilianp07/gridsim/infra/kpi"
	"github.com/prometheus/client_golang/prometheus"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterMetricsSink("energy", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			EmissionFactor float64 `json:"emission_factor"`
			// Path persists the daily records in SQLite when set.
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		var store energy.Store = energy.NewMemoryStore()
		if c.Path != "" {
			db, err := kpi.NewSQLiteStore(c.Path)
			if err != nil {
				return nil, err
			}
			store = db
		}
		return NewEnergySink(store, c.EmissionFactor, prometheus.DefaultRegisterer)
	})
}
