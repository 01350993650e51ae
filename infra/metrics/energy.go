package metrics

import (
	core "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/core/metrics/energy"
	"github.com/prometheus/client_golang/prometheus"
)

// EnergySink turns leaf readings into daily energy KPIs per node.
type EnergySink struct {
	store     energy.Store
	factor    float64
	generated *prometheus.GaugeVec
	consumed  *prometheus.GaugeVec
	coverage  *prometheus.GaugeVec
	co2       *prometheus.GaugeVec
}

// NewEnergySink creates a sink with Prometheus gauges registered on reg.
func NewEnergySink(store energy.Store, factor float64, reg prometheus.Registerer) (*EnergySink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &EnergySink{
		store:  store,
		factor: factor,
		generated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "node_generated_energy_kwh",
			Help: "Daily generated energy per node",
		}, []string{"address", "day"}),
		consumed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "node_consumed_energy_kwh",
			Help: "Daily consumed energy per node",
		}, []string{"address", "day"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "node_energy_coverage_ratio",
			Help: "Daily ratio of generated to consumed energy",
		}, []string{"address", "day"}),
		co2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "node_co2_avoided_grams",
			Help: "Daily CO2 avoided by generation per node",
		}, []string{"address", "day"}),
	}
	var err error
	for _, g := range []**prometheus.GaugeVec{&s.generated, &s.consumed, &s.coverage, &s.co2} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RecordReadings accumulates the energy of each reading into its day.
func (s *EnergySink) RecordReadings(samples []core.ReadingSample) error {
	for _, r := range samples {
		if r.Step <= 0 {
			continue
		}
		kwh := r.EnergyKWh()
		rec := energy.Record{Address: r.Reading.Source, Date: r.Reading.Tick}
		if kwh >= 0 {
			rec.GeneratedKWh = kwh
		} else {
			rec.ConsumedKWh = -kwh
		}
		if err := s.store.Add(rec); err != nil {
			return err
		}
		dayStr := energy.Day(rec.Date).Format("2006-01-02")
		records, _ := s.store.Query(rec.Address, rec.Date, rec.Date)
		if len(records) > 0 {
			rr := records[0]
			s.generated.WithLabelValues(rec.Address, dayStr).Set(rr.GeneratedKWh)
			s.consumed.WithLabelValues(rec.Address, dayStr).Set(rr.ConsumedKWh)
			s.coverage.WithLabelValues(rec.Address, dayStr).Set(rr.Coverage())
			s.co2.WithLabelValues(rec.Address, dayStr).Set(rr.CO2Avoided(s.factor))
		}
	}
	return nil
}

// Close closes the record store when it holds a connection.
func (s *EnergySink) Close() {
	if c, ok := s.store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
