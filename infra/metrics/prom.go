package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulation events in Prometheus metrics.
type PromSink struct {
	power     *prometheus.GaugeVec
	readings  *prometheus.CounterVec
	ticks     prometheus.Counter
	degraded  *prometheus.CounterVec
	capacity  *prometheus.GaugeVec
	requested *prometheus.GaugeVec
	granted   *prometheus.GaugeVec
	throttled *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// NewPromSink registers simulation metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grid_node_power_kw",
			Help: "Latest reported power per node, positive for generation",
		}, []string{"address", "type"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_readings_total",
			Help: "Total number of power readings reported",
		}, []string{"type", "status", "aggregate"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simulation_ticks_total",
			Help: "Number of ticks emitted by the clock",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_degraded_rounds_total",
			Help: "Aggregation rounds flushed with missing children",
		}, []string{"aggregator"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cpo_capacity_kw",
			Help: "Capacity of the CPO for the latest admission round",
		}, []string{"cpo"}),
		requested: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cpo_requested_kw",
			Help: "Total demand of the latest admission round",
		}, []string{"cpo"}),
		granted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cpo_granted_kw",
			Help: "Total power granted in the latest admission round",
		}, []string{"cpo"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cpo_throttled_requests_total",
			Help: "Demand requests granted less than requested",
		}, []string{"cpo"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fabric_delivery_failures_total",
			Help: "Messages that could not be delivered",
		}, []string{"topic"}),
	}
	var err error
	if s.power, err = register(reg, s.power); err != nil {
		return nil, err
	}
	if s.readings, err = register(reg, s.readings); err != nil {
		return nil, err
	}
	if s.ticks, err = register(reg, s.ticks); err != nil {
		return nil, err
	}
	if s.degraded, err = register(reg, s.degraded); err != nil {
		return nil, err
	}
	if s.capacity, err = register(reg, s.capacity); err != nil {
		return nil, err
	}
	if s.requested, err = register(reg, s.requested); err != nil {
		return nil, err
	}
	if s.granted, err = register(reg, s.granted); err != nil {
		return nil, err
	}
	if s.throttled, err = register(reg, s.throttled); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordReadings sets the power gauge and counts each reading.
func (s *PromSink) RecordReadings(samples []coremetrics.ReadingSample) error {
	for _, r := range samples {
		s.power.WithLabelValues(r.Reading.Source, r.NodeType).Set(r.Reading.PowerKW)
		s.readings.WithLabelValues(r.NodeType, r.Reading.Status, strconv.FormatBool(r.Aggregate)).Inc()
	}
	return nil
}

// RecordTick counts emitted ticks.
func (s *PromSink) RecordTick(coremetrics.TickSample) error {
	s.ticks.Inc()
	return nil
}

// RecordDegradation counts degraded aggregation rounds.
func (s *PromSink) RecordDegradation(ev coremetrics.DegradationSample) error {
	s.degraded.WithLabelValues(ev.Aggregator).Inc()
	return nil
}

// RecordAllocation exposes the latest admission round of a CPO.
func (s *PromSink) RecordAllocation(ev coremetrics.AllocationSample) error {
	s.capacity.WithLabelValues(ev.CPO).Set(ev.CapacityKW)
	s.requested.WithLabelValues(ev.CPO).Set(ev.RequestedKW)
	s.granted.WithLabelValues(ev.CPO).Set(ev.GrantedKW)
	s.throttled.WithLabelValues(ev.CPO).Add(float64(ev.Throttled))
	return nil
}

// RecordDeliveryFailure counts failed sends per topic.
func (s *PromSink) RecordDeliveryFailure(ev coremetrics.DeliverySample) error {
	s.failures.WithLabelValues(ev.Topic).Inc()
	return nil
}
