package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/gridsim/core/metrics"
	"github.com/kilianp07/gridsim/infra/logger"
)

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordReadings writes the readings as one batch of power_reading points
// stamped with their simulated tick.
func (s *InfluxSink) RecordReadings(samples []coremetrics.ReadingSample) error {
	if len(samples) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(samples))
	for _, r := range samples {
		points = append(points, readingPoint(r))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func readingPoint(r coremetrics.ReadingSample) *write.Point {
	p := write.NewPointWithMeasurement("power_reading").
		AddTag("address", r.Reading.Source).
		AddTag("node_type", r.NodeType).
		AddTag("aggregate", strconv.FormatBool(r.Aggregate))
	if r.Reading.Status != "" {
		p = p.AddTag("status", r.Reading.Status)
	}
	return p.AddField("power_kw", round3(r.Reading.PowerKW)).
		SetTime(r.Reading.Tick)
}

// RecordDegradation persists a degraded aggregation round.
func (s *InfluxSink) RecordDegradation(ev coremetrics.DegradationSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("aggregation_degraded").
		AddTag("aggregator", ev.Aggregator).
		AddField("missing", len(ev.Missing)).
		AddField("children", strings.Join(ev.Missing, ",")).
		SetTime(ev.Tick)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAllocation persists a CPO admission round.
func (s *InfluxSink) RecordAllocation(ev coremetrics.AllocationSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("cpo_allocation").
		AddTag("cpo", ev.CPO).
		AddField("capacity_kw", round3(ev.CapacityKW)).
		AddField("requested_kw", round3(ev.RequestedKW)).
		AddField("granted_kw", round3(ev.GrantedKW)).
		AddField("throttled", ev.Throttled).
		AddField("stations", ev.Stations).
		SetTime(ev.Tick)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDeliveryFailure persists a failed send.
func (s *InfluxSink) RecordDeliveryFailure(ev coremetrics.DeliverySample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("delivery_failure").
		AddTag("from", ev.From).
		AddTag("to", ev.To).
		AddTag("topic", ev.Topic).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
