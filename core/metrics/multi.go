package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReadings forwards the samples to all sinks, returning the first error encountered.
func (m *MultiSink) RecordReadings(samples []ReadingSample) error {
	for _, s := range m.Sinks {
		if err := s.RecordReadings(samples); err != nil {
			return err
		}
	}
	return nil
}

// RecordTick forwards ticks when supported by the sink.
func (m *MultiSink) RecordTick(ev TickSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TickRecorder); ok {
			if err := rec.RecordTick(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDegradation forwards degraded rounds when supported by the sink.
func (m *MultiSink) RecordDegradation(ev DegradationSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DegradationRecorder); ok {
			if err := rec.RecordDegradation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAllocation forwards admission rounds when supported by the sink.
func (m *MultiSink) RecordAllocation(ev AllocationSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AllocationRecorder); ok {
			if err := rec.RecordAllocation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDeliveryFailure forwards delivery failures when supported by the sink.
func (m *MultiSink) RecordDeliveryFailure(ev DeliverySample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DeliveryRecorder); ok {
			if err := rec.RecordDeliveryFailure(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks holding connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
