// Package metrics defines the sinks that observe a simulation run. A sink
// records power readings and may implement any of the optional recorder
// interfaces for ticks, degraded aggregation rounds, CPO admission rounds
// and delivery failures. NewMetricsSink builds a MultiSink automatically
// when several sinks are configured.
package metrics
