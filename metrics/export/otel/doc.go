// Package otel binds authcore metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter.
// Each latency histogram becomes two gauges: NAME_bucket, carrying one
// cumulative data point per "le" attribute, and NAME_count. A single callback
// reads MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
