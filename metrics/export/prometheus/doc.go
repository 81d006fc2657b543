// Package prometheus exposes authcore metrics as a client_golang Collector.
//
// Counter names are authcore_*_total; the latency histograms are
// authcore_{login,refresh,validate}_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry; callers register the Collector.
//   - Mutate engine state.
package prometheus
