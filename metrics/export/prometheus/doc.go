// Package prometheus exposes goHash engine metrics to Prometheus.
//
// [Collector] implements prometheus.Collector over [goHash.Engine.MetricsSnapshot].
// Counters are named gohash_*_total; the derivation latency is the native
// histogram gohash_derive_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the Collector or mount Handler.
//   - Mutate engine state.
package prometheus
