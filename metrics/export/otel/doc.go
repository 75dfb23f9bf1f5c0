// Package otel binds goHash engine metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per goHash counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// [goHash.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
