package internaldefs

import (
	goHash "github.com/MrEthical07/goHash"
)

type CounterDef struct {
	ID   goHash.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goHash.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goHash.MetricComputeSuccess, Name: "gohash_compute_success_total", Help: "Credentials computed."},
	{ID: goHash.MetricComputeFailure, Name: "gohash_compute_failure_total", Help: "Compute calls that failed."},
	{ID: goHash.MetricVerifyMatch, Name: "gohash_verify_match_total", Help: "Verify calls that matched."},
	{ID: goHash.MetricVerifyMismatch, Name: "gohash_verify_mismatch_total", Help: "Verify calls with a wrong password."},
	{ID: goHash.MetricVerifyMalformed, Name: "gohash_verify_malformed_total", Help: "Verify calls rejected because the stored credential could not be decoded."},
	{ID: goHash.MetricVerifyDerivationFailure, Name: "gohash_verify_derivation_failure_total", Help: "Verify calls that resolved false because key derivation failed."},
	{ID: goHash.MetricPoolStart, Name: "gohash_pool_start_total", Help: "Worker pool starts."},
	{ID: goHash.MetricSubmitRejected, Name: "gohash_submit_rejected_total", Help: "Derivations rejected by a stopped worker pool."},
}

var HistogramDefs = []HistogramDef{
	{ID: goHash.MetricDeriveLatency, Name: "gohash_derive_latency_seconds", Help: "Key derivation latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the first seven
// buckets. The eighth bucket is +Inf.
var HistogramBounds = []float64{
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
	1,
}

// HistogramBoundSuffix names each bucket for exporters without native histograms.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
