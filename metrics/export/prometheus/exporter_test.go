package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goHash "github.com/MrEthical07/goHash"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goHash.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goHash.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestCollectorCounters(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goHash.MetricsSnapshot{
			Counters: map[goHash.MetricID]uint64{
				goHash.MetricComputeSuccess: 7,
				goHash.MetricVerifyMismatch: 2,
			},
			Histograms: map[goHash.MetricID][]uint64{},
		},
		dropped: 3,
	})

	expected := `
# HELP gohash_compute_success_total Credentials computed.
# TYPE gohash_compute_success_total counter
gohash_compute_success_total 7
# HELP gohash_verify_mismatch_total Verify calls with a wrong password.
# TYPE gohash_verify_mismatch_total counter
gohash_verify_mismatch_total 2
# HELP gohash_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE gohash_audit_dropped_total counter
gohash_audit_dropped_total 3
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gohash_compute_success_total",
		"gohash_verify_mismatch_total",
		"gohash_audit_dropped_total",
	)
	if err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestCollectorHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goHash.MetricsSnapshot{
			Counters: map[goHash.MetricID]uint64{},
			Histograms: map[goHash.MetricID][]uint64{
				goHash.MetricDeriveLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	expected := `
# HELP gohash_derive_latency_seconds Key derivation latency histogram.
# TYPE gohash_derive_latency_seconds histogram
gohash_derive_latency_seconds_bucket{le="0.01"} 1
gohash_derive_latency_seconds_bucket{le="0.025"} 3
gohash_derive_latency_seconds_bucket{le="0.05"} 6
gohash_derive_latency_seconds_bucket{le="0.1"} 10
gohash_derive_latency_seconds_bucket{le="0.25"} 15
gohash_derive_latency_seconds_bucket{le="0.5"} 21
gohash_derive_latency_seconds_bucket{le="1"} 28
gohash_derive_latency_seconds_bucket{le="+Inf"} 36
gohash_derive_latency_seconds_sum 0
gohash_derive_latency_seconds_count 36
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "gohash_derive_latency_seconds"); err != nil {
		t.Fatalf("unexpected histogram: %v", err)
	}
}

func TestCollectorSkipsDisabledHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goHash.MetricsSnapshot{
			Counters:   map[goHash.MetricID]uint64{},
			Histograms: map[goHash.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(c, "gohash_derive_latency_seconds"); n != 0 {
		t.Fatalf("expected no histogram series, got %d", n)
	}
}

func TestCollectorWithEngine(t *testing.T) {
	engine, err := goHash.New().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	c := NewCollector(engine)
	if _, err := engine.Verify(context.Background(), "x$y", "pw"); err == nil {
		t.Fatal("expected malformed error")
	}

	if err := testutil.CollectAndCompare(c, strings.NewReader(`
# HELP gohash_verify_malformed_total Verify calls rejected because the stored credential could not be decoded.
# TYPE gohash_verify_malformed_total counter
gohash_verify_malformed_total 1
`), "gohash_verify_malformed_total"); err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goHash.MetricsSnapshot{
			Counters:   map[goHash.MetricID]uint64{goHash.MetricPoolStart: 1},
			Histograms: map[goHash.MetricID][]uint64{},
		},
	})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "gohash_pool_start_total 1") {
		t.Fatalf("expected pool start counter, got:\n%s", body)
	}
}
