package otel

import (
	"context"
	"errors"
	"fmt"

	goHash "github.com/MrEthical07/goHash"
	"github.com/MrEthical07/goHash/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goHash.MetricsSnapshot
	AuditDropped() uint64
}

type counterBinding struct {
	id  goHash.MetricID
	ins metric.Int64ObservableCounter
}

// bucketBinding exposes one cumulative latency bucket as a gauge; the last
// bucket doubles as the sample count.
type bucketBinding struct {
	id    goHash.MetricID
	index int
	ins   metric.Int64ObservableGauge
}

// Exporter owns the callback registration for one engine.
type Exporter struct {
	source       metricsSource
	counters     []counterBinding
	buckets      []bucketBinding
	auditDropped metric.Int64ObservableCounter
	registration metric.Registration
}

func NewOTelExporter(meter metric.Meter, engine *goHash.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments on meter that observe source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterBinding{id: def.ID, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name,
				metric.WithDescription("Cumulative derivation count at or below the bound."),
				metric.WithUnit("{derivation}"),
			)
			if err != nil {
				return nil, fmt.Errorf("create bucket gauge %s: %w", name, err)
			}
			e.buckets = append(e.buckets, bucketBinding{id: def.ID, index: i, ins: ins})
			observables = append(observables, ins)
		}
	}

	dropped, err := meter.Int64ObservableCounter(
		"gohash_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.ins, int64(snapshot.Counters[c.id]))
	}

	cumulative := make(map[goHash.MetricID][8]uint64, len(internaldefs.HistogramDefs))
	for _, b := range e.buckets {
		buckets, ok := cumulative[b.id]
		if !ok {
			buckets = internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[b.id]))
			cumulative[b.id] = buckets
		}
		o.ObserveInt64(b.ins, int64(buckets[b.index]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. It is safe to call more than once.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	reg := e.registration
	e.registration = nil
	return reg.Unregister()
}
