// Package metrics exposes optional Prometheus instrumentation for the
// indexing and query pipelines, following the opt-in, nil-safe pattern of
// etalazz-vsa's churn telemetry module: every method is a no-op on a nil
// *Metrics, so call sites never need an `if enabled` guard.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters and histograms for one indexing run or query
// server. A nil *Metrics disables all instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	documentsIndexed prometheus.Counter
	documentsSkipped prometheus.Counter
	partialFlushes   prometheus.Counter
	mergeDuration    prometheus.Histogram
	queryDuration    prometheus.Histogram
}

// New creates a Metrics instance with its own registry, so that repeated
// calls within the same process (e.g. in tests) never collide with
// Prometheus's global default registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "htmlsearch_documents_indexed_total",
			Help: "Total corpus documents successfully assigned a doc_id and indexed.",
		}),
		documentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "htmlsearch_documents_skipped_total",
			Help: "Total corpus documents skipped as malformed (no doc_id assigned).",
		}),
		partialFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "htmlsearch_partial_flushes_total",
			Help: "Total number of partial-index spills to disk.",
		}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "htmlsearch_merge_duration_seconds",
			Help:    "Wall time of the k-way external merge pass.",
			Buckets: prometheus.DefBuckets,
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "htmlsearch_query_duration_seconds",
			Help: "Wall time from query receipt to URL emission (target: p99 under 300ms).",
			// Tuned around the 300ms query latency target.
			Buckets: []float64{.005, .01, .025, .05, .1, .15, .2, .25, .3, .5, 1},
		}),
	}
	m.registry.MustRegister(m.documentsIndexed, m.documentsSkipped, m.partialFlushes, m.mergeDuration, m.queryDuration)
	return m
}

// DocIndexed increments the indexed-documents counter.
func (m *Metrics) DocIndexed() {
	if m == nil {
		return
	}
	m.documentsIndexed.Inc()
}

// DocSkipped increments the skipped-documents counter.
func (m *Metrics) DocSkipped() {
	if m == nil {
		return
	}
	m.documentsSkipped.Inc()
}

// PartialFlushed increments the partial-flush counter.
func (m *Metrics) PartialFlushed() {
	if m == nil {
		return
	}
	m.partialFlushes.Inc()
}

// ObserveMerge records the wall time of one merge pass.
func (m *Metrics) ObserveMerge(d time.Duration) {
	if m == nil {
		return
	}
	m.mergeDuration.Observe(d.Seconds())
}

// ObserveQuery records the wall time of one query evaluation.
func (m *Metrics) ObserveQuery(d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on addr in a background goroutine until ctx is
// canceled. Safe to call on a nil *Metrics (no-op).
func (m *Metrics) Serve(ctx context.Context, addr string) {
	if m == nil || addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	go func() {
		_ = server.ListenAndServe()
	}()
}
