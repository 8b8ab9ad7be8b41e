package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics of the service
type Metrics struct {
	// Lesson cache lookups by result (hit, miss)
	CacheLookups *prometheus.CounterVec

	// Generation provider calls
	GenerationLatency prometheus.Histogram
	GenerationErrors  *prometheus.CounterVec

	// Registry sync passes by outcome (changed, unchanged, failed)
	SyncPasses *prometheus.CounterVec

	// Documents rendered and served
	DocumentsRendered prometheus.Counter
	Downloads         prometheus.Counter
}

// GaugeSources supplies values read at scrape time
type GaugeSources struct {
	CacheSize        func() int
	PendingDeletions func() int
	RegistrySize     func() int
}

// InitMetrics registers the metrics with reg. main passes
// prometheus.DefaultRegisterer so they appear on /metrics; tests pass a
// fresh registry.
func InitMetrics(reg prometheus.Registerer, sources GaugeSources) *Metrics {
	factory := promauto.With(reg)

	metrics := &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cahier_lesson_cache_lookups_total",
			Help: "Lesson cache lookups by result",
		}, []string{"result"}),

		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cahier_generation_duration_seconds",
			Help:    "Generation provider latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),

		GenerationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cahier_generation_errors_total",
			Help: "Failed generations by error type",
		}, []string{"error_type"}),

		SyncPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cahier_registry_sync_passes_total",
			Help: "Registry synchronization passes by outcome",
		}, []string{"outcome"}),

		DocumentsRendered: factory.NewCounter(prometheus.CounterOpts{
			Name: "cahier_documents_rendered_total",
			Help: "Lesson documents rendered to PDF",
		}),

		Downloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "cahier_downloads_total",
			Help: "Artifacts served for download",
		}),
	}

	gauge := func(name, help string, fn func() int) {
		if fn == nil {
			return
		}
		factory.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(fn())
		})
	}
	gauge("cahier_lesson_cache_entries", "Entries currently held by the lesson cache", sources.CacheSize)
	gauge("cahier_pending_deletions", "Artifact deletions scheduled but not yet fired", sources.PendingDeletions)
	gauge("cahier_registry_lessons", "Lessons in the registry", sources.RegistrySize)

	return metrics
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordGeneration records a provider call
func (m *Metrics) RecordGeneration(seconds float64, errorType string) {
	if m == nil {
		return
	}
	m.GenerationLatency.Observe(seconds)
	if errorType != "" {
		m.GenerationErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordSync records the outcome of a sync pass
func (m *Metrics) RecordSync(changed bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.SyncPasses.WithLabelValues("failed").Inc()
	case changed:
		m.SyncPasses.WithLabelValues("changed").Inc()
	default:
		m.SyncPasses.WithLabelValues("unchanged").Inc()
	}
}

// RecordDocumentRendered counts a rendered document
func (m *Metrics) RecordDocumentRendered() {
	if m != nil {
		m.DocumentsRendered.Inc()
	}
}

// RecordDownload counts a served artifact
func (m *Metrics) RecordDownload() {
	if m != nil {
		m.Downloads.Inc()
	}
}
