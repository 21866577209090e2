package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "mrp"

// Recorder owns the calculation metrics on its own registry so several
// engines (and tests) never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	ShortagesGauge    *prometheus.GaugeVec
	DiagnosticsTotal  *prometheus.CounterVec
	ExplosionCache    *prometheus.CounterVec
	ProjectedItems    prometheus.Gauge
	SnapshotLoadTotal prometheus.Counter
}

// NewRecorder registers every metric under namespace (default "mrp")
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = defaultNamespace
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculation_runs_total",
				Help:      "Total number of MRP calculation runs",
			},
			[]string{"status"},
		),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Duration of MRP calculation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		ShortagesGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "shortages",
				Help:      "Items projected to run short in the latest run",
			},
			[]string{"urgency"},
		),

		DiagnosticsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of diagnostics raised during calculations",
			},
			[]string{"kind"},
		),

		ExplosionCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "explosion_cache_total",
				Help:      "BOM explosion cache lookups by result",
			},
			[]string{"result"},
		),

		ProjectedItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projected_items",
			Help:      "Number of items projected in the latest run",
		}),

		SnapshotLoadTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_loads_total",
			Help:      "Total number of repository snapshots taken",
		}),
	}
}

// Registry exposes the underlying registry for scraping or inspection
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordRun counts a run and observes its duration
func (r *Recorder) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.With(prometheus.Labels{"status": status}).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// SetShortages replaces the per-urgency shortage counts
func (r *Recorder) SetShortages(counts map[string]int) {
	r.ShortagesGauge.Reset()
	for urgency, count := range counts {
		r.ShortagesGauge.With(prometheus.Labels{"urgency": urgency}).Set(float64(count))
	}
}

// RecordDiagnostic increments the counter for one diagnostic kind
func (r *Recorder) RecordDiagnostic(kind string) {
	r.DiagnosticsTotal.With(prometheus.Labels{"kind": kind}).Inc()
}

// RecordCache adds explosion cache hits and misses
func (r *Recorder) RecordCache(hits, misses int) {
	r.ExplosionCache.With(prometheus.Labels{"result": "hit"}).Add(float64(hits))
	r.ExplosionCache.With(prometheus.Labels{"result": "miss"}).Add(float64(misses))
}

// TrackSnapshot returns a function that counts a completed snapshot load
func (r *Recorder) TrackSnapshot() func() {
	return func() {
		r.SnapshotLoadTotal.Inc()
	}
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// for pickup by a node exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
