package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// batch matching run.
type Metrics struct {
	SectionsLoaded prometheus.Gauge
	BatchRunning   prometheus.Gauge

	JamsProcessed  prometheus.Counter
	DegenerateJams prometheus.Counter
	UnmatchedJams  prometheus.Counter
	PagesCompleted prometheus.Counter

	MatchesProduced *prometheus.CounterVec // label: tier={contains,within,intersects}
	PageDuration    prometheus.Histogram
}

// NewMetrics creates and registers all batch metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SectionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jam_etl",
			Name:      "sections_loaded",
			Help:      "Reference sections loaded for the current run.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jam_etl",
			Name:      "batch_running",
			Help:      "1 while a batch run is active, 0 otherwise.",
		}),
		JamsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jam_etl",
			Name:      "jams_processed_total",
			Help:      "Total jam rows fetched and evaluated.",
		}),
		DegenerateJams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jam_etl",
			Name:      "jams_degenerate_total",
			Help:      "Jams excluded because their polyline had fewer than two points.",
		}),
		UnmatchedJams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jam_etl",
			Name:      "jams_unmatched_total",
			Help:      "Jams rejected by all three tiers and absent from the output.",
		}),
		PagesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jam_etl",
			Name:      "pages_completed_total",
			Help:      "Pages matched and persisted.",
		}),
		MatchesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jam_etl",
			Name:      "matches_produced_total",
			Help:      "Attribution facts produced, by cascade tier.",
		}, []string{"tier"}),
		PageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jam_etl",
			Name:      "page_duration_seconds",
			Help:      "Wall-clock duration of one fetch-build-match-persist page cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}

	prometheus.MustRegister(
		m.SectionsLoaded,
		m.BatchRunning,
		m.JamsProcessed,
		m.DegenerateJams,
		m.UnmatchedJams,
		m.PagesCompleted,
		m.MatchesProduced,
		m.PageDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SectionsLoaded:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "jam_etl", Name: "sections_loaded"}),
		BatchRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "jam_etl", Name: "batch_running"}),
		JamsProcessed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jam_etl", Name: "jams_processed_total"}),
		DegenerateJams:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jam_etl", Name: "jams_degenerate_total"}),
		UnmatchedJams:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jam_etl", Name: "jams_unmatched_total"}),
		PagesCompleted:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jam_etl", Name: "pages_completed_total"}),
		MatchesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "jam_etl", Name: "matches_produced_total"}, []string{"tier"}),
		PageDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "jam_etl", Name: "page_duration_seconds"}),
	}
}
