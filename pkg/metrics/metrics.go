// Package metrics defines the Prometheus collectors for the wiki service and
// serves them for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ResolveOutcomesTotal *prometheus.CounterVec
	ResolveLatency       *prometheus.HistogramVec
	PartialMatchCount    prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	EntriesSavedTotal    *prometheus.CounterVec
	EntriesStored        prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg means
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ResolveOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiki_resolve_outcomes_total",
				Help: "Query resolutions by outcome (exact_match, partial_matches, not_found, show_all).",
			},
			[]string{"outcome"},
		),
		ResolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wiki_resolve_latency_seconds",
				Help:    "Query resolution latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		PartialMatchCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wiki_partial_match_candidates",
				Help:    "Number of candidate titles returned by partial matches.",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wiki_cache_hits_total",
				Help: "Total number of resolution cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wiki_cache_misses_total",
				Help: "Total number of resolution cache misses.",
			},
		),
		EntriesSavedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiki_entries_saved_total",
				Help: "Entries saved by action (created, edited).",
			},
			[]string{"action"},
		),
		EntriesStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wiki_entries_stored",
				Help: "Number of entries in the store at the last listing.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ResolveOutcomesTotal,
		m.ResolveLatency,
		m.PartialMatchCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EntriesSavedTotal,
		m.EntriesStored,
		m.CircuitBreakerState,
	)
	return m
}

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
