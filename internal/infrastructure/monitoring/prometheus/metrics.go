// Package prometheus defines the poller's Prometheus instrumentation.
// Metrics are registered on a private registry so tests can construct
// independent instances without double-registration panics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PollMetrics holds every metric emitted by the scheduler and the refresh
// orchestrator.
type PollMetrics struct {
	registry *prometheus.Registry

	// CyclesTotal counts completed poll cycles by outcome ("ok", "partial",
	// "aborted").
	CyclesTotal *prometheus.CounterVec

	// CycleDuration observes wall-clock seconds per poll cycle.
	CycleDuration prometheus.Histogram

	// RefreshTotal counts per-patent refreshes by outcome ("ok", "failed").
	RefreshTotal *prometheus.CounterVec

	// StageFailuresTotal counts stage-level failures by stage name.
	StageFailuresTotal *prometheus.CounterVec

	// NewEventsTotal counts newly discovered transaction-history events.
	NewEventsTotal prometheus.Counter

	// RateLimitBackoffsTotal counts the capped exponential backoffs taken in
	// response to upstream 429s.
	RateLimitBackoffsTotal prometheus.Counter

	// TrackedPatents is the current number of tracked applications.
	TrackedPatents prometheus.Gauge

	// UpstreamRequestDuration observes seconds per USPTO API call by resource.
	UpstreamRequestDuration *prometheus.HistogramVec
}

// NewPollMetrics registers and returns the full metric set.
func NewPollMetrics() *PollMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PollMetrics{
		registry: reg,
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairwatch",
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pairwatch",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall-clock duration of a full poll cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairwatch",
			Name:      "patent_refreshes_total",
			Help:      "Per-patent refreshes by outcome.",
		}, []string{"outcome"}),
		StageFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pairwatch",
			Name:      "stage_failures_total",
			Help:      "Stage-level failures by refresh stage.",
		}, []string{"stage"}),
		NewEventsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pairwatch",
			Name:      "new_events_total",
			Help:      "Newly discovered USPTO transaction-history events.",
		}),
		RateLimitBackoffsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pairwatch",
			Name:      "rate_limit_backoffs_total",
			Help:      "Backoff pauses taken after upstream rate limiting.",
		}),
		TrackedPatents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pairwatch",
			Name:      "tracked_patents",
			Help:      "Number of tracked patent applications.",
		}),
		UpstreamRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pairwatch",
			Name:      "upstream_request_duration_seconds",
			Help:      "USPTO Open Data Portal request duration by resource.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"resource"}),
	}
}

// Handler returns the HTTP handler exposing this metric set, for mounting at
// /metrics on the local API server.
func (m *PollMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, primarily for tests.
func (m *PollMetrics) Registry() *prometheus.Registry {
	return m.registry
}
