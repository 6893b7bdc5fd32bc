package prometheus

import "time"

// The methods below adapt PollMetrics to the small recorder interfaces the
// poller and the USPTO client consume, so neither package imports this one.

// RecordCycle counts a completed poll cycle and observes its duration.
func (m *PollMetrics) RecordCycle(outcome string, d time.Duration) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// RecordRefresh counts a per-patent refresh by outcome.
func (m *PollMetrics) RecordRefresh(outcome string) {
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

// RecordStageFailure counts a failed optional refresh stage.
func (m *PollMetrics) RecordStageFailure(stage string) {
	m.StageFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordNewEvents adds newly discovered transaction-history events.
func (m *PollMetrics) RecordNewEvents(n int) {
	m.NewEventsTotal.Add(float64(n))
}

// RecordRateLimitBackoff counts one backoff pause after an upstream 429.
func (m *PollMetrics) RecordRateLimitBackoff() {
	m.RateLimitBackoffsTotal.Inc()
}

// SetTrackedPatents records the current tracked-application count.
func (m *PollMetrics) SetTrackedPatents(n int) {
	m.TrackedPatents.Set(float64(n))
}

// ObserveUpstreamRequest observes one USPTO API call.
func (m *PollMetrics) ObserveUpstreamRequest(resource string, d time.Duration) {
	m.UpstreamRequestDuration.WithLabelValues(resource).Observe(d.Seconds())
}
