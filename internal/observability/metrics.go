package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for resolution and attempt counters.
const (
	OutcomeSuccess  = "success"
	OutcomeStub     = "stub"
	OutcomeOverride = "override"
	OutcomeListing  = "listing"

	OutcomeTransportError = "transport_error"
	OutcomeNotFound       = "not_found"
	OutcomeMalformed      = "malformed"
)

// Metrics contains all Prometheus metrics for the literature resolution
// service. Metrics are organized by subsystem: resolutions, attempts,
// transport, extraction and mirror probes. All collectors are registered via
// promauto with the default Prometheus registry.
type Metrics struct {
	// ResolutionsTotal counts finished resolution calls, labeled by path
	// (doi, search) and outcome (success, listing, override, stub).
	ResolutionsTotal *prometheus.CounterVec

	// ResolutionDuration observes end-to-end resolution latency in seconds.
	ResolutionDuration *prometheus.HistogramVec

	// AttemptsTotal counts (mirror, relay) attempts, labeled by registry,
	// relay and outcome.
	AttemptsTotal *prometheus.CounterVec

	// AttemptDuration observes single attempt latency in seconds.
	AttemptDuration *prometheus.HistogramVec

	// TransportStrategyFailures counts failed rungs of the escalation ladder.
	TransportStrategyFailures *prometheus.CounterVec

	// ExtractionFailures counts documents rejected by the extractor.
	ExtractionFailures *prometheus.CounterVec

	// BudgetExhausted counts resolutions that ran out of attempts.
	BudgetExhausted *prometheus.CounterVec

	// OverridesServed counts resolutions answered from the override list.
	OverridesServed prometheus.Counter

	// MirrorProbeUp reports the last probe result per mirror (1 up, 0 down).
	MirrorProbeUp *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of resolution calls by path and outcome",
		}, []string{"path", "outcome"}),
		ResolutionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of resolution calls in seconds",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"path"}),

		AttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of mirror attempts by registry, relay and outcome",
		}, []string{"registry", "relay", "outcome"}),
		AttemptDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single mirror attempts in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"registry"}),

		TransportStrategyFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_strategy_failures_total",
			Help:      "Total number of failed transport strategy rungs",
		}, []string{"strategy"}),

		ExtractionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Total number of documents rejected by the extractor",
		}, []string{"reason"}),

		BudgetExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_exhausted_total",
			Help:      "Total number of resolutions that exhausted the attempt budget",
		}, []string{"path"}),
		OverridesServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_served_total",
			Help:      "Total number of resolutions answered from the override list",
		}),

		MirrorProbeUp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_probe_up",
			Help:      "Whether the last probe reached the mirror (1) or not (0)",
		}, []string{"mirror"}),
	}
}

// RecordResolution records a finished resolution call.
func (m *Metrics) RecordResolution(path, outcome string, durationSeconds float64) {
	m.ResolutionsTotal.WithLabelValues(path, outcome).Inc()
	m.ResolutionDuration.WithLabelValues(path).Observe(durationSeconds)
}

// RecordAttempt records one (mirror, relay) attempt.
func (m *Metrics) RecordAttempt(registry, relay, outcome string, durationSeconds float64) {
	m.AttemptsTotal.WithLabelValues(registry, relay, outcome).Inc()
	m.AttemptDuration.WithLabelValues(registry).Observe(durationSeconds)
}

// RecordStrategyFailure records a failed transport rung.
func (m *Metrics) RecordStrategyFailure(strategy string) {
	m.TransportStrategyFailures.WithLabelValues(strategy).Inc()
}

// RecordExtractionFailure records a rejected document.
func (m *Metrics) RecordExtractionFailure(reason string) {
	m.ExtractionFailures.WithLabelValues(reason).Inc()
}

// RecordBudgetExhausted records a resolution that ran out of attempts.
func (m *Metrics) RecordBudgetExhausted(path string) {
	m.BudgetExhausted.WithLabelValues(path).Inc()
}

// RecordOverrideServed records a resolution answered without network calls.
func (m *Metrics) RecordOverrideServed() {
	m.OverridesServed.Inc()
}

// RecordProbe records the reachability of a mirror.
func (m *Metrics) RecordProbe(mirror string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.MirrorProbeUp.WithLabelValues(mirror).Set(v)
}
