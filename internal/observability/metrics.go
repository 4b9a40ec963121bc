// Package observability holds the Prometheus metrics and OpenTelemetry tracer
// setup for the verification pipeline.
//
// Metrics are created against an injected registerer so tests can use a
// private registry. A nil *Metrics is valid and records nothing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pratyaksh"

// Evidence outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeSkipped     = "skipped"
)

type Metrics struct {
	// EvidenceTotal counts adapter invocations.
	// Labels: source (authenticity, tamper, satellite, history), outcome.
	EvidenceTotal *prometheus.CounterVec

	// EvidenceDuration measures adapter latency. Labels: source.
	EvidenceDuration *prometheus.HistogramVec

	// VerdictsTotal counts fused verdicts. Labels: label, rule.
	VerdictsTotal *prometheus.CounterVec

	// RequestsTotal counts verification requests. Labels: channel (http, queue, cli), status.
	RequestsTotal *prometheus.CounterVec

	// ReleaseFailuresTotal counts media references that could not be removed.
	ReleaseFailuresTotal prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvidenceTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "evidence",
				Name:      "collections_total",
				Help:      "Evidence source invocations by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		EvidenceDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "evidence",
				Name:      "duration_seconds",
				Help:      "Evidence source latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"source"},
		),
		VerdictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "fusion",
				Name:      "verdicts_total",
				Help:      "Verdicts by label and deciding rule",
			},
			[]string{"label", "rule"},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "verify_requests_total",
				Help:      "Verification requests by channel and status",
			},
			[]string{"channel", "status"},
		),
		ReleaseFailuresTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "media",
				Name:      "release_failures_total",
				Help:      "Transient media files that could not be removed",
			},
		),
	}
}

func (m *Metrics) ObserveEvidence(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EvidenceTotal.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.EvidenceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveVerdict(label, rule string) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(label, rule).Inc()
}

func (m *Metrics) ObserveRequest(channel, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) ObserveReleaseFailure() {
	if m == nil {
		return
	}
	m.ReleaseFailuresTotal.Inc()
}
