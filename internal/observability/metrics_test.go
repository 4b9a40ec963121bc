package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveEvidence(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveEvidence("tamper", OutcomeOK, 120*time.Millisecond)
	m.ObserveEvidence("tamper", OutcomeOK, 80*time.Millisecond)
	m.ObserveEvidence("satellite", OutcomeSkipped, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvidenceTotal.WithLabelValues("tamper", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvidenceTotal.WithLabelValues("satellite", OutcomeSkipped)))
	// skipped sources do not produce latency samples
	assert.Equal(t, 1, testutil.CollectAndCount(m.EvidenceDuration))
}

func TestMetrics_ObserveVerdictAndRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveVerdict("Uncertain", "fallback")
	m.ObserveRequest("http", "success")
	m.ObserveRequest("http", "success")
	m.ObserveReleaseFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("Uncertain", "fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseFailuresTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveEvidence("history", OutcomeOK, time.Second)
		m.ObserveVerdict("Authentic", "corroborated_real")
		m.ObserveRequest("queue", "error")
		m.ObserveReleaseFailure()
	})
}
