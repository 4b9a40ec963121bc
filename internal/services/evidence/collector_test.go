package evidence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/observability"
	"pratyaksh/internal/ports"
)

func healthySources() Sources {
	return Sources{
		Classifier: classifierFunc(func(context.Context, domain.MediaReference) (string, float64, error) {
			return "human", 0.92, nil
		}),
		Tamper: analyzerFunc(func(context.Context, domain.MediaReference) (float64, error) {
			return 1.5, nil
		}),
		GroundTruth: groundTruthFunc(func(context.Context, float64, float64, ports.Window) (*ports.Observation, error) {
			return &ports.Observation{Matched: true, NDWI: 0.4, SceneID: "S2B_9"}, nil
		}),
		History: historyFunc(func(context.Context, domain.MediaReference) (ports.HistoryRecord, error) {
			return ports.HistoryRecord{}, nil
		}),
	}
}

func TestCollect_AllHealthy(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	c := NewCollector(healthySources(), Options{Timeout: time.Second, Metrics: m})

	b := c.Collect(context.Background(), testMedia, &domain.Coordinates{Lat: 10, Lon: 20})

	assert.Equal(t, domain.AuthenticityReal, b.Authenticity().Label)
	assert.False(t, b.Tamper().Suspicious)
	assert.Equal(t, domain.SatelliteMatch, b.Satellite().Status)
	assert.False(t, b.History().SeenBefore)

	for _, src := range []string{SourceAuthenticity, SourceTamper, SourceSatellite, SourceHistory} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.EvidenceTotal.WithLabelValues(src, observability.OutcomeOK)), src)
	}
}

func TestCollect_NoCoordinatesSkipsSatellite(t *testing.T) {
	var called atomic.Bool
	src := healthySources()
	src.GroundTruth = groundTruthFunc(func(context.Context, float64, float64, ports.Window) (*ports.Observation, error) {
		called.Store(true)
		return nil, nil
	})
	m := observability.NewMetrics(prometheus.NewRegistry())
	c := NewCollector(src, Options{Timeout: time.Second, Metrics: m})

	b := c.Collect(context.Background(), testMedia, nil)

	assert.False(t, called.Load())
	assert.Equal(t, domain.SatelliteSkipped, b.Satellite().Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvidenceTotal.WithLabelValues(SourceSatellite, observability.OutcomeSkipped)))
}

func TestCollect_PartialFailureStillCompletes(t *testing.T) {
	src := Sources{
		Classifier: classifierFunc(func(context.Context, domain.MediaReference) (string, float64, error) {
			return "", 0, errors.New("503 model loading")
		}),
		Tamper: analyzerFunc(func(context.Context, domain.MediaReference) (float64, error) {
			panic("decoder exploded")
		}),
		GroundTruth: groundTruthFunc(func(context.Context, float64, float64, ports.Window) (*ports.Observation, error) {
			return nil, errors.New("gateway unreachable")
		}),
		History: historyFunc(func(context.Context, domain.MediaReference) (ports.HistoryRecord, error) {
			return ports.HistoryRecord{SeenBefore: true, Matches: 1}, nil
		}),
	}
	c := NewCollector(src, Options{Timeout: time.Second})

	b := c.Collect(context.Background(), testMedia, &domain.Coordinates{Lat: 1, Lon: 1})

	assert.Equal(t, domain.AuthenticityUncertain, b.Authenticity().Label)
	assert.Equal(t, "503 model loading", b.Authenticity().Error)
	assert.False(t, b.Tamper().Suspicious)
	assert.Contains(t, b.Tamper().Error, "decoder exploded")
	assert.Equal(t, domain.SatelliteError, b.Satellite().Status)
	assert.True(t, b.History().SeenBefore)
}

func TestCollect_SlowSourceTimesOutIndependently(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	src := healthySources()
	src.Classifier = classifierFunc(func(context.Context, domain.MediaReference) (string, float64, error) {
		<-block
		return "human", 1, nil
	})
	m := observability.NewMetrics(prometheus.NewRegistry())
	c := NewCollector(src, Options{Timeout: 50 * time.Millisecond, Metrics: m})

	start := time.Now()
	b := c.Collect(context.Background(), testMedia, &domain.Coordinates{Lat: 1, Lon: 1})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.AuthenticityUncertain, b.Authenticity().Label)
	assert.Equal(t, "timed out", b.Authenticity().Error)
	assert.Equal(t, domain.SatelliteMatch, b.Satellite().Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvidenceTotal.WithLabelValues(SourceAuthenticity, observability.OutcomeTimeout)))
}

func TestCollect_NothingConfigured(t *testing.T) {
	c := NewCollector(Sources{}, Options{})

	b := c.Collect(context.Background(), testMedia, &domain.Coordinates{Lat: 1, Lon: 1})

	assert.Equal(t, domain.AuthenticityUncertain, b.Authenticity().Label)
	assert.Equal(t, domain.SatelliteError, b.Satellite().Status)
	assert.False(t, b.History().SeenBefore)
	assert.Empty(t, b.History().Error)
}
