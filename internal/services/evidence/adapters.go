package evidence

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/ports"
)

// Normalization thresholds. Catching likely fakes is weighted more
// aggressively than confirming authenticity.
const (
	AIGeneratedMinConfidence = 0.45
	RealMinConfidence        = 0.60

	TamperSuspiciousScore = 5.0
)

var (
	artificialTokens = map[string]bool{"ai": true, "artificial": true, "fake": true, "generated": true}
	humanTokens      = map[string]bool{"human": true, "real": true}
)

func labelTokens(label string) []string {
	return strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasToken(label string, set map[string]bool) bool {
	for _, tok := range labelTokens(label) {
		if set[tok] {
			return true
		}
	}
	return false
}

// NormalizeAuthenticity maps a raw classifier label and score onto the
// three-valued authenticity label.
func NormalizeAuthenticity(rawLabel string, confidence float64) domain.AuthenticityEvidence {
	label := domain.AuthenticityUncertain
	switch {
	case hasToken(rawLabel, artificialTokens) && confidence >= AIGeneratedMinConfidence:
		label = domain.AuthenticityAIGenerated
	case hasToken(rawLabel, humanTokens) && confidence >= RealMinConfidence:
		label = domain.AuthenticityReal
	}
	return domain.AuthenticityEvidence{Label: label, Confidence: round(confidence, 3)}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AuthenticityAdapter wraps the origin classifier.
type AuthenticityAdapter struct {
	classifier ports.OriginClassifier
	timeout    time.Duration
}

func NewAuthenticityAdapter(c ports.OriginClassifier, timeout time.Duration) *AuthenticityAdapter {
	return &AuthenticityAdapter{classifier: c, timeout: timeout}
}

func (a *AuthenticityAdapter) Collect(ctx context.Context, media domain.MediaReference) domain.AuthenticityEvidence {
	ev, _ := a.collect(ctx, media)
	return ev
}

// collect also returns the fault that forced the fallback, if any.
func (a *AuthenticityAdapter) collect(ctx context.Context, media domain.MediaReference) (domain.AuthenticityEvidence, error) {
	if a == nil || a.classifier == nil {
		return UnavailableAuthenticity(ErrNotConfigured), ErrNotConfigured
	}
	type raw struct {
		label      string
		confidence float64
	}
	r, err := invoke(ctx, a.timeout, func(ctx context.Context) (raw, error) {
		label, conf, err := a.classifier.Classify(ctx, media)
		return raw{label: label, confidence: conf}, err
	})
	if err != nil {
		return UnavailableAuthenticity(err), err
	}
	if math.IsNaN(r.confidence) || r.confidence < 0 || r.confidence > 1 {
		err = fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformed, r.confidence)
		return UnavailableAuthenticity(err), err
	}
	return NormalizeAuthenticity(r.label, r.confidence), nil
}

// TamperAdapter wraps the error-level analyzer.
type TamperAdapter struct {
	analyzer ports.TamperAnalyzer
	timeout  time.Duration
}

func NewTamperAdapter(an ports.TamperAnalyzer, timeout time.Duration) *TamperAdapter {
	return &TamperAdapter{analyzer: an, timeout: timeout}
}

func (t *TamperAdapter) Collect(ctx context.Context, media domain.MediaReference) domain.TamperEvidence {
	ev, _ := t.collect(ctx, media)
	return ev
}

func (t *TamperAdapter) collect(ctx context.Context, media domain.MediaReference) (domain.TamperEvidence, error) {
	if t == nil || t.analyzer == nil {
		return UnavailableTamper(ErrNotConfigured), ErrNotConfigured
	}
	score, err := invoke(ctx, t.timeout, func(ctx context.Context) (float64, error) {
		return t.analyzer.Analyze(ctx, media)
	})
	if err != nil {
		return UnavailableTamper(err), err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		err = fmt.Errorf("%w: deviation score %v", ErrMalformed, score)
		return UnavailableTamper(err), err
	}
	return domain.TamperEvidence{
		Suspicious: score > TamperSuspiciousScore,
		Score:      round(score, 2),
		Method:     methodELA,
	}, nil
}

// SatelliteAdapter wraps the ground-truth source. It is only called when
// coordinates are present.
type SatelliteAdapter struct {
	source  ports.GroundTruthSource
	timeout time.Duration
	window  time.Duration
	now     func() time.Time
}

func NewSatelliteAdapter(src ports.GroundTruthSource, timeout, window time.Duration, now func() time.Time) *SatelliteAdapter {
	if now == nil {
		now = time.Now
	}
	return &SatelliteAdapter{source: src, timeout: timeout, window: window, now: now}
}

func (s *SatelliteAdapter) Collect(ctx context.Context, at domain.Coordinates) domain.SatelliteEvidence {
	ev, _ := s.collect(ctx, at)
	return ev
}

func (s *SatelliteAdapter) collect(ctx context.Context, at domain.Coordinates) (domain.SatelliteEvidence, error) {
	if s == nil || s.source == nil {
		return UnavailableSatellite(ErrNotConfigured), ErrNotConfigured
	}
	end := s.now().UTC()
	window := ports.Window{From: end.Add(-s.window), To: end}

	obs, err := invoke(ctx, s.timeout, func(ctx context.Context) (*ports.Observation, error) {
		return s.source.Query(ctx, at.Lat, at.Lon, window)
	})
	if err != nil {
		return UnavailableSatellite(err), err
	}
	if obs == nil {
		return domain.SatelliteEvidence{
			Status: domain.SatelliteMismatch,
			Reason: fmt.Sprintf("No clear satellite pass in the last %d days.", int(s.window.Hours()/24)),
		}, nil
	}
	if math.IsNaN(obs.NDWI) || obs.NDWI < -1 || obs.NDWI > 1 {
		err = fmt.Errorf("%w: ndwi %v outside [-1,1]", ErrMalformed, obs.NDWI)
		return UnavailableSatellite(err), err
	}
	if !obs.Matched {
		reason := obs.Reason
		if reason == "" {
			reason = "Satellite observation does not corroborate the reported scene."
		}
		return domain.SatelliteEvidence{
			Status:    domain.SatelliteMismatch,
			NDWIScore: round(obs.NDWI, 4),
			SceneID:   obs.SceneID,
			Reason:    reason,
		}, nil
	}
	return domain.SatelliteEvidence{
		Status:        domain.SatelliteMatch,
		WaterDetected: obs.NDWI > 0,
		NDWIScore:     round(obs.NDWI, 4),
		SceneID:       obs.SceneID,
		Reason:        "Satellite confirms area terrain matches request parameters.",
	}, nil
}

// NoHistory is the conservative history source: nothing was seen before.
type NoHistory struct{}

func (NoHistory) Lookup(context.Context, domain.MediaReference) (ports.HistoryRecord, error) {
	return ports.HistoryRecord{}, nil
}

// HistoryAdapter wraps the reuse lookup.
type HistoryAdapter struct {
	source  ports.HistorySource
	timeout time.Duration
}

// NewHistoryAdapter falls back to NoHistory when src is nil.
func NewHistoryAdapter(src ports.HistorySource, timeout time.Duration) *HistoryAdapter {
	if src == nil {
		src = NoHistory{}
	}
	return &HistoryAdapter{source: src, timeout: timeout}
}

func (h *HistoryAdapter) Collect(ctx context.Context, media domain.MediaReference) domain.HistoryEvidence {
	ev, _ := h.collect(ctx, media)
	return ev
}

func (h *HistoryAdapter) collect(ctx context.Context, media domain.MediaReference) (domain.HistoryEvidence, error) {
	if h == nil || h.source == nil {
		return UnavailableHistory(ErrNotConfigured), ErrNotConfigured
	}
	rec, err := invoke(ctx, h.timeout, func(ctx context.Context) (ports.HistoryRecord, error) {
		return h.source.Lookup(ctx, media)
	})
	if err != nil {
		return UnavailableHistory(err), err
	}
	ev := domain.HistoryEvidence{
		SeenBefore: rec.SeenBefore,
		Matches:    rec.Matches,
		Sources:    rec.Sources,
	}
	if !rec.FirstSeenAt.IsZero() {
		ev.FirstSeenAt = rec.FirstSeenAt.UTC().Format(time.RFC3339)
	}
	return ev, nil
}
