package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"pratyaksh/internal/domain"
)

// OriginClassifier labels an image as artificial or human made.
type OriginClassifier interface {
	Classify(ctx context.Context, media domain.MediaReference) (label string, confidence float64, err error)
}

// TamperAnalyzer returns the mean pixel deviation of an error-level analysis.
type TamperAnalyzer interface {
	Analyze(ctx context.Context, media domain.MediaReference) (score float64, err error)
}

// Window bounds a satellite observation search.
type Window struct {
	From time.Time
	To   time.Time
}

// Observation is the most recent qualifying satellite pass over a point.
type Observation struct {
	Matched    bool
	NDWI       float64
	SceneID    string
	AcquiredAt time.Time
	Reason     string
}

// GroundTruthSource queries satellite imagery around a point. A nil observation
// with a nil error means no qualifying pass exists in the window.
type GroundTruthSource interface {
	Query(ctx context.Context, lat, lon float64, window Window) (*Observation, error)
}

// HistoryRecord summarises prior sightings of an image.
type HistoryRecord struct {
	SeenBefore  bool
	Matches     int
	FirstSeenAt time.Time
	Sources     []string
}

// HistorySource looks up whether an image was published before.
type HistorySource interface {
	Lookup(ctx context.Context, media domain.MediaReference) (HistoryRecord, error)
}

// Media store rejections. Both are caller faults.
var (
	ErrMediaEmpty    = errors.New("media is empty")
	ErrMediaTooLarge = errors.New("media exceeds upload limit")
)

// MediaStore owns transient copies of uploaded media.
type MediaStore interface {
	Acquire(ctx context.Context, filename string, body io.Reader) (domain.MediaReference, error)
	Release(ref domain.MediaReference) error
}
