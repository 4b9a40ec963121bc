// Package evidence wraps the four evidence collaborators and assembles their
// normalized outputs into one bundle per request.
//
// Adapters never return errors to callers. Each fault is mapped to the
// unavailable value of its evidence kind (see fallbacks.go), so a bundle is
// always fully populated.
package evidence

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/observability"
	"pratyaksh/internal/ports"
)

// Source names used in logs, metrics and spans.
const (
	SourceAuthenticity = "authenticity"
	SourceTamper       = "tamper"
	SourceSatellite    = "satellite"
	SourceHistory      = "history"
)

const (
	DefaultTimeout         = 20 * time.Second
	DefaultSatelliteWindow = 30 * 24 * time.Hour
)

// Sources are the collaborators injected into a collector. Any may be nil;
// a nil classifier, analyzer or ground-truth source yields unavailable
// evidence and a nil history source means NoHistory.
type Sources struct {
	Classifier  ports.OriginClassifier
	Tamper      ports.TamperAnalyzer
	GroundTruth ports.GroundTruthSource
	History     ports.HistorySource
}

type Options struct {
	// Timeout bounds each adapter call independently.
	Timeout         time.Duration
	SatelliteWindow time.Duration
	Now             func() time.Time
	Metrics         *observability.Metrics
	Logger          *slog.Logger
}

type Collector struct {
	authenticity *AuthenticityAdapter
	tamper       *TamperAdapter
	satellite    *SatelliteAdapter
	history      *HistoryAdapter

	metrics *observability.Metrics
	log     *slog.Logger
	tracer  trace.Tracer
}

func NewCollector(src Sources, opts Options) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SatelliteWindow <= 0 {
		opts.SatelliteWindow = DefaultSatelliteWindow
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("collector")
	}
	return &Collector{
		authenticity: NewAuthenticityAdapter(src.Classifier, opts.Timeout),
		tamper:       NewTamperAdapter(src.Tamper, opts.Timeout),
		satellite:    NewSatelliteAdapter(src.GroundTruth, opts.Timeout, opts.SatelliteWindow, opts.Now),
		history:      NewHistoryAdapter(src.History, opts.Timeout),
		metrics:      opts.Metrics,
		log:          opts.Logger,
		tracer:       otel.Tracer(observability.TracerName),
	}
}

// Collect queries every source for media and returns the completed bundle.
// The satellite source is only called when at is non-nil.
func (c *Collector) Collect(ctx context.Context, media domain.MediaReference, at *domain.Coordinates) domain.EvidenceBundle {
	ctx, span := c.tracer.Start(ctx, "evidence.collect",
		trace.WithAttributes(attribute.String("media.id", media.ID), attribute.Bool("coordinates", at != nil)))
	defer span.End()

	var (
		auth   domain.AuthenticityEvidence
		tamper domain.TamperEvidence
		sat    domain.SatelliteEvidence
		hist   domain.HistoryEvidence
	)

	var g errgroup.Group
	g.Go(func() error {
		auth = observe(ctx, c, SourceAuthenticity, func(ctx context.Context) (domain.AuthenticityEvidence, error) {
			return c.authenticity.collect(ctx, media)
		})
		return nil
	})
	g.Go(func() error {
		tamper = observe(ctx, c, SourceTamper, func(ctx context.Context) (domain.TamperEvidence, error) {
			return c.tamper.collect(ctx, media)
		})
		return nil
	})
	if at != nil {
		coords := *at
		g.Go(func() error {
			sat = observe(ctx, c, SourceSatellite, func(ctx context.Context) (domain.SatelliteEvidence, error) {
				return c.satellite.collect(ctx, coords)
			})
			return nil
		})
	} else {
		sat = SkippedSatellite()
		c.metrics.ObserveEvidence(SourceSatellite, observability.OutcomeSkipped, 0)
	}
	g.Go(func() error {
		hist = observe(ctx, c, SourceHistory, func(ctx context.Context) (domain.HistoryEvidence, error) {
			return c.history.collect(ctx, media)
		})
		return nil
	})
	_ = g.Wait()

	return domain.NewEvidenceBundle(auth, tamper, sat, hist)
}

func observe[T any](ctx context.Context, c *Collector, source string, fn func(context.Context) (T, error)) T {
	ctx, span := c.tracer.Start(ctx, "evidence."+source)
	defer span.End()

	start := time.Now()
	ev, err := fn(ctx)
	elapsed := time.Since(start)
	outcome := outcomeOf(err)

	c.metrics.ObserveEvidence(source, outcome, elapsed)
	span.SetAttributes(attribute.String("evidence.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, describe(err))
		c.log.Warn("evidence source unavailable",
			"source", source, "outcome", outcome, "elapsed", elapsed, "error", err)
		return ev
	}
	c.log.Debug("evidence collected", "source", source, "elapsed", elapsed)
	return ev
}
