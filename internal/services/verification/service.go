// Package verification runs one media verification end to end: validate,
// store, collect evidence, fuse, release.
package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/observability"
	"pratyaksh/internal/ports"
	"pratyaksh/internal/services/fusion"
)

var (
	// ErrInvalidInput is a caller fault detected before any evidence is collected.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResource is a failure to store or clean up the transient media copy.
	ErrResource = errors.New("media resource failure")
)

// Request channels, used as a metrics label.
const (
	ChannelHTTP  = "http"
	ChannelQueue = "queue"
	ChannelCLI   = "cli"
)

var validate = validator.New()

type point struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

// ParseCoordinates parses an optional coordinate pair. Blank values mean
// absent, and a pair with only one side present is treated as absent too.
func ParseCoordinates(lat, lon string) (*domain.Coordinates, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidInput, lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidInput, lon)
	}
	if err := validate.Struct(point{Lat: la, Lon: lo}); err != nil {
		return nil, fmt.Errorf("%w: coordinates out of range (%s, %s)", ErrInvalidInput, lat, lon)
	}
	return &domain.Coordinates{Lat: la, Lon: lo}, nil
}

// Collector gathers the evidence bundle for stored media.
type Collector interface {
	Collect(ctx context.Context, media domain.MediaReference, at *domain.Coordinates) domain.EvidenceBundle
}

// Upload is one verification request.
type Upload struct {
	Filename string
	Body     io.Reader
	Lat      string
	Lon      string
	// Channel labels where the request came from; empty means http.
	Channel string
}

type Service struct {
	store     ports.MediaStore
	collector Collector
	metrics   *observability.Metrics
	log       *slog.Logger
	tracer    trace.Tracer
}

func New(store ports.MediaStore, collector Collector, metrics *observability.Metrics) *Service {
	return &Service{
		store:     store,
		collector: collector,
		metrics:   metrics,
		log:       logging.New("verifier"),
		tracer:    otel.Tracer(observability.TracerName),
	}
}

// Verify runs the pipeline for up. The stored media copy is released on every
// exit path, including panics raised during collection.
func (s *Service) Verify(ctx context.Context, up Upload) (resp domain.Response, err error) {
	channel := up.Channel
	if channel == "" {
		channel = ChannelHTTP
	}
	ctx, span := s.tracer.Start(ctx, "verification.verify", trace.WithAttributes(attribute.String("channel", channel)))
	defer func() {
		status := domain.StatusSuccess
		if err != nil {
			status = domain.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.metrics.ObserveRequest(channel, status)
		span.End()
	}()

	if up.Body == nil {
		return domain.Response{}, fmt.Errorf("%w: no media file provided", ErrInvalidInput)
	}
	coords, err := ParseCoordinates(up.Lat, up.Lon)
	if err != nil {
		return domain.Response{}, err
	}

	media, err := s.store.Acquire(ctx, up.Filename, up.Body)
	if err != nil {
		if errors.Is(err, ports.ErrMediaEmpty) || errors.Is(err, ports.ErrMediaTooLarge) {
			return domain.Response{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return domain.Response{}, fmt.Errorf("%w: store upload: %v", ErrResource, err)
	}
	defer func() {
		if rerr := s.store.Release(media); rerr != nil {
			s.metrics.ObserveReleaseFailure()
			s.log.Error("failed to release media", "media_id", media.ID, "error", rerr)
			if err == nil {
				resp, err = domain.Response{}, fmt.Errorf("%w: release media: %v", ErrResource, rerr)
			}
		}
	}()

	bundle := s.collector.Collect(ctx, media, coords)
	verdict, rule := fusion.Explain(bundle)
	s.metrics.ObserveVerdict(string(verdict.Label), rule)
	span.SetAttributes(attribute.String("verdict.label", string(verdict.Label)), attribute.String("verdict.rule", rule))
	s.log.Info("media verified",
		"media_id", media.ID, "label", verdict.Label, "rule", rule, "coordinates", coords != nil)

	details := bundle.Details()
	return domain.Response{
		Status:  domain.StatusSuccess,
		Verdict: &verdict,
		Details: &details,
	}, nil
}

// ErrorResponse is the user-visible shape of a failed verification.
func ErrorResponse(err error) domain.Response {
	return domain.Response{Status: domain.StatusError, Message: err.Error()}
}
