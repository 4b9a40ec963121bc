package evidence

import (
	"context"
	"errors"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/observability"
)

var (
	// ErrNotConfigured marks a source that has no collaborator wired.
	ErrNotConfigured = errors.New("source not configured")
	// ErrMalformed marks a collaborator response outside its contract.
	ErrMalformed = errors.New("malformed response")
	// ErrPanic marks a collaborator that panicked.
	ErrPanic = errors.New("source panicked")
)

const methodELA = "ELA Analysis"

// The unavailable value of each evidence kind. Every fault an adapter sees
// (error, timeout, panic, malformed response) is mapped through exactly one
// of these.

func UnavailableAuthenticity(err error) domain.AuthenticityEvidence {
	return domain.AuthenticityEvidence{
		Label:      domain.AuthenticityUncertain,
		Confidence: 0,
		Error:      describe(err),
	}
}

// UnavailableTamper fails open: a failed check reports no tampering.
func UnavailableTamper(err error) domain.TamperEvidence {
	return domain.TamperEvidence{
		Suspicious: false,
		Score:      0,
		Method:     methodELA,
		Error:      describe(err),
	}
}

func UnavailableSatellite(err error) domain.SatelliteEvidence {
	return domain.SatelliteEvidence{
		Status: domain.SatelliteError,
		Reason: describe(err),
	}
}

// SkippedSatellite is used when no coordinates were supplied. It is not a
// failure and never reaches a collaborator.
func SkippedSatellite() domain.SatelliteEvidence {
	return domain.SatelliteEvidence{Status: domain.SatelliteSkipped}
}

func UnavailableHistory(err error) domain.HistoryEvidence {
	return domain.HistoryEvidence{
		SeenBefore: false,
		Error:      describe(err),
	}
}

func describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeTimeout
	default:
		return observability.OutcomeUnavailable
	}
}
