package ports

import (
	"context"

	"pratyaksh/internal/domain"
)

// VerifyJob asks for a verification of media reachable by URL.
type VerifyJob struct {
	ID       string   `json:"job_id"`
	MediaURL string   `json:"media_url"`
	Filename string   `json:"filename,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`

	// Settlement callbacks supplied by the queue adapter.
	Ack  func() error             `json:"-"`
	Nack func(requeue bool) error `json:"-"`
}

// JobResult is published once per consumed job.
type JobResult struct {
	JobID string `json:"job_id"`
	domain.Response
}

// JobQueue delivers verification jobs and accepts their results.
type JobQueue interface {
	Consume(ctx context.Context) (<-chan VerifyJob, error)
	Publish(ctx context.Context, result JobResult) error
}
