package verifyrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/ports"
	"pratyaksh/internal/services/verification"
)

// JobProcessor turns one job into its result. It never fails: faults are
// reported inside the result.
type JobProcessor interface {
	Process(ctx context.Context, job ports.VerifyJob) ports.JobResult
}

// Run starts concurrency workers that process jobs from queue until ctx is
// cancelled and the delivery channel drains. Each job is acked once its result
// is published. A failed publish, or a job cut short by cancellation, is
// nacked for redelivery.
func Run(ctx context.Context, queue ports.JobQueue, processor JobProcessor, concurrency int) error {
	if concurrency < 1 {
		return nil
	}
	jobs, err := queue.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	log := logging.New("verifyrunner")

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobs {
				handle(ctx, log, idx, queue, processor, job)
			}
		}(i)
	}
	wg.Wait()
	return nil
}

func handle(ctx context.Context, log *slog.Logger, worker int, queue ports.JobQueue, processor JobProcessor, job ports.VerifyJob) {
	if ctx.Err() != nil {
		requeue(log, worker, job)
		return
	}
	result := processor.Process(ctx, job)
	// A shutdown mid-job leaves every evidence source cancelled; that result
	// describes the shutdown, not the media.
	if ctx.Err() != nil {
		log.Warn("job interrupted by shutdown, requeueing", "worker", worker, "job_id", job.ID)
		requeue(log, worker, job)
		return
	}

	// Publishing uses its own deadline so a result can still go out while
	// the worker is shutting down.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := queue.Publish(pubCtx, result); err != nil {
		log.Error("publish result failed", "worker", worker, "job_id", job.ID, "error", err)
		requeue(log, worker, job)
		return
	}
	if job.Ack != nil {
		if err := job.Ack(); err != nil {
			log.Error("ack failed", "worker", worker, "job_id", job.ID, "error", err)
		}
	}
	log.Info("job done", "worker", worker, "job_id", job.ID, "status", result.Status)
}

func requeue(log *slog.Logger, worker int, job ports.VerifyJob) {
	if job.Nack == nil {
		return
	}
	if err := job.Nack(true); err != nil {
		log.Error("nack failed", "worker", worker, "job_id", job.ID, "error", err)
	}
}

// Verifier runs one verification.
type Verifier interface {
	Verify(ctx context.Context, up verification.Upload) (domain.Response, error)
}

var errFetch = errors.New("fetch media")

// VerifyProcessor downloads a job's media and runs it through the verifier.
type VerifyProcessor struct {
	Verifier Verifier
	HTTP     *http.Client
	// MaxBytes caps the download; the media store enforces the same limit.
	MaxBytes int64
	// Timeout bounds one job end to end.
	Timeout time.Duration
}

func (p VerifyProcessor) Process(ctx context.Context, job ports.VerifyJob) ports.JobResult {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	resp, err := p.run(ctx, job)
	if err != nil {
		return ports.JobResult{JobID: job.ID, Response: verification.ErrorResponse(err)}
	}
	return ports.JobResult{JobID: job.ID, Response: resp}
}

func (p VerifyProcessor) run(ctx context.Context, job ports.VerifyJob) (domain.Response, error) {
	u, err := url.Parse(job.MediaURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Response{}, fmt.Errorf("%w: media_url must be an http(s) URL", verification.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", errFetch, err)
	}
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", errFetch, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return domain.Response{}, fmt.Errorf("%w: status %d", errFetch, res.StatusCode)
	}

	var body io.Reader = res.Body
	if p.MaxBytes > 0 {
		body = io.LimitReader(res.Body, p.MaxBytes+1)
	}
	filename := job.Filename
	if filename == "" {
		filename = path.Base(u.Path)
	}
	return p.Verifier.Verify(ctx, verification.Upload{
		Filename: filename,
		Body:     body,
		Lat:      formatCoord(job.Lat),
		Lon:      formatCoord(job.Lon),
		Channel:  verification.ChannelQueue,
	})
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
