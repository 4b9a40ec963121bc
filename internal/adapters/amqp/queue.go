// Package amqp carries verification jobs and results over RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"pratyaksh/internal/logging"
	"pratyaksh/internal/ports"
)

const consumerTag = "pratyaksh-verifier"

var errNoMediaURL = errors.New("job has no media_url")

// Queue consumes jobs from one durable queue and publishes results to another.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	jobQueue    string
	resultQueue string
	prefetch    int

	pubMu sync.Mutex
	log   *slog.Logger
}

// Dial connects and declares both queues. prefetch should match the worker
// count so the broker never hands out more jobs than can run.
func Dial(url, jobQueue, resultQueue string, prefetch int) (*Queue, error) {
	log := logging.New("amqp")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, name := range []string{jobQueue, resultQueue} {
		if _, err := ch.QueueDeclare(
			name,  // queue name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	if prefetch < 1 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.Warn("failed to set qos", "prefetch", prefetch, "error", err)
	}
	log.Info("connected", "jobs", jobQueue, "results", resultQueue, "prefetch", prefetch)

	return &Queue{
		conn:        conn,
		channel:     ch,
		jobQueue:    jobQueue,
		resultQueue: resultQueue,
		prefetch:    prefetch,
		log:         log,
	}, nil
}

// Consume delivers decoded jobs until ctx is cancelled or the broker closes
// the channel. Undecodable messages are rejected without requeue.
func (q *Queue) Consume(ctx context.Context) (<-chan ports.VerifyJob, error) {
	deliveries, err := q.channel.Consume(
		q.jobQueue,  // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}

	out := make(chan ports.VerifyJob)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				if err := q.channel.Cancel(consumerTag, false); err != nil {
					q.log.Warn("cancel consumer", "error", err)
				}
				return
			case d, ok := <-deliveries:
				if !ok {
					q.log.Warn("delivery channel closed")
					return
				}
				job, err := decodeJob(d.Body, d.MessageId)
				if err != nil {
					q.log.Error("rejecting undecodable job", "delivery_tag", d.DeliveryTag, "error", err)
					if nerr := d.Nack(false, false); nerr != nil {
						q.log.Error("nack failed", "delivery_tag", d.DeliveryTag, "error", nerr)
					}
					continue
				}
				delivery := d
				job.Ack = func() error { return delivery.Ack(false) }
				job.Nack = func(requeue bool) error { return delivery.Nack(false, requeue) }
				select {
				case out <- job:
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

// Publish sends a persistent result message keyed by job id.
func (q *Queue) Publish(ctx context.Context, result ports.JobResult) error {
	body, err := encodeResult(result)
	if err != nil {
		return err
	}
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	err = q.channel.PublishWithContext(
		ctx,
		"",            // exchange
		q.resultQueue, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    result.JobID,
		},
	)
	if err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

func (q *Queue) Close() error {
	var errs []error
	if q.channel != nil {
		errs = append(errs, q.channel.Close())
	}
	if q.conn != nil {
		errs = append(errs, q.conn.Close())
	}
	return errors.Join(errs...)
}

func decodeJob(body []byte, messageID string) (ports.VerifyJob, error) {
	var job ports.VerifyJob
	if err := json.Unmarshal(body, &job); err != nil {
		return ports.VerifyJob{}, fmt.Errorf("decode job: %w", err)
	}
	if job.MediaURL == "" {
		return ports.VerifyJob{}, errNoMediaURL
	}
	if job.ID == "" {
		job.ID = messageID
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	return job, nil
}

func encodeResult(result ports.JobResult) ([]byte, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return body, nil
}
