package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
)

// Producer publishes evaluation jobs and results. Publishes are retried
// with backoff so a broker reconnect window does not drop a learner's
// submission.
type Producer struct {
	conn    *Connection
	retrier retry.Retry[struct{}]
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{
		conn: conn,
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
		}),
	}
}

// PublishEvalJob publishes a submission for a worker to evaluate
func (p *Producer) PublishEvalJob(ctx context.Context, job *EvalJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.publish(ctx, EvalQueueName, job); err != nil {
		return fmt.Errorf("failed to publish evaluation job: %w", err)
	}

	slog.Info("published evaluation job",
		"job_id", job.ID,
		"exercise_id", job.ExerciseID,
	)
	return nil
}

// PublishResult publishes an evaluation result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *EvalResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.publish(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("failed to publish evaluation result: %w", err)
	}

	slog.Info("published evaluation result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, queue string, data any) error {
	_, err := p.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.conn.PublishJSON(ctx, queue, data)
	})
	return err
}
