package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.Queue = (*Queue)(nil)

// NewQueue creates a PostgreSQL-backed job queue.
func NewQueue(pool *pgxpool.Pool, logger *slog.Logger) *Queue {
	return &Queue{
		pool:   pool,
		logger: logger,
	}
}

// Queue is a PostgreSQL-backed job queue implementation. Dequeue uses
// FOR UPDATE SKIP LOCKED so concurrent workers never grab the same job.
type Queue struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Enqueue adds a job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job *bantay.Job, opts ...bantay.EnqueueOption) error {
	options := bantay.EnqueueOptions{MaxAttempts: 3}
	for _, opt := range opts {
		opt(&options)
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.QueueName == "" {
		job.QueueName = bantay.QueueDefault
	}
	job.Status = bantay.JobStatusPending
	job.Priority = options.Priority
	job.MaxAttempts = options.MaxAttempts
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.ScheduledAt = options.ScheduledAt
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = job.CreatedAt.Add(options.Delay)
	}

	query := `
		INSERT INTO jobs (
			id, queue_name, job_type, payload, status,
			priority, max_attempts, attempt_count, scheduled_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := q.pool.Exec(ctx, query,
		job.ID,
		job.QueueName,
		job.JobType,
		job.Payload,
		job.Status,
		job.Priority,
		job.MaxAttempts,
		job.AttemptCount,
		job.ScheduledAt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueueing job: %w", err)
	}

	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.JobType),
		slog.String("queue", job.QueueName))

	return nil
}

// Dequeue retrieves the next available job from a queue, claiming it for
// the worker. Returns nil when no jobs are available.
func (q *Queue) Dequeue(ctx context.Context, workerID, queueName string) (*bantay.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1, started_at = $2, worker_id = $3, attempt_count = attempt_count + 1
		WHERE id = (
			SELECT id FROM jobs
			WHERE queue_name = $4
			AND status = $5
			AND scheduled_at <= $6
			ORDER BY priority DESC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns

	now := time.Now()
	job, err := scanJob(q.pool.QueryRow(ctx, query,
		bantay.JobStatusRunning,
		now,
		workerID,
		queueName,
		bantay.JobStatusPending,
		now,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, nil // No jobs available
		}
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}

	return job, nil
}

// Complete marks a job as completed.
func (q *Queue) Complete(ctx context.Context, jobID uuid.UUID, result []byte) error {
	query := `
		UPDATE jobs
		SET status = $1, completed_at = $2, result = $3
		WHERE id = $4
	`

	_, err := q.pool.Exec(ctx, query,
		bantay.JobStatusCompleted,
		time.Now(),
		result,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	q.logger.Debug("job completed", slog.String("job_id", jobID.String()))
	return nil
}

// Fail records a job failure. While attempts remain the job goes back to
// pending with exponential backoff; otherwise it lands in failed for good.
func (q *Queue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	var attemptCount, maxAttempts int
	err := q.pool.QueryRow(ctx,
		`SELECT attempt_count, max_attempts FROM jobs WHERE id = $1`, jobID,
	).Scan(&attemptCount, &maxAttempts)
	if err != nil {
		if isNoRows(err) {
			return bantay.NotFound("Job not found")
		}
		return fmt.Errorf("failing job: %w", err)
	}

	if attemptCount < maxAttempts {
		backoff := time.Duration(1<<attemptCount) * time.Second
		query := `
			UPDATE jobs
			SET status = $1, scheduled_at = $2, error_message = $3, worker_id = NULL
			WHERE id = $4
		`
		_, err = q.pool.Exec(ctx, query,
			bantay.JobStatusPending,
			time.Now().Add(backoff),
			errMsg,
			jobID,
		)
		if err != nil {
			return fmt.Errorf("rescheduling job: %w", err)
		}

		q.logger.Debug("job rescheduled",
			slog.String("job_id", jobID.String()),
			slog.Duration("backoff", backoff),
			slog.String("error", errMsg))
		return nil
	}

	query := `
		UPDATE jobs
		SET status = $1, completed_at = $2, error_message = $3
		WHERE id = $4
	`
	_, err = q.pool.Exec(ctx, query,
		bantay.JobStatusFailed,
		time.Now(),
		errMsg,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failing job: %w", err)
	}

	q.logger.Debug("job failed",
		slog.String("job_id", jobID.String()),
		slog.String("error", errMsg))
	return nil
}

// GetJob retrieves a job by its ID.
func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*bantay.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(q.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Job not found")
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

const jobColumns = `id, queue_name, job_type, payload, status,
	priority, max_attempts, attempt_count, scheduled_at, created_at,
	started_at, completed_at, result, error_message, worker_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*bantay.Job, error) {
	job := &bantay.Job{}
	var errorMessage, workerID *string

	err := row.Scan(
		&job.ID,
		&job.QueueName,
		&job.JobType,
		&job.Payload,
		&job.Status,
		&job.Priority,
		&job.MaxAttempts,
		&job.AttemptCount,
		&job.ScheduledAt,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.Result,
		&errorMessage,
		&workerID,
	)
	if err != nil {
		return nil, err
	}

	job.ErrorMessage = deref(errorMessage)
	job.WorkerID = deref(workerID)
	return job, nil
}
