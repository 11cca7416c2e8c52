package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.Queue = (*Queue)(nil)

// Queue is a mock implementation of bantay.Queue.
type Queue struct {
	EnqueueFn  func(ctx context.Context, job *bantay.Job, opts ...bantay.EnqueueOption) error
	DequeueFn  func(ctx context.Context, workerID, queueName string) (*bantay.Job, error)
	CompleteFn func(ctx context.Context, jobID uuid.UUID, result []byte) error
	FailFn     func(ctx context.Context, jobID uuid.UUID, errMsg string) error
	GetJobFn   func(ctx context.Context, jobID uuid.UUID) (*bantay.Job, error)

	// Enqueued records every enqueued job for assertions.
	Enqueued []*bantay.Job
}

func (q *Queue) Enqueue(ctx context.Context, job *bantay.Job, opts ...bantay.EnqueueOption) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	q.Enqueued = append(q.Enqueued, job)
	if q.EnqueueFn != nil {
		return q.EnqueueFn(ctx, job, opts...)
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, workerID, queueName string) (*bantay.Job, error) {
	if q.DequeueFn != nil {
		return q.DequeueFn(ctx, workerID, queueName)
	}
	return nil, nil
}

func (q *Queue) Complete(ctx context.Context, jobID uuid.UUID, result []byte) error {
	if q.CompleteFn != nil {
		return q.CompleteFn(ctx, jobID, result)
	}
	return nil
}

func (q *Queue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	if q.FailFn != nil {
		return q.FailFn(ctx, jobID, errMsg)
	}
	return nil
}

func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*bantay.Job, error) {
	if q.GetJobFn != nil {
		return q.GetJobFn(ctx, jobID)
	}
	return nil, bantay.NotFound("Job not found")
}
