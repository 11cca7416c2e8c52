// Package queue runs background job workers over the domain Queue.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kdelacruz/bantay"
)

// WorkerPool manages a pool of workers that process jobs from queues.
type WorkerPool struct {
	queue    bantay.Queue
	logger   *slog.Logger
	config   bantay.QueueConfig
	handlers map[string]bantay.JobHandler // job_type -> handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(queue bantay.Queue, logger *slog.Logger, config bantay.QueueConfig) *WorkerPool {
	return &WorkerPool{
		queue:    queue,
		logger:   logger,
		config:   config,
		handlers: make(map[string]bantay.JobHandler),
	}
}

// RegisterHandler registers a handler for a specific job type.
func (wp *WorkerPool) RegisterHandler(jobType string, handler bantay.JobHandler) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.handlers[jobType] = handler
	wp.logger.Info("registered job handler",
		slog.String("job_type", jobType),
	)
}

// Start starts the worker pool with the configured number of workers.
func (wp *WorkerPool) Start(ctx context.Context, queueNames []string) error {
	wp.mu.Lock()
	if wp.cancel != nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.mu.Unlock()

	for i := 0; i < wp.config.WorkerCount; i++ {
		wp.wg.Add(1)
		workerID := fmt.Sprintf("worker-%d", i+1)

		go wp.worker(workerCtx, workerID, queueNames)
	}

	wp.logger.Info("worker pool started",
		slog.Int("worker_count", wp.config.WorkerCount),
		slog.Any("queues", queueNames),
	)

	return nil
}

// Stop gracefully stops the worker pool.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.cancel == nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool not started")
	}
	cancel := wp.cancel
	wp.cancel = nil
	wp.mu.Unlock()

	wp.logger.Info("stopping worker pool")

	cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(wp.config.ShutdownTimeout):
		wp.logger.Warn("worker pool shutdown timeout",
			slog.Duration("timeout", wp.config.ShutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout after %v", wp.config.ShutdownTimeout)
	}
}

// worker is the main worker loop.
func (wp *WorkerPool) worker(ctx context.Context, workerID string, queueNames []string) {
	defer wp.wg.Done()

	wp.logger.Debug("worker started", slog.String("worker_id", workerID))

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wp.logger.Debug("worker stopping", slog.String("worker_id", workerID))
			return

		case <-ticker.C:
			if err := wp.processNextJob(ctx, workerID, queueNames); err != nil {
				wp.logger.Error("failed to process job",
					slog.String("worker_id", workerID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// processNextJob attempts to dequeue and process a single job.
func (wp *WorkerPool) processNextJob(ctx context.Context, workerID string, queueNames []string) error {
	for _, queueName := range queueNames {
		job, err := wp.queue.Dequeue(ctx, workerID, queueName)
		if err != nil {
			return fmt.Errorf("failed to dequeue job: %w", err)
		}
		if job == nil {
			continue // No jobs on this queue
		}
		return wp.executeJob(ctx, job)
	}
	return nil
}

// executeJob runs the job handler and updates the job status.
func (wp *WorkerPool) executeJob(ctx context.Context, job *bantay.Job) error {
	wp.logger.Info("processing job",
		slog.String("job_id", job.ID.String()),
		slog.String("queue", job.QueueName),
		slog.String("type", job.JobType),
		slog.Int("attempt", job.AttemptCount),
	)

	wp.mu.RLock()
	handler, exists := wp.handlers[job.JobType]
	wp.mu.RUnlock()

	if !exists {
		errMsg := fmt.Sprintf("no handler registered for job type: %s", job.JobType)
		wp.logger.Error("handler not found",
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.JobType),
		)
		return wp.queue.Fail(ctx, job.ID, errMsg)
	}

	jobCtx, cancel := context.WithTimeout(ctx, wp.config.JobTimeout)
	defer cancel()

	startTime := time.Now()
	err := handler.Handle(jobCtx, job)
	duration := time.Since(startTime)

	if err != nil {
		wp.logger.Error("job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)

		return wp.queue.Fail(ctx, job.ID, err.Error())
	}

	wp.logger.Info("job completed",
		slog.String("job_id", job.ID.String()),
		slog.Duration("duration", duration),
	)

	return wp.queue.Complete(ctx, job.ID, nil)
}

// GetHandler retrieves a registered handler (for testing).
func (wp *WorkerPool) GetHandler(jobType string) (bantay.JobHandler, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	handler, exists := wp.handlers[jobType]
	return handler, exists
}
