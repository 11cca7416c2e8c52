package queue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() bantay.QueueConfig {
	return bantay.QueueConfig{
		WorkerCount:     1,
		PollInterval:    10 * time.Millisecond,
		JobTimeout:      time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestWorkerPool_RegisterHandler(t *testing.T) {
	wp := NewWorkerPool(&mock.Queue{}, testLogger(), testConfig())

	wp.RegisterHandler("report_generation", bantay.JobHandlerFunc(func(ctx context.Context, job *bantay.Job) error {
		return nil
	}))

	_, exists := wp.GetHandler("report_generation")
	assert.True(t, exists)

	_, exists = wp.GetHandler("unknown")
	assert.False(t, exists)
}

func TestWorkerPool_StartTwice(t *testing.T) {
	wp := NewWorkerPool(&mock.Queue{}, testLogger(), testConfig())

	require.NoError(t, wp.Start(context.Background(), []string{bantay.QueueDefault}))
	defer wp.Stop()

	err := wp.Start(context.Background(), []string{bantay.QueueDefault})
	assert.ErrorContains(t, err, "already started")
}

func TestWorkerPool_StopWithoutStart(t *testing.T) {
	wp := NewWorkerPool(&mock.Queue{}, testLogger(), testConfig())

	err := wp.Stop()
	assert.ErrorContains(t, err, "not started")
}

func TestWorkerPool_ProcessesJob(t *testing.T) {
	jobID := uuid.New()
	var mu sync.Mutex
	var handled, completed bool

	queue := &mock.Queue{
		DequeueFn: func(ctx context.Context, workerID, queueName string) (*bantay.Job, error) {
			mu.Lock()
			defer mu.Unlock()
			if handled {
				return nil, nil
			}
			return &bantay.Job{ID: jobID, QueueName: queueName, JobType: "report_generation"}, nil
		},
		CompleteFn: func(ctx context.Context, id uuid.UUID, result []byte) error {
			mu.Lock()
			defer mu.Unlock()
			completed = id == jobID
			return nil
		},
	}

	wp := NewWorkerPool(queue, testLogger(), testConfig())
	wp.RegisterHandler("report_generation", bantay.JobHandlerFunc(func(ctx context.Context, job *bantay.Job) error {
		mu.Lock()
		defer mu.Unlock()
		handled = true
		return nil
	}))

	require.NoError(t, wp.Start(context.Background(), []string{bantay.QueueDefault}))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, wp.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, handled)
	assert.True(t, completed)
}

func TestWorkerPool_FailsJobOnHandlerError(t *testing.T) {
	jobID := uuid.New()
	var mu sync.Mutex
	var dispatched bool
	var failMsg string

	queue := &mock.Queue{
		DequeueFn: func(ctx context.Context, workerID, queueName string) (*bantay.Job, error) {
			mu.Lock()
			defer mu.Unlock()
			if dispatched {
				return nil, nil
			}
			dispatched = true
			return &bantay.Job{ID: jobID, QueueName: queueName, JobType: "report_generation"}, nil
		},
		FailFn: func(ctx context.Context, id uuid.UUID, errMsg string) error {
			mu.Lock()
			defer mu.Unlock()
			failMsg = errMsg
			return nil
		},
	}

	wp := NewWorkerPool(queue, testLogger(), testConfig())
	wp.RegisterHandler("report_generation", bantay.JobHandlerFunc(func(ctx context.Context, job *bantay.Job) error {
		return bantay.Internal("window query failed", nil)
	}))

	require.NoError(t, wp.Start(context.Background(), []string{bantay.QueueDefault}))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, wp.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, failMsg, "window query failed")
}

func TestWorkerPool_FailsUnknownJobType(t *testing.T) {
	jobID := uuid.New()
	var mu sync.Mutex
	var dispatched bool
	var failMsg string

	queue := &mock.Queue{
		DequeueFn: func(ctx context.Context, workerID, queueName string) (*bantay.Job, error) {
			mu.Lock()
			defer mu.Unlock()
			if dispatched {
				return nil, nil
			}
			dispatched = true
			return &bantay.Job{ID: jobID, QueueName: queueName, JobType: "mystery"}, nil
		},
		FailFn: func(ctx context.Context, id uuid.UUID, errMsg string) error {
			mu.Lock()
			defer mu.Unlock()
			failMsg = errMsg
			return nil
		},
	}

	wp := NewWorkerPool(queue, testLogger(), testConfig())

	require.NoError(t, wp.Start(context.Background(), []string{bantay.QueueDefault}))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, wp.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, failMsg, "no handler registered")
}
