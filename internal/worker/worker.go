package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/queue"
	"github.com/lessonforge/lessonforge/shared/rabbitmq"
)

// JobStore is the slice of the job record store the worker needs to
// track execution. The owner comes from the queue message and scopes
// every row access to its tenant.
type JobStore interface {
	Claim(ctx context.Context, ownerID, jobID string) (*domain.Job, error)
	Requeue(ctx context.Context, ownerID, jobID string) error
	MarkSucceeded(ctx context.Context, ownerID, jobID string, result json.RawMessage) error
	MarkFailed(ctx context.Context, ownerID, jobID, errorMsg string) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Jobs          JobStore
	RabbitClient  *rabbitmq.Client
	Queue         *queue.Rabbit
	WorkerID      string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker consumes queue messages and drives registered handlers,
// keeping job rows in sync with execution.
type Worker struct {
	logger        *slog.Logger
	jobs          JobStore
	rabbitClient  *rabbitmq.Client
	queue         *queue.Rabbit
	workerID      string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	jobsChan      chan *jobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// jobMessage pairs a parsed queue message with the broker delivery tag
// needed to ACK or NACK it.
type jobMessage struct {
	msg         queue.Message
	deliveryTag uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch < 1 {
		prefetch = concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		jobs:          cfg.Jobs,
		rabbitClient:  cfg.RabbitClient,
		queue:         cfg.Queue,
		workerID:      cfg.WorkerID,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		jobTimeout:    cfg.JobTimeout,
		jobsChan:      make(chan *jobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until ctx is
// canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
