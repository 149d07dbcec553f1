package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Inline executes the registered handler synchronously inside Enqueue,
// so routes that enqueue and immediately read produce deterministic
// results. Job rows move through the same lifecycle as with a real
// broker.
type Inline struct {
	registry *registry
	tracker  Tracker
	retry    RetryPolicy
	logger   *slog.Logger

	mu     sync.Mutex
	failed int
}

// NewInline creates a synchronous queue strategy.
func NewInline(tracker Tracker, retry RetryPolicy, logger *slog.Logger) *Inline {
	return &Inline{
		registry: newRegistry(),
		tracker:  tracker,
		retry:    retry,
		logger:   logger,
	}
}

// Process registers a handler for a job type.
func (q *Inline) Process(jobType string, handler HandlerFunc) {
	q.registry.register(jobType, handler)
}

// Enqueue runs the handler for msg before returning. A handler error is
// recorded on the job row and does not surface as an enqueue failure,
// matching broker semantics where the publish has already succeeded.
func (q *Inline) Enqueue(ctx context.Context, msg Message, _ Priority) error {
	handler, ok := q.registry.lookup(msg.JobType)
	if !ok {
		return fmt.Errorf("no handler registered for job type %q", msg.JobType)
	}

	if err := q.tracker.MarkRunning(ctx, msg.OwnerID, msg.JobID); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	var result []byte
	var err error
	for attempt := 1; attempt <= q.retry.Attempts(); attempt++ {
		result, err = q.invoke(ctx, handler, msg)
		if err == nil {
			break
		}

		q.logger.Warn("Inline job attempt failed",
			slog.String("job_id", msg.JobID),
			slog.String("job_type", msg.JobType),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", q.retry.Attempts()),
			slog.String("error", err.Error()),
		)
	}

	if err != nil {
		q.mu.Lock()
		q.failed++
		q.mu.Unlock()

		if markErr := q.tracker.MarkFailed(ctx, msg.OwnerID, msg.JobID, err.Error()); markErr != nil {
			q.logger.Error("Failed to mark job failed",
				slog.String("job_id", msg.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		return nil
	}

	if markErr := q.tracker.MarkSucceeded(ctx, msg.OwnerID, msg.JobID, result); markErr != nil {
		q.logger.Error("Failed to mark job succeeded",
			slog.String("job_id", msg.JobID),
			slog.String("error", markErr.Error()),
		)
	}

	return nil
}

// invoke runs the handler with panic containment; a panicking handler
// must not take the caller down.
func (q *Inline) invoke(ctx context.Context, handler HandlerFunc, msg Message) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}

// Health reports counters for the single in-process queue. Pending and
// active are always zero because execution happens inside Enqueue.
func (q *Inline) Health(_ context.Context) (map[string]Counts, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return map[string]Counts{
		"inline": {Pending: 0, Active: 0, Failed: q.failed},
	}, nil
}

var _ Queue = (*Inline)(nil)
