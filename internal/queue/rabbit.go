package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lessonforge/lessonforge/shared/rabbitmq"
)

// Rabbit is the broker-backed queue strategy. The API service enqueues
// through it; the worker service consumes deliveries and dispatches
// them to the handlers registered here.
type Rabbit struct {
	registry *registry
	client   *rabbitmq.Client
	logger   *slog.Logger
}

// NewRabbit creates a RabbitMQ-backed queue strategy. Broker deliveries
// carry no attempt count, so bounded retry lives in the handlers, not
// here.
func NewRabbit(client *rabbitmq.Client, logger *slog.Logger) *Rabbit {
	return &Rabbit{
		registry: newRegistry(),
		client:   client,
		logger:   logger,
	}
}

// Process registers a handler for a job type.
func (q *Rabbit) Process(jobType string, handler HandlerFunc) {
	q.registry.register(jobType, handler)
}

// Enqueue publishes the message to the broker with its priority.
func (q *Rabbit) Enqueue(ctx context.Context, msg Message, priority Priority) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	if err := q.client.PublishPriority(ctx, body, "application/json", priority.AMQPPriority()); err != nil {
		return fmt.Errorf("failed to publish job message: %w", err)
	}

	q.logger.Debug("Job message published",
		slog.String("job_id", msg.JobID),
		slog.String("job_type", msg.JobType),
		slog.Int("priority", int(priority)),
	)

	return nil
}

// Dispatch looks up the handler registered for jobType. The worker's
// processing loop uses it to route claimed jobs.
func (q *Rabbit) Dispatch(jobType string) (HandlerFunc, bool) {
	return q.registry.lookup(jobType)
}

// Health inspects the broker queue. Active and failed counts live in
// the job record store, not the broker, so only pending depth is
// reported here.
func (q *Rabbit) Health(_ context.Context) (map[string]Counts, error) {
	stats, err := q.client.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to query queue health: %w", err)
	}

	return map[string]Counts{
		stats.Name: {Pending: stats.Messages},
	}, nil
}

var _ Queue = (*Rabbit)(nil)
