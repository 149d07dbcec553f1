// Package queue decouples "work requested" from "work executed". The
// Queue interface has two strategies: an inline queue that executes
// handlers synchronously (tests, CI, single-process deployments) and a
// RabbitMQ-backed queue consumed by the worker service. The strategy is
// chosen by whoever wires the system together, never by an environment
// check inside the queue.
package queue

import (
	"context"
	"encoding/json"
	"sync"
)

// Priority is a small ordinal; lower values dequeue first. Ties within
// one priority level are FIFO.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityNormal Priority = 5
	PriorityLow    Priority = 9
)

// maxAMQPPriority is the x-max-priority the broker queue is declared
// with. AMQP dequeues higher numeric priorities first, so the public
// "lower ordinal first" convention is inverted at the broker boundary.
const maxAMQPPriority = 10

// AMQPPriority maps the public ordinal onto the broker's scale.
func (p Priority) AMQPPriority() uint8 {
	if p < 1 {
		p = 1
	}
	if p > maxAMQPPriority {
		p = maxAMQPPriority
	}
	return uint8(maxAMQPPriority - int(p))
}

// Message is the unit placed on the queue. The job row referenced by
// JobID is the durable source of truth; the message only carries enough
// to locate and dispatch it.
type Message struct {
	JobID   string          `json:"job_id"`
	JobType string          `json:"job_type"`
	OwnerID string          `json:"owner_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HandlerFunc processes one dequeued message and returns the job result
// payload.
type HandlerFunc func(ctx context.Context, msg Message) (json.RawMessage, error)

// Counts describes one queue's operational state.
type Counts struct {
	Pending int `json:"pending"`
	Active  int `json:"active"`
	Failed  int `json:"failed"`
}

// Queue accepts work entries and dispatches them to registered
// handlers, one handler invocation per entry under normal operation.
type Queue interface {
	// Enqueue places a message on the queue with the given priority.
	Enqueue(ctx context.Context, msg Message, priority Priority) error

	// Process registers the handler invoked for messages of jobType.
	Process(jobType string, handler HandlerFunc)

	// Health returns per-queue pending/active/failed counts.
	Health(ctx context.Context) (map[string]Counts, error)
}

// Tracker is the slice of the job record store the queue needs to keep
// job rows in sync with execution. Calls carry the owner so the store
// can apply its tenant context.
type Tracker interface {
	MarkRunning(ctx context.Context, ownerID, jobID string) error
	MarkSucceeded(ctx context.Context, ownerID, jobID string, result json.RawMessage) error
	MarkFailed(ctx context.Context, ownerID, jobID, errorMsg string) error
}

// RetryPolicy bounds automatic retries of failed handler invocations.
// The zero value disables retries entirely; unbounded retry is not
// expressible because generation calls are costly.
type RetryPolicy struct {
	MaxAttempts int
}

// Attempts returns the total number of handler invocations allowed.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// registry is the shared handler table embedded by both strategies.
type registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]HandlerFunc)}
}

func (r *registry) register(jobType string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
}

func (r *registry) lookup(jobType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}
