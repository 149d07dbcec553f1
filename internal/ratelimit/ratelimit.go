// Package ratelimit bounds how many expensive generation jobs a tenant
// may enqueue per window. The core only honors the limiter's decision;
// translating a refusal into an HTTP 429 is the API layer's concern.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter gates job creation per (owner, job type).
type Limiter interface {
	Check(ctx context.Context, ownerID, jobType string) (Decision, error)
}

// AllowAll is the no-op limiter used in tests and deployments without
// Redis.
type AllowAll struct{}

// NewAllowAll creates a limiter that permits everything.
func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

// Check always allows.
func (AllowAll) Check(_ context.Context, _, _ string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

var _ Limiter = (*AllowAll)(nil)
