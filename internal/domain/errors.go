package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found for the
	// requesting tenant. A job owned by another tenant is reported
	// with this same error, never as a permission failure.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyClaimed is returned when attempting to claim a job
	// that is not in QUEUED status anymore.
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in QUEUED status")

	// ErrTerminalState is returned when a state transition is requested
	// on a job that already reached SUCCEEDED or FAILED.
	ErrTerminalState = errors.New("job is in a terminal state")

	// ErrArtifactNotFound is returned when no lesson exists for a scope.
	ErrArtifactNotFound = errors.New("lesson not found")

	// ErrArtifactExists is returned when inserting a lesson for a scope
	// that already has one. The orchestrator converts this into a
	// re-fetch of the existing row, never into a caller-visible error.
	ErrArtifactExists = errors.New("lesson already exists for scope")

	// ErrInvalidInput is returned when caller-supplied scope or source
	// content fails validation. No job is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidGeneration is returned when the model produced
	// well-formed but semantically invalid output. Terminal for the
	// job attempt; not retried.
	ErrInvalidGeneration = errors.New("invalid generation output")

	// ErrStoreUnavailable is returned when the database or broker is
	// unreachable. Fatal for the current request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRateLimited is returned when the per-tenant rate limiter
	// refuses a new generation job.
	ErrRateLimited = errors.New("rate limit exceeded")
)
