package worker

import "errors"

// ErrNoHandler is returned when a message names a job type no handler
// was registered for.
var ErrNoHandler = errors.New("no handler registered for job type")

// retryableError wraps failures worth redelivering, such as the job
// store being briefly unreachable or a shutdown interrupting a running
// job. Everything else is recorded on the job row and the message is
// dropped.
type retryableError struct {
	err error
}

func newRetryableError(err error) *retryableError {
	return &retryableError{err: err}
}

func (e *retryableError) Error() string {
	return "retryable: " + e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}
