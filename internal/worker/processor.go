package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// processJob drives one delivery through claim, handler execution, and
// terminal status. The returned error feeds the ACK/NACK decision in
// the worker loop.
func (w *Worker) processJob(ctx context.Context, m *jobMessage) error {
	msg := m.msg

	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("job_type", msg.JobType),
		slog.String("worker_id", w.workerID),
	)

	// Claim the job (QUEUED -> RUNNING). Duplicate deliveries lose the
	// claim and are dropped here.
	job, err := w.jobs.Claim(ctx, msg.OwnerID, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return fmt.Errorf("job already claimed: %w", err)
		}
		// The claim never happened, so redelivery is safe.
		return newRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	handler, ok := w.queue.Dispatch(job.JobType)
	if !ok {
		w.logger.Error("No handler registered",
			slog.String("job_id", job.JobID),
			slog.String("job_type", job.JobType),
		)
		if markErr := w.jobs.MarkFailed(ctx, job.OwnerID, job.JobID, ErrNoHandler.Error()); markErr != nil {
			w.logger.Error("Failed to mark job failed",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		return fmt.Errorf("%w: %s", ErrNoHandler, job.JobType)
	}

	// The job row is the source of truth for the payload; the message
	// copy is only a fallback.
	if len(msg.Payload) == 0 {
		msg.Payload = job.Payload
	}

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	result, err := handler(jobCtx, msg)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the handler; hand the job back to
			// the queue instead of failing it.
			requeueCtx := context.WithoutCancel(ctx)
			if rqErr := w.jobs.Requeue(requeueCtx, job.OwnerID, job.JobID); rqErr != nil {
				w.logger.Error("Failed to requeue interrupted job",
					slog.String("job_id", job.JobID),
					slog.String("error", rqErr.Error()),
				)
			}
			return newRetryableError(fmt.Errorf("job interrupted by shutdown: %w", err))
		}

		w.logger.Error("Job execution failed",
			slog.String("job_id", job.JobID),
			slog.String("job_type", job.JobType),
			slog.String("error", err.Error()),
		)
		if markErr := w.jobs.MarkFailed(ctx, job.OwnerID, job.JobID, err.Error()); markErr != nil {
			w.logger.Error("Failed to mark job failed",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		return fmt.Errorf("job execution failed: %w", err)
	}

	if err := w.jobs.MarkSucceeded(ctx, job.OwnerID, job.JobID, result); err != nil {
		// The work is done; redelivery would lose the claim anyway, so
		// ACK and surface the inconsistency in the logs.
		w.logger.Error("Job succeeded but status update failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	w.logger.Info("Job completed successfully",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
	)

	return nil
}
