package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/shared/postgresql"
)

const jobColumns = `
	job_id, owner_id, job_type, status, progress, progress_message,
	payload, result, error_message, created_at, started_at, completed_at, updated_at
`

// Store handles durable CRUD for job records. Every operation runs in a
// tenant-scoped transaction so the row-level-security policy on the
// jobs table enforces isolation in addition to the owner predicates in
// the queries. Worker-side operations take the owner from the queue
// message, which carries it alongside the job id.
type Store struct {
	pg     *postgresql.Client
	logger *slog.Logger
}

// NewStore creates a new job record store.
func NewStore(pg *postgresql.Client, logger *slog.Logger) *Store {
	return &Store{
		pg:     pg,
		logger: logger,
	}
}

// Create inserts a new job with status QUEUED and zero progress.
func (s *Store) Create(ctx context.Context, ownerID, jobType string, payload json.RawMessage) (*domain.Job, error) {
	now := time.Now().UTC()
	job := &domain.Job{
		JobID:     uuid.New().String(),
		OwnerID:   ownerID,
		JobType:   jobType,
		Status:    domain.JobStatusQueued,
		Progress:  0,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO jobs (
			job_id, owner_id, job_type, status, progress,
			payload, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)
	`

	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		_, execErr := tx.ExecContext(
			ctx,
			query,
			job.JobID,
			job.OwnerID,
			job.JobType,
			job.Status,
			job.Progress,
			[]byte(job.Payload),
			job.CreatedAt,
			job.UpdatedAt,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create job: %v", domain.ErrStoreUnavailable, err)
	}

	return job, nil
}

// Get returns the job strictly scoped to ownerID. A job owned by a
// different tenant is reported as ErrJobNotFound so existence never
// leaks across tenants.
func (s *Store) Get(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1 AND owner_id = $2`

	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &job, query, jobID, ownerID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// Filter narrows a tenant-scoped job listing.
type Filter struct {
	JobType  string
	Status   string
	PageSize int
	Cursor   *Cursor
}

// List returns a tenant-scoped, reverse-chronological page of jobs.
// It fetches one row beyond PageSize so the caller can detect whether
// a next page exists.
func (s *Store) List(ctx context.Context, ownerID string, filter Filter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE owner_id = $1`
	args := []interface{}{ownerID}
	argIdx := 2

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, job_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, job_id DESC"

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &jobs, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// Poll returns the current state of many jobs at once for efficient
// client polling. Unknown or cross-tenant ids are silently absent from
// the result.
func (s *Store) Poll(ctx context.Context, ownerID string, jobIDs []string) ([]domain.Job, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE owner_id = $1 AND job_id = ANY($2)`

	var jobs []domain.Job
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &jobs, query, ownerID, pq.Array(jobIDs))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to poll jobs: %w", err)
	}

	return jobs, nil
}

// Claim transitions a job from QUEUED to RUNNING using optimistic
// locking and returns the full row. Returns ErrJobAlreadyClaimed when
// the job is gone or no longer QUEUED, so duplicate deliveries resolve
// to a single execution.
func (s *Store) Claim(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $2
		  AND owner_id = $3
		  AND status = $4
		RETURNING ` + jobColumns

	var job domain.Job
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &job, query, domain.JobStatusRunning, jobID, ownerID, domain.JobStatusQueued)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim job - already claimed or not found",
				slog.String("job_id", jobID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	return &job, nil
}

// MarkRunning transitions a QUEUED job to RUNNING without returning
// the row.
func (s *Store) MarkRunning(ctx context.Context, ownerID, jobID string) error {
	_, err := s.Claim(ctx, ownerID, jobID)
	return err
}

// UpdateProgress records progress for a RUNNING job. Updates against
// jobs in any other status are dropped; progress on a terminal job is
// a stale write from a slow worker, not an error.
func (s *Store) UpdateProgress(ctx context.Context, ownerID, jobID string, percent int, message string) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	query := `
		UPDATE jobs
		SET progress = $1,
		    progress_message = $2,
		    updated_at = NOW()
		WHERE job_id = $3 AND owner_id = $4 AND status = $5
	`

	var rowsAffected int64
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		result, execErr := tx.ExecContext(ctx, query, percent, message, jobID, ownerID, domain.JobStatusRunning)
		if execErr != nil {
			return execErr
		}
		rowsAffected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job progress update dropped - job not running",
			slog.String("job_id", jobID),
			slog.Int("percent", percent),
		)
	}

	return nil
}

// MarkSucceeded transitions a job to SUCCEEDED and attaches its result.
func (s *Store) MarkSucceeded(ctx context.Context, ownerID, jobID string, resultPayload json.RawMessage) error {
	return s.complete(ctx, ownerID, jobID, domain.JobStatusSucceeded, resultPayload, "")
}

// MarkFailed transitions a job to FAILED and records the error message.
func (s *Store) MarkFailed(ctx context.Context, ownerID, jobID, errorMsg string) error {
	return s.complete(ctx, ownerID, jobID, domain.JobStatusFailed, nil, errorMsg)
}

// complete applies a terminal transition. Repeating the same terminal
// transition is harmless; crossing terminal states (SUCCEEDED after
// FAILED or vice versa) signals a logic error and is rejected loudly.
func (s *Store) complete(ctx context.Context, ownerID, jobID, status string, resultPayload json.RawMessage, errorMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    progress = CASE WHEN $1 = $6 THEN 100 ELSE progress END,
		    result = $2,
		    error_message = $3,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $4
		  AND owner_id = $5
		  AND status NOT IN ($6, $7)
	`

	var resultJSON []byte
	if resultPayload != nil {
		resultJSON = []byte(resultPayload)
	}

	var transitionErr error
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		result, execErr := tx.ExecContext(ctx, query,
			status, resultJSON, errorMsg, jobID, ownerID,
			domain.JobStatusSucceeded, domain.JobStatusFailed,
		)
		if execErr != nil {
			return fmt.Errorf("failed to update job status: %w", execErr)
		}

		rowsAffected, execErr := result.RowsAffected()
		if execErr != nil {
			return fmt.Errorf("failed to get rows affected: %w", execErr)
		}

		if rowsAffected > 0 {
			return nil
		}

		var current string
		if getErr := tx.GetContext(ctx, &current, `SELECT status FROM jobs WHERE job_id = $1 AND owner_id = $2`, jobID, ownerID); getErr != nil {
			if errors.Is(getErr, sql.ErrNoRows) {
				transitionErr = domain.ErrJobNotFound
				return nil
			}
			return fmt.Errorf("failed to check job status: %w", getErr)
		}

		if current == status {
			// Duplicate terminal write with the same outcome.
			s.logger.Debug("Duplicate terminal transition ignored",
				slog.String("job_id", jobID),
				slog.String("status", status),
			)
			return nil
		}

		s.logger.Error("Rejected transition out of terminal state",
			slog.String("job_id", jobID),
			slog.String("current_status", current),
			slog.String("requested_status", status),
		)
		transitionErr = domain.ErrTerminalState
		return nil
	})
	if err != nil {
		return err
	}
	if transitionErr != nil {
		return transitionErr
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

// Requeue resets a RUNNING job back to QUEUED for an explicit bounded
// retry. Terminal jobs are never requeued; retry of a failed job is
// expressed as a brand-new job.
func (s *Store) Requeue(ctx context.Context, ownerID, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    started_at = NULL,
		    progress = 0,
		    progress_message = '',
		    updated_at = NOW()
		WHERE job_id = $2 AND owner_id = $3 AND status = $4
	`

	var rowsAffected int64
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		result, execErr := tx.ExecContext(ctx, query, domain.JobStatusQueued, jobID, ownerID, domain.JobStatusRunning)
		if execErr != nil {
			return execErr
		}
		rowsAffected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrTerminalState
	}

	return nil
}
