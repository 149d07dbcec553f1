package domain

import (
	"encoding/json"
	"time"
)

// Job status constants
const (
	JobStatusQueued    = "QUEUED"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

// Job type constants
const (
	JobTypeGenerateLesson    = "generate_lesson"
	JobTypeChapterExtraction = "chapter_extraction"
	JobTypeUploadPDF         = "upload_pdf"
)

// Job represents one unit of asynchronous work tracked in the database.
type Job struct {
	JobID           string          `db:"job_id"`
	OwnerID         string          `db:"owner_id"`
	JobType         string          `db:"job_type"`
	Status          string          `db:"status"`
	Progress        int             `db:"progress"`
	ProgressMessage string          `db:"progress_message"`
	Payload         json.RawMessage `db:"payload"`
	Result          json.RawMessage `db:"result"`
	ErrorMessage    string          `db:"error_message"`
	CreatedAt       time.Time       `db:"created_at"`
	StartedAt       *time.Time      `db:"started_at"`
	CompletedAt     *time.Time      `db:"completed_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// IsTerminal reports whether the job has reached a final status.
func (j *Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// IsTerminalStatus reports whether status is SUCCEEDED or FAILED.
func IsTerminalStatus(status string) bool {
	return status == JobStatusSucceeded || status == JobStatusFailed
}

// ValidJobStatus reports whether status is one of the known job statuses.
func ValidJobStatus(status string) bool {
	switch status {
	case JobStatusQueued, JobStatusRunning, JobStatusSucceeded, JobStatusFailed:
		return true
	}
	return false
}

// ValidJobType reports whether jobType is one of the known job types.
func ValidJobType(jobType string) bool {
	switch jobType {
	case JobTypeGenerateLesson, JobTypeChapterExtraction, JobTypeUploadPDF:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from one status to another.
// The lifecycle is QUEUED -> RUNNING -> {SUCCEEDED, FAILED}; terminal
// states are sticky, and the only backwards edge is an explicit requeue
// of a RUNNING job back to QUEUED.
func CanTransition(from, to string) bool {
	switch from {
	case JobStatusQueued:
		return to == JobStatusRunning || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusSucceeded || to == JobStatusFailed || to == JobStatusQueued
	default:
		return false
	}
}
