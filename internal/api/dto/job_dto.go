package dto

import (
	"encoding/json"

	"github.com/lessonforge/lessonforge/internal/domain"
)

type ListJobsRequest struct {
	JobType  string `form:"job_type"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type PollJobsRequest struct {
	JobIDs []string `json:"job_ids" binding:"required,min=1,max=100"`
}

type PollJobsResponse struct {
	Jobs []JobDTO `json:"jobs"`
}

type JobDTO struct {
	JobID           string          `json:"job_id"`
	JobType         string          `json:"job_type"`
	Status          string          `json:"status"`
	Progress        int             `json:"progress"`
	ProgressMessage string          `json:"progress_message,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreatedAt       string          `json:"created_at"`
	StartedAt       string          `json:"started_at,omitempty"`
	CompletedAt     string          `json:"completed_at,omitempty"`
	UpdatedAt       string          `json:"updated_at"`
}

// FromJob converts a job record into its API representation. Timestamps
// are RFC 3339 strings; the owner never appears because every route is
// already tenant scoped.
func FromJob(job *domain.Job) JobDTO {
	d := JobDTO{
		JobID:           job.JobID,
		JobType:         job.JobType,
		Status:          job.Status,
		Progress:        job.Progress,
		ProgressMessage: job.ProgressMessage,
		Result:          job.Result,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt.Format(timeFormat),
		UpdatedAt:       job.UpdatedAt.Format(timeFormat),
	}
	if job.StartedAt != nil {
		d.StartedAt = job.StartedAt.Format(timeFormat)
	}
	if job.CompletedAt != nil {
		d.CompletedAt = job.CompletedAt.Format(timeFormat)
	}
	return d
}
