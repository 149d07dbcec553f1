package dto

import (
	"time"

	"github.com/lessonforge/lessonforge/internal/domain"
)

const timeFormat = time.RFC3339

type GenerateLessonRequest struct {
	DocumentID    string `json:"document_id" binding:"required"`
	SectionID     string `json:"section_id"`
	SourceContent string `json:"source_content" binding:"required"`
	Model         string `json:"model"`
	ConceptCount  int    `json:"concept_count"`
	CheckinCount  int    `json:"checkin_count"`
	Priority      string `json:"priority"`
}

// GenerateLessonResponse is returned by the generate endpoint. Exactly
// one of Lesson or JobID is set: Lesson when the artifact already
// exists, JobID when work was enqueued.
type GenerateLessonResponse struct {
	Status string         `json:"status"`
	JobID  string         `json:"job_id,omitempty"`
	Lesson *domain.Lesson `json:"lesson,omitempty"`
}

const (
	GenerationStatusQueued = "queued"
	GenerationStatusExists = "exists"
)
