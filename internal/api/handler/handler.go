package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/jobstore"
	"github.com/lessonforge/lessonforge/internal/queue"
	"github.com/lessonforge/lessonforge/internal/ratelimit"
)

// JobStore is the slice of the job record store the API needs.
type JobStore interface {
	Create(ctx context.Context, ownerID, jobType string, payload json.RawMessage) (*domain.Job, error)
	Get(ctx context.Context, ownerID, jobID string) (*domain.Job, error)
	List(ctx context.Context, ownerID string, filter jobstore.Filter) ([]domain.Job, error)
	Poll(ctx context.Context, ownerID string, jobIDs []string) ([]domain.Job, error)
	MarkFailed(ctx context.Context, ownerID, jobID, errorMsg string) error
}

// LessonStore is the slice of the artifact store the API needs.
type LessonStore interface {
	GetByScope(ctx context.Context, ownerID string, scope domain.ScopeKey) (*domain.Lesson, error)
	Delete(ctx context.Context, ownerID string, scope domain.ScopeKey) error
}

// MasteryStore is the slice of the mastery store the API needs.
type MasteryStore interface {
	ApplyCheckin(ctx context.Context, ownerID, concept string, scope domain.ScopeKey, correct bool) (*domain.MasteryRecord, error)
	List(ctx context.Context, ownerID, documentID string) ([]domain.MasteryRecord, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Jobs    JobStore
	Lessons LessonStore
	Mastery MasteryStore
	Queue   queue.Queue
	Limiter ratelimit.Limiter
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   JobStore
	queue  queue.Queue
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
		queue:  deps.Queue,
	}
}

// LessonHandler handles lesson-related HTTP requests
type LessonHandler struct {
	logger  *slog.Logger
	jobs    JobStore
	lessons LessonStore
	queue   queue.Queue
	limiter ratelimit.Limiter
}

// NewLessonHandler creates a new LessonHandler instance
func NewLessonHandler(deps *Dependencies) *LessonHandler {
	return &LessonHandler{
		logger:  deps.Logger,
		jobs:    deps.Jobs,
		lessons: deps.Lessons,
		queue:   deps.Queue,
		limiter: deps.Limiter,
	}
}

// MasteryHandler handles check-in and mastery HTTP requests
type MasteryHandler struct {
	logger  *slog.Logger
	mastery MasteryStore
}

// NewMasteryHandler creates a new MasteryHandler instance
func NewMasteryHandler(deps *Dependencies) *MasteryHandler {
	return &MasteryHandler{
		logger:  deps.Logger,
		mastery: deps.Mastery,
	}
}
