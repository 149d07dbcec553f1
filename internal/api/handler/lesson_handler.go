package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lessonforge/lessonforge/internal/api/dto"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/queue"
)

func parsePriority(s string) (queue.Priority, error) {
	switch s {
	case "", "normal":
		return queue.PriorityNormal, nil
	case "high":
		return queue.PriorityHigh, nil
	case "low":
		return queue.PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// GenerateLesson handles POST /api/v1/lessons/generate
// Returns the existing lesson immediately when one covers the requested
// scope, otherwise enqueues a generation job and returns its id.
func (h *LessonHandler) GenerateLesson(c *gin.Context) {
	var req dto.GenerateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id and source_content are required",
		})
		return
	}

	priority, err := parsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "priority must be one of high, normal, low",
		})
		return
	}

	ownerID := OwnerID(c)
	scope := domain.ScopeKey{
		DocumentID: req.DocumentID,
		SectionID:  req.SectionID,
	}

	// Fast path: an identical request already produced a lesson, so no
	// job is created at all.
	existing, err := h.lessons.GetByScope(c.Request.Context(), ownerID, scope)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.GenerateLessonResponse{
			Status: dto.GenerationStatusExists,
			Lesson: existing,
		})
		return
	case errors.Is(err, domain.ErrArtifactNotFound):
		// Fall through to enqueue.
	default:
		h.logger.Error("Failed to check for existing lesson", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check for existing lesson",
		})
		return
	}

	decision, err := h.limiter.Check(c.Request.Context(), ownerID, domain.JobTypeGenerateLesson)
	if err != nil {
		h.logger.Error("Rate limit check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check rate limit",
		})
		return
	}
	if !decision.Allowed {
		c.Header("Retry-After", fmt.Sprintf("%d", int(decision.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Generation rate limit exceeded",
			"limit": decision.Limit,
		})
		return
	}

	payload, err := json.Marshal(generation.LessonJobPayload{
		Scope:         scope,
		SourceContent: req.SourceContent,
		Options: domain.GenerationOptions{
			Model:        req.Model,
			ConceptCount: req.ConceptCount,
			CheckinCount: req.CheckinCount,
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode job payload",
		})
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), ownerID, domain.JobTypeGenerateLesson, payload)
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	msg := queue.Message{
		JobID:   job.JobID,
		JobType: job.JobType,
		OwnerID: ownerID,
		Payload: payload,
	}

	if err := h.queue.Enqueue(c.Request.Context(), msg, priority); err != nil {
		h.logger.Error("Failed to enqueue job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		// The row exists but no message will ever arrive for it; fail
		// the job so clients are not left polling forever.
		if markErr := h.jobs.MarkFailed(c.Request.Context(), ownerID, job.JobID, "enqueue failed"); markErr != nil {
			h.logger.Error("Failed to mark orphaned job failed",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue job",
		})
		return
	}

	h.logger.Info("Lesson generation enqueued",
		slog.String("job_id", job.JobID),
		slog.String("owner_id", ownerID),
		slog.String("document_id", scope.DocumentID),
		slog.String("section_id", scope.SectionID),
	)

	c.JSON(http.StatusAccepted, dto.GenerateLessonResponse{
		Status: dto.GenerationStatusQueued,
		JobID:  job.JobID,
	})
}

// GetLesson handles GET /api/v1/lessons
// Fetches the lesson for a (document_id, section_id) scope
func (h *LessonHandler) GetLesson(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	lesson, err := h.lessons.GetByScope(c.Request.Context(), OwnerID(c), scope)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Lesson not found",
			})
			return
		}
		h.logger.Error("Failed to get lesson", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get lesson",
		})
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons
// Removes the lesson for a scope so it can be regenerated
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	err := h.lessons.Delete(c.Request.Context(), OwnerID(c), scope)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Lesson not found",
			})
			return
		}
		h.logger.Error("Failed to delete lesson", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete lesson",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

func scopeFromQuery(c *gin.Context) (domain.ScopeKey, bool) {
	documentID := c.Query("document_id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id is required",
		})
		return domain.ScopeKey{}, false
	}

	return domain.ScopeKey{
		DocumentID: documentID,
		SectionID:  c.Query("section_id"),
	}, true
}
