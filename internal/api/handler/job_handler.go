package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonforge/lessonforge/internal/api/dto"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/jobstore"
)

// ContextOwnerKey is the gin context key the tenant middleware stores
// the authenticated owner id under.
const ContextOwnerKey = "owner_id"

// OwnerID returns the tenant id resolved by the middleware. Routes are
// only registered behind the tenant middleware, so an empty value means
// a wiring bug, not a client error.
func OwnerID(c *gin.Context) string {
	return c.GetString(ContextOwnerKey)
}

// GetJob handles GET /api/v1/jobs/:job_id
// Retrieves a single job, scoped to the calling tenant
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), OwnerID(c), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists the tenant's jobs with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.ValidJobStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status filter",
		})
		return
	}

	if req.JobType != "" && !domain.ValidJobType(req.JobType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job_type filter",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := jobstore.DecodeCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := jobstore.Filter{
		JobType:  req.JobType,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.jobs.List(c.Request.Context(), OwnerID(c), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = dto.FromJob(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = jobstore.EncodeCursor(&jobstore.Cursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// PollJobs handles POST /api/v1/jobs/poll
// Returns the current state of up to 100 jobs in one round trip.
// Unknown or cross-tenant ids are silently omitted from the result.
func (h *JobHandler) PollJobs(c *gin.Context) {
	var req dto.PollJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_ids must contain between 1 and 100 ids",
		})
		return
	}

	jobs, err := h.jobs.Poll(c.Request.Context(), OwnerID(c), req.JobIDs)
	if err != nil {
		h.logger.Error("Failed to poll jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to poll jobs",
		})
		return
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = dto.FromJob(&jobs[i])
	}

	c.JSON(http.StatusOK, dto.PollJobsResponse{Jobs: jobResponse})
}

// QueueHealth handles GET /api/v1/queue/health
// Reports per-queue pending/active/failed counts
func (h *JobHandler) QueueHealth(c *gin.Context) {
	counts, err := h.queue.Health(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to inspect queue", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Queue unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queues": counts})
}
