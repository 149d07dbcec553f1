package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lessonforge/lessonforge/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lesson-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	lessonHandler := handler.NewLessonHandler(deps)
	masteryHandler := handler.NewMasteryHandler(deps)

	// API v1 routes, all tenant scoped
	v1 := r.Group("/api/v1")
	v1.Use(TenantMiddleware())
	{
		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// POST /api/v1/jobs/poll - Poll many jobs in one request
			jobs.POST("/poll", jobHandler.PollJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		lessons := v1.Group("/lessons")
		{
			// POST /api/v1/lessons/generate - Enqueue lesson generation
			lessons.POST("/generate", lessonHandler.GenerateLesson)

			// GET /api/v1/lessons - Get the lesson for a scope
			lessons.GET("", lessonHandler.GetLesson)

			// DELETE /api/v1/lessons - Delete the lesson for a scope
			lessons.DELETE("", lessonHandler.DeleteLesson)
		}

		// POST /api/v1/checkins - Record a check-in answer
		v1.POST("/checkins", masteryHandler.Checkin)

		// GET /api/v1/mastery - List mastery records for a document
		v1.GET("/mastery", masteryHandler.ListMastery)

		// GET /api/v1/queue/health - Queue depth and failure counts
		v1.GET("/queue/health", jobHandler.QueueHealth)
	}

	return r
}
