package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lessonforge/lessonforge/internal/api/dto"
	"github.com/lessonforge/lessonforge/internal/domain"
)

// Checkin handles POST /api/v1/checkins
// Records one check-in answer and returns the updated mastery record
func (h *MasteryHandler) Checkin(c *gin.Context) {
	var req dto.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id, concept and correct are required",
		})
		return
	}

	scope := domain.ScopeKey{
		DocumentID: req.DocumentID,
		SectionID:  req.SectionID,
	}

	record, err := h.mastery.ApplyCheckin(c.Request.Context(), OwnerID(c), req.Concept, scope, *req.Correct)
	if err != nil {
		h.logger.Error("Failed to apply check-in",
			slog.String("concept", req.Concept),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to apply check-in",
		})
		return
	}

	c.JSON(http.StatusOK, dto.CheckinResponse{Mastery: record})
}

// ListMastery handles GET /api/v1/mastery
// Lists mastery records for a document, most recently reviewed first
func (h *MasteryHandler) ListMastery(c *gin.Context) {
	documentID := c.Query("document_id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id is required",
		})
		return
	}

	records, err := h.mastery.List(c.Request.Context(), OwnerID(c), documentID)
	if err != nil {
		h.logger.Error("Failed to list mastery records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list mastery records",
		})
		return
	}

	if records == nil {
		records = []domain.MasteryRecord{}
	}

	c.JSON(http.StatusOK, dto.ListMasteryResponse{Records: records})
}
