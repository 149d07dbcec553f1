package dto

import "github.com/lessonforge/lessonforge/internal/domain"

type CheckinRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	SectionID  string `json:"section_id"`
	Concept    string `json:"concept" binding:"required"`
	Correct    *bool  `json:"correct" binding:"required"`
}

type CheckinResponse struct {
	Mastery *domain.MasteryRecord `json:"mastery"`
}

type ListMasteryResponse struct {
	Records []domain.MasteryRecord `json:"records"`
}
