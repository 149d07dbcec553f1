package domain

import "time"

// Mastery state constants. A concept starts at NOT_LEARNED and can only
// leave it after at least one correct check-in.
const (
	MasteryNotLearned  = "NOT_LEARNED"
	MasteryIntroduced  = "INTRODUCED"
	MasteryNeedsReview = "NEEDS_REVIEW"
	MasteryUnderstood  = "UNDERSTOOD"
	MasteryMastered    = "MASTERED"
)

// MasteryRecord tracks one learner's proficiency on one concept within
// a scope. correct_attempts never exceeds total_attempts.
type MasteryRecord struct {
	OwnerID            string     `db:"owner_id" json:"-"`
	Concept            string     `db:"concept" json:"concept"`
	DocumentID         string     `db:"document_id" json:"document_id"`
	SectionID          string     `db:"section_id" json:"section_id,omitempty"`
	MasteryState       string     `db:"mastery_state" json:"mastery_state"`
	TotalAttempts      int        `db:"total_attempts" json:"total_attempts"`
	CorrectAttempts    int        `db:"correct_attempts" json:"correct_attempts"`
	ConsecutiveCorrect int        `db:"consecutive_correct" json:"consecutive_correct"`
	LastReviewedAt     *time.Time `db:"last_reviewed_at" json:"last_reviewed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
