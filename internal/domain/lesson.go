package domain

import "time"

// ScopeKey identifies what a generated lesson is for: a document,
// optionally narrowed to one section within it. SectionID is stored as
// an empty string rather than NULL so the uniqueness constraint on
// (owner_id, document_id, section_id) also covers document-wide lessons.
type ScopeKey struct {
	DocumentID string `json:"document_id"`
	SectionID  string `json:"section_id,omitempty"`
}

// Concept is one teachable unit inside a lesson.
type Concept struct {
	Name        string   `json:"name"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples,omitempty"`
	Analogies   []string `json:"analogies,omitempty"`
}

// CheckinOption is a single multiple-choice answer candidate.
type CheckinOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// CheckinOptionCount is the fixed number of options per check-in
// question; exactly one of them must be marked correct.
const CheckinOptionCount = 4

// CheckinQuestion is one multiple-choice question attached to a lesson.
type CheckinQuestion struct {
	Concept  string          `json:"concept"`
	Question string          `json:"question"`
	Options  []CheckinOption `json:"options"`
}

// Lesson is the persisted artifact of a successful generation job.
// At most one lesson exists per (owner, scope key).
type Lesson struct {
	LessonID  string            `json:"lesson_id"`
	OwnerID   string            `json:"-"`
	Scope     ScopeKey          `json:"scope"`
	Topic     string            `json:"topic"`
	Summary   string            `json:"summary"`
	Concepts  []Concept         `json:"concepts"`
	Checkins  []CheckinQuestion `json:"checkins"`
	Model     string            `json:"model,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// GenerationOptions tunes a single lesson-generation request.
type GenerationOptions struct {
	Model        string `json:"model,omitempty"`
	ConceptCount int    `json:"concept_count,omitempty"`
	CheckinCount int    `json:"checkin_count,omitempty"`
}
