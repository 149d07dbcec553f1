// Package llm abstracts the external model provider behind a single
// call contract so the generation orchestrator never depends on any
// specific provider's SDK shape. Implementations are selected by
// explicit configuration at construction time.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// Provider name constants used in configuration.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LessonRequest carries everything a provider needs to draft a lesson.
type LessonRequest struct {
	Scope         domain.ScopeKey
	SourceContent string
	Options       domain.GenerationOptions
}

// RawOption is one unvalidated multiple-choice option.
type RawOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// RawCheckin is one unvalidated check-in question.
type RawCheckin struct {
	Concept  string      `json:"concept"`
	Question string      `json:"question"`
	Options  []RawOption `json:"options"`
}

// RawConcept is one unvalidated concept.
type RawConcept struct {
	Name        string   `json:"name"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples,omitempty"`
	Analogies   []string `json:"analogies,omitempty"`
}

// RawLesson is the provider's structured output before normalization.
// Nothing in it is trusted until the orchestrator validates it.
type RawLesson struct {
	DocumentID string       `json:"document_id"`
	Topic      string       `json:"topic"`
	Summary    string       `json:"summary"`
	Concepts   []RawConcept `json:"concepts"`
	Checkins   []RawCheckin `json:"checkins"`

	// Model records which model produced the output; set by the
	// client, never by the model itself.
	Model string `json:"-"`
}

// Generator is the single capability the orchestrator depends on.
type Generator interface {
	GenerateLesson(ctx context.Context, req LessonRequest) (*RawLesson, error)
}

// ProviderError describes a failure reported by or around a provider
// call. Transient errors are eligible for backoff retry; everything
// else propagates immediately.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Transient  bool
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// IsTransient classifies err for the orchestrator's retry loop:
// rate limits, 5xx, network resets, timeouts, and malformed JSON are
// retryable; credential and schema failures are not.
func IsTransient(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporarily unavailable")
}

// transientStatus reports whether an HTTP status from a provider is
// worth retrying.
func transientStatus(status int) bool {
	switch status {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// lessonSystemPrompt instructs the model to act as a lesson author and
// emit only the JSON document the backend expects.
const lessonSystemPrompt = `You are a study assistant that turns source material into a structured lesson.
Respond with a single JSON object and nothing else, using this shape:
{
  "document_id": string,
  "topic": string,
  "summary": string,
  "concepts": [{"name": string, "explanation": string, "examples": [string], "analogies": [string]}],
  "checkins": [{"concept": string, "question": string, "options": [{"text": string, "correct": bool}]}]
}
Each check-in question must have exactly 4 options with exactly one marked correct.`

// buildLessonPrompt renders the user turn for a lesson request.
func buildLessonPrompt(req LessonRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document ID: %s\n", req.Scope.DocumentID)
	if req.Scope.SectionID != "" {
		fmt.Fprintf(&b, "Section ID: %s\n", req.Scope.SectionID)
	}

	conceptCount := req.Options.ConceptCount
	if conceptCount <= 0 {
		conceptCount = 5
	}
	checkinCount := req.Options.CheckinCount
	if checkinCount <= 0 {
		checkinCount = conceptCount
	}
	fmt.Fprintf(&b, "Produce %d concepts and %d check-in questions.\n\n", conceptCount, checkinCount)

	b.WriteString("Source material:\n")
	b.WriteString(req.SourceContent)

	return b.String()
}
