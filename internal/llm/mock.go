package llm

import (
	"context"
	"fmt"
	"strings"
)

// Mock is a deterministic generator for local development and CI. It
// derives a lesson from the source content without any network call.
type Mock struct{}

// NewMock creates a deterministic mock generator.
func NewMock() *Mock {
	return &Mock{}
}

// GenerateLesson builds a fixed-shape lesson from the request.
func (m *Mock) GenerateLesson(_ context.Context, req LessonRequest) (*RawLesson, error) {
	conceptCount := req.Options.ConceptCount
	if conceptCount <= 0 {
		conceptCount = 2
	}

	topic := strings.TrimSpace(strings.SplitN(req.SourceContent, "\n", 2)[0])
	if topic == "" {
		topic = "Untitled material"
	}
	// Truncate on a rune boundary so a multi-byte character is never
	// split into invalid UTF-8.
	if runes := []rune(topic); len(runes) > 80 {
		topic = string(runes[:80])
	}

	lesson := &RawLesson{
		DocumentID: req.Scope.DocumentID,
		Topic:      topic,
		Summary:    fmt.Sprintf("A generated study summary of %q covering %d concepts.", topic, conceptCount),
		Model:      "mock",
	}

	for i := 1; i <= conceptCount; i++ {
		name := fmt.Sprintf("Concept %d of %s", i, topic)
		lesson.Concepts = append(lesson.Concepts, RawConcept{
			Name:        name,
			Explanation: fmt.Sprintf("Explanation of %s based on the supplied material.", name),
			Examples:    []string{fmt.Sprintf("Example for %s", name)},
		})
		lesson.Checkins = append(lesson.Checkins, RawCheckin{
			Concept:  name,
			Question: fmt.Sprintf("Which statement best describes %s?", name),
			Options: []RawOption{
				{Text: "The correct description", Correct: true},
				{Text: "A plausible distractor"},
				{Text: "An unrelated statement"},
				{Text: "A common misconception"},
			},
		})
	}

	return lesson, nil
}

var _ Generator = (*Mock)(nil)
