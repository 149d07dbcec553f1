package generation

import (
	"fmt"
	"strings"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/llm"
)

// normalizeLesson validates the provider's raw output against the
// strict lesson shape and converts it into the persisted form. Any
// violation is an ErrInvalidGeneration: the output parsed fine but is
// semantically unusable, and retrying the same request rarely helps.
func normalizeLesson(raw *llm.RawLesson, scope domain.ScopeKey) (*domain.Lesson, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: provider returned no lesson", domain.ErrInvalidGeneration)
	}

	if raw.DocumentID != scope.DocumentID {
		return nil, fmt.Errorf("%w: lesson references document %q, expected %q",
			domain.ErrInvalidGeneration, raw.DocumentID, scope.DocumentID)
	}

	topic := strings.TrimSpace(raw.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", domain.ErrInvalidGeneration)
	}

	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		return nil, fmt.Errorf("%w: summary is empty", domain.ErrInvalidGeneration)
	}

	if len(raw.Concepts) == 0 {
		return nil, fmt.Errorf("%w: lesson has no concepts", domain.ErrInvalidGeneration)
	}

	lesson := &domain.Lesson{
		Scope:   scope,
		Topic:   topic,
		Summary: summary,
		Model:   raw.Model,
	}

	conceptNames := make(map[string]bool, len(raw.Concepts))
	for i, rc := range raw.Concepts {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: concept %d has no name", domain.ErrInvalidGeneration, i)
		}
		explanation := strings.TrimSpace(rc.Explanation)
		if explanation == "" {
			return nil, fmt.Errorf("%w: concept %q has no explanation", domain.ErrInvalidGeneration, name)
		}
		if conceptNames[name] {
			return nil, fmt.Errorf("%w: duplicate concept %q", domain.ErrInvalidGeneration, name)
		}
		conceptNames[name] = true

		lesson.Concepts = append(lesson.Concepts, domain.Concept{
			Name:        name,
			Explanation: explanation,
			Examples:    trimNonEmpty(rc.Examples),
			Analogies:   trimNonEmpty(rc.Analogies),
		})
	}

	for i, rq := range raw.Checkins {
		question := strings.TrimSpace(rq.Question)
		if question == "" {
			return nil, fmt.Errorf("%w: check-in %d has no question", domain.ErrInvalidGeneration, i)
		}

		if len(rq.Options) != domain.CheckinOptionCount {
			return nil, fmt.Errorf("%w: check-in %d has %d options, expected %d",
				domain.ErrInvalidGeneration, i, len(rq.Options), domain.CheckinOptionCount)
		}

		correct := 0
		options := make([]domain.CheckinOption, 0, len(rq.Options))
		for j, opt := range rq.Options {
			text := strings.TrimSpace(opt.Text)
			if text == "" {
				return nil, fmt.Errorf("%w: check-in %d option %d is empty", domain.ErrInvalidGeneration, i, j)
			}
			if opt.Correct {
				correct++
			}
			options = append(options, domain.CheckinOption{Text: text, Correct: opt.Correct})
		}
		if correct != 1 {
			return nil, fmt.Errorf("%w: check-in %d has %d correct options, expected exactly 1",
				domain.ErrInvalidGeneration, i, correct)
		}

		concept := strings.TrimSpace(rq.Concept)
		if concept != "" && !conceptNames[concept] {
			return nil, fmt.Errorf("%w: check-in %d references unknown concept %q",
				domain.ErrInvalidGeneration, i, concept)
		}

		lesson.Checkins = append(lesson.Checkins, domain.CheckinQuestion{
			Concept:  concept,
			Question: question,
			Options:  options,
		})
	}

	return lesson, nil
}

func trimNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
