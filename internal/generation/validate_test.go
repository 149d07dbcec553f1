package generation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/llm"
)

func validRawLesson() *llm.RawLesson {
	return &llm.RawLesson{
		DocumentID: "doc-1",
		Topic:      "Photosynthesis",
		Summary:    "How plants convert light into chemical energy.",
		Model:      "mock",
		Concepts: []llm.RawConcept{
			{
				Name:        "Light reactions",
				Explanation: "Capture light energy in the thylakoid membrane.",
				Examples:    []string{"Chlorophyll absorbing photons"},
			},
			{
				Name:        "Calvin cycle",
				Explanation: "Fix carbon into sugars using ATP and NADPH.",
			},
		},
		Checkins: []llm.RawCheckin{
			{
				Concept:  "Light reactions",
				Question: "Where do the light reactions occur?",
				Options: []llm.RawOption{
					{Text: "Thylakoid membrane", Correct: true},
					{Text: "Stroma"},
					{Text: "Mitochondria"},
					{Text: "Cell wall"},
				},
			},
		},
	}
}

func TestNormalizeLesson_Valid(t *testing.T) {
	scope := domain.ScopeKey{DocumentID: "doc-1", SectionID: "ch-2"}

	lesson, err := normalizeLesson(validRawLesson(), scope)
	require.NoError(t, err)

	assert.Equal(t, scope, lesson.Scope)
	assert.Equal(t, "Photosynthesis", lesson.Topic)
	assert.Len(t, lesson.Concepts, 2)
	assert.Len(t, lesson.Checkins, 1)
	assert.Equal(t, "mock", lesson.Model)
}

func TestNormalizeLesson_Invalid(t *testing.T) {
	scope := domain.ScopeKey{DocumentID: "doc-1"}

	tests := []struct {
		name   string
		mutate func(*llm.RawLesson)
	}{
		{
			name:   "wrong document id",
			mutate: func(r *llm.RawLesson) { r.DocumentID = "other-doc" },
		},
		{
			name:   "blank topic",
			mutate: func(r *llm.RawLesson) { r.Topic = "   " },
		},
		{
			name:   "blank summary",
			mutate: func(r *llm.RawLesson) { r.Summary = "" },
		},
		{
			name:   "no concepts",
			mutate: func(r *llm.RawLesson) { r.Concepts = nil },
		},
		{
			name:   "concept without a name",
			mutate: func(r *llm.RawLesson) { r.Concepts[0].Name = "" },
		},
		{
			name:   "concept without an explanation",
			mutate: func(r *llm.RawLesson) { r.Concepts[1].Explanation = "  " },
		},
		{
			name: "duplicate concept names",
			mutate: func(r *llm.RawLesson) {
				r.Concepts[1].Name = r.Concepts[0].Name
			},
		},
		{
			name:   "check-in without a question",
			mutate: func(r *llm.RawLesson) { r.Checkins[0].Question = "" },
		},
		{
			name: "check-in with three options",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Options = r.Checkins[0].Options[:3]
			},
		},
		{
			name: "check-in with five options",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Options = append(r.Checkins[0].Options, llm.RawOption{Text: "Extra"})
			},
		},
		{
			name: "check-in with no correct option",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Options[0].Correct = false
			},
		},
		{
			name: "check-in with two correct options",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Options[1].Correct = true
			},
		},
		{
			name: "check-in with an empty option",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Options[2].Text = "   "
			},
		},
		{
			name: "check-in referencing unknown concept",
			mutate: func(r *llm.RawLesson) {
				r.Checkins[0].Concept = "Osmosis"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRawLesson()
			tt.mutate(raw)

			lesson, err := normalizeLesson(raw, scope)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidGeneration), "expected ErrInvalidGeneration, got %v", err)
			assert.Nil(t, lesson)
		})
	}

	t.Run("nil lesson", func(t *testing.T) {
		_, err := normalizeLesson(nil, scope)
		assert.True(t, errors.Is(err, domain.ErrInvalidGeneration))
	})
}

func TestNormalizeLesson_TrimsWhitespace(t *testing.T) {
	raw := validRawLesson()
	raw.Topic = "  Photosynthesis  "
	raw.Concepts[0].Examples = []string{"  padded  ", "   ", "kept"}

	lesson, err := normalizeLesson(raw, domain.ScopeKey{DocumentID: "doc-1"})
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis", lesson.Topic)
	assert.Equal(t, []string{"padded", "kept"}, lesson.Concepts[0].Examples)
}

func TestNormalizeLesson_UnassignedCheckinConcept(t *testing.T) {
	// A check-in may omit its concept reference entirely.
	raw := validRawLesson()
	raw.Checkins[0].Concept = ""

	lesson, err := normalizeLesson(raw, domain.ScopeKey{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, lesson.Checkins[0].Concept)
}
