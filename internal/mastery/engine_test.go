package mastery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/domain"
)

func TestApply_Transitions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		prev      Snapshot
		correct   bool
		wantState string
	}{
		{
			name:      "first correct answer introduces the concept",
			prev:      NewSnapshot(),
			correct:   true,
			wantState: domain.MasteryIntroduced,
		},
		{
			name:      "incorrect answer with no prior correct stays not learned",
			prev:      NewSnapshot(),
			correct:   false,
			wantState: domain.MasteryNotLearned,
		},
		{
			name: "repeated incorrect answers never leave not learned",
			prev: Snapshot{
				State:         domain.MasteryNotLearned,
				TotalAttempts: 3,
			},
			correct:   false,
			wantState: domain.MasteryNotLearned,
		},
		{
			name: "incorrect answer drops introduced to needs review",
			prev: Snapshot{
				State:              domain.MasteryIntroduced,
				TotalAttempts:      1,
				CorrectAttempts:    1,
				ConsecutiveCorrect: 1,
			},
			correct:   false,
			wantState: domain.MasteryNeedsReview,
		},
		{
			name: "incorrect answer drops understood to needs review, not not learned",
			prev: Snapshot{
				State:              domain.MasteryUnderstood,
				TotalAttempts:      3,
				CorrectAttempts:    3,
				ConsecutiveCorrect: 3,
			},
			correct:   false,
			wantState: domain.MasteryNeedsReview,
		},
		{
			name: "third consecutive correct promotes to understood",
			prev: Snapshot{
				State:              domain.MasteryIntroduced,
				TotalAttempts:      2,
				CorrectAttempts:    2,
				ConsecutiveCorrect: 2,
			},
			correct:   true,
			wantState: domain.MasteryUnderstood,
		},
		{
			name: "fifth consecutive correct promotes to mastered",
			prev: Snapshot{
				State:              domain.MasteryUnderstood,
				TotalAttempts:      4,
				CorrectAttempts:    4,
				ConsecutiveCorrect: 4,
			},
			correct:   true,
			wantState: domain.MasteryMastered,
		},
		{
			name: "correct answer from needs review with streak reset stays needs review",
			prev: Snapshot{
				State:              domain.MasteryNeedsReview,
				TotalAttempts:      4,
				CorrectAttempts:    2,
				ConsecutiveCorrect: 0,
			},
			correct:   true,
			wantState: domain.MasteryNeedsReview,
		},
		{
			name: "recovery from needs review reaches understood at streak three",
			prev: Snapshot{
				State:              domain.MasteryNeedsReview,
				TotalAttempts:      6,
				CorrectAttempts:    4,
				ConsecutiveCorrect: 2,
			},
			correct:   true,
			wantState: domain.MasteryUnderstood,
		},
		{
			name: "mastered is sticky across incorrect-free check-ins",
			prev: Snapshot{
				State:              domain.MasteryMastered,
				TotalAttempts:      5,
				CorrectAttempts:    5,
				ConsecutiveCorrect: 5,
			},
			correct:   true,
			wantState: domain.MasteryMastered,
		},
		{
			name: "mastered with a short streak stays mastered on correct",
			prev: Snapshot{
				State:              domain.MasteryMastered,
				TotalAttempts:      7,
				CorrectAttempts:    6,
				ConsecutiveCorrect: 1,
			},
			correct:   true,
			wantState: domain.MasteryMastered,
		},
		{
			name: "incorrect answer demotes mastered to needs review",
			prev: Snapshot{
				State:              domain.MasteryMastered,
				TotalAttempts:      5,
				CorrectAttempts:    5,
				ConsecutiveCorrect: 5,
			},
			correct:   false,
			wantState: domain.MasteryNeedsReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Apply(tt.prev, tt.correct, now)
			assert.Equal(t, tt.wantState, next.State)
		})
	}
}

func TestApply_Counters(t *testing.T) {
	now := time.Now()

	t.Run("correct answer increments all counters", func(t *testing.T) {
		prev := Snapshot{
			State:              domain.MasteryIntroduced,
			TotalAttempts:      2,
			CorrectAttempts:    1,
			ConsecutiveCorrect: 1,
		}

		next := Apply(prev, true, now)

		assert.Equal(t, 3, next.TotalAttempts)
		assert.Equal(t, 2, next.CorrectAttempts)
		assert.Equal(t, 2, next.ConsecutiveCorrect)
		assert.Equal(t, now, next.LastReviewedAt)
	})

	t.Run("incorrect answer resets only the streak", func(t *testing.T) {
		prev := Snapshot{
			State:              domain.MasteryUnderstood,
			TotalAttempts:      3,
			CorrectAttempts:    3,
			ConsecutiveCorrect: 3,
		}

		next := Apply(prev, false, now)

		assert.Equal(t, 4, next.TotalAttempts)
		assert.Equal(t, 3, next.CorrectAttempts)
		assert.Equal(t, 0, next.ConsecutiveCorrect)
		assert.Equal(t, now, next.LastReviewedAt)
	})

	t.Run("last reviewed updates on every outcome", func(t *testing.T) {
		first := Apply(NewSnapshot(), false, now)
		later := now.Add(time.Hour)
		second := Apply(first, false, later)

		assert.Equal(t, later, second.LastReviewedAt)
	})
}

func TestApply_FullProgression(t *testing.T) {
	// Five consecutive correct answers walk NOT_LEARNED through
	// INTRODUCED and UNDERSTOOD to MASTERED.
	now := time.Now()
	snap := NewSnapshot()
	wantStates := []string{
		domain.MasteryIntroduced,
		domain.MasteryIntroduced,
		domain.MasteryUnderstood,
		domain.MasteryUnderstood,
		domain.MasteryMastered,
	}

	for i, want := range wantStates {
		snap = Apply(snap, true, now)
		require.Equal(t, want, snap.State, "after %d correct answers", i+1)
	}

	assert.Equal(t, 5, snap.TotalAttempts)
	assert.Equal(t, 5, snap.CorrectAttempts)
	assert.Equal(t, 5, snap.ConsecutiveCorrect)
}
