// Package mastery implements the deterministic concept-mastery state
// machine. Apply is a pure function of the previous snapshot and the
// outcome of one check-in; persistence is a thin wrapper around it.
package mastery

import (
	"time"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// Streak thresholds for promotion. Three consecutive correct answers
// promote toward UNDERSTOOD, five toward MASTERED.
const (
	UnderstoodStreak = 3
	MasteredStreak   = 5
)

// Snapshot is the portion of a mastery record the state machine
// operates on.
type Snapshot struct {
	State              string
	TotalAttempts      int
	CorrectAttempts    int
	ConsecutiveCorrect int
	LastReviewedAt     time.Time
}

// NewSnapshot is the implicit state before any check-in.
func NewSnapshot() Snapshot {
	return Snapshot{State: domain.MasteryNotLearned}
}

// Apply transitions a snapshot given one check-in outcome.
//
// Rules:
//   - total_attempts always increments by exactly one; a correct answer
//     increments correct_attempts and the streak, an incorrect answer
//     resets the streak.
//   - at least one correct attempt is required to leave NOT_LEARNED.
//   - an incorrect answer in any learned state drops to NEEDS_REVIEW,
//     never back to NOT_LEARNED.
//   - streaks promote to UNDERSTOOD and then MASTERED; a correct answer
//     never demotes, so MASTERED stays MASTERED.
//   - last_reviewed_at updates on every check-in regardless of outcome.
func Apply(prev Snapshot, correct bool, now time.Time) Snapshot {
	next := prev
	next.TotalAttempts++
	next.LastReviewedAt = now

	if correct {
		next.CorrectAttempts++
		next.ConsecutiveCorrect++
	} else {
		next.ConsecutiveCorrect = 0
	}

	next.State = nextState(prev.State, next, correct)
	return next
}

func nextState(prevState string, next Snapshot, correct bool) string {
	if next.CorrectAttempts == 0 {
		return domain.MasteryNotLearned
	}

	if !correct {
		return domain.MasteryNeedsReview
	}

	switch {
	case prevState == domain.MasteryMastered:
		return domain.MasteryMastered
	case next.ConsecutiveCorrect >= MasteredStreak:
		return domain.MasteryMastered
	case next.ConsecutiveCorrect >= UnderstoodStreak:
		return domain.MasteryUnderstood
	case prevState == domain.MasteryNotLearned:
		return domain.MasteryIntroduced
	default:
		return prevState
	}
}
