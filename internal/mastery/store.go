package mastery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/shared/postgresql"
)

// Store persists concept mastery records, scoped by tenant.
type Store struct {
	pg     *postgresql.Client
	logger *slog.Logger
}

// NewStore creates a new mastery store.
func NewStore(pg *postgresql.Client, logger *slog.Logger) *Store {
	return &Store{
		pg:     pg,
		logger: logger,
	}
}

const masteryColumns = `
	owner_id, concept, document_id, section_id, mastery_state,
	total_attempts, correct_attempts, consecutive_correct,
	last_reviewed_at, created_at, updated_at
`

// ApplyCheckin records one check-in outcome for (owner, concept,
// scope), creating the record lazily on first contact. The read and
// write happen in one tenant-scoped transaction with the row locked,
// so concurrent check-ins for the same concept serialize at the
// database.
func (s *Store) ApplyCheckin(ctx context.Context, ownerID, concept string, scope domain.ScopeKey, correct bool) (*domain.MasteryRecord, error) {
	now := time.Now().UTC()
	var record domain.MasteryRecord

	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		prev := NewSnapshot()
		createdAt := now

		var existing domain.MasteryRecord
		query := `SELECT ` + masteryColumns + `
			FROM concept_mastery
			WHERE owner_id = $1 AND concept = $2 AND document_id = $3 AND section_id = $4
			FOR UPDATE`

		err := tx.GetContext(ctx, &existing, query, ownerID, concept, scope.DocumentID, scope.SectionID)
		switch {
		case err == nil:
			prev = Snapshot{
				State:              existing.MasteryState,
				TotalAttempts:      existing.TotalAttempts,
				CorrectAttempts:    existing.CorrectAttempts,
				ConsecutiveCorrect: existing.ConsecutiveCorrect,
			}
			if existing.LastReviewedAt != nil {
				prev.LastReviewedAt = *existing.LastReviewedAt
			}
			createdAt = existing.CreatedAt
		case errors.Is(err, sql.ErrNoRows):
			// First check-in for this concept; start from NOT_LEARNED.
		default:
			return fmt.Errorf("failed to load mastery record: %w", err)
		}

		next := Apply(prev, correct, now)

		record = domain.MasteryRecord{
			OwnerID:            ownerID,
			Concept:            concept,
			DocumentID:         scope.DocumentID,
			SectionID:          scope.SectionID,
			MasteryState:       next.State,
			TotalAttempts:      next.TotalAttempts,
			CorrectAttempts:    next.CorrectAttempts,
			ConsecutiveCorrect: next.ConsecutiveCorrect,
			LastReviewedAt:     &now,
			CreatedAt:          createdAt,
			UpdatedAt:          now,
		}

		upsert := `
			INSERT INTO concept_mastery (
				owner_id, concept, document_id, section_id, mastery_state,
				total_attempts, correct_attempts, consecutive_correct,
				last_reviewed_at, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8,
				$9, $10, $11
			)
			ON CONFLICT (owner_id, concept, document_id, section_id) DO UPDATE SET
				mastery_state = EXCLUDED.mastery_state,
				total_attempts = EXCLUDED.total_attempts,
				correct_attempts = EXCLUDED.correct_attempts,
				consecutive_correct = EXCLUDED.consecutive_correct,
				last_reviewed_at = EXCLUDED.last_reviewed_at,
				updated_at = EXCLUDED.updated_at
		`

		_, err = tx.ExecContext(ctx, upsert,
			record.OwnerID,
			record.Concept,
			record.DocumentID,
			record.SectionID,
			record.MasteryState,
			record.TotalAttempts,
			record.CorrectAttempts,
			record.ConsecutiveCorrect,
			record.LastReviewedAt,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert mastery record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Check-in applied",
		slog.String("owner_id", ownerID),
		slog.String("concept", concept),
		slog.String("document_id", scope.DocumentID),
		slog.Bool("correct", correct),
		slog.String("mastery_state", record.MasteryState),
	)

	return &record, nil
}

// List returns the mastery records for a document scope, most recently
// reviewed first.
func (s *Store) List(ctx context.Context, ownerID, documentID string) ([]domain.MasteryRecord, error) {
	query := `SELECT ` + masteryColumns + `
		FROM concept_mastery
		WHERE owner_id = $1 AND document_id = $2
		ORDER BY last_reviewed_at DESC NULLS LAST, concept ASC`

	var records []domain.MasteryRecord
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &records, query, ownerID, documentID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mastery records: %w", err)
	}

	return records, nil
}
