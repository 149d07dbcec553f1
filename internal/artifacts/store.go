// Package artifacts persists generated lessons. The unique constraint
// on (owner_id, document_id, section_id) is the source of truth for the
// one-lesson-per-scope invariant; concurrent generation races resolve
// at the database, not with in-process locks.
package artifacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/shared/postgresql"
)

// Store handles tenant-scoped lesson persistence.
type Store struct {
	pg     *postgresql.Client
	logger *slog.Logger
}

// NewStore creates a new lesson store.
func NewStore(pg *postgresql.Client, logger *slog.Logger) *Store {
	return &Store{
		pg:     pg,
		logger: logger,
	}
}

// lessonRow is the storage shape; concepts and check-ins are typed Go
// structures serialized to JSON only at this boundary.
type lessonRow struct {
	LessonID   string    `db:"lesson_id"`
	OwnerID    string    `db:"owner_id"`
	DocumentID string    `db:"document_id"`
	SectionID  string    `db:"section_id"`
	Topic      string    `db:"topic"`
	Summary    string    `db:"summary"`
	Concepts   []byte    `db:"concepts"`
	Checkins   []byte    `db:"checkins"`
	Model      string    `db:"model"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *lessonRow) toDomain() (*domain.Lesson, error) {
	lesson := &domain.Lesson{
		LessonID: r.LessonID,
		OwnerID:  r.OwnerID,
		Scope: domain.ScopeKey{
			DocumentID: r.DocumentID,
			SectionID:  r.SectionID,
		},
		Topic:     r.Topic,
		Summary:   r.Summary,
		Model:     r.Model,
		CreatedAt: r.CreatedAt,
	}

	if err := json.Unmarshal(r.Concepts, &lesson.Concepts); err != nil {
		return nil, fmt.Errorf("failed to decode lesson concepts: %w", err)
	}
	if err := json.Unmarshal(r.Checkins, &lesson.Checkins); err != nil {
		return nil, fmt.Errorf("failed to decode lesson checkins: %w", err)
	}

	return lesson, nil
}

const lessonColumns = `
	lesson_id, owner_id, document_id, section_id, topic, summary,
	concepts, checkins, model, created_at
`

// GetByScope returns the lesson for (owner, scope), or
// ErrArtifactNotFound. The read runs with the tenant context set so
// the row-level-security policy on lessons sees the rows; the worker's
// race-loser re-fetch goes through here and must observe the winner.
func (s *Store) GetByScope(ctx context.Context, ownerID string, scope domain.ScopeKey) (*domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE owner_id = $1 AND document_id = $2 AND section_id = $3`

	var row lessonRow
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &row, query, ownerID, scope.DocumentID, scope.SectionID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return row.toDomain()
}

// Insert persists a lesson inside a tenant-scoped transaction. A
// uniqueness violation means another generation for the same scope won
// the race; it is reported as ErrArtifactExists for the caller to
// resolve by re-fetching the winner.
func (s *Store) Insert(ctx context.Context, lesson *domain.Lesson) error {
	if lesson.LessonID == "" {
		lesson.LessonID = uuid.New().String()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}

	concepts, err := json.Marshal(lesson.Concepts)
	if err != nil {
		return fmt.Errorf("failed to encode lesson concepts: %w", err)
	}
	checkins, err := json.Marshal(lesson.Checkins)
	if err != nil {
		return fmt.Errorf("failed to encode lesson checkins: %w", err)
	}

	query := `
		INSERT INTO lessons (
			lesson_id, owner_id, document_id, section_id, topic, summary,
			concepts, checkins, model, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		)
	`

	err = s.pg.WithTenant(ctx, lesson.OwnerID, func(tx *sqlx.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			lesson.LessonID,
			lesson.OwnerID,
			lesson.Scope.DocumentID,
			lesson.Scope.SectionID,
			lesson.Topic,
			lesson.Summary,
			concepts,
			checkins,
			lesson.Model,
			lesson.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			return domain.ErrArtifactExists
		}
		return fmt.Errorf("failed to insert lesson: %w", err)
	}

	s.logger.Info("Lesson persisted",
		slog.String("lesson_id", lesson.LessonID),
		slog.String("document_id", lesson.Scope.DocumentID),
		slog.String("section_id", lesson.Scope.SectionID),
	)

	return nil
}

// Delete removes the lesson for (owner, scope). Deleting is the only
// way to make a scope eligible for regeneration.
func (s *Store) Delete(ctx context.Context, ownerID string, scope domain.ScopeKey) error {
	query := `DELETE FROM lessons WHERE owner_id = $1 AND document_id = $2 AND section_id = $3`

	var deleted int64
	err := s.pg.WithTenant(ctx, ownerID, func(tx *sqlx.Tx) error {
		result, execErr := tx.ExecContext(ctx, query, ownerID, scope.DocumentID, scope.SectionID)
		if execErr != nil {
			return execErr
		}
		deleted, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	if deleted == 0 {
		return domain.ErrArtifactNotFound
	}

	return nil
}
