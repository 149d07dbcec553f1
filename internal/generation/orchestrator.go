// Package generation turns a queued generation request into a persisted
// lesson, enforcing at-most-one artifact per (owner, scope) under
// concurrent job execution.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/llm"
)

// ArtifactStore is the slice of the lesson store the orchestrator
// depends on.
type ArtifactStore interface {
	GetByScope(ctx context.Context, ownerID string, scope domain.ScopeKey) (*domain.Lesson, error)
	Insert(ctx context.Context, lesson *domain.Lesson) error
}

// Backoff bounds the provider retry loop: base delay doubles per
// attempt up to Max, for at most MaxAttempts provider calls.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff matches the documented retry envelope: 1s base,
// doubling, capped at 30s, 4 attempts total.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        time.Second,
		Max:         30 * time.Second,
		MaxAttempts: 4,
	}
}

func (b Backoff) attempts() int {
	if b.MaxAttempts < 1 {
		return 1
	}
	return b.MaxAttempts
}

// delay computes the sleep before attempt n (1-based; no delay before
// the first attempt).
func (b Backoff) delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	d := base << uint(attempt-1)
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Orchestrator coordinates idempotency checks, the provider call, and
// transactional persistence for lesson generation.
type Orchestrator struct {
	store     ArtifactStore
	generator llm.Generator
	backoff   Backoff
	logger    *slog.Logger

	// sleep is swapped out in tests so backoff does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates a generation orchestrator.
func NewOrchestrator(store ArtifactStore, generator llm.Generator, backoff Backoff, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		generator: generator,
		backoff:   backoff,
		logger:    logger,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GenerateLesson produces and persists the lesson for (owner, scope).
//
// Two jobs for the same scope may run concurrently: both can pass the
// pre-check and both may call the provider, but the unique constraint
// guarantees a single winner. The loser converges on the winner's row
// and reports success, never an error.
func (o *Orchestrator) GenerateLesson(ctx context.Context, ownerID string, scope domain.ScopeKey, sourceContent string, opts domain.GenerationOptions) (*domain.Lesson, error) {
	// Idempotency pre-check: an existing lesson is returned unchanged
	// and the provider is never called.
	existing, err := o.store.GetByScope(ctx, ownerID, scope)
	if err == nil {
		o.logger.Info("Lesson already exists for scope, skipping generation",
			slog.String("owner_id", ownerID),
			slog.String("document_id", scope.DocumentID),
			slog.String("section_id", scope.SectionID),
		)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) {
		return nil, fmt.Errorf("failed to check for existing lesson: %w", err)
	}

	if strings.TrimSpace(sourceContent) == "" {
		return nil, fmt.Errorf("%w: source content is empty", domain.ErrInvalidInput)
	}

	raw, err := o.callProvider(ctx, llm.LessonRequest{
		Scope:         scope,
		SourceContent: sourceContent,
		Options:       opts,
	})
	if err != nil {
		return nil, err
	}

	lesson, err := normalizeLesson(raw, scope)
	if err != nil {
		return nil, err
	}
	lesson.OwnerID = ownerID

	if err := o.store.Insert(ctx, lesson); err != nil {
		if errors.Is(err, domain.ErrArtifactExists) {
			// A racing job won the insert. Converge on its row.
			o.logger.Info("Lost generation race, returning winning lesson",
				slog.String("owner_id", ownerID),
				slog.String("document_id", scope.DocumentID),
				slog.String("section_id", scope.SectionID),
			)
			winner, getErr := o.store.GetByScope(ctx, ownerID, scope)
			if getErr != nil {
				return nil, fmt.Errorf("failed to fetch winning lesson after race: %w", getErr)
			}
			return winner, nil
		}
		return nil, err
	}

	return lesson, nil
}

// callProvider invokes the generator with bounded exponential backoff
// on transient errors. Permanent errors propagate immediately.
func (o *Orchestrator) callProvider(ctx context.Context, req llm.LessonRequest) (*llm.RawLesson, error) {
	var lastErr error

	for attempt := 1; attempt <= o.backoff.attempts(); attempt++ {
		if attempt > 1 {
			delay := o.backoff.delay(attempt - 1)
			o.logger.Warn("Retrying provider call",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", o.backoff.attempts()),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)
			if err := o.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		raw, err := o.generator.GenerateLesson(ctx, req)
		if err == nil {
			return raw, nil
		}
		if !llm.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("provider retries exhausted: %w", lastErr)
}
