package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/queue"
)

// LessonJobPayload is the payload stored on a generate_lesson job and
// carried by its queue message.
type LessonJobPayload struct {
	Scope         domain.ScopeKey          `json:"scope"`
	SourceContent string                   `json:"source_content"`
	Options       domain.GenerationOptions `json:"options,omitempty"`
}

// ProgressReporter is the slice of the job record store used to report
// handler progress, tenant-scoped like every job row access.
type ProgressReporter interface {
	UpdateProgress(ctx context.Context, ownerID, jobID string, percent int, message string) error
}

// Handler adapts the orchestrator into a queue handler for
// generate_lesson jobs.
func (o *Orchestrator) Handler(progress ProgressReporter) queue.HandlerFunc {
	return func(ctx context.Context, msg queue.Message) (json.RawMessage, error) {
		var payload LessonJobPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed job payload: %v", domain.ErrInvalidInput, err)
		}

		_ = progress.UpdateProgress(ctx, msg.OwnerID, msg.JobID, 10, "generating lesson")

		lesson, err := o.GenerateLesson(ctx, msg.OwnerID, payload.Scope, payload.SourceContent, payload.Options)
		if err != nil {
			return nil, err
		}

		_ = progress.UpdateProgress(ctx, msg.OwnerID, msg.JobID, 90, "persisting lesson")

		result, err := json.Marshal(lesson)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal lesson result: %w", err)
		}

		return result, nil
	}
}
