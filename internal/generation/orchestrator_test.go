package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/queue"
)

type fakeArtifactStore struct {
	mu         sync.Mutex
	lessons    map[domain.ScopeKey]*domain.Lesson
	insertHook func(lesson *domain.Lesson) error
	inserts    int
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{lessons: make(map[domain.ScopeKey]*domain.Lesson)}
}

func (s *fakeArtifactStore) GetByScope(_ context.Context, ownerID string, scope domain.ScopeKey) (*domain.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, ok := s.lessons[scope]
	if !ok || lesson.OwnerID != ownerID {
		return nil, domain.ErrArtifactNotFound
	}
	return lesson, nil
}

func (s *fakeArtifactStore) Insert(_ context.Context, lesson *domain.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if s.insertHook != nil {
		if err := s.insertHook(lesson); err != nil {
			return err
		}
	}
	if _, ok := s.lessons[lesson.Scope]; ok {
		return domain.ErrArtifactExists
	}
	s.lessons[lesson.Scope] = lesson
	return nil
}

type scriptedGenerator struct {
	mu      sync.Mutex
	calls   int
	results []func(req llm.LessonRequest) (*llm.RawLesson, error)
}

func (g *scriptedGenerator) GenerateLesson(_ context.Context, req llm.LessonRequest) (*llm.RawLesson, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	step := g.calls
	g.calls++
	if step >= len(g.results) {
		step = len(g.results) - 1
	}
	return g.results[step](req)
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func goodLesson(req llm.LessonRequest) (*llm.RawLesson, error) {
	return llm.NewMock().GenerateLesson(context.Background(), req)
}

func transientError(llm.LessonRequest) (*llm.RawLesson, error) {
	return nil, &llm.ProviderError{
		Provider:   "test",
		StatusCode: 503,
		Message:    "overloaded",
		Transient:  true,
	}
}

func permanentError(llm.LessonRequest) (*llm.RawLesson, error) {
	return nil, &llm.ProviderError{
		Provider:   "test",
		StatusCode: 400,
		Message:    "bad request",
	}
}

func newTestOrchestrator(store ArtifactStore, gen llm.Generator) *Orchestrator {
	o := NewOrchestrator(store, gen, DefaultBackoff(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.sleep = func(context.Context, time.Duration) error { return nil }
	return o
}

func TestGenerateLesson_PersistsNewLesson(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
	o := newTestOrchestrator(store, gen)

	scope := domain.ScopeKey{DocumentID: "doc-1", SectionID: "ch-1"}
	lesson, err := o.GenerateLesson(context.Background(), "user-1", scope, "Photosynthesis\nPlants convert light.", domain.GenerationOptions{})
	require.NoError(t, err)

	assert.Equal(t, "user-1", lesson.OwnerID)
	assert.Equal(t, scope, lesson.Scope)
	assert.NotEmpty(t, lesson.Concepts)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1, gen.callCount())
}

func TestGenerateLesson_ExistingLessonSkipsProvider(t *testing.T) {
	store := newFakeArtifactStore()
	scope := domain.ScopeKey{DocumentID: "doc-1"}
	existing := &domain.Lesson{
		LessonID: "lesson-1",
		OwnerID:  "user-1",
		Scope:    scope,
		Topic:    "Existing",
	}
	store.lessons[scope] = existing

	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
	o := newTestOrchestrator(store, gen)

	lesson, err := o.GenerateLesson(context.Background(), "user-1", scope, "content", domain.GenerationOptions{})
	require.NoError(t, err)

	assert.Same(t, existing, lesson)
	assert.Zero(t, gen.callCount(), "provider must not be called when the lesson exists")
	assert.Zero(t, store.inserts)
}

func TestGenerateLesson_EmptySource(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
	o := newTestOrchestrator(store, gen)

	_, err := o.GenerateLesson(context.Background(), "user-1", domain.ScopeKey{DocumentID: "doc-1"}, "   \n  ", domain.GenerationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Zero(t, gen.callCount())
}

func TestGenerateLesson_TransientThenSuccess(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){
		transientError,
		goodLesson,
	}}
	o := newTestOrchestrator(store, gen)

	lesson, err := o.GenerateLesson(context.Background(), "user-1", domain.ScopeKey{DocumentID: "doc-1"}, "content", domain.GenerationOptions{})
	require.NoError(t, err)

	assert.NotNil(t, lesson)
	assert.Equal(t, 2, gen.callCount(), "one failure plus one success")
}

func TestGenerateLesson_PermanentErrorNoRetry(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){permanentError}}
	o := newTestOrchestrator(store, gen)

	_, err := o.GenerateLesson(context.Background(), "user-1", domain.ScopeKey{DocumentID: "doc-1"}, "content", domain.GenerationOptions{})
	require.Error(t, err)

	var provErr *llm.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, 400, provErr.StatusCode)
	assert.Equal(t, 1, gen.callCount(), "permanent errors must not be retried")
	assert.Zero(t, store.inserts)
}

func TestGenerateLesson_TransientRetriesExhausted(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){transientError}}
	o := newTestOrchestrator(store, gen)

	_, err := o.GenerateLesson(context.Background(), "user-1", domain.ScopeKey{DocumentID: "doc-1"}, "content", domain.GenerationOptions{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "provider retries exhausted")
	assert.Equal(t, DefaultBackoff().MaxAttempts, gen.callCount())
}

func TestGenerateLesson_InvalidOutputNotPersisted(t *testing.T) {
	store := newFakeArtifactStore()
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){
		func(req llm.LessonRequest) (*llm.RawLesson, error) {
			raw, _ := goodLesson(req)
			// Two correct options make the lesson unusable.
			raw.Checkins[0].Options[1].Correct = true
			return raw, nil
		},
	}}
	o := newTestOrchestrator(store, gen)

	_, err := o.GenerateLesson(context.Background(), "user-1", domain.ScopeKey{DocumentID: "doc-1"}, "content", domain.GenerationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidGeneration))
	assert.Zero(t, store.inserts)
}

func TestGenerateLesson_LosingRaceConverges(t *testing.T) {
	store := newFakeArtifactStore()
	scope := domain.ScopeKey{DocumentID: "doc-1"}
	winner := &domain.Lesson{
		LessonID: "winner",
		OwnerID:  "user-1",
		Scope:    scope,
		Topic:    "Winner",
	}

	// The pre-check passes, but by insert time a racing job has won.
	store.insertHook = func(*domain.Lesson) error {
		store.lessons[scope] = winner
		return domain.ErrArtifactExists
	}

	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
	o := newTestOrchestrator(store, gen)

	lesson, err := o.GenerateLesson(context.Background(), "user-1", scope, "content", domain.GenerationOptions{})
	require.NoError(t, err, "the losing job must converge, not fail")
	assert.Same(t, winner, lesson)
}

func TestGenerateLesson_ConcurrentSameScope(t *testing.T) {
	store := newFakeArtifactStore()
	scope := domain.ScopeKey{DocumentID: "doc-1", SectionID: "ch-1"}
	gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
	o := newTestOrchestrator(store, gen)

	var wg sync.WaitGroup
	lessons := make([]*domain.Lesson, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lessons[i], errs[i] = o.GenerateLesson(context.Background(), "user-1", scope, "Photosynthesis\nPlants convert light.", domain.GenerationOptions{})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one artifact exists and both callers observe it.
	store.mu.Lock()
	stored := store.lessons[scope]
	store.mu.Unlock()
	require.NotNil(t, stored)
	assert.Same(t, stored, lessons[0])
	assert.Same(t, stored, lessons[1])
	assert.LessOrEqual(t, store.inserts, 2)
	assert.Len(t, store.lessons, 1)
}

func TestBackoff_Delay(t *testing.T) {
	b := DefaultBackoff()

	assert.Equal(t, time.Second, b.delay(1))
	assert.Equal(t, 2*time.Second, b.delay(2))
	assert.Equal(t, 4*time.Second, b.delay(3))
	assert.Equal(t, 30*time.Second, b.delay(6), "delay is capped")
}

func TestHandler(t *testing.T) {
	t.Run("runs generation and returns the lesson as result", func(t *testing.T) {
		store := newFakeArtifactStore()
		gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
		o := newTestOrchestrator(store, gen)

		payload, err := json.Marshal(LessonJobPayload{
			Scope:         domain.ScopeKey{DocumentID: "doc-1"},
			SourceContent: "Photosynthesis\nPlants convert light.",
		})
		require.NoError(t, err)

		progress := &fakeProgress{}
		handler := o.Handler(progress)

		result, err := handler(context.Background(), queue.Message{
			JobID:   "job-1",
			JobType: domain.JobTypeGenerateLesson,
			OwnerID: "user-1",
			Payload: payload,
		})
		require.NoError(t, err)

		var lesson domain.Lesson
		require.NoError(t, json.Unmarshal(result, &lesson))
		assert.Equal(t, "doc-1", lesson.Scope.DocumentID)
		assert.GreaterOrEqual(t, progress.updates, 2)
		assert.Equal(t, "user-1", progress.owner, "progress updates must carry the job owner")
	})

	t.Run("malformed payload is a permanent failure", func(t *testing.T) {
		store := newFakeArtifactStore()
		gen := &scriptedGenerator{results: []func(llm.LessonRequest) (*llm.RawLesson, error){goodLesson}}
		o := newTestOrchestrator(store, gen)

		handler := o.Handler(&fakeProgress{})
		_, err := handler(context.Background(), queue.Message{
			JobID:   "job-1",
			JobType: domain.JobTypeGenerateLesson,
			OwnerID: "user-1",
			Payload: json.RawMessage(`{not json`),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

type fakeProgress struct {
	updates int
	owner   string
}

func (p *fakeProgress) UpdateProgress(_ context.Context, ownerID, _ string, _ int, _ string) error {
	p.updates++
	p.owner = ownerID
	return nil
}
