package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/api/handler"
	"github.com/lessonforge/lessonforge/internal/api/router"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/jobstore"
	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/mastery"
	"github.com/lessonforge/lessonforge/internal/queue"
	"github.com/lessonforge/lessonforge/internal/ratelimit"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// fakeJobs is an in-memory job record store implementing both the API
// store slice and the queue tracker.
type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]*domain.Job)}
}

func (f *fakeJobs) Create(_ context.Context, ownerID, jobType string, payload json.RawMessage) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	job := &domain.Job{
		JobID:     uuid.New().String(),
		OwnerID:   ownerID,
		JobType:   jobType,
		Status:    domain.JobStatusQueued,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.jobs[job.JobID] = job
	return job, nil
}

func (f *fakeJobs) Get(_ context.Context, ownerID, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobs) List(_ context.Context, ownerID string, filter jobstore.Filter) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var jobs []domain.Job
	for _, job := range f.jobs {
		if job.OwnerID != ownerID {
			continue
		}
		if filter.JobType != "" && job.JobType != filter.JobType {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].JobID > jobs[j].JobID
	})

	if filter.Cursor != nil {
		pos := 0
		for ; pos < len(jobs); pos++ {
			if jobs[pos].CreatedAt.Before(filter.Cursor.CreatedAt) ||
				(jobs[pos].CreatedAt.Equal(filter.Cursor.CreatedAt) && jobs[pos].JobID < filter.Cursor.JobID) {
				break
			}
		}
		jobs = jobs[pos:]
	}

	if len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}
	return jobs, nil
}

func (f *fakeJobs) Poll(_ context.Context, ownerID string, jobIDs []string) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var jobs []domain.Job
	for _, id := range jobIDs {
		if job, ok := f.jobs[id]; ok && job.OwnerID == ownerID {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

// tenantJob mimics the store's tenant scoping: a lookup with the wrong
// owner behaves as if the row does not exist.
func (f *fakeJobs) tenantJob(ownerID, jobID string) (*domain.Job, bool) {
	job, ok := f.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, false
	}
	return job, true
}

func (f *fakeJobs) MarkRunning(_ context.Context, ownerID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.tenantJob(ownerID, jobID)
	if !ok || job.Status != domain.JobStatusQueued {
		return domain.ErrJobAlreadyClaimed
	}
	job.Status = domain.JobStatusRunning
	return nil
}

func (f *fakeJobs) MarkSucceeded(_ context.Context, ownerID, jobID string, result json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.tenantJob(ownerID, jobID)
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = domain.JobStatusSucceeded
	job.Progress = 100
	job.Result = result
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, ownerID, jobID, errorMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.tenantJob(ownerID, jobID)
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = errorMsg
	return nil
}

func (f *fakeJobs) UpdateProgress(_ context.Context, ownerID, jobID string, percent int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.tenantJob(ownerID, jobID)
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Progress = percent
	job.ProgressMessage = message
	return nil
}

// fakeLessons backs both the API lesson reads and the orchestrator's
// artifact store.
type fakeLessons struct {
	mu      sync.Mutex
	lessons map[string]*domain.Lesson
}

func newFakeLessons() *fakeLessons {
	return &fakeLessons{lessons: make(map[string]*domain.Lesson)}
}

func lessonKey(ownerID string, scope domain.ScopeKey) string {
	return ownerID + "|" + scope.DocumentID + "|" + scope.SectionID
}

func (f *fakeLessons) GetByScope(_ context.Context, ownerID string, scope domain.ScopeKey) (*domain.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lesson, ok := f.lessons[lessonKey(ownerID, scope)]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return lesson, nil
}

func (f *fakeLessons) Insert(_ context.Context, lesson *domain.Lesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := lessonKey(lesson.OwnerID, lesson.Scope)
	if _, ok := f.lessons[key]; ok {
		return domain.ErrArtifactExists
	}
	if lesson.LessonID == "" {
		lesson.LessonID = uuid.New().String()
	}
	f.lessons[key] = lesson
	return nil
}

func (f *fakeLessons) Delete(_ context.Context, ownerID string, scope domain.ScopeKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := lessonKey(ownerID, scope)
	if _, ok := f.lessons[key]; !ok {
		return domain.ErrArtifactNotFound
	}
	delete(f.lessons, key)
	return nil
}

// fakeMastery applies the real state machine over in-memory records.
type fakeMastery struct {
	mu      sync.Mutex
	records map[string]*domain.MasteryRecord
}

func newFakeMastery() *fakeMastery {
	return &fakeMastery{records: make(map[string]*domain.MasteryRecord)}
}

func (f *fakeMastery) ApplyCheckin(_ context.Context, ownerID, concept string, scope domain.ScopeKey, correct bool) (*domain.MasteryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ownerID + "|" + concept + "|" + scope.DocumentID + "|" + scope.SectionID
	prev := mastery.NewSnapshot()
	if rec, ok := f.records[key]; ok {
		prev = mastery.Snapshot{
			State:              rec.MasteryState,
			TotalAttempts:      rec.TotalAttempts,
			CorrectAttempts:    rec.CorrectAttempts,
			ConsecutiveCorrect: rec.ConsecutiveCorrect,
		}
	}

	now := time.Now().UTC()
	next := mastery.Apply(prev, correct, now)
	record := &domain.MasteryRecord{
		OwnerID:            ownerID,
		Concept:            concept,
		DocumentID:         scope.DocumentID,
		SectionID:          scope.SectionID,
		MasteryState:       next.State,
		TotalAttempts:      next.TotalAttempts,
		CorrectAttempts:    next.CorrectAttempts,
		ConsecutiveCorrect: next.ConsecutiveCorrect,
		LastReviewedAt:     &now,
	}
	f.records[key] = record
	return record, nil
}

func (f *fakeMastery) List(_ context.Context, ownerID, documentID string) ([]domain.MasteryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.MasteryRecord
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.DocumentID == documentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeLimiter struct {
	decision ratelimit.Decision
}

func (f *fakeLimiter) Check(context.Context, string, string) (ratelimit.Decision, error) {
	return f.decision, nil
}

type testEnv struct {
	router  *gin.Engine
	jobs    *fakeJobs
	lessons *fakeLessons
	limiter *fakeLimiter
}

// newTestEnv wires the real router, handlers, orchestrator, and inline
// queue over in-memory stores and the mock generator.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobs := newFakeJobs()
	lessons := newFakeLessons()
	limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9}}

	q := queue.NewInline(jobs, queue.RetryPolicy{}, logger)
	orch := generation.NewOrchestrator(lessons, llm.NewMock(), generation.DefaultBackoff(), logger)
	q.Process(domain.JobTypeGenerateLesson, orch.Handler(jobs))

	deps := &handler.Dependencies{
		Logger:  logger,
		Jobs:    jobs,
		Lessons: lessons,
		Mastery: newFakeMastery(),
		Queue:   q,
		Limiter: limiter,
	}

	return &testEnv{
		router:  router.SetupRouter(deps),
		jobs:    jobs,
		lessons: lessons,
		limiter: limiter,
	}
}

func (e *testEnv) request(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestTenantMiddleware_RequiresHeader(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "X-User-ID")
}

func TestGenerateLesson_Flow(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"document_id":    "doc-1",
		"section_id":     "ch-1",
		"source_content": "Photosynthesis\nPlants convert light to sugar.",
	}

	// First request enqueues; the inline queue runs the job before the
	// response returns.
	w := env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", body)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Status string `json:"status"`
		JobID  string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	require.NotEmpty(t, resp.JobID)

	// The job reached SUCCEEDED with the lesson attached as result.
	w = env.request(t, http.MethodGet, "/api/v1/jobs/"+resp.JobID, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var job struct {
		Status   string          `json:"status"`
		Progress int             `json:"progress"`
		Result   json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, domain.JobStatusSucceeded, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.NotEmpty(t, job.Result)

	// The lesson is now retrievable by scope.
	w = env.request(t, http.MethodGet, "/api/v1/lessons?document_id=doc-1&section_id=ch-1", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A repeat request returns the existing lesson without a new job.
	w = env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	var repeat struct {
		Status string          `json:"status"`
		JobID  string          `json:"job_id"`
		Lesson json.RawMessage `json:"lesson"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repeat))
	assert.Equal(t, "exists", repeat.Status)
	assert.Empty(t, repeat.JobID)
	assert.NotEmpty(t, repeat.Lesson)

	env.jobs.mu.Lock()
	assert.Len(t, env.jobs.jobs, 1, "repeat request must not create a second job")
	env.jobs.mu.Unlock()
}

func TestGenerateLesson_Validation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing document_id", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", map[string]any{
			"source_content": "text",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing source_content", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", map[string]any{
			"document_id": "doc-1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown priority", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", map[string]any{
			"document_id":    "doc-1",
			"source_content": "text",
			"priority":       "urgent",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGenerateLesson_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.limiter.decision = ratelimit.Decision{
		Allowed:    false,
		Limit:      10,
		RetryAfter: 42 * time.Second,
	}

	w := env.request(t, http.MethodPost, "/api/v1/lessons/generate", "user-1", map[string]any{
		"document_id":    "doc-1",
		"source_content": "text",
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	env.jobs.mu.Lock()
	assert.Empty(t, env.jobs.jobs, "rate-limited requests must not create jobs")
	env.jobs.mu.Unlock()
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.jobs.Create(context.Background(), "user-1", domain.JobTypeGenerateLesson, nil)
	require.NoError(t, err)

	t.Run("owner sees the job", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/jobs/"+job.JobID, "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other tenants get 404, not 403", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/jobs/"+job.JobID, "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/jobs/not-a-uuid", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListJobs_Pagination(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		_, err := env.jobs.Create(context.Background(), "user-1", domain.JobTypeGenerateLesson, nil)
		require.NoError(t, err)
	}
	_, err := env.jobs.Create(context.Background(), "user-2", domain.JobTypeGenerateLesson, nil)
	require.NoError(t, err)

	w := env.request(t, http.MethodGet, "/api/v1/jobs?page_size=2", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Jobs       []json.RawMessage `json:"jobs"`
		NextCursor string            `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Jobs, 2)
	require.NotEmpty(t, page.NextCursor)

	// Walk the remaining pages; the cross-tenant job never appears.
	seen := len(page.Jobs)
	cursor := page.NextCursor
	for cursor != "" {
		w = env.request(t, http.MethodGet, "/api/v1/jobs?page_size=2&cursor="+cursor, "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		// next_cursor is omitempty, so reset before unmarshal or the
		// stale cursor from the previous page survives the last page.
		page.Jobs, page.NextCursor = nil, ""
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		seen += len(page.Jobs)
		cursor = page.NextCursor
	}
	assert.Equal(t, 5, seen)

	t.Run("invalid status filter", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/jobs?status=BOGUS", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/jobs?cursor=%21%21%21", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPollJobs(t *testing.T) {
	env := newTestEnv(t)

	mine, err := env.jobs.Create(context.Background(), "user-1", domain.JobTypeGenerateLesson, nil)
	require.NoError(t, err)
	theirs, err := env.jobs.Create(context.Background(), "user-2", domain.JobTypeGenerateLesson, nil)
	require.NoError(t, err)

	w := env.request(t, http.MethodPost, "/api/v1/jobs/poll", "user-1", map[string]any{
		"job_ids": []string{mine.JobID, theirs.JobID, uuid.New().String()},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs []struct {
			JobID string `json:"job_id"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1, "cross-tenant and unknown ids are silently omitted")
	assert.Equal(t, mine.JobID, resp.Jobs[0].JobID)

	t.Run("empty id list", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/jobs/poll", "user-1", map[string]any{
			"job_ids": []string{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLessons_GetAndDelete(t *testing.T) {
	env := newTestEnv(t)

	lesson := &domain.Lesson{
		OwnerID: "user-1",
		Scope:   domain.ScopeKey{DocumentID: "doc-1"},
		Topic:   "Topic",
	}
	require.NoError(t, env.lessons.Insert(context.Background(), lesson))

	t.Run("get requires document_id", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/lessons", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get unknown scope", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/lessons?document_id=doc-404", "user-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cross tenant lesson is invisible", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/lessons?document_id=doc-1", "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete then get", func(t *testing.T) {
		w := env.request(t, http.MethodDelete, "/api/v1/lessons?document_id=doc-1", "user-1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.request(t, http.MethodGet, "/api/v1/lessons?document_id=doc-1", "user-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.request(t, http.MethodDelete, "/api/v1/lessons?document_id=doc-1", "user-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCheckins(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"document_id": "doc-1",
		"concept":     "Light reactions",
		"correct":     true,
	}

	w := env.request(t, http.MethodPost, "/api/v1/checkins", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Mastery struct {
			MasteryState       string `json:"mastery_state"`
			TotalAttempts      int    `json:"total_attempts"`
			ConsecutiveCorrect int    `json:"consecutive_correct"`
		} `json:"mastery"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.MasteryIntroduced, resp.Mastery.MasteryState)
	assert.Equal(t, 1, resp.Mastery.TotalAttempts)

	// Two more correct answers promote to UNDERSTOOD.
	env.request(t, http.MethodPost, "/api/v1/checkins", "user-1", body)
	w = env.request(t, http.MethodPost, "/api/v1/checkins", "user-1", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.MasteryUnderstood, resp.Mastery.MasteryState)
	assert.Equal(t, 3, resp.Mastery.ConsecutiveCorrect)

	t.Run("correct field is required", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/checkins", "user-1", map[string]any{
			"document_id": "doc-1",
			"concept":     "Light reactions",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("false is a valid correct value", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/checkins", "user-1", map[string]any{
			"document_id": "doc-1",
			"concept":     "Calvin cycle",
			"correct":     false,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("list mastery for document", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/mastery?document_id=doc-1", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list struct {
			Records []json.RawMessage `json:"records"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list.Records, 2)
	})

	t.Run("list mastery requires document_id", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/mastery", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQueueHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/queue/health", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Queues map[string]struct {
			Failed int `json:"failed"`
		} `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Queues, "inline")
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// No tenant header needed outside /api/v1.
	w := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
