package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
	"github.com/pezware/mirubato-sub004/internal/service/seeding"
)

type mockProcessor struct {
	runBatchFn    func(ctx context.Context, batchSize int, dryRun bool) (*seeding.BatchResult, error)
	queueStatsFn  func(ctx context.Context) (domain.SeedQueueStats, error)
	recentItemsFn func(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	clearQueueFn  func(ctx context.Context, status *domain.SeedStatus) (int, error)
}

func (m *mockProcessor) RunBatch(ctx context.Context, batchSize int, dryRun bool) (*seeding.BatchResult, error) {
	return m.runBatchFn(ctx, batchSize, dryRun)
}

func (m *mockProcessor) QueueStats(ctx context.Context) (domain.SeedQueueStats, error) {
	if m.queueStatsFn == nil {
		return domain.SeedQueueStats{}, nil
	}
	return m.queueStatsFn(ctx)
}

func (m *mockProcessor) RecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	if m.recentItemsFn == nil {
		return nil, nil
	}
	return m.recentItemsFn(ctx, limit)
}

func (m *mockProcessor) ClearQueue(ctx context.Context, status *domain.SeedStatus) (int, error) {
	if m.clearQueueFn == nil {
		return 0, nil
	}
	return m.clearQueueFn(ctx, status)
}

type mockInitializer struct {
	initializeFn func(ctx context.Context, priorityThreshold int, languages []string, clearExisting bool) (*seeding.InitializeResult, error)
}

func (m *mockInitializer) Initialize(ctx context.Context, t int, langs []string, clear bool) (*seeding.InitializeResult, error) {
	return m.initializeFn(ctx, t, langs, clear)
}

func (m *mockInitializer) EnqueueTerms(ctx context.Context, items []domain.SeedQueueItem) (int, error) {
	return len(items), nil
}

type mockBudget struct {
	usedFn func(ctx context.Context) (int, error)
}

func (m *mockBudget) TokensUsedToday(ctx context.Context) (int, error) {
	if m.usedFn == nil {
		return 0, nil
	}
	return m.usedFn(ctx)
}
func (m *mockBudget) AvailableTokens(context.Context) (int, error)     { return 0, nil }
func (m *mockBudget) UsagePercentage(context.Context) (float64, error) { return 0, nil }
func (m *mockBudget) UsageStats(context.Context, int) (domain.UsageStats, error) {
	return domain.UsageStats{}, nil
}

type mockRecovery struct {
	recoverFn func(ctx context.Context, limit int) (*seeding.RecoveryResult, error)
	retryFn   func(ctx context.Context, ids []uuid.UUID) (int, error)
}

func (m *mockRecovery) RecoverFailedItems(ctx context.Context, limit int) (*seeding.RecoveryResult, error) {
	return m.recoverFn(ctx, limit)
}

func (m *mockRecovery) Stats(context.Context) (*seeding.RecoveryStats, error) {
	return &seeding.RecoveryStats{}, nil
}

func (m *mockRecovery) ListDLQ(context.Context, int, int) ([]domain.DeadLetterItem, error) {
	return nil, nil
}

func (m *mockRecovery) RetryFromDLQ(ctx context.Context, ids []uuid.UUID) (int, error) {
	return m.retryFn(ctx, ids)
}

type mockReviewSvc struct {
	resolveFn func(ctx context.Context, id uuid.UUID, action domain.ReviewAction, reviewedBy string, notes *string, mods *domain.EntryModifications) error
}

func (m *mockReviewSvc) List(context.Context, *domain.ReviewStatus, int, int) ([]domain.ManualReviewItem, int, error) {
	return []domain.ManualReviewItem{}, 0, nil
}

func (m *mockReviewSvc) GetByID(context.Context, uuid.UUID) (*domain.ManualReviewItem, error) {
	return nil, domain.ErrNotFound
}

func (m *mockReviewSvc) Resolve(ctx context.Context, id uuid.UUID, action domain.ReviewAction, reviewedBy string, notes *string, mods *domain.EntryModifications) error {
	return m.resolveFn(ctx, id, action, reviewedBy, notes, mods)
}

func (m *mockReviewSvc) CountPending(context.Context) (int, error) { return 0, nil }

func newTestHandler(p *mockProcessor, rec *mockRecovery, rev *mockReviewSvc) *SeedAdminHandler {
	if p == nil {
		p = &mockProcessor{}
	}
	if rec == nil {
		rec = &mockRecovery{}
	}
	if rev == nil {
		rev = &mockReviewSvc{}
	}
	return NewSeedAdminHandler(
		p,
		&mockInitializer{},
		&mockBudget{},
		rec,
		rev,
		seeding.NewRuns(10),
		config.SeedConfig{ProcessSchedule: "0 */6 * * *", RecoverSchedule: "30 */6 * * *"},
		slog.New(slog.DiscardHandler),
	)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProcess_BudgetExhaustedIsHTTP200(t *testing.T) {
	t.Parallel()

	p := &mockProcessor{
		runBatchFn: func(context.Context, int, bool) (*seeding.BatchResult, error) {
			return &seeding.BatchResult{Reason: seeding.ReasonBudgetExhausted}, nil
		},
	}
	h := newTestHandler(p, nil, nil)

	rec := httptest.NewRecorder()
	h.Process(rec, httptest.NewRequest(http.MethodPost, "/admin/seed/process", strings.NewReader(`{"batch_size":5}`)))

	assert.Equal(t, http.StatusOK, rec.Code, "a closed budget gate is a normal outcome")
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, seeding.ReasonBudgetExhausted)
}

func TestProcess_AsyncReturnsPollableRun(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	p := &mockProcessor{
		runBatchFn: func(context.Context, int, bool) (*seeding.BatchResult, error) {
			defer close(done)
			return &seeding.BatchResult{Processed: 2, Succeeded: 2, Reason: seeding.ReasonCompleted}, nil
		},
	}
	h := newTestHandler(p, nil, nil)

	rec := httptest.NewRecorder()
	h.Process(rec, httptest.NewRequest(http.MethodPost, "/admin/seed/process?async=true", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	env := decodeEnvelope(t, rec)
	runID := env.Results.(map[string]any)["run_id"].(string)
	require.NotEmpty(t, runID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async run never executed")
	}

	// Poll until the registry records the finish.
	deadline := time.Now().Add(2 * time.Second)
	for {
		pollRec := httptest.NewRecorder()
		pollReq := httptest.NewRequest(http.MethodGet, "/admin/seed/runs/"+runID, nil)
		pollReq.SetPathValue("id", runID)
		h.GetRun(pollRec, pollReq)
		require.Equal(t, http.StatusOK, pollRec.Code)

		pollEnv := decodeEnvelope(t, pollRec)
		state := pollEnv.Results.(map[string]any)["state"].(string)
		if state == string(seeding.RunStateCompleted) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never completed, state %s", state)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSystemStatus_IncludesSchedules(t *testing.T) {
	t.Parallel()

	h := newTestHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/admin/seed/system-status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	payload := env.Results.(map[string]any)
	assert.Equal(t, "0 */6 * * *", payload["process_schedule"])
	assert.Equal(t, "30 */6 * * *", payload["recover_schedule"])
}

func TestGetRun_UnknownID(t *testing.T) {
	t.Parallel()

	h := newTestHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/seed/runs/x", nil)
	req.SetPathValue("id", uuid.NewString())
	h.GetRun(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveReview_ConflictOnDoubleResolution(t *testing.T) {
	t.Parallel()

	rev := &mockReviewSvc{
		resolveFn: func(context.Context, uuid.UUID, domain.ReviewAction, string, *string, *domain.EntryModifications) error {
			return domain.ErrConflict
		},
	}
	h := newTestHandler(nil, nil, rev)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/review/x/resolve",
		strings.NewReader(`{"action":"approve","reviewed_by":"editor"}`))
	req.SetPathValue("id", uuid.NewString())
	h.ResolveReview(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestResolveReview_ValidationErrorIs400(t *testing.T) {
	t.Parallel()

	rev := &mockReviewSvc{
		resolveFn: func(context.Context, uuid.UUID, domain.ReviewAction, string, *string, *domain.EntryModifications) error {
			return domain.NewValidationError("action", "must be approve or reject")
		},
	}
	h := newTestHandler(nil, nil, rev)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/review/x/resolve",
		strings.NewReader(`{"action":"publish","reviewed_by":"editor"}`))
	req.SetPathValue("id", uuid.NewString())
	h.ResolveReview(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetryDLQ(t *testing.T) {
	t.Parallel()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	var got []uuid.UUID
	recSvc := &mockRecovery{
		retryFn: func(_ context.Context, ids []uuid.UUID) (int, error) {
			got = ids
			return len(ids), nil
		},
	}
	h := newTestHandler(nil, recSvc, nil)

	body, _ := json.Marshal(map[string]any{"ids": ids})
	rec := httptest.NewRecorder()
	h.RetryDLQ(rec, httptest.NewRequest(http.MethodPost, "/admin/seed/dlq/retry", strings.NewReader(string(body))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ids, got)
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&mockProcessor{
		runBatchFn: func(context.Context, int, bool) (*seeding.BatchResult, error) {
			return &seeding.BatchResult{Reason: seeding.ReasonQueueEmpty}, nil
		},
	}, nil, nil)
	health := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), "test")
	mux := NewRouter(health, h, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/seed/process", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
