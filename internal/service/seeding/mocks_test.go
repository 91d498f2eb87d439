package seeding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Func-field mocks shared by the package tests. Unset fields return zero
// values so each test only wires the calls it cares about.

type mockQueue struct {
	enqueueFn        func(ctx context.Context, items []domain.SeedQueueItem) (int, error)
	claimBatchFn     func(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	previewBatchFn   func(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	markCompletedFn  func(ctx context.Context, id uuid.UUID) error
	markFailedFn     func(ctx context.Context, id uuid.UUID, errMsg string) error
	releaseFn        func(ctx context.Context, id uuid.UUID) error
	resetToPendingFn func(ctx context.Context, id uuid.UUID) error
	listFailedFn     func(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	getStatsFn       func(ctx context.Context) (domain.SeedQueueStats, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	clearByStatusFn  func(ctx context.Context, status *domain.SeedStatus) (int, error)
}

func (m *mockQueue) Enqueue(ctx context.Context, items []domain.SeedQueueItem) (int, error) {
	if m.enqueueFn == nil {
		return len(items), nil
	}
	return m.enqueueFn(ctx, items)
}

func (m *mockQueue) ClaimBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	if m.claimBatchFn == nil {
		return nil, nil
	}
	return m.claimBatchFn(ctx, limit)
}

func (m *mockQueue) PreviewBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	if m.previewBatchFn == nil {
		return nil, nil
	}
	return m.previewBatchFn(ctx, limit)
}

func (m *mockQueue) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	if m.markCompletedFn == nil {
		return nil
	}
	return m.markCompletedFn(ctx, id)
}

func (m *mockQueue) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	if m.markFailedFn == nil {
		return nil
	}
	return m.markFailedFn(ctx, id, errMsg)
}

func (m *mockQueue) Release(ctx context.Context, id uuid.UUID) error {
	if m.releaseFn == nil {
		return nil
	}
	return m.releaseFn(ctx, id)
}

func (m *mockQueue) ResetToPending(ctx context.Context, id uuid.UUID) error {
	if m.resetToPendingFn == nil {
		return nil
	}
	return m.resetToPendingFn(ctx, id)
}

func (m *mockQueue) ListFailed(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	if m.listFailedFn == nil {
		return nil, nil
	}
	return m.listFailedFn(ctx, limit)
}

func (m *mockQueue) GetStats(ctx context.Context) (domain.SeedQueueStats, error) {
	if m.getStatsFn == nil {
		return domain.SeedQueueStats{}, nil
	}
	return m.getStatsFn(ctx)
}

func (m *mockQueue) GetRecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	return nil, nil
}

func (m *mockQueue) List(ctx context.Context, status *domain.SeedStatus, limit, offset int) ([]domain.SeedQueueItem, error) {
	return nil, nil
}

func (m *mockQueue) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockQueue) ClearByStatus(ctx context.Context, status *domain.SeedStatus) (int, error) {
	if m.clearByStatusFn == nil {
		return 0, nil
	}
	return m.clearByStatusFn(ctx, status)
}

type mockLedger struct {
	recordUsageFn   func(ctx context.Context, day time.Time, tokens, termsGenerated int) error
	getUsageFn      func(ctx context.Context, day time.Time) (int, error)
	getDailyUsageFn func(ctx context.Context, until time.Time, days int) ([]domain.DailyUsage, error)
}

func (m *mockLedger) RecordUsage(ctx context.Context, day time.Time, tokens, termsGenerated int) error {
	if m.recordUsageFn == nil {
		return nil
	}
	return m.recordUsageFn(ctx, day, tokens, termsGenerated)
}

func (m *mockLedger) GetUsage(ctx context.Context, day time.Time) (int, error) {
	if m.getUsageFn == nil {
		return 0, nil
	}
	return m.getUsageFn(ctx, day)
}

func (m *mockLedger) GetDailyUsage(ctx context.Context, until time.Time, days int) ([]domain.DailyUsage, error) {
	if m.getDailyUsageFn == nil {
		return nil, nil
	}
	return m.getDailyUsageFn(ctx, until, days)
}

type mockEntries struct {
	existsByTermFn func(ctx context.Context, term, lang string) (bool, error)
	findByTermFn   func(ctx context.Context, term, lang string) (*domain.Entry, error)
	createFn       func(ctx context.Context, e *domain.Entry) error
	updateFn       func(ctx context.Context, e *domain.Entry) error
}

func (m *mockEntries) ExistsByTerm(ctx context.Context, term, lang string) (bool, error) {
	if m.existsByTermFn == nil {
		return false, nil
	}
	return m.existsByTermFn(ctx, term, lang)
}

func (m *mockEntries) FindByTerm(ctx context.Context, term, lang string) (*domain.Entry, error) {
	if m.findByTermFn == nil {
		return nil, domain.ErrNotFound
	}
	return m.findByTermFn(ctx, term, lang)
}

func (m *mockEntries) Create(ctx context.Context, e *domain.Entry) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, e)
}

func (m *mockEntries) Update(ctx context.Context, e *domain.Entry) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, e)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, term string, termType domain.TermType, lang, extraContext string) (*domain.CandidateEntry, error)
}

func (m *mockGenerator) GenerateEntry(ctx context.Context, term string, termType domain.TermType, lang, extraContext string) (*domain.CandidateEntry, error) {
	return m.generateFn(ctx, term, termType, lang, extraContext)
}

type mockReviews struct {
	createFn       func(ctx context.Context, item *domain.ManualReviewItem) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error)
	listFn         func(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error)
	resolveFn      func(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy string, notes *string) error
	hasPendingFn   func(ctx context.Context, term, lang string) (bool, error)
	countPendingFn func(ctx context.Context) (int, error)
}

func (m *mockReviews) Create(ctx context.Context, item *domain.ManualReviewItem) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, item)
}

func (m *mockReviews) GetByID(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error) {
	if m.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockReviews) List(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, status, limit, offset)
}

func (m *mockReviews) Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy string, notes *string) error {
	if m.resolveFn == nil {
		return nil
	}
	return m.resolveFn(ctx, id, status, reviewedBy, notes)
}

func (m *mockReviews) HasPending(ctx context.Context, term, lang string) (bool, error) {
	if m.hasPendingFn == nil {
		return false, nil
	}
	return m.hasPendingFn(ctx, term, lang)
}

func (m *mockReviews) CountPending(ctx context.Context) (int, error) {
	if m.countPendingFn == nil {
		return 0, nil
	}
	return m.countPendingFn(ctx)
}

type mockDLQ struct {
	createFn         func(ctx context.Context, item *domain.DeadLetterItem) error
	getByIDsFn       func(ctx context.Context, ids []uuid.UUID) ([]domain.DeadLetterItem, error)
	listFn           func(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	countFn          func(ctx context.Context) (int, error)
	commonFailuresFn func(ctx context.Context, limit int) ([]domain.FailureAnalysis, error)
}

func (m *mockDLQ) Create(ctx context.Context, item *domain.DeadLetterItem) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, item)
}

func (m *mockDLQ) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.DeadLetterItem, error) {
	if m.getByIDsFn == nil {
		return nil, nil
	}
	return m.getByIDsFn(ctx, ids)
}

func (m *mockDLQ) List(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, limit, offset)
}

func (m *mockDLQ) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockDLQ) Count(ctx context.Context) (int, error) {
	if m.countFn == nil {
		return 0, nil
	}
	return m.countFn(ctx)
}

func (m *mockDLQ) CommonFailures(ctx context.Context, limit int) ([]domain.FailureAnalysis, error) {
	if m.commonFailuresFn == nil {
		return nil, nil
	}
	return m.commonFailuresFn(ctx, limit)
}

// mockTx runs the callback directly, no transaction semantics.
type mockTx struct{}

func (mockTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
