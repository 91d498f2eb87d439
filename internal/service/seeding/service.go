// Package seeding implements the seed generation pipeline: the work queue
// admission and claim flow, the daily token budget gate, batched AI
// generation with failure isolation, failure recovery with retry backoff and
// dead letter quarantine, and the manual review gate for low-confidence
// candidates.
package seeding

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// queueRepo is the seed work queue persistence the pipeline services consume.
type queueRepo interface {
	Enqueue(ctx context.Context, items []domain.SeedQueueItem) (int, error)
	ClaimBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	PreviewBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	Release(ctx context.Context, id uuid.UUID) error
	ResetToPending(ctx context.Context, id uuid.UUID) error
	ListFailed(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	GetStats(ctx context.Context) (domain.SeedQueueStats, error)
	GetRecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	List(ctx context.Context, status *domain.SeedStatus, limit, offset int) ([]domain.SeedQueueItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearByStatus(ctx context.Context, status *domain.SeedStatus) (int, error)
}

// ledgerRepo is the daily token spend ledger.
type ledgerRepo interface {
	RecordUsage(ctx context.Context, day time.Time, tokens, termsGenerated int) error
	GetUsage(ctx context.Context, day time.Time) (int, error)
	GetDailyUsage(ctx context.Context, until time.Time, days int) ([]domain.DailyUsage, error)
}

// entryStore is the published dictionary entry persistence.
type entryStore interface {
	ExistsByTerm(ctx context.Context, term, lang string) (bool, error)
	FindByTerm(ctx context.Context, term, lang string) (*domain.Entry, error)
	Create(ctx context.Context, e *domain.Entry) error
	Update(ctx context.Context, e *domain.Entry) error
}

// EntryCache is the optional existence cache in front of entryStore.
// A nil cache means every lookup goes to the store. Exported so the wiring
// layer can pass an untyped nil when the cache is disabled.
type EntryCache interface {
	Exists(ctx context.Context, term, lang string) (bool, error)
	MarkExists(ctx context.Context, term, lang string) error
}

// generator produces scored candidate entries via the AI provider.
type generator interface {
	GenerateEntry(ctx context.Context, term string, termType domain.TermType, lang, extraContext string) (*domain.CandidateEntry, error)
}

// reviewRepo is the manual review queue persistence.
type reviewRepo interface {
	Create(ctx context.Context, item *domain.ManualReviewItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error)
	List(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error)
	Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy string, notes *string) error
	HasPending(ctx context.Context, term, lang string) (bool, error)
	CountPending(ctx context.Context) (int, error)
}

// dlqRepo is the dead letter queue persistence.
type dlqRepo interface {
	Create(ctx context.Context, item *domain.DeadLetterItem) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.DeadLetterItem, error)
	List(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CommonFailures(ctx context.Context, limit int) ([]domain.FailureAnalysis, error)
}

// txRunner runs a function inside a database transaction.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
