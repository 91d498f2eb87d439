// Package seedqueue implements the seed work queue repository using PostgreSQL.
// The claim path is a single conditional UPDATE over an ordered, lock-skipping
// subselect so that overlapping batch runs never claim the same item.
package seedqueue

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Repo provides seed queue persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new seed queue repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// psql builds queries with $1-style placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const itemColumns = `id, term, term_normalized, languages, priority, status, attempts,
	last_attempt_at, completed_at, error_message, created_at`

// ---------------------------------------------------------------------------
// Enqueue
// ---------------------------------------------------------------------------

// enqueueSQL relies on the partial unique index over active items: a term
// that already has a pending/processing item is silently skipped.
const enqueueSQL = `
INSERT INTO seed_queue (id, term, term_normalized, languages, priority)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (term_normalized) WHERE status IN ('pending', 'processing') DO NOTHING`

// Enqueue inserts items, skipping any whose normalized term already has an
// active queue item. Returns the number of items actually added.
func (r *Repo) Enqueue(ctx context.Context, items []domain.SeedQueueItem) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	added := 0
	for _, item := range items {
		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		tag, err := querier.Exec(ctx, enqueueSQL,
			id, item.Term, domain.NormalizeTerm(item.Term), item.Languages, item.Priority)
		if err != nil {
			return added, postgres.MapError(err, "seed_queue_item", item.Term)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// ---------------------------------------------------------------------------
// Claim
// ---------------------------------------------------------------------------

// claimBatchSQL atomically flips up to $1 pending items to processing.
// FOR UPDATE SKIP LOCKED makes concurrent claims disjoint instead of blocking.
const claimBatchSQL = `
UPDATE seed_queue
SET status = 'processing'
WHERE id IN (
    SELECT id FROM seed_queue
    WHERE status = 'pending'
    ORDER BY priority DESC, created_at ASC
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + itemColumns

// ClaimBatch claims up to limit pending items, ordered by priority DESC then
// created_at ASC. The select-and-transition happens in one statement, so two
// concurrent callers never receive the same item.
func (r *Repo) ClaimBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, claimBatchSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}

	// UPDATE ... RETURNING does not guarantee subselect order; restore it.
	sortClaimOrder(items)
	return items, nil
}

const previewBatchSQL = `
SELECT ` + itemColumns + `
FROM seed_queue
WHERE status = 'pending'
ORDER BY priority DESC, created_at ASC
LIMIT $1`

// PreviewBatch returns the items ClaimBatch would claim, without claiming.
// Used by dry runs.
func (r *Repo) PreviewBatch(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, previewBatchSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("preview batch: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("preview batch: %w", err)
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------------

const markCompletedSQL = `
UPDATE seed_queue
SET status = 'completed', completed_at = now(), last_attempt_at = now(), error_message = NULL
WHERE id = $1 AND status = 'processing'`

// MarkCompleted transitions a claimed item to completed.
func (r *Repo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.conditionalUpdate(ctx, markCompletedSQL, id)
}

const markFailedSQL = `
UPDATE seed_queue
SET status = 'failed', attempts = attempts + 1, last_attempt_at = now(), error_message = $2
WHERE id = $1 AND status = 'processing'`

// MarkFailed transitions a claimed item to failed, recording the error
// message and charging one attempt.
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.conditionalUpdate(ctx, markFailedSQL, id, errMsg)
}

const releaseSQL = `
UPDATE seed_queue
SET status = 'pending'
WHERE id = $1 AND status = 'processing'`

// Release puts a claimed-but-unattempted item back to pending without
// charging an attempt. Used when the budget runs out mid-batch and by the
// end-of-run sweep that guarantees nothing stays in processing.
func (r *Repo) Release(ctx context.Context, id uuid.UUID) error {
	return r.conditionalUpdate(ctx, releaseSQL, id)
}

const resetToPendingSQL = `
UPDATE seed_queue
SET status = 'pending', error_message = NULL
WHERE id = $1 AND status = 'failed'`

// ResetToPending re-admits a failed item for another claim, keeping its
// attempt count. Returns domain.ErrAlreadyExists if a newer active item for
// the same term was enqueued in the meantime (partial unique index).
func (r *Repo) ResetToPending(ctx context.Context, id uuid.UUID) error {
	return r.conditionalUpdate(ctx, resetToPendingSQL, id)
}

// conditionalUpdate runs a guarded UPDATE and maps a zero row count to
// domain.ErrNotFound (missing item or illegal transition).
func (r *Repo) conditionalUpdate(ctx context.Context, query string, id uuid.UUID, args ...any) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return postgres.MapError(err, "seed_queue_item", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seed_queue_item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

const getByIDSQL = `SELECT ` + itemColumns + ` FROM seed_queue WHERE id = $1`

// GetByID returns a queue item by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SeedQueueItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, postgres.MapError(err, "seed_queue_item", id)
	}
	return item, nil
}

const getStatsSQL = `
SELECT
    count(*) FILTER (WHERE status = 'pending')    AS pending,
    count(*) FILTER (WHERE status = 'processing') AS processing,
    count(*) FILTER (WHERE status = 'completed')  AS completed,
    count(*) FILTER (WHERE status = 'failed')     AS failed,
    count(*)                                      AS total
FROM seed_queue`

// GetStats returns aggregate counts by status.
func (r *Repo) GetStats(ctx context.Context) (domain.SeedQueueStats, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var stats domain.SeedQueueStats
	err := querier.QueryRow(ctx, getStatsSQL).Scan(
		&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed, &stats.Total,
	)
	if err != nil {
		return domain.SeedQueueStats{}, fmt.Errorf("seed queue stats: %w", err)
	}
	return stats, nil
}

// List returns queue items, optionally filtered by status, newest first.
func (r *Repo) List(ctx context.Context, status *domain.SeedStatus, limit, offset int) ([]domain.SeedQueueItem, error) {
	builder := psql.Select(itemColumns).
		From("seed_queue").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if status != nil {
		builder = builder.Where(sq.Eq{"status": status.String()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list seed_queue: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("list seed_queue: %w", err)
	}
	return items, nil
}

// GetRecentItems returns the most recently created items across all statuses.
func (r *Repo) GetRecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	return r.List(ctx, nil, limit, 0)
}

const listFailedSQL = `
SELECT ` + itemColumns + `
FROM seed_queue
WHERE status = 'failed'
ORDER BY last_attempt_at ASC NULLS FIRST
LIMIT $1`

// ListFailed returns failed items for the recovery sweep, oldest attempt first.
func (r *Repo) ListFailed(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listFailedSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed seed_queue: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("list failed seed_queue: %w", err)
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Deletes
// ---------------------------------------------------------------------------

const deleteSQL = `DELETE FROM seed_queue WHERE id = $1`

// Delete removes a queue item (used when promoting to the dead letter queue).
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "seed_queue_item", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seed_queue_item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ClearByStatus bulk-deletes items. A nil status clears the whole queue.
// Idempotent: clearing an empty set is not an error. Returns deleted count.
func (r *Repo) ClearByStatus(ctx context.Context, status *domain.SeedStatus) (int, error) {
	builder := psql.Delete("seed_queue")
	if status != nil {
		builder = builder.Where(sq.Eq{"status": status.String()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build clear query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear seed_queue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.SeedQueueItem, error) {
	var (
		item          domain.SeedQueueItem
		normalized    string
		lastAttemptAt pgtype.Timestamptz
		completedAt   pgtype.Timestamptz
		errorMessage  pgtype.Text
	)
	err := row.Scan(
		&item.ID, &item.Term, &normalized, &item.Languages, &item.Priority,
		&item.Status, &item.Attempts, &lastAttemptAt, &completedAt,
		&errorMessage, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.LastAttemptAt = pgTimeToPtr(lastAttemptAt)
	item.CompletedAt = pgTimeToPtr(completedAt)
	item.ErrorMessage = pgTextToPtr(errorMessage)
	return &item, nil
}

func scanItems(rows pgx.Rows) ([]domain.SeedQueueItem, error) {
	items := []domain.SeedQueueItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func sortClaimOrder(items []domain.SeedQueueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func pgTimeToPtr(t pgtype.Timestamptz) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}

func pgTextToPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}
