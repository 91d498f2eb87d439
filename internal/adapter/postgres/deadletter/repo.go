// Package deadletter implements the dead letter queue repository using
// PostgreSQL. Rows are created only by the recovery service and removed only
// by the operator-triggered retry.
package deadletter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Repo provides dead letter queue persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dead letter repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `id, term, languages, priority, failure_reason, error_type,
	failure_count, attempts, moved_to_dlq_at`

const createSQL = `
INSERT INTO dead_letter (id, term, languages, priority, failure_reason, error_type, failure_count, attempts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Create inserts a quarantined item.
func (r *Repo) Create(ctx context.Context, item *domain.DeadLetterItem) error {
	id := item.ID
	if id == uuid.Nil {
		id = uuid.New()
		item.ID = id
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	_, err := querier.Exec(ctx, createSQL,
		id, item.Term, item.Languages, item.Priority, item.FailureReason,
		item.FailureAnalysis.ErrorType, item.FailureAnalysis.Count, item.Attempts)
	if err != nil {
		return postgres.MapError(err, "dead_letter_item", id)
	}
	return nil
}

const getByIDsSQL = `
SELECT ` + itemColumns + `
FROM dead_letter
WHERE id = ANY($1::uuid[])`

// GetByIDs returns the dead letter items matching the given ids.
// Missing ids are silently absent from the result.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.DeadLetterItem, error) {
	if len(ids) == 0 {
		return []domain.DeadLetterItem{}, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, getByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get dead_letter by ids: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

const listSQL = `
SELECT ` + itemColumns + `
FROM dead_letter
ORDER BY moved_to_dlq_at DESC
LIMIT $1 OFFSET $2`

// List returns dead letter items, most recently quarantined first.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list dead_letter: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

const deleteSQL = `DELETE FROM dead_letter WHERE id = $1`

// Delete removes a dead letter item. Returns domain.ErrNotFound when absent.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "dead_letter_item", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dead_letter_item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

const countSQL = `SELECT count(*) FROM dead_letter`

// Count returns the total number of quarantined items.
func (r *Repo) Count(ctx context.Context) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dead_letter: %w", err)
	}
	return count, nil
}

const commonFailuresSQL = `
SELECT error_type, count(*) AS occurrences
FROM dead_letter
GROUP BY error_type
ORDER BY occurrences DESC, error_type ASC
LIMIT $1`

// CommonFailures returns the most frequent quarantine error types.
func (r *Repo) CommonFailures(ctx context.Context, limit int) ([]domain.FailureAnalysis, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, commonFailuresSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("common failures: %w", err)
	}
	defer rows.Close()

	failures := []domain.FailureAnalysis{}
	for rows.Next() {
		var f domain.FailureAnalysis
		if err := rows.Scan(&f.ErrorType, &f.Count); err != nil {
			return nil, fmt.Errorf("scan common failures: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func scanItems(rows pgx.Rows) ([]domain.DeadLetterItem, error) {
	items := []domain.DeadLetterItem{}
	for rows.Next() {
		var item domain.DeadLetterItem
		err := rows.Scan(
			&item.ID, &item.Term, &item.Languages, &item.Priority,
			&item.FailureReason, &item.FailureAnalysis.ErrorType,
			&item.FailureAnalysis.Count, &item.Attempts, &item.MovedToDLQAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan dead_letter: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
