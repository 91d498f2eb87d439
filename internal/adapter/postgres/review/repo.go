// Package review implements the manual review queue repository using
// PostgreSQL. Items are created by the seed processor for low-confidence
// candidates and resolved exactly once by a reviewer.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Repo provides manual review persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new manual review repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const itemColumns = `id, term, lang, generated_content, quality_score, reason, status,
	reviewed_by, reviewed_at, notes, created_at`

const createSQL = `
INSERT INTO manual_review (id, term, lang, generated_content, quality_score, reason)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (term, lang) WHERE status = 'pending' DO NOTHING`

// Create inserts a pending review item for a generated candidate. A (term,
// lang) pair with a review already pending returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, item *domain.ManualReviewItem) error {
	content, err := json.Marshal(item.GeneratedContent)
	if err != nil {
		return fmt.Errorf("marshal generated content: %w", err)
	}

	id := item.ID
	if id == uuid.Nil {
		id = uuid.New()
		item.ID = id
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := querier.Exec(ctx, createSQL,
		id, item.Term, item.Lang, content, item.QualityScore, item.Reason)
	if err != nil {
		return postgres.MapError(err, "manual_review_item", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review for %q/%s already pending: %w",
			item.Term, item.Lang, domain.ErrAlreadyExists)
	}
	return nil
}

const getByIDSQL = `SELECT ` + itemColumns + ` FROM manual_review WHERE id = $1`

// GetByID returns a review item by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	item, err := scanItem(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "manual_review_item", id)
	}
	return item, nil
}

// List returns review items filtered by status with pagination, oldest first
// (reviewers work through the backlog in arrival order). It also returns the
// total count for the filter.
func (r *Repo) List(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	countBuilder := psql.Select("count(*)").From("manual_review")
	listBuilder := psql.Select(itemColumns).
		From("manual_review").
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if status != nil {
		countBuilder = countBuilder.Where(sq.Eq{"status": status.String()})
		listBuilder = listBuilder.Where(sq.Eq{"status": status.String()})
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count manual_review: %w", err)
	}

	listQuery, listArgs, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := querier.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list manual_review: %w", err)
	}
	defer rows.Close()

	items := []domain.ManualReviewItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan manual_review: %w", err)
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// resolveSQL only matches pending rows: a second resolution finds zero rows.
const resolveSQL = `
UPDATE manual_review
SET status = $2, reviewed_by = $3, reviewed_at = now(), notes = $4
WHERE id = $1 AND status = 'pending'`

// Resolve transitions a pending item to approved or rejected, recording the
// reviewer identity and timestamp. Resolving an already-terminal item
// returns domain.ErrConflict.
func (r *Repo) Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, reviewedBy string, notes *string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("resolve to %q: %w", status, domain.ErrValidation)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := querier.Exec(ctx, resolveSQL, id, status.String(), reviewedBy, notes)
	if err != nil {
		return postgres.MapError(err, "manual_review_item", id)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "missing" from "already resolved".
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("manual_review_item %s already resolved: %w", id, domain.ErrConflict)
	}
	return nil
}

const hasPendingSQL = `
SELECT EXISTS (
	SELECT 1 FROM manual_review WHERE term = $1 AND lang = $2 AND status = 'pending'
)`

// HasPending reports whether a (term, lang) pair already has a review
// awaiting resolution.
func (r *Repo) HasPending(ctx context.Context, term, lang string) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, hasPendingSQL, term, lang).Scan(&exists); err != nil {
		return false, fmt.Errorf("pending manual_review lookup: %w", err)
	}
	return exists, nil
}

const countPendingSQL = `SELECT count(*) FROM manual_review WHERE status = 'pending'`

// CountPending returns the review backlog size.
func (r *Repo) CountPending(ctx context.Context) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countPendingSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending manual_review: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.ManualReviewItem, error) {
	var (
		item       domain.ManualReviewItem
		content    []byte
		reviewedBy pgtype.Text
		reviewedAt pgtype.Timestamptz
		notes      pgtype.Text
	)
	err := row.Scan(
		&item.ID, &item.Term, &item.Lang, &content, &item.QualityScore,
		&item.Reason, &item.Status, &reviewedBy, &reviewedAt, &notes, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &item.GeneratedContent); err != nil {
		return nil, fmt.Errorf("unmarshal generated content: %w", err)
	}
	item.ReviewedBy = pgTextToPtr(reviewedBy)
	item.Notes = pgTextToPtr(notes)
	item.ReviewedAt = pgTimeToPtr(reviewedAt)
	return &item, nil
}

func pgTextToPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}

func pgTimeToPtr(t pgtype.Timestamptz) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}
