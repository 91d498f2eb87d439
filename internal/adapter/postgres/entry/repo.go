// Package entry implements the published-entry repository using PostgreSQL.
// It is the Database collaborator of the seed pipeline: lookups feed the
// idempotence guard, writes publish generated or approved entries.
package entry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Repo provides published-entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new entry repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const entryColumns = `id, term, term_normalized, lang, type, definition, etymology,
	examples, translations, source_slug, quality_score, created_at, updated_at`

const findByTermSQL = `
SELECT ` + entryColumns + `
FROM entries
WHERE term_normalized = $1 AND lang = $2`

// FindByTerm returns the published entry for a (term, lang) pair.
// The term is normalized before lookup. Returns domain.ErrNotFound if absent.
func (r *Repo) FindByTerm(ctx context.Context, term, lang string) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, findByTermSQL, domain.NormalizeTerm(term), lang)
	e, err := scanEntry(row)
	if err != nil {
		return nil, postgres.MapError(err, "entry", term)
	}
	return e, nil
}

const existsByTermSQL = `
SELECT EXISTS (SELECT 1 FROM entries WHERE term_normalized = $1 AND lang = $2)`

// ExistsByTerm reports whether a published entry exists for (term, lang).
func (r *Repo) ExistsByTerm(ctx context.Context, term, lang string) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := querier.QueryRow(ctx, existsByTermSQL, domain.NormalizeTerm(term), lang).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("entry exists %q/%s: %w", term, lang, err)
	}
	return exists, nil
}

const createSQL = `
INSERT INTO entries (id, term, term_normalized, lang, type, definition, etymology,
                     examples, translations, source_slug, quality_score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`

// Create inserts a new published entry. Returns domain.ErrAlreadyExists when
// the (term, lang) pair is already published.
func (r *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.TermNormalized = domain.NormalizeTerm(e.Term)

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	err := querier.QueryRow(ctx, createSQL,
		e.ID, e.Term, e.TermNormalized, e.Lang, e.Type.String(), e.Definition,
		ptrStringToPgText(e.Etymology), e.Examples, e.Translations,
		e.SourceSlug, e.QualityScore,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "entry", e.Term)
	}
	return nil
}

const updateSQL = `
UPDATE entries
SET definition = $2, etymology = $3, examples = $4, translations = $5,
    source_slug = $6, quality_score = $7, updated_at = now()
WHERE id = $1
RETURNING updated_at`

// Update overwrites the content fields of an existing entry.
func (r *Repo) Update(ctx context.Context, e *domain.Entry) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	err := querier.QueryRow(ctx, updateSQL,
		e.ID, e.Definition, ptrStringToPgText(e.Etymology), e.Examples,
		e.Translations, e.SourceSlug, e.QualityScore,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "entry", e.ID)
	}
	return nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e         domain.Entry
		etymology pgtype.Text
		termType  string
	)
	err := row.Scan(
		&e.ID, &e.Term, &e.TermNormalized, &e.Lang, &termType, &e.Definition,
		&etymology, &e.Examples, &e.Translations, &e.SourceSlug,
		&e.QualityScore, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = domain.TermType(termType)
	if etymology.Valid {
		e.Etymology = &etymology.String
	}
	return &e, nil
}

func ptrStringToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
