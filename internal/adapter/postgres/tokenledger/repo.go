// Package tokenledger implements the daily AI-token spend ledger using
// PostgreSQL. The ledger is one row per UTC day; increments are a single
// upsert so concurrent batch runs never lose updates.
package tokenledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Repo provides token ledger persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new token ledger repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// recordUsageSQL is the atomic read-modify-write: the increment happens
// inside the upsert, not in application code.
const recordUsageSQL = `
INSERT INTO token_usage (usage_date, tokens_used, terms_generated, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (usage_date) DO UPDATE
SET tokens_used     = token_usage.tokens_used + EXCLUDED.tokens_used,
    terms_generated = token_usage.terms_generated + EXCLUDED.terms_generated,
    updated_at      = now()`

// RecordUsage adds tokens (and optionally generated-term count) to the
// ledger row for the given day, creating the row if it does not exist.
func (r *Repo) RecordUsage(ctx context.Context, day time.Time, tokens, termsGenerated int) error {
	if tokens < 0 || termsGenerated < 0 {
		return fmt.Errorf("record usage: %w", domain.ErrValidation)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, recordUsageSQL, domain.UsageDay(day), tokens, termsGenerated); err != nil {
		return fmt.Errorf("record token usage: %w", err)
	}
	return nil
}

const getUsageSQL = `SELECT tokens_used FROM token_usage WHERE usage_date = $1`

// GetUsage returns the tokens spent on the given UTC day. A missing row
// means zero spend, not an error.
func (r *Repo) GetUsage(ctx context.Context, day time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var tokens int64
	err := querier.QueryRow(ctx, getUsageSQL, domain.UsageDay(day)).Scan(&tokens)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get token usage: %w", err)
	}
	return int(tokens), nil
}

const getDailyUsageSQL = `
SELECT usage_date, tokens_used, terms_generated
FROM token_usage
WHERE usage_date > $1::date - $2::int AND usage_date <= $1::date
ORDER BY usage_date DESC`

// GetDailyUsage returns the trailing window of daily ledger rows ending at
// the given day, newest first. Days without spend have no row.
func (r *Repo) GetDailyUsage(ctx context.Context, until time.Time, days int) ([]domain.DailyUsage, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getDailyUsageSQL, domain.UsageDay(until), days)
	if err != nil {
		return nil, fmt.Errorf("get daily usage: %w", err)
	}
	defer rows.Close()

	usage := []domain.DailyUsage{}
	for rows.Next() {
		var d domain.DailyUsage
		var tokens int64
		if err := rows.Scan(&d.Date, &tokens, &d.TermsGenerated); err != nil {
			return nil, fmt.Errorf("scan daily usage: %w", err)
		}
		d.TokensUsed = int(tokens)
		usage = append(usage, d)
	}
	return usage, rows.Err()
}
