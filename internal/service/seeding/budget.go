package seeding

import (
	"context"
	"log/slog"
	"time"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// BudgetManager gates AI token spend against the daily budget. The ledger
// holds the authoritative per-UTC-day totals; this service only reads and
// increments it, so the gate is advisory between check and spend. The
// mid-batch re-check in the processor keeps any overshoot to a single term.
type BudgetManager struct {
	log    *slog.Logger
	ledger ledgerRepo
	cfg    config.SeedConfig
	now    func() time.Time
}

// NewBudgetManager creates a budget manager over the token ledger.
func NewBudgetManager(log *slog.Logger, ledger ledgerRepo, cfg config.SeedConfig) *BudgetManager {
	return &BudgetManager{
		log:    log.With("service", "budget"),
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// TokensUsedToday returns the tokens spent so far in the current UTC day.
func (m *BudgetManager) TokensUsedToday(ctx context.Context) (int, error) {
	return m.ledger.GetUsage(ctx, m.now())
}

// AvailableTokens returns the remaining budget for today. Never negative,
// even if recorded spend overshot the cap.
func (m *BudgetManager) AvailableTokens(ctx context.Context) (int, error) {
	used, err := m.ledger.GetUsage(ctx, m.now())
	if err != nil {
		return 0, err
	}
	available := m.cfg.EffectiveDailyBudget() - used
	if available < 0 {
		available = 0
	}
	return available, nil
}

// CanProcessTerms reports whether the remaining budget covers the estimated
// cost of generating n more terms.
func (m *BudgetManager) CanProcessTerms(ctx context.Context, n int) (bool, error) {
	available, err := m.AvailableTokens(ctx)
	if err != nil {
		return false, err
	}
	return available >= n*m.cfg.TokensPerTermEstimate, nil
}

// RecordUsage adds actual spend to today's ledger row. termsGenerated counts
// successful generations, used for the per-term average and the daily limit.
func (m *BudgetManager) RecordUsage(ctx context.Context, tokens, termsGenerated int) error {
	if err := m.ledger.RecordUsage(ctx, m.now(), tokens, termsGenerated); err != nil {
		return err
	}
	m.log.DebugContext(ctx, "token usage recorded",
		slog.Int("tokens", tokens), slog.Int("terms", termsGenerated))
	return nil
}

// TermsGeneratedToday returns how many terms were generated in the current
// UTC day, for the daily item limit.
func (m *BudgetManager) TermsGeneratedToday(ctx context.Context) (int, error) {
	daily, err := m.ledger.GetDailyUsage(ctx, m.now(), 1)
	if err != nil {
		return 0, err
	}
	if len(daily) == 0 {
		return 0, nil
	}
	return daily[0].TermsGenerated, nil
}

// UsagePercentage returns today's spend as a share of the effective budget,
// in percent. A zero budget reads as fully used.
func (m *BudgetManager) UsagePercentage(ctx context.Context) (float64, error) {
	used, err := m.ledger.GetUsage(ctx, m.now())
	if err != nil {
		return 0, err
	}
	budget := m.cfg.EffectiveDailyBudget()
	if budget <= 0 {
		return 100, nil
	}
	return float64(used) / float64(budget) * 100, nil
}

// UsageStats aggregates the trailing usage window: per-day rows, the total
// over the last seven days, and the average token cost per generated term.
func (m *BudgetManager) UsageStats(ctx context.Context, days int) (domain.UsageStats, error) {
	if days <= 0 {
		days = 7
	}
	daily, err := m.ledger.GetDailyUsage(ctx, m.now(), days)
	if err != nil {
		return domain.UsageStats{}, err
	}

	stats := domain.UsageStats{Daily: daily}
	weekStart := domain.UsageDay(m.now()).AddDate(0, 0, -6)
	totalTokens, totalTerms := 0, 0
	for _, d := range daily {
		totalTokens += d.TokensUsed
		totalTerms += d.TermsGenerated
		if !d.Date.Before(weekStart) {
			stats.WeeklyTotal += d.TokensUsed
		}
	}
	if totalTerms > 0 {
		stats.AvgTokensPerTerm = float64(totalTokens) / float64(totalTerms)
	}
	return stats, nil
}
