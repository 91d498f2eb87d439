package seeding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

func TestBudgetManager_AvailableTokensNeverNegative(t *testing.T) {
	t.Parallel()

	cfg := testSeedConfig()
	cfg.DailyBudget = 5000

	ledger := &mockLedger{
		getUsageFn: func(context.Context, time.Time) (int, error) { return 6000, nil },
	}
	m := NewBudgetManager(testLogger(), ledger, cfg)

	available, err := m.AvailableTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestBudgetManager_CanProcessTerms(t *testing.T) {
	t.Parallel()

	cfg := testSeedConfig()
	cfg.DailyBudget = 5000
	cfg.TokensPerTermEstimate = 60

	ledger := &mockLedger{
		getUsageFn: func(context.Context, time.Time) (int, error) { return 4950, nil },
	}
	m := NewBudgetManager(testLogger(), ledger, cfg)

	// 50 tokens left, estimate 60: the gate closes.
	ok, err := m.CanProcessTerms(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBudgetManager_AllocationPercent(t *testing.T) {
	t.Parallel()

	cfg := testSeedConfig()
	cfg.DailyBudget = 10000
	cfg.AllocationPercent = 40

	ledger := &mockLedger{
		getUsageFn: func(context.Context, time.Time) (int, error) { return 3000, nil },
	}
	m := NewBudgetManager(testLogger(), ledger, cfg)

	available, err := m.AvailableTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, available)

	pct, err := m.UsagePercentage(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 75.0, pct, 1e-9)
}

func TestBudgetManager_UsesUTCDayKey(t *testing.T) {
	t.Parallel()

	var queried time.Time
	ledger := &mockLedger{
		getUsageFn: func(_ context.Context, day time.Time) (int, error) {
			queried = day
			return 0, nil
		},
	}
	m := NewBudgetManager(testLogger(), ledger, testSeedConfig())
	// 23:30 UTC-5 on Jan 1 is already Jan 2 in UTC.
	m.now = func() time.Time {
		loc := time.FixedZone("UTC-5", -5*3600)
		return time.Date(2026, 1, 1, 23, 30, 0, 0, loc)
	}

	_, err := m.TokensUsedToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), domain.UsageDay(queried),
		"the ledger day key follows UTC, not the local zone")
}

func TestBudgetManager_UsageStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		getDailyUsageFn: func(context.Context, time.Time, int) ([]domain.DailyUsage, error) {
			return []domain.DailyUsage{
				{Date: domain.UsageDay(now), TokensUsed: 300, TermsGenerated: 3},
				{Date: domain.UsageDay(now.AddDate(0, 0, -1)), TokensUsed: 500, TermsGenerated: 5},
				{Date: domain.UsageDay(now.AddDate(0, 0, -10)), TokensUsed: 1000, TermsGenerated: 2},
			}, nil
		},
	}
	m := NewBudgetManager(testLogger(), ledger, testSeedConfig())
	m.now = func() time.Time { return now }

	stats, err := m.UsageStats(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 800, stats.WeeklyTotal, "rows older than seven days stay out of the weekly total")
	assert.InDelta(t, 180.0, stats.AvgTokensPerTerm, 1e-9)
	assert.Len(t, stats.Daily, 3)
}

func TestBudgetManager_RecordUsageRejectsNothing(t *testing.T) {
	t.Parallel()

	var gotTokens, gotTerms int
	ledger := &mockLedger{
		recordUsageFn: func(_ context.Context, _ time.Time, tokens, terms int) error {
			gotTokens, gotTerms = tokens, terms
			return nil
		},
	}
	m := NewBudgetManager(testLogger(), ledger, testSeedConfig())

	require.NoError(t, m.RecordUsage(context.Background(), 420, 2))
	assert.Equal(t, 420, gotTokens)
	assert.Equal(t, 2, gotTerms)
}
