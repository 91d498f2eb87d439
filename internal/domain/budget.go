package domain

import "time"

// TokenUsageRecord is the per-UTC-day spend ledger row.
// tokens_used only ever grows within a day; a new day starts a new record.
type TokenUsageRecord struct {
	Date       time.Time
	TokensUsed int
}

// DailyUsage is one day of the trailing usage window.
type DailyUsage struct {
	Date           time.Time `json:"date"`
	TokensUsed     int       `json:"tokens_used"`
	TermsGenerated int       `json:"terms_generated"`
}

// UsageStats aggregates the trailing token-spend window.
type UsageStats struct {
	Daily            []DailyUsage `json:"daily"`
	WeeklyTotal      int          `json:"weekly_total"`
	AvgTokensPerTerm float64      `json:"avg_tokens_per_term"`
}

// UsageDay returns the UTC day key for a ledger row.
func UsageDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
