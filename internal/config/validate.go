package config

import (
	"fmt"

	cron "github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions and descriptors like "@every 6h".
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Seed.validate(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if c.Generator.MaxTokens <= 0 {
		return fmt.Errorf("generator.max_tokens must be > 0 (got %d)", c.Generator.MaxTokens)
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be > 0 (got %v)", c.Generator.Timeout)
	}
	return nil
}

func (s *SeedConfig) validate() error {
	if s.DailyBudget <= 0 {
		return fmt.Errorf("daily_budget must be > 0 (got %d)", s.DailyBudget)
	}
	if s.DailyLimit <= 0 {
		return fmt.Errorf("daily_limit must be > 0 (got %d)", s.DailyLimit)
	}
	if s.AllocationPercent < 1 || s.AllocationPercent > 100 {
		return fmt.Errorf("allocation_percent must be in [1,100] (got %d)", s.AllocationPercent)
	}
	if s.TokensPerTermEstimate <= 0 {
		return fmt.Errorf("tokens_per_term_estimate must be > 0 (got %d)", s.TokensPerTermEstimate)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", s.BatchSize)
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be > 0 (got %d)", s.MaxAttempts)
	}
	if s.AutoPublishThreshold < 0 || s.AutoPublishThreshold > 100 {
		return fmt.Errorf("auto_publish_threshold must be in [0,100] (got %d)", s.AutoPublishThreshold)
	}
	if s.BackoffBase <= 0 || s.BackoffMax < s.BackoffBase {
		return fmt.Errorf("backoff_base must be > 0 and <= backoff_max (got %v, %v)", s.BackoffBase, s.BackoffMax)
	}
	if err := validSchedule(s.ProcessSchedule); err != nil {
		return fmt.Errorf("process_schedule: %w", err)
	}
	if err := validSchedule(s.RecoverSchedule); err != nil {
		return fmt.Errorf("recover_schedule: %w", err)
	}
	return nil
}

// validSchedule checks a cron expression. Empty strings are allowed and
// disable the corresponding trigger.
func validSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("parse %q: %w", expr, err)
	}
	return nil
}
