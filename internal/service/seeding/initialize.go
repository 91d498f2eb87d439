package seeding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// InitializeResult reports a queue bootstrap.
type InitializeResult struct {
	Cleared int `json:"cleared,omitempty"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Initializer bootstraps the seed queue from the curated term catalogue.
type Initializer struct {
	log   *slog.Logger
	queue queueRepo
	terms []SeedTerm
}

// NewInitializer creates an initializer over the curated catalogue.
func NewInitializer(log *slog.Logger, queue queueRepo) *Initializer {
	return &Initializer{
		log:   log.With("service", "initializer"),
		queue: queue,
		terms: curatedSeedTerms,
	}
}

// Initialize enqueues all curated terms at or above priorityThreshold for
// the given languages. clearExisting empties the queue first. Terms whose
// normalized form already has an active queue item are skipped by the
// enqueue dedupe, not errors.
func (s *Initializer) Initialize(ctx context.Context, priorityThreshold int, languages []string, clearExisting bool) (*InitializeResult, error) {
	if priorityThreshold < domain.MinSeedPriority || priorityThreshold > domain.MaxSeedPriority {
		return nil, domain.NewValidationError("priority_threshold",
			fmt.Sprintf("must be between %d and %d", domain.MinSeedPriority, domain.MaxSeedPriority))
	}
	if len(languages) == 0 {
		return nil, domain.NewValidationError("languages", "at least one language required")
	}

	result := &InitializeResult{}

	if clearExisting {
		cleared, err := s.queue.ClearByStatus(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("clear queue: %w", err)
		}
		result.Cleared = cleared
	}

	items := make([]domain.SeedQueueItem, 0, len(s.terms))
	for _, term := range s.terms {
		if term.Priority < priorityThreshold {
			continue
		}
		item := domain.SeedQueueItem{
			Term:      term.Term,
			Languages: languages,
			Priority:  term.Priority,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	added, err := s.queue.Enqueue(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("enqueue seed terms: %w", err)
	}
	result.Added = added
	result.Skipped = len(items) - added

	s.log.InfoContext(ctx, "seed queue initialized",
		slog.Int("threshold", priorityThreshold),
		slog.Int("added", result.Added),
		slog.Int("skipped", result.Skipped),
		slog.Int("cleared", result.Cleared),
	)
	return result, nil
}

// EnqueueTerms validates and enqueues caller-supplied terms. Returns the
// number actually added after dedupe.
func (s *Initializer) EnqueueTerms(ctx context.Context, items []domain.SeedQueueItem) (int, error) {
	if len(items) == 0 {
		return 0, domain.NewValidationError("terms", "at least one term required")
	}
	for i := range items {
		if items[i].Priority == 0 {
			items[i].Priority = 5
		}
		if err := items[i].Validate(); err != nil {
			return 0, err
		}
	}
	return s.queue.Enqueue(ctx, items)
}
