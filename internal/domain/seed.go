package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeedStatus represents the processing state of a seed queue item.
type SeedStatus string

const (
	SeedStatusPending    SeedStatus = "pending"
	SeedStatusProcessing SeedStatus = "processing"
	SeedStatusCompleted  SeedStatus = "completed"
	SeedStatusFailed     SeedStatus = "failed"
)

func (s SeedStatus) String() string { return string(s) }

func (s SeedStatus) IsValid() bool {
	switch s {
	case SeedStatusPending, SeedStatusProcessing, SeedStatusCompleted, SeedStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is terminal for a processing run.
// Terminal items may still re-enter the queue via recovery (failed → pending).
func (s SeedStatus) IsTerminal() bool {
	return s == SeedStatusCompleted || s == SeedStatusFailed
}

// CanTransitionTo enforces the queue state machine:
// pending → processing → {completed, failed} → pending (retry reset).
func (s SeedStatus) CanTransitionTo(next SeedStatus) bool {
	switch s {
	case SeedStatusPending:
		return next == SeedStatusProcessing
	case SeedStatusProcessing:
		return next == SeedStatusCompleted || next == SeedStatusFailed || next == SeedStatusPending
	case SeedStatusCompleted, SeedStatusFailed:
		return next == SeedStatusPending
	}
	return false
}

// Seed queue priority bounds.
const (
	MinSeedPriority = 1
	MaxSeedPriority = 10
)

// SeedQueueItem represents a term queued for AI generation.
// A normalized term is targeted by at most one active (non-terminal) item.
type SeedQueueItem struct {
	ID            uuid.UUID
	Term          string
	Languages     []string
	Priority      int
	Status        SeedStatus
	Attempts      int
	LastAttemptAt *time.Time
	CompletedAt   *time.Time
	ErrorMessage  *string
	CreatedAt     time.Time
}

// Validate checks enqueue input. Violations are ValidationErrors and are
// rejected immediately, never retried.
func (i *SeedQueueItem) Validate() error {
	var errs []FieldError
	if NormalizeTerm(i.Term) == "" {
		errs = append(errs, FieldError{Field: "term", Message: "must not be empty"})
	}
	if len(i.Languages) == 0 {
		errs = append(errs, FieldError{Field: "languages", Message: "at least one language required"})
	}
	for _, lang := range i.Languages {
		if len(lang) != 2 {
			errs = append(errs, FieldError{Field: "languages", Message: "language codes must be ISO 639-1"})
			break
		}
	}
	if i.Priority < MinSeedPriority || i.Priority > MaxSeedPriority {
		errs = append(errs, FieldError{Field: "priority", Message: "must be between 1 and 10"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// SeedQueueStats holds aggregate counts by status.
type SeedQueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}
