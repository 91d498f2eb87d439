package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailureAnalysis summarizes why an item was quarantined.
type FailureAnalysis struct {
	ErrorType string `json:"error_type"`
	Count     int    `json:"count"`
}

// DeadLetterItem is a quarantined seed queue item that exhausted its retry
// budget or hit a non-retryable failure. Created only by the recovery
// service; removed only by the operator-triggered DLQ retry, which re-admits
// the term as a fresh queue item.
type DeadLetterItem struct {
	ID              uuid.UUID
	Term            string
	Languages       []string
	Priority        int
	FailureReason   string
	FailureAnalysis FailureAnalysis
	Attempts        int
	MovedToDLQAt    time.Time
}
