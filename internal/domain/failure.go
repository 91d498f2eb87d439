package domain

import (
	"context"
	"errors"
	"strings"
)

// FailureClass is the taxonomy the recovery service uses to decide between
// retrying a failed item and quarantining it.
type FailureClass string

const (
	FailureValidation   FailureClass = "validation"
	FailureBudget       FailureClass = "budget"
	FailureTimeout      FailureClass = "timeout"
	FailureGeneration   FailureClass = "generation"
	FailurePersistence  FailureClass = "persistence"
	FailureNonRetryable FailureClass = "non_retryable"
	FailureUnknown      FailureClass = "unknown"
)

func (c FailureClass) String() string { return string(c) }

// IsRetryable reports whether failures of this class may be retried
// up to the configured attempt limit.
func (c FailureClass) IsRetryable() bool {
	switch c {
	case FailureTimeout, FailureGeneration, FailurePersistence, FailureUnknown:
		return true
	}
	return false
}

// ClassifyError classifies a live error from a generation or persistence call.
func ClassifyError(err error) FailureClass {
	switch {
	case err == nil:
		return FailureUnknown
	case errors.Is(err, ErrNonRetryable):
		return FailureNonRetryable
	case errors.Is(err, ErrValidation):
		return FailureValidation
	case errors.Is(err, ErrBudgetExhausted):
		return FailureBudget
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	}
	return ClassifyFailure(err.Error())
}

// ClassifyFailure classifies a stored error message. The recovery service
// only has the persisted message to work with, so classification is keyword
// matching over the wrapped error chain text.
func ClassifyFailure(message string) FailureClass {
	msg := strings.ToLower(message)
	switch {
	case msg == "":
		return FailureUnknown
	case strings.Contains(msg, "non-retryable") || strings.Contains(msg, "invalid term"):
		return FailureNonRetryable
	case strings.Contains(msg, "validation"):
		return FailureValidation
	case strings.Contains(msg, "budget exhausted"):
		return FailureBudget
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return FailureTimeout
	case strings.Contains(msg, "llm") || strings.Contains(msg, "generation") ||
		strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "api call"):
		return FailureGeneration
	case strings.Contains(msg, "connection") || strings.Contains(msg, "database") ||
		strings.Contains(msg, "sql") || strings.Contains(msg, "conn closed"):
		return FailurePersistence
	}
	return FailureUnknown
}
