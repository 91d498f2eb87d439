package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestClassifyFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    FailureClass
	}{
		{name: "empty message", message: "", want: FailureUnknown},
		{name: "timeout keyword", message: "generate entry: context deadline exceeded", want: FailureTimeout},
		{name: "timed out keyword", message: "request timed out after 30s", want: FailureTimeout},
		{name: "llm failure", message: "llm api call for \"allegro\": 500 internal error", want: FailureGeneration},
		{name: "rate limited", message: "anthropic: rate limit exceeded", want: FailureGeneration},
		{name: "overloaded", message: "overloaded_error: try again later", want: FailureGeneration},
		{name: "database down", message: "create entry: database connection refused", want: FailurePersistence},
		{name: "conn closed", message: "exec: conn closed", want: FailurePersistence},
		{name: "validation", message: "validation: term: must not be empty", want: FailureValidation},
		{name: "budget", message: "token budget exhausted", want: FailureBudget},
		{name: "non-retryable marker", message: "non-retryable failure: invalid term", want: FailureNonRetryable},
		{name: "invalid term", message: "invalid term \"12345\"", want: FailureNonRetryable},
		{name: "unrecognized", message: "something odd happened", want: FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyFailure(tt.message); got != tt.want {
				t.Errorf("ClassifyFailure(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyError_Sentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{name: "wrapped non-retryable", err: fmt.Errorf("item: %w", ErrNonRetryable), want: FailureNonRetryable},
		{name: "wrapped validation", err: fmt.Errorf("item: %w", ErrValidation), want: FailureValidation},
		{name: "wrapped budget", err: fmt.Errorf("run: %w", ErrBudgetExhausted), want: FailureBudget},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: FailureTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestFailureClass_IsRetryable(t *testing.T) {
	t.Parallel()

	retryable := []FailureClass{FailureTimeout, FailureGeneration, FailurePersistence, FailureUnknown}
	for _, c := range retryable {
		if !c.IsRetryable() {
			t.Errorf("%s should be retryable", c)
		}
	}
	terminal := []FailureClass{FailureValidation, FailureBudget, FailureNonRetryable}
	for _, c := range terminal {
		if c.IsRetryable() {
			t.Errorf("%s should not be retryable", c)
		}
	}
}
