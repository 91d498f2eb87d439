// Package ctxutil stores request-scoped identifiers in the context.
package ctxutil

import (
	"context"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	reviewerKey  ctxKey = "reviewer"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithReviewer stores the reviewer identity in the context.
func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, reviewerKey, reviewer)
}

// ReviewerFromCtx extracts the reviewer identity from the context.
// Returns an empty string if absent.
func ReviewerFromCtx(ctx context.Context) string {
	reviewer, _ := ctx.Value(reviewerKey).(string)
	return reviewer
}
