package seeding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// ErrorTypeExhausted marks items quarantined because a transient failure
// kept recurring until the attempt limit.
const ErrorTypeExhausted = "transient_exceeded_max_attempts"

// RecoveryResult aggregates one recovery sweep.
type RecoveryResult struct {
	Recovered         int `json:"recovered"`
	FailedPermanently int `json:"failed_permanently"`
	MovedToDLQ        int `json:"moved_to_dlq"`
	RetryScheduled    int `json:"retry_scheduled"`
}

// RecoveryStats describes the failure landscape for operators. RecoveryRate
// is recovered / (recovered + permanently failed) over the sweeps this
// process has run: the share of sweep outcomes that were re-admissions
// rather than quarantines.
type RecoveryStats struct {
	FailedItems    int                      `json:"failed_items"`
	DLQItems       int                      `json:"dlq_items"`
	RecoveryRate   float64                  `json:"recovery_rate"`
	CommonFailures []domain.FailureAnalysis `json:"common_failures"`
}

// Recovery classifies failed queue items and either re-admits them (once
// their backoff window has elapsed) or quarantines them to the dead letter
// queue. Quarantine is terminal: nothing leaves the DLQ without an operator.
type Recovery struct {
	log     *slog.Logger
	queue   queueRepo
	dlq     dlqRepo
	tx      txRunner
	metrics *Metrics
	backoff Backoff
	cfg     config.SeedConfig
	now     func() time.Time

	// Cumulative sweep outcomes, kept for the recovery rate.
	recovered   atomic.Int64
	quarantined atomic.Int64
}

// NewRecovery creates the recovery service.
func NewRecovery(log *slog.Logger, queue queueRepo, dlq dlqRepo, tx txRunner, metrics *Metrics, cfg config.SeedConfig) *Recovery {
	return &Recovery{
		log:     log.With("service", "recovery"),
		queue:   queue,
		dlq:     dlq,
		tx:      tx,
		metrics: metrics,
		backoff: Backoff{Base: cfg.BackoffBase, Max: cfg.BackoffMax},
		cfg:     cfg,
		now:     time.Now,
	}
}

// RecoverFailedItems sweeps up to limit failed items, oldest attempt first.
// Non-retryable failures and items at the attempt limit move to the DLQ;
// retryable ones go back to pending once their backoff has elapsed, or stay
// failed until the next sweep.
func (r *Recovery) RecoverFailedItems(ctx context.Context, limit int) (*RecoveryResult, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := r.queue.ListFailed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed items: %w", err)
	}

	result := &RecoveryResult{}
	for i := range items {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := r.recoverItem(ctx, &items[i], result); err != nil {
			r.log.ErrorContext(ctx, "recovering item failed",
				slog.String("id", items[i].ID.String()),
				slog.String("term", items[i].Term),
				slog.String("error", err.Error()),
			)
		}
	}

	r.log.InfoContext(ctx, "recovery sweep finished",
		slog.Int("swept", len(items)),
		slog.Int("recovered", result.Recovered),
		slog.Int("moved_to_dlq", result.MovedToDLQ),
		slog.Int("retry_scheduled", result.RetryScheduled),
	)
	return result, nil
}

func (r *Recovery) recoverItem(ctx context.Context, item *domain.SeedQueueItem, result *RecoveryResult) error {
	message := ""
	if item.ErrorMessage != nil {
		message = *item.ErrorMessage
	}
	class := domain.ClassifyFailure(message)

	if !class.IsRetryable() || item.Attempts >= r.cfg.MaxAttempts {
		if err := r.quarantine(ctx, item, message, class); err != nil {
			return err
		}
		result.FailedPermanently++
		result.MovedToDLQ++
		r.quarantined.Add(1)
		return nil
	}

	if !r.backoff.Ready(item.Attempts, item.LastAttemptAt, r.now()) {
		result.RetryScheduled++
		return nil
	}

	err := r.queue.ResetToPending(ctx, item.ID)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		// A fresh active item for the same term was enqueued meanwhile;
		// this stale failed row is redundant.
		if delErr := r.queue.Delete(ctx, item.ID); delErr != nil && !errors.Is(delErr, domain.ErrNotFound) {
			return delErr
		}
		result.Recovered++
		r.recovered.Add(1)
		return nil
	case err != nil:
		return err
	}

	result.Recovered++
	r.recovered.Add(1)
	r.log.InfoContext(ctx, "failed item re-admitted",
		slog.String("term", item.Term),
		slog.Int("attempts", item.Attempts),
		slog.String("class", class.String()),
	)
	return nil
}

// quarantine moves an item to the DLQ and removes it from the queue in one
// transaction.
func (r *Recovery) quarantine(ctx context.Context, item *domain.SeedQueueItem, message string, class domain.FailureClass) error {
	errorType := class.String()
	if class.IsRetryable() {
		errorType = ErrorTypeExhausted
	}

	dlqItem := &domain.DeadLetterItem{
		Term:          item.Term,
		Languages:     item.Languages,
		Priority:      item.Priority,
		FailureReason: message,
		FailureAnalysis: domain.FailureAnalysis{
			ErrorType: errorType,
			Count:     item.Attempts,
		},
		Attempts: item.Attempts,
	}

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.dlq.Create(ctx, dlqItem); err != nil {
			return err
		}
		return r.queue.Delete(ctx, item.ID)
	})
	if err != nil {
		return fmt.Errorf("quarantine %q: %w", item.Term, err)
	}

	r.metrics.DLQMoves.Inc()
	r.log.WarnContext(ctx, "item quarantined",
		slog.String("term", item.Term),
		slog.String("error_type", errorType),
		slog.Int("attempts", item.Attempts),
	)
	return nil
}

// Stats returns the failure landscape: current failed backlog, DLQ size, the
// share of sweep outcomes that re-admitted rather than quarantined, and the
// most frequent quarantine error types.
func (r *Recovery) Stats(ctx context.Context) (*RecoveryStats, error) {
	queueStats, err := r.queue.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	dlqCount, err := r.dlq.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("dlq count: %w", err)
	}
	failures, err := r.dlq.CommonFailures(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("common failures: %w", err)
	}

	stats := &RecoveryStats{
		FailedItems:    queueStats.Failed,
		DLQItems:       dlqCount,
		CommonFailures: failures,
	}
	recovered := r.recovered.Load()
	if total := recovered + r.quarantined.Load(); total > 0 {
		stats.RecoveryRate = float64(recovered) / float64(total)
	}
	return stats, nil
}

// ListDLQ returns quarantined items, most recent first.
func (r *Recovery) ListDLQ(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.dlq.List(ctx, limit, offset)
}

// RetryFromDLQ re-admits quarantined items as fresh queue items with a clean
// attempt count. Each item's DLQ removal and re-enqueue commit together; ids
// not present in the DLQ are skipped. Returns the number re-admitted.
func (r *Recovery) RetryFromDLQ(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, domain.NewValidationError("ids", "at least one id required")
	}

	items, err := r.dlq.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load dlq items: %w", err)
	}

	requeued := 0
	for i := range items {
		item := items[i]
		err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := r.dlq.Delete(ctx, item.ID); err != nil {
				return err
			}
			// Dedupe in Enqueue keeps this a no-op if the term already has
			// an active item.
			_, err := r.queue.Enqueue(ctx, []domain.SeedQueueItem{{
				Term:      item.Term,
				Languages: item.Languages,
				Priority:  item.Priority,
			}})
			return err
		})
		if err != nil {
			r.log.ErrorContext(ctx, "dlq retry failed",
				slog.String("id", item.ID.String()),
				slog.String("term", item.Term),
				slog.String("error", err.Error()),
			)
			continue
		}
		requeued++
	}

	r.log.InfoContext(ctx, "dlq retry finished",
		slog.Int("requested", len(ids)), slog.Int("requeued", requeued))
	return requeued, nil
}
