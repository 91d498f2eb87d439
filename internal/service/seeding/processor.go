package seeding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Batch termination reasons reported in BatchResult.Reason.
const (
	ReasonCompleted       = "completed"
	ReasonQueueEmpty      = "queue_empty"
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonDailyLimit      = "daily_limit_reached"
	ReasonCanceled        = "canceled"
)

// BatchResult aggregates the outcome of one batch run.
type BatchResult struct {
	Processed     int      `json:"processed"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	Skipped       int      `json:"skipped"`
	Published     int      `json:"published"`
	SentToReview  int      `json:"sent_to_review"`
	QualityScores []int    `json:"quality_scores,omitempty"`
	TokenUsage    int      `json:"token_usage"`
	Errors        []string `json:"errors,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	DryRun        bool     `json:"dry_run,omitempty"`
	Preview       []string `json:"preview,omitempty"`
}

// Processor runs the batched generation flow: claim pending items, generate
// an entry per missing language, publish or park for review by quality
// score, and isolate per-item failures so one bad term never aborts a run.
type Processor struct {
	log     *slog.Logger
	queue   queueRepo
	entries entryStore
	cache   EntryCache
	gen     generator
	budget  *BudgetManager
	reviews *ReviewService
	metrics *Metrics
	cfg     config.SeedConfig
}

// NewProcessor creates the batch processor. cache may be nil.
func NewProcessor(
	log *slog.Logger,
	queue queueRepo,
	entries entryStore,
	cache EntryCache,
	gen generator,
	budget *BudgetManager,
	reviews *ReviewService,
	metrics *Metrics,
	cfg config.SeedConfig,
) *Processor {
	return &Processor{
		log:     log.With("service", "processor"),
		queue:   queue,
		entries: entries,
		cache:   cache,
		gen:     gen,
		budget:  budget,
		reviews: reviews,
		metrics: metrics,
		cfg:     cfg,
	}
}

// RunBatch executes one batch run. The budget gate is checked before
// claiming and re-checked between items; once it closes, unattempted items
// go back to pending without an attempt charge and the run reports
// budget_exhausted with HTTP-success semantics (a closed gate is a normal
// outcome, not an error). A dry run previews the claim order without
// claiming or spending. On return no claimed item remains in processing.
func (p *Processor) RunBatch(ctx context.Context, batchSize int, dryRun bool) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.BatchSize
	}

	result := &BatchResult{}

	generatedToday, err := p.budget.TermsGeneratedToday(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily limit check: %w", err)
	}
	if generatedToday >= p.cfg.DailyLimit {
		result.Reason = ReasonDailyLimit
		p.metrics.BatchRuns.WithLabelValues(result.Reason).Inc()
		p.log.InfoContext(ctx, "batch skipped, daily item limit reached",
			slog.Int("generated_today", generatedToday), slog.Int("daily_limit", p.cfg.DailyLimit))
		return result, nil
	}

	ok, err := p.budget.CanProcessTerms(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("budget gate: %w", err)
	}
	if !ok {
		result.Reason = ReasonBudgetExhausted
		p.metrics.BatchRuns.WithLabelValues(result.Reason).Inc()
		p.log.InfoContext(ctx, "batch skipped, token budget exhausted")
		return result, nil
	}

	if dryRun {
		return p.previewBatch(ctx, batchSize)
	}

	items, err := p.queue.ClaimBatch(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	if len(items) == 0 {
		result.Reason = ReasonQueueEmpty
		p.metrics.BatchRuns.WithLabelValues(result.Reason).Inc()
		return result, nil
	}

	p.log.InfoContext(ctx, "batch claimed", slog.Int("count", len(items)))

	// Anything still claimed when we return goes back to pending, even if
	// the run was cut short by cancellation or a panic. A non-empty value
	// records a failed transition that did not apply in the main loop.
	unresolved := make(map[uuid.UUID]string, len(items))
	for _, item := range items {
		unresolved[item.ID] = ""
	}
	defer p.releaseLeftovers(context.WithoutCancel(ctx), unresolved)

	for i := range items {
		if ctx.Err() != nil {
			result.Reason = ReasonCanceled
			break
		}
		if i > 0 {
			ok, err := p.budget.CanProcessTerms(ctx, 1)
			if err != nil {
				p.metrics.BatchRuns.WithLabelValues("error").Inc()
				return result, fmt.Errorf("budget re-check: %w", err)
			}
			if !ok {
				result.Reason = ReasonBudgetExhausted
				p.log.InfoContext(ctx, "budget exhausted mid-batch, releasing remaining items",
					slog.Int("remaining", len(items)-i))
				break
			}
		}

		resolved, failMsg := p.processItem(ctx, &items[i], result)
		if resolved {
			delete(unresolved, items[i].ID)
		} else if failMsg != "" {
			unresolved[items[i].ID] = failMsg
		}
	}

	if result.Reason == "" {
		result.Reason = ReasonCompleted
	}
	p.metrics.BatchRuns.WithLabelValues(result.Reason).Inc()

	if stats, err := p.queue.GetStats(ctx); err == nil {
		p.metrics.ObserveQueueStats(stats)
	}
	if pending, err := p.reviews.CountPending(ctx); err == nil {
		p.metrics.ReviewBacklog.Set(float64(pending))
	}

	p.log.InfoContext(ctx, "batch finished",
		slog.String("reason", result.Reason),
		slog.Int("processed", result.Processed),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("token_usage", result.TokenUsage),
	)
	return result, nil
}

func (p *Processor) previewBatch(ctx context.Context, batchSize int) (*BatchResult, error) {
	items, err := p.queue.PreviewBatch(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("preview batch: %w", err)
	}

	result := &BatchResult{DryRun: true, Processed: len(items)}
	if len(items) == 0 {
		result.Reason = ReasonQueueEmpty
		return result, nil
	}
	for _, item := range items {
		result.Preview = append(result.Preview, item.Term)
	}
	return result, nil
}

// processItem handles one claimed item and reports whether its queue status
// was resolved. An unresolved item stays in the leftover set for the
// deferred sweep; the second return value carries the failure message when
// the failed transition itself did not apply, so the sweep can retry it
// instead of releasing the item and losing the attempt charge.
func (p *Processor) processItem(ctx context.Context, item *domain.SeedQueueItem, result *BatchResult) (bool, string) {
	result.Processed++

	generated := 0
	tokensSpent := 0
	var itemErr error

	for _, lang := range item.Languages {
		exists, err := p.entryExists(ctx, item.Term, lang)
		if err != nil {
			itemErr = err
			break
		}
		if exists {
			continue
		}
		pending, err := p.reviews.HasPending(ctx, item.Term, lang)
		if err != nil {
			itemErr = err
			break
		}
		if pending {
			// A candidate for this pair already awaits a reviewer;
			// regenerating it would spend tokens on a duplicate.
			continue
		}

		candidate, err := p.gen.GenerateEntry(ctx, item.Term, domain.TermTypeGeneral, lang, "")
		if err != nil {
			itemErr = err
			break
		}

		generated++
		tokensSpent += candidate.TokensUsed
		result.QualityScores = append(result.QualityScores, candidate.Entry.QualityScore)

		if candidate.Entry.QualityScore >= p.cfg.AutoPublishThreshold {
			if err := p.publishCandidate(ctx, candidate); err != nil {
				itemErr = err
				break
			}
			result.Published++
		} else {
			reason := fmt.Sprintf("quality score %d below auto-publish threshold %d",
				candidate.Entry.QualityScore, p.cfg.AutoPublishThreshold)
			if err := p.reviews.EnqueueForReview(ctx, candidate, reason); err != nil {
				itemErr = err
				break
			}
			result.SentToReview++
		}
	}

	// The spend happened whether or not the item ultimately succeeded.
	result.TokenUsage += tokensSpent
	if tokensSpent > 0 || generated > 0 {
		if err := p.budget.RecordUsage(ctx, tokensSpent, generated); err != nil {
			p.log.WarnContext(ctx, "recording token usage failed",
				slog.String("term", item.Term), slog.String("error", err.Error()))
		}
		p.metrics.TokensSpent.Add(float64(tokensSpent))
	}

	if itemErr != nil {
		class := domain.ClassifyError(itemErr)
		p.log.WarnContext(ctx, "seed item failed",
			slog.String("term", item.Term),
			slog.String("class", class.String()),
			slog.String("error", itemErr.Error()),
		)
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Term, itemErr))
		p.metrics.ItemsProcessed.WithLabelValues("failed").Inc()

		if err := p.queue.MarkFailed(ctx, item.ID, itemErr.Error()); err != nil {
			p.log.ErrorContext(ctx, "marking item failed did not apply",
				slog.String("id", item.ID.String()), slog.String("error", err.Error()))
			return false, itemErr.Error()
		}
		return true, ""
	}

	if generated == 0 {
		// Every requested language is already published or awaits review.
		result.Skipped++
		p.metrics.ItemsProcessed.WithLabelValues("skipped").Inc()
	} else {
		result.Succeeded++
		p.metrics.ItemsProcessed.WithLabelValues("succeeded").Inc()
	}

	if err := p.queue.MarkCompleted(ctx, item.ID); err != nil {
		p.log.ErrorContext(ctx, "marking item completed did not apply",
			slog.String("id", item.ID.String()), slog.String("error", err.Error()))
		return false, ""
	}
	return true, ""
}

// entryExists is the idempotence guard: cache first, store on miss. Cache
// errors degrade to a store lookup.
func (p *Processor) entryExists(ctx context.Context, term, lang string) (bool, error) {
	if p.cache != nil {
		hit, err := p.cache.Exists(ctx, term, lang)
		if err != nil {
			p.log.WarnContext(ctx, "entry cache lookup failed", slog.String("error", err.Error()))
		} else if hit {
			return true, nil
		}
	}

	exists, err := p.entries.ExistsByTerm(ctx, term, lang)
	if err != nil {
		return false, fmt.Errorf("entry lookup %q/%s: %w", term, lang, err)
	}
	if exists {
		p.markCached(ctx, term, lang)
	}
	return exists, nil
}

func (p *Processor) publishCandidate(ctx context.Context, candidate *domain.CandidateEntry) error {
	entry := candidate.Entry
	err := p.entries.Create(ctx, &entry)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Published concurrently; the goal state is reached.
		p.markCached(ctx, entry.Term, entry.Lang)
		return nil
	}
	if err != nil {
		return err
	}
	p.markCached(ctx, entry.Term, entry.Lang)
	return nil
}

func (p *Processor) markCached(ctx context.Context, term, lang string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.MarkExists(ctx, term, lang); err != nil {
		p.log.WarnContext(ctx, "entry cache mark failed", slog.String("error", err.Error()))
	}
}

// releaseLeftovers returns unresolved claims to pending. An entry carrying a
// failure message retries the failed transition first, so the attempt charge
// and message survive a transient write error in the main loop.
func (p *Processor) releaseLeftovers(ctx context.Context, unresolved map[uuid.UUID]string) {
	for id, failMsg := range unresolved {
		if failMsg != "" {
			err := p.queue.MarkFailed(ctx, id, failMsg)
			if err == nil || errors.Is(err, domain.ErrNotFound) {
				continue
			}
			p.log.ErrorContext(ctx, "marking leftover item failed did not apply",
				slog.String("id", id.String()), slog.String("error", err.Error()))
		}
		if err := p.queue.Release(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			p.log.ErrorContext(ctx, "releasing leftover claim failed",
				slog.String("id", id.String()), slog.String("error", err.Error()))
		}
	}
}

// QueueStats returns aggregate queue counts.
func (p *Processor) QueueStats(ctx context.Context) (domain.SeedQueueStats, error) {
	return p.queue.GetStats(ctx)
}

// RecentItems returns the most recently created queue items.
func (p *Processor) RecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error) {
	if limit <= 0 {
		limit = 20
	}
	return p.queue.GetRecentItems(ctx, limit)
}

// ListItems returns queue items, optionally filtered by status.
func (p *Processor) ListItems(ctx context.Context, status *domain.SeedStatus, limit, offset int) ([]domain.SeedQueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return p.queue.List(ctx, status, limit, offset)
}

// ClearQueue bulk-deletes queue items; nil status clears everything.
func (p *Processor) ClearQueue(ctx context.Context, status *domain.SeedStatus) (int, error) {
	n, err := p.queue.ClearByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	p.log.InfoContext(ctx, "queue cleared", slog.Int("deleted", n))
	return n, nil
}
