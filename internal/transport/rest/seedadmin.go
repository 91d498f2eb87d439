package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/domain"
	"github.com/pezware/mirubato-sub004/internal/service/seeding"
	"github.com/pezware/mirubato-sub004/pkg/ctxutil"
)

type processorService interface {
	RunBatch(ctx context.Context, batchSize int, dryRun bool) (*seeding.BatchResult, error)
	QueueStats(ctx context.Context) (domain.SeedQueueStats, error)
	RecentItems(ctx context.Context, limit int) ([]domain.SeedQueueItem, error)
	ClearQueue(ctx context.Context, status *domain.SeedStatus) (int, error)
}

type initializerService interface {
	Initialize(ctx context.Context, priorityThreshold int, languages []string, clearExisting bool) (*seeding.InitializeResult, error)
	EnqueueTerms(ctx context.Context, items []domain.SeedQueueItem) (int, error)
}

type budgetService interface {
	TokensUsedToday(ctx context.Context) (int, error)
	AvailableTokens(ctx context.Context) (int, error)
	UsagePercentage(ctx context.Context) (float64, error)
	UsageStats(ctx context.Context, days int) (domain.UsageStats, error)
}

type recoveryService interface {
	RecoverFailedItems(ctx context.Context, limit int) (*seeding.RecoveryResult, error)
	Stats(ctx context.Context) (*seeding.RecoveryStats, error)
	ListDLQ(ctx context.Context, limit, offset int) ([]domain.DeadLetterItem, error)
	RetryFromDLQ(ctx context.Context, ids []uuid.UUID) (int, error)
}

type reviewService interface {
	List(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error)
	Resolve(ctx context.Context, id uuid.UUID, action domain.ReviewAction, reviewedBy string, notes *string, mods *domain.EntryModifications) error
	CountPending(ctx context.Context) (int, error)
}

type runsRegistry interface {
	Begin(kind string) uuid.UUID
	Finish(id uuid.UUID, result *seeding.BatchResult, err error)
	Get(id uuid.UUID) (seeding.Run, bool)
}

// SeedAdminHandler serves the seed pipeline admin endpoints.
type SeedAdminHandler struct {
	processor   processorService
	initializer initializerService
	budget      budgetService
	recovery    recoveryService
	reviews     reviewService
	runs        runsRegistry
	seedCfg     config.SeedConfig
	log         *slog.Logger
}

// NewSeedAdminHandler creates a SeedAdminHandler.
func NewSeedAdminHandler(
	processor processorService,
	initializer initializerService,
	budget budgetService,
	recovery recoveryService,
	reviews reviewService,
	runs runsRegistry,
	seedCfg config.SeedConfig,
	logger *slog.Logger,
) *SeedAdminHandler {
	return &SeedAdminHandler{
		processor:   processor,
		initializer: initializer,
		budget:      budget,
		recovery:    recovery,
		reviews:     reviews,
		runs:        runs,
		seedCfg:     seedCfg,
		log:         logger.With("handler", "seed_admin"),
	}
}

// Initialize bootstraps the queue from the curated catalogue.
// POST /admin/seed/initialize
func (h *SeedAdminHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	req := struct {
		PriorityThreshold int      `json:"priority_threshold"`
		Languages         []string `json:"languages"`
		ClearExisting     bool     `json:"clear_existing"`
	}{PriorityThreshold: 5, Languages: []string{"en"}}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.initializer.Initialize(r.Context(), req.PriorityThreshold, req.Languages, req.ClearExisting)
	if err != nil {
		h.logError(r, "initialize seed queue", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK,
		fmt.Sprintf("seed queue initialized: %d added, %d skipped", result.Added, result.Skipped), result)
}

// EnqueueTerms adds caller-supplied terms to the queue.
// POST /admin/seed/terms
func (h *SeedAdminHandler) EnqueueTerms(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Terms []domain.SeedQueueItem `json:"terms"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	added, err := h.initializer.EnqueueTerms(r.Context(), req.Terms)
	if err != nil {
		h.logError(r, "enqueue terms", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("%d terms enqueued", added), map[string]int{"added": added})
}

// Process triggers a batch run. With ?async=true it returns a run id
// immediately; the result is polled via GET /admin/seed/runs/{id}.
// A closed budget gate is a normal outcome and stays HTTP 200.
// POST /admin/seed/process
func (h *SeedAdminHandler) Process(w http.ResponseWriter, r *http.Request) {
	req := struct {
		BatchSize int  `json:"batch_size"`
		DryRun    bool `json:"dry_run"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		runID := h.runs.Begin("process")
		go func() {
			ctx := context.WithoutCancel(r.Context())
			result, err := h.processor.RunBatch(ctx, req.BatchSize, req.DryRun)
			h.runs.Finish(runID, result, err)
		}()
		writeSuccess(w, http.StatusAccepted, "batch run started", map[string]string{"run_id": runID.String()})
		return
	}

	result, err := h.processor.RunBatch(r.Context(), req.BatchSize, req.DryRun)
	if err != nil {
		h.logError(r, "batch run", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "batch run finished: "+result.Reason, result)
}

// GetRun returns a background run record.
// GET /admin/seed/runs/{id}
func (h *SeedAdminHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, ok := h.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeSuccess(w, http.StatusOK, "", run)
}

// Status returns queue statistics, recent items, and today's budget usage.
// GET /admin/seed/status
func (h *SeedAdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.processor.QueueStats(r.Context())
	if err != nil {
		h.logError(r, "queue stats", err)
		writeDomainError(w, err)
		return
	}
	recent, err := h.processor.RecentItems(r.Context(), queryInt(r, "recent", 10))
	if err != nil {
		h.logError(r, "recent items", err)
		writeDomainError(w, err)
		return
	}
	used, err := h.budget.TokensUsedToday(r.Context())
	if err != nil {
		h.logError(r, "tokens used", err)
		writeDomainError(w, err)
		return
	}
	available, err := h.budget.AvailableTokens(r.Context())
	if err != nil {
		h.logError(r, "available tokens", err)
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"queue":        stats,
		"recent_items": recent,
		"budget": map[string]int{
			"tokens_used_today": used,
			"tokens_available":  available,
		},
	})
}

// SystemStatus returns the composite pipeline health view: queue and budget
// state, review and failure backlogs, and the configured cron schedules.
// GET /admin/seed/system-status
func (h *SeedAdminHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.processor.QueueStats(r.Context())
	if err != nil {
		h.logError(r, "queue stats", err)
		writeDomainError(w, err)
		return
	}
	pct, err := h.budget.UsagePercentage(r.Context())
	if err != nil {
		h.logError(r, "usage percentage", err)
		writeDomainError(w, err)
		return
	}
	pendingReviews, err := h.reviews.CountPending(r.Context())
	if err != nil {
		h.logError(r, "pending reviews", err)
		writeDomainError(w, err)
		return
	}
	recoveryStats, err := h.recovery.Stats(r.Context())
	if err != nil {
		h.logError(r, "recovery stats", err)
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"queue":                 stats,
		"budget_used_percent":   pct,
		"pending_reviews":       pendingReviews,
		"dlq_items":             recoveryStats.DLQItems,
		"recovery_rate":         recoveryStats.RecoveryRate,
		"common_failures":       recoveryStats.CommonFailures,
		"failed_items_in_queue": recoveryStats.FailedItems,
		"process_schedule":      h.seedCfg.ProcessSchedule,
		"recover_schedule":      h.seedCfg.RecoverSchedule,
	})
}

// Usage returns the trailing token-spend window.
// GET /admin/seed/usage?days=7
func (h *SeedAdminHandler) Usage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.budget.UsageStats(r.Context(), queryInt(r, "days", 7))
	if err != nil {
		h.logError(r, "usage stats", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", stats)
}

// Clear bulk-deletes queue items, optionally filtered by status.
// POST /admin/seed/clear
func (h *SeedAdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Status string `json:"status"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	var status *domain.SeedStatus
	if req.Status != "" {
		s := domain.SeedStatus(req.Status)
		if !s.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid status "+req.Status)
			return
		}
		status = &s
	}

	deleted, err := h.processor.ClearQueue(r.Context(), status)
	if err != nil {
		h.logError(r, "clear queue", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("%d items deleted", deleted), map[string]int{"deleted": deleted})
}

// Recover triggers a recovery sweep over failed items.
// POST /admin/seed/recover
func (h *SeedAdminHandler) Recover(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Limit int `json:"limit"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.recovery.RecoverFailedItems(r.Context(), req.Limit)
	if err != nil {
		h.logError(r, "recovery sweep", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "recovery sweep finished", result)
}

// RecoveryStats returns the failure landscape.
// GET /admin/seed/recovery-stats
func (h *SeedAdminHandler) RecoveryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.recovery.Stats(r.Context())
	if err != nil {
		h.logError(r, "recovery stats", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", stats)
}

// ListDLQ returns quarantined items.
// GET /admin/seed/dlq
func (h *SeedAdminHandler) ListDLQ(w http.ResponseWriter, r *http.Request) {
	items, err := h.recovery.ListDLQ(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.logError(r, "list dlq", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", items)
}

// RetryDLQ re-admits quarantined items into the queue.
// POST /admin/seed/dlq/retry
func (h *SeedAdminHandler) RetryDLQ(w http.ResponseWriter, r *http.Request) {
	req := struct {
		IDs []uuid.UUID `json:"ids"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	requeued, err := h.recovery.RetryFromDLQ(r.Context(), req.IDs)
	if err != nil {
		h.logError(r, "dlq retry", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("%d items requeued", requeued), map[string]int{"requeued": requeued})
}

// ListReviews returns manual review items.
// GET /admin/review?status=pending&limit=50&offset=0
func (h *SeedAdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	var status *domain.ReviewStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.ReviewStatus(v)
		if !s.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid status "+v)
			return
		}
		status = &s
	}

	items, total, err := h.reviews.List(r.Context(), status, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.logError(r, "list reviews", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"items": items, "total": total})
}

// GetReview returns a single review item.
// GET /admin/review/{id}
func (h *SeedAdminHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}
	item, err := h.reviews.GetByID(r.Context(), id)
	if err != nil {
		h.logError(r, "get review", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", item)
}

// ResolveReview applies a reviewer decision.
// POST /admin/review/{id}/resolve
func (h *SeedAdminHandler) ResolveReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	req := struct {
		Action        string                     `json:"action"`
		ReviewedBy    string                     `json:"reviewed_by"`
		Notes         *string                    `json:"notes"`
		Modifications *domain.EntryModifications `json:"modifications"`
	}{}
	if !decodeBody(w, r, &req) {
		return
	}

	reviewedBy := req.ReviewedBy
	if reviewedBy == "" {
		reviewedBy = ctxutil.ReviewerFromCtx(r.Context())
	}

	err = h.reviews.Resolve(r.Context(), id, domain.ReviewAction(req.Action), reviewedBy, req.Notes, req.Modifications)
	if err != nil {
		h.logError(r, "resolve review", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "review resolved: "+req.Action, nil)
}

func (h *SeedAdminHandler) logError(r *http.Request, op string, err error) {
	h.log.ErrorContext(r.Context(), op,
		slog.String("error", err.Error()),
		slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
	)
}
