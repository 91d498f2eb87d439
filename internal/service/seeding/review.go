package seeding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// ReviewService manages the manual review queue for low-confidence
// candidates. Approval publishes the (possibly edited) candidate; rejection
// discards it. Each item is resolved exactly once.
type ReviewService struct {
	log     *slog.Logger
	reviews reviewRepo
	entries entryStore
	cache   EntryCache
	tx      txRunner
}

// NewReviewService creates a review service. cache may be nil.
func NewReviewService(log *slog.Logger, reviews reviewRepo, entries entryStore, cache EntryCache, tx txRunner) *ReviewService {
	return &ReviewService{
		log:     log.With("service", "review"),
		reviews: reviews,
		entries: entries,
		cache:   cache,
		tx:      tx,
	}
}

// EnqueueForReview parks a generated candidate for human review. A (term,
// lang) pair with a review already pending keeps the waiting item; the new
// candidate is dropped.
func (s *ReviewService) EnqueueForReview(ctx context.Context, candidate *domain.CandidateEntry, reason string) error {
	item := &domain.ManualReviewItem{
		Term:             candidate.Entry.Term,
		Lang:             candidate.Entry.Lang,
		GeneratedContent: candidate.Entry,
		QualityScore:     candidate.Entry.QualityScore,
		Reason:           reason,
	}
	if err := s.reviews.Create(ctx, item); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.log.InfoContext(ctx, "review already pending, candidate dropped",
				slog.String("term", item.Term), slog.String("lang", item.Lang))
			return nil
		}
		return fmt.Errorf("enqueue for review: %w", err)
	}

	s.log.InfoContext(ctx, "candidate sent to manual review",
		slog.String("term", item.Term),
		slog.String("lang", item.Lang),
		slog.Int("quality_score", item.QualityScore),
	)
	return nil
}

// List returns review items filtered by status with pagination, plus the
// total count for the filter.
func (s *ReviewService) List(ctx context.Context, status *domain.ReviewStatus, limit, offset int) ([]domain.ManualReviewItem, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.reviews.List(ctx, status, limit, offset)
}

// GetByID returns a single review item.
func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ManualReviewItem, error) {
	return s.reviews.GetByID(ctx, id)
}

// HasPending reports whether a (term, lang) pair already awaits review.
func (s *ReviewService) HasPending(ctx context.Context, term, lang string) (bool, error) {
	return s.reviews.HasPending(ctx, term, lang)
}

// CountPending returns the review backlog size.
func (s *ReviewService) CountPending(ctx context.Context) (int, error) {
	return s.reviews.CountPending(ctx)
}

// Resolve applies a reviewer decision. Approval merges the optional
// modifications into the generated content and publishes it, creating the
// entry or updating an existing one for the same (term, lang). The review
// resolution and the publish commit together. Resolving an already-resolved
// item returns domain.ErrConflict.
func (s *ReviewService) Resolve(ctx context.Context, id uuid.UUID, action domain.ReviewAction, reviewedBy string, notes *string, mods *domain.EntryModifications) error {
	if !action.IsValid() {
		return domain.NewValidationError("action", "must be approve or reject")
	}
	if reviewedBy == "" {
		return domain.NewValidationError("reviewed_by", "must not be empty")
	}

	item, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if action == domain.ReviewActionReject {
		if err := s.reviews.Resolve(ctx, id, domain.ReviewStatusRejected, reviewedBy, notes); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "review item rejected",
			slog.String("id", id.String()), slog.String("term", item.Term))
		return nil
	}

	entry := item.GeneratedContent
	if mods != nil {
		entry.ApplyModifications(*mods)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Resolve(ctx, id, domain.ReviewStatusApproved, reviewedBy, notes); err != nil {
			return err
		}
		return s.publish(ctx, &entry)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if cacheErr := s.cache.MarkExists(ctx, entry.Term, entry.Lang); cacheErr != nil {
			s.log.WarnContext(ctx, "cache mark after approval failed", slog.String("error", cacheErr.Error()))
		}
	}

	s.log.InfoContext(ctx, "review item approved and published",
		slog.String("id", id.String()),
		slog.String("term", entry.Term),
		slog.String("lang", entry.Lang),
	)
	return nil
}

// publish creates the entry, or updates the published one if the (term,
// lang) pair got published while the item sat in review.
func (s *ReviewService) publish(ctx context.Context, entry *domain.Entry) error {
	existing, err := s.entries.FindByTerm(ctx, entry.Term, entry.Lang)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		entry.ID = uuid.Nil
		return s.entries.Create(ctx, entry)
	case err != nil:
		return err
	}

	entry.ID = existing.ID
	return s.entries.Update(ctx, entry)
}
