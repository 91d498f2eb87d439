package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents the state of a manual review item.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) String() string { return string(s) }

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the review item has been resolved.
// Resolved items cannot be resolved again.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// ReviewAction is a reviewer's decision on a pending item.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

func (a ReviewAction) IsValid() bool {
	return a == ReviewActionApprove || a == ReviewActionReject
}

// ManualReviewItem holds a generated candidate entry whose quality score fell
// below the auto-publish threshold. It is created by the seed processor and
// resolved exactly once by a human reviewer.
type ManualReviewItem struct {
	ID               uuid.UUID
	Term             string
	Lang             string
	GeneratedContent Entry
	QualityScore     int
	Reason           string
	Status           ReviewStatus
	ReviewedBy       *string
	ReviewedAt       *time.Time
	Notes            *string
	CreatedAt        time.Time
}
