package domain

import (
	"context"
	"time"
)

// VendorStatus is the onboarding state of a vendor
type VendorStatus string

const (
	StatusInvited    VendorStatus = "invited"
	StatusInProgress VendorStatus = "in_progress"
	StatusComplete   VendorStatus = "complete"
	StatusApproved   VendorStatus = "approved"
)

var statusRank = map[VendorStatus]int{
	StatusInvited:    1,
	StatusInProgress: 2,
	StatusComplete:   3,
	StatusApproved:   4,
}

var statusLabels = map[VendorStatus]string{
	StatusInvited:    "Invited",
	StatusInProgress: "In Progress",
	StatusComplete:   "Complete",
	StatusApproved:   "Approved",
}

// Valid reports whether s is one of the four known statuses
func (s VendorStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Label returns the display name shown on status badges
func (s VendorStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Before reports whether s precedes other in invited < in_progress < complete < approved.
func (s VendorStatus) Before(other VendorStatus) bool {
	return statusRank[s] < statusRank[other]
}

// CanTransition reports whether the state machine allows from -> to.
// Every allowed edge moves strictly forward.
func CanTransition(from, to VendorStatus) bool {
	switch to {
	case StatusInProgress:
		return from == StatusInvited
	case StatusComplete:
		return from == StatusInvited || from == StatusInProgress
	case StatusApproved:
		return from == StatusComplete
	default:
		return false
	}
}

// Vendor is the subject being onboarded
type Vendor struct {
	ID          string
	BusinessID  string
	CompanyName string
	Email       string
	Status      VendorStatus
	InviteToken string // sole credential for the vendor-facing flow, immutable once set
	InvitedAt   time.Time
	CompletedAt *time.Time
	ApprovedAt  *time.Time
	NotifiedAt  *time.Time // set once the invite notification was accepted by the notifier
}

// VendorRepository defines data access for vendors
type VendorRepository interface {
	Create(ctx context.Context, vendor *Vendor) error
	GetByID(ctx context.Context, id string) (*Vendor, error)
	GetByInviteToken(ctx context.Context, token string) (*Vendor, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*Vendor, error)
	// Transition moves the vendor to `to` only if its current status is one of `from`.
	// It fails with a precondition error when no row matched.
	Transition(ctx context.Context, id string, from []VendorStatus, to VendorStatus, at time.Time) (*Vendor, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	// ListUnnotified returns invited vendors whose invite was never delivered,
	// invited before the cutoff, oldest first.
	ListUnnotified(ctx context.Context, invitedBefore time.Time, limit int) ([]*Vendor, error)
}
