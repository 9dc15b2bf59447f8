package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/unipost/unipost/pkg/tier"
)

// Status represents the current state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Subscription is the authoritative per-user billing record. Exactly one row
// exists per user; it is created by the first completed purchase and removed
// only by full account deletion. A user with no row is implicitly on the
// free tier with active status.
type Subscription struct {
	UserID                 uuid.UUID // primary key - one subscription per user
	ProviderCustomerID     string    // opaque payment provider customer handle
	ProviderSubscriptionID string    // cleared once canceled, never reused
	Tier                   tier.Tier
	Status                 Status
	CurrentPeriodEnd       *time.Time // absent for free tier or canceled
	UpdatedAt              time.Time  // observability only, never used for conflict resolution
}

// Default returns the implicit subscription for a user without a stored row.
func Default(userID uuid.UUID) *Subscription {
	return &Subscription{
		UserID: userID,
		Tier:   tier.Free,
		Status: StatusActive,
	}
}

// EffectiveTier returns the tier that entitlement checks should use.
// A past_due or canceled subscription reads as free without touching the
// stored tier, so a recovered payment restores the original tier with no
// extra bookkeeping. Trialing reads as the stored tier.
func (s *Subscription) EffectiveTier() tier.Tier {
	if s == nil {
		return tier.Free
	}
	switch s.Status {
	case StatusActive, StatusTrialing:
		if s.Tier.Valid() {
			return s.Tier
		}
		return tier.Free
	default:
		return tier.Free
	}
}

// HasLiveBilling reports whether the provider is still billing this
// subscription and it therefore must be canceled before account deletion.
func (s *Subscription) HasLiveBilling() bool {
	if s == nil || s.ProviderSubscriptionID == "" {
		return false
	}
	switch s.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	}
	return false
}
