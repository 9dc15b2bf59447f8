package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unipost/unipost/pkg/tier"
)

// Purchase carries the fields written when a completed purchase event
// creates or overwrites a subscription row.
type Purchase struct {
	UserID                 uuid.UUID
	ProviderCustomerID     string
	ProviderSubscriptionID string
	Tier                   tier.Tier
}

// PlanChange carries the fields recomputed from a subscription updated
// event. Tier always comes from the event's current price, never from
// stale checkout metadata.
type PlanChange struct {
	Tier             tier.Tier
	Status           Status
	CurrentPeriodEnd *time.Time
}

// Store defines subscription persistence. Every mutation is a single
// atomic statement against current stored state, keyed by user or by a
// provider handle, so concurrent webhook deliveries for the same user
// cannot interleave read-modify-write cycles even across process
// instances. Replaying any mutation with identical inputs converges to
// the same row.
type Store interface {
	// Get retrieves a subscription by user ID.
	// Returns ErrSubscriptionNotFound if no row exists.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// UpsertPurchase creates or overwrites the row for p.UserID with
	// status active. Keyed by user ID, not event ID: a redelivered
	// purchase event is a no-op overwrite with identical values.
	UpsertPurchase(ctx context.Context, p Purchase) (*Subscription, error)

	// ApplyPlanChange updates the row matching the provider subscription
	// ID. Returns ErrSubscriptionNotFound when no row matches.
	ApplyPlanChange(ctx context.Context, providerSubscriptionID string, change PlanChange) (*Subscription, error)

	// MarkActive sets status active and refreshes the period end for the
	// row matching the provider subscription ID.
	MarkActive(ctx context.Context, providerSubscriptionID string, periodEnd *time.Time) (*Subscription, error)

	// MarkPastDue sets status past_due for the row matching the provider
	// subscription ID. The stored tier is left untouched so a recovered
	// payment restores it without re-specifying.
	MarkPastDue(ctx context.Context, providerSubscriptionID string) (*Subscription, error)

	// ResetToFree resets the row matching the provider customer ID to
	// free/canceled, clearing the subscription ID and period end.
	// Matching by customer ID guarantees the reset still lands when the
	// subscription ID was already cleared by a racing event.
	ResetToFree(ctx context.Context, providerCustomerID string) (*Subscription, error)
}
