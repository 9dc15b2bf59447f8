package subscription

import (
	"context"
	"time"
)

// BillingProvider is the narrow boundary to the external payment provider.
// The provider owns checkout UI, proration, and the billing ledger; this
// system only requests hosted sessions, verifies webhook authenticity, and
// unwinds billing before account deletion. Implementations wrap the
// official provider SDK and keep provider quirks out of the engine.
type BillingProvider interface {
	// CreateCheckout requests a hosted checkout session. The metadata in
	// req must be echoed back verbatim by the provider on completion;
	// it is the only channel linking a purchase to a user.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CustomerPortalLink returns a pre-authenticated portal URL where
	// users manage, downgrade, or cancel their subscription themselves.
	CustomerPortalLink(ctx context.Context, providerCustomerID, providerSubscriptionID string) (string, error)

	// ParseWebhook verifies the payload signature and normalizes the
	// event. An unverifiable payload returns ErrSignatureInvalid and
	// must never reach the state machine.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)

	// ListActiveSubscriptions returns the IDs of every subscription the
	// provider is still billing for a customer. Deletion unwinds all of
	// them, not just the one on record, since a customer could in
	// principle hold more than one.
	ListActiveSubscriptions(ctx context.Context, providerCustomerID string) ([]string, error)

	// CancelSubscription cancels one provider subscription immediately.
	CancelSubscription(ctx context.Context, providerSubscriptionID string) error
}

// CheckoutRequest contains data needed to create a hosted checkout session.
type CheckoutRequest struct {
	PriceID string
	UserID  string // embedded as metadata, echoed back on completion
	Tier    string // embedded as metadata, echoed back on completion
	Email   string // optional billing email prefill
}

// CheckoutSession represents a hosted checkout session at the provider.
type CheckoutSession struct {
	URL       string // redirect target for the client
	SessionID string
	ExpiresAt time.Time
}

// EventType is the normalized billing event kind. Provider implementations
// map their specific event names onto these five; everything else arrives
// as EventIgnored and is dropped.
type EventType string

const (
	EventPurchaseCompleted    EventType = "purchase_completed"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventInvoicePaid          EventType = "invoice_paid"
	EventInvoicePaymentFailed EventType = "invoice_payment_failed"
	EventIgnored              EventType = "ignored"
)

// Event is a normalized, signature-verified webhook event.
//
// UserID and MetadataTier are only trustworthy on purchase completed,
// where checkout metadata is the sole linkage. Every other event is
// matched by provider handle and derives tier from PriceID, the price on
// the event's current object, so a plan changed inside the provider's own
// portal is never overwritten with stale metadata.
type Event struct {
	Type          EventType
	ProviderEvent string // original provider event name, for logs

	SubscriptionID string
	CustomerID     string

	UserID       string // from checkout metadata
	MetadataTier string // from checkout metadata

	PriceID   string // current price on the subscription object
	Status    string
	PeriodEnd *time.Time
}
