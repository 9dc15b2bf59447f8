package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/unipost/unipost/pkg/tier"
)

// Service is the subscription lifecycle engine: it issues checkout
// sessions, reconciles webhook events into the store, and derives live
// entitlement snapshots.
type Service interface {
	// CreateCheckout validates a requested tier change and returns a
	// hosted checkout session. No local state is mutated; the system
	// stays correct if the user abandons checkout.
	CreateCheckout(ctx context.Context, userID uuid.UUID, email string, requested tier.Tier) (*CheckoutSession, error)

	// CustomerPortalLink returns the provider's self-service portal,
	// the only supported path for downgrades and cancellations.
	CustomerPortalLink(ctx context.Context, userID uuid.UUID) (string, error)

	// HandleWebhook verifies and applies one provider event. Processing
	// is idempotent: replaying any event converges to the same state.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// Snapshot derives the live entitlement view the client polls to
	// render gating UI. Never cached beyond the subscription row itself.
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)

	// EnforcementEntitlement returns the entitlement resource revocation
	// is measured against. Unlike Snapshot it follows the stored tier:
	// past_due must suppress entitlements without revoking destinations,
	// because unlinking is irreversible and payment failure is usually
	// transient.
	EnforcementEntitlement(ctx context.Context, userID uuid.UUID) (tier.Entitlement, error)

	// CancelAllBilling unwinds every live provider subscription for the
	// user. Used by account deletion, which must not proceed while the
	// provider is still billing.
	CancelAllBilling(ctx context.Context, userID uuid.UUID) error
}

// Enforcer revokes resources that exceed a (possibly reduced) entitlement.
// Implementations must be deterministic and safe to re-run.
type Enforcer interface {
	Enforce(ctx context.Context, userID uuid.UUID, ent tier.Entitlement) error
}

// Notifier sends billing lifecycle notifications. All calls are
// best-effort: failures are logged and never fail event processing.
type Notifier interface {
	NotifyPaymentFailed(ctx context.Context, userID uuid.UUID) error
	NotifyCanceled(ctx context.Context, userID uuid.UUID) error
}

// PostCounter returns how many posts the user published since the given
// time. Used for the rolling 30-day quota in entitlement snapshots.
type PostCounter func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)

// Snapshot is the read-only entitlement view exposed to the client.
type Snapshot struct {
	Tier                   tier.Tier
	Status                 Status
	MaxLinkedDestinations  int64
	RemainingPostsInPeriod int64 // tier.Unlimited when the quota is unlimited
	SchedulingAllowed      bool
	WatermarkRequired      bool
	BrandingRequired       bool
	CurrentPeriodEnd       *time.Time
}

// postQuotaWindow is the trailing window the monthly post quota covers.
const postQuotaWindow = 30 * 24 * time.Hour

type service struct {
	store    Store
	provider BillingProvider
	catalog  *PriceCatalog

	enforcer    Enforcer
	notifier    Notifier
	postCounter PostCounter
	log         *slog.Logger

	enforceTimeout  time.Duration
	blockingEnforce bool
}

// NewService creates the lifecycle engine. Panics if store, provider, or
// catalog is nil to fail fast on misconfiguration.
func NewService(store Store, provider BillingProvider, catalog *PriceCatalog, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if catalog == nil {
		panic("subscription: PriceCatalog is required")
	}

	s := &service{
		store:          store,
		provider:       provider,
		catalog:        catalog,
		log:            slog.New(slog.DiscardHandler),
		enforceTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateCheckout(ctx context.Context, userID uuid.UUID, email string, requested tier.Tier) (*CheckoutSession, error) {
	if !requested.Valid() {
		return nil, ErrUnknownTier
	}
	// There is no purchase of the free tier.
	if requested == tier.Free {
		return nil, ErrInvalidTierChange
	}

	current, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSubscriptionNotFound) {
			return nil, err
		}
		current = Default(userID)
	}

	// Downgrades and lateral changes go through the provider's own
	// portal: the provider, not this system, owns proration and
	// period-end timing.
	if requested.Order() <= current.Tier.Order() && current.Tier != tier.Free {
		return nil, ErrInvalidTierChange
	}

	priceID, err := s.catalog.PriceID(requested)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
		PriceID: priceID,
		UserID:  userID.String(),
		Tier:    requested.String(),
		Email:   email,
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) CustomerPortalLink(ctx context.Context, userID uuid.UUID) (string, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.ProviderCustomerID == "" {
		return "", fmt.Errorf("no customer portal available without purchase history")
	}
	return s.provider.CustomerPortalLink(ctx, sub.ProviderCustomerID, sub.ProviderSubscriptionID)
}

// HandleWebhook applies one verified provider event to the store. Every
// branch is an atomic keyed update, so redelivered or out-of-order events
// converge instead of corrupting the row. A returned error means the
// caller must respond non-200 so the provider redelivers.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	log := s.log.With(
		slog.String("provider_event", event.ProviderEvent),
		slog.String("subscription_id", event.SubscriptionID),
	)

	switch event.Type {
	case EventPurchaseCompleted:
		return s.applyPurchase(ctx, log, event)

	case EventSubscriptionUpdated:
		return s.applyPlanChange(ctx, log, event)

	case EventSubscriptionDeleted:
		return s.applyCancellation(ctx, log, event)

	case EventInvoicePaid:
		return s.applyInvoicePaid(ctx, log, event)

	case EventInvoicePaymentFailed:
		return s.applyPaymentFailed(ctx, log, event)

	default:
		log.DebugContext(ctx, "ignoring webhook event")
		return nil
	}
}

// applyPurchase upserts the subscription row from checkout metadata, the
// only channel that links a completed purchase to a user. Keyed by user
// ID: a second delivery is a no-op overwrite with identical values.
func (s *service) applyPurchase(ctx context.Context, log *slog.Logger, event *Event) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		log.WarnContext(ctx, "purchase event without usable user metadata, dropping",
			slog.String("user_id", event.UserID))
		return nil
	}
	purchased, err := tier.Parse(event.MetadataTier)
	if err != nil {
		log.WarnContext(ctx, "purchase event without usable tier metadata, dropping",
			slog.String("tier", event.MetadataTier))
		return nil
	}

	if _, err := s.store.UpsertPurchase(ctx, Purchase{
		UserID:                 userID,
		ProviderCustomerID:     event.CustomerID,
		ProviderSubscriptionID: event.SubscriptionID,
		Tier:                   purchased,
	}); err != nil {
		return fmt.Errorf("upsert purchase: %w", err)
	}

	log.InfoContext(ctx, "purchase applied",
		slog.String("user_id", userID.String()),
		slog.String("tier", purchased.String()))
	return nil
}

// applyPlanChange recomputes tier from the event's current price, never
// from checkout metadata, since the user may have changed plans inside
// the provider's own portal.
func (s *service) applyPlanChange(ctx context.Context, log *slog.Logger, event *Event) error {
	newTier, ok := s.catalog.TierOf(event.PriceID)
	if !ok {
		log.WarnContext(ctx, "subscription update with unmapped price, dropping",
			slog.String("price_id", event.PriceID))
		return nil
	}

	sub, err := s.store.ApplyPlanChange(ctx, event.SubscriptionID, PlanChange{
		Tier:             newTier,
		Status:           mapProviderStatus(event.Status),
		CurrentPeriodEnd: event.PeriodEnd,
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			log.WarnContext(ctx, "subscription update for unknown subscription, dropping")
			return nil
		}
		return fmt.Errorf("apply plan change: %w", err)
	}

	log.InfoContext(ctx, "plan change applied",
		slog.String("user_id", sub.UserID.String()),
		slog.String("tier", newTier.String()),
		slog.String("status", string(sub.Status)))

	// The tier may have shrunk.
	s.triggerEnforcement(sub.UserID, sub.EffectiveTier())
	return nil
}

// applyCancellation resets the row to free/canceled. Matched by customer
// ID so the reset still lands when the subscription ID was already
// cleared by a racing event.
func (s *service) applyCancellation(ctx context.Context, log *slog.Logger, event *Event) error {
	sub, err := s.store.ResetToFree(ctx, event.CustomerID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			log.WarnContext(ctx, "cancellation for unknown customer, dropping",
				slog.String("customer_id", event.CustomerID))
			return nil
		}
		return fmt.Errorf("reset to free: %w", err)
	}

	log.InfoContext(ctx, "subscription canceled, user moved to free tier",
		slog.String("user_id", sub.UserID.String()))

	s.notify(ctx, log, sub.UserID, Notifier.NotifyCanceled)
	s.triggerEnforcement(sub.UserID, sub.EffectiveTier())
	return nil
}

func (s *service) applyInvoicePaid(ctx context.Context, log *slog.Logger, event *Event) error {
	sub, err := s.store.MarkActive(ctx, event.SubscriptionID, event.PeriodEnd)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			log.WarnContext(ctx, "invoice paid for unknown subscription, dropping")
			return nil
		}
		return fmt.Errorf("mark active: %w", err)
	}

	log.InfoContext(ctx, "invoice paid, subscription active",
		slog.String("user_id", sub.UserID.String()),
		slog.String("tier", sub.Tier.String()))
	return nil
}

// applyPaymentFailed marks the row past_due. The stored tier is left
// untouched: entitlements read as free while past_due, and a recovered
// payment restores the original tier with no extra bookkeeping.
// Destinations are deliberately not revoked here, so a transient payment
// failure never costs the user their OAuth connections.
func (s *service) applyPaymentFailed(ctx context.Context, log *slog.Logger, event *Event) error {
	sub, err := s.store.MarkPastDue(ctx, event.SubscriptionID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			log.WarnContext(ctx, "payment failure for unknown subscription, dropping")
			return nil
		}
		return fmt.Errorf("mark past due: %w", err)
	}

	log.InfoContext(ctx, "payment failed, subscription past due",
		slog.String("user_id", sub.UserID.String()))

	s.notify(ctx, log, sub.UserID, Notifier.NotifyPaymentFailed)
	return nil
}

func (s *service) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSubscriptionNotFound) {
			return nil, err
		}
		sub = Default(userID)
	}

	effective := sub.EffectiveTier()
	ent := tier.Resolve(effective)

	remaining := ent.MonthlyPostQuota
	if ent.MonthlyPostQuota != tier.Unlimited && s.postCounter != nil {
		used, err := s.postCounter(ctx, userID, time.Now().UTC().Add(-postQuotaWindow))
		if err != nil {
			return nil, fmt.Errorf("count posts: %w", err)
		}
		remaining = max(ent.MonthlyPostQuota-used, 0)
	}

	return &Snapshot{
		Tier:                   effective,
		Status:                 sub.Status,
		MaxLinkedDestinations:  ent.MaxLinkedDestinations,
		RemainingPostsInPeriod: remaining,
		SchedulingAllowed:      ent.SchedulingAllowed,
		WatermarkRequired:      ent.WatermarkRequired,
		BrandingRequired:       ent.BrandingRequired,
		CurrentPeriodEnd:       sub.CurrentPeriodEnd,
	}, nil
}

func (s *service) EnforcementEntitlement(ctx context.Context, userID uuid.UUID) (tier.Entitlement, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return tier.Resolve(tier.Free), nil
		}
		return tier.Entitlement{}, err
	}

	// Cancellation resets the stored tier to free, but check the status
	// anyway so a canceled row can never keep paid limits alive.
	if sub.Status == StatusCanceled {
		return tier.Resolve(tier.Free), nil
	}
	return tier.Resolve(sub.Tier), nil
}

// CancelAllBilling lists and cancels every live provider subscription for
// the user's customer record, not just the one on file. Any failure is
// returned so account deletion aborts before the identity is gone.
func (s *service) CancelAllBilling(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil // no purchase history, nothing to cancel
		}
		return err
	}
	if !sub.HasLiveBilling() {
		return nil
	}

	ids, err := s.provider.ListActiveSubscriptions(ctx, sub.ProviderCustomerID)
	if err != nil {
		return fmt.Errorf("list provider subscriptions: %w", err)
	}
	for _, id := range ids {
		if err := s.provider.CancelSubscription(ctx, id); err != nil {
			return fmt.Errorf("cancel provider subscription %s: %w", id, err)
		}
		s.log.InfoContext(ctx, "provider subscription canceled before deletion",
			slog.String("user_id", userID.String()),
			slog.String("subscription_id", id))
	}
	return nil
}

// triggerEnforcement dispatches the entitlement enforcer without blocking
// the webhook response. Failures are logged; enforcement is idempotent
// and re-runs on the next triggering event or sweep.
func (s *service) triggerEnforcement(userID uuid.UUID, effective tier.Tier) {
	if s.enforcer == nil {
		return
	}

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.enforceTimeout)
		defer cancel()

		if err := s.enforcer.Enforce(ctx, userID, tier.Resolve(effective)); err != nil {
			s.log.ErrorContext(ctx, "entitlement enforcement failed",
				slog.String("user_id", userID.String()),
				slog.String("tier", effective.String()),
				slog.Any("error", err))
		}
	}

	if s.blockingEnforce {
		run()
		return
	}
	go run()
}

// notify sends a best-effort lifecycle notification.
func (s *service) notify(ctx context.Context, log *slog.Logger, userID uuid.UUID, fn func(Notifier, context.Context, uuid.UUID) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier, ctx, userID); err != nil {
		log.WarnContext(ctx, "billing notification failed",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}
}

// mapProviderStatus normalizes a provider status string. Unrecognized
// statuses (paused, halted, future additions) map to past_due: the stored
// tier survives but entitlements read as free until the provider reports
// a known-good state.
func mapProviderStatus(raw string) Status {
	switch Status(raw) {
	case StatusActive, StatusTrialing, StatusPastDue, StatusCanceled:
		return Status(raw)
	default:
		return StatusPastDue
	}
}
