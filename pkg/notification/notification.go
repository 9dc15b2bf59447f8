package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Mailer sends one transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a provider-agnostic transactional email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string // provider-side analytics tag
}

// EmailResolver looks up the billing email for a user at the identity
// authority.
type EmailResolver interface {
	EmailByUserID(ctx context.Context, userID uuid.UUID) (string, error)
}

// BillingNotifier sends billing lifecycle emails. All sends are
// best-effort from the caller's point of view; the subscription engine
// logs failures and never blocks event processing on them.
type BillingNotifier struct {
	mailer Mailer
	emails EmailResolver
	log    *slog.Logger
}

// NewBillingNotifier creates a notifier. Panics on nil dependencies.
func NewBillingNotifier(mailer Mailer, emails EmailResolver, log *slog.Logger) *BillingNotifier {
	if mailer == nil {
		panic("notification: Mailer is required")
	}
	if emails == nil {
		panic("notification: EmailResolver is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &BillingNotifier{mailer: mailer, emails: emails, log: log}
}

// NotifyPaymentFailed sends the dunning email after an invoice payment
// failure. Premium features read as free-level until payment recovers,
// so the email points the user at the provider portal.
func (n *BillingNotifier) NotifyPaymentFailed(ctx context.Context, userID uuid.UUID) error {
	email, err := n.emails.EmailByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve email: %w", err)
	}
	return n.mailer.Send(ctx, Message{
		To:      email,
		Subject: "Your payment didn't go through",
		BodyHTML: "<p>We couldn't process your latest subscription payment. " +
			"Premium features are paused until it succeeds.</p>" +
			"<p>Please update your payment method in the billing portal.</p>",
		Tag: "billing-payment-failed",
	})
}

// NotifyCanceled confirms that the subscription ended and the account
// moved to the free tier.
func (n *BillingNotifier) NotifyCanceled(ctx context.Context, userID uuid.UUID) error {
	email, err := n.emails.EmailByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve email: %w", err)
	}
	return n.mailer.Send(ctx, Message{
		To:      email,
		Subject: "Your subscription has ended",
		BodyHTML: "<p>Your subscription was canceled and your account is now on the free plan. " +
			"Connections over the free limit have been unlinked.</p>",
		Tag: "billing-canceled",
	})
}
