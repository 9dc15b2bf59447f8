package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// Metadata keys embedded in checkout custom data and echoed back verbatim
// on completed transactions. The webhook processor has no other way to
// identify which user a purchase belongs to.
const (
	metadataUserIDKey = "user_id"
	metadataTierKey   = "tier"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements BillingProvider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle-backed billing provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreateCheckout creates a hosted checkout transaction in Paddle with the
// user linkage embedded as custom data.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	customData := paddle.CustomData{
		metadataUserIDKey: req.UserID,
		metadataTierKey:   req.Tier,
	}
	if req.Email != "" {
		customData["email"] = req.Email
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: customData,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// CustomerPortalLink returns a pre-authenticated link to Paddle's customer
// portal scoped to the given subscription.
func (p *PaddleProvider) CustomerPortalLink(ctx context.Context, providerCustomerID, providerSubscriptionID string) (string, error) {
	if providerCustomerID == "" {
		return "", errors.New("provider customer ID is required")
	}

	req := &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: providerCustomerID,
	}
	if providerSubscriptionID != "" {
		req.SubscriptionIDs = []string{providerSubscriptionID}
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, req)
	if err != nil {
		return "", errors.Join(ErrProviderUnavailable, err)
	}
	if session.URLs.General.Overview == "" {
		return "", ErrNoPortalURL
	}
	return session.URLs.General.Overview, nil
}

// ListActiveSubscriptions returns every subscription Paddle is still
// billing for the customer: active, trialing, or past_due.
func (p *PaddleProvider) ListActiveSubscriptions(ctx context.Context, providerCustomerID string) ([]string, error) {
	if providerCustomerID == "" {
		return nil, nil
	}

	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{providerCustomerID},
		Status:     []string{"active", "trialing", "past_due"},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	var ids []string
	if err := res.Iter(ctx, func(sub *paddle.Subscription) (bool, error) {
		ids = append(ids, sub.ID)
		return true, nil
	}); err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	return ids, nil
}

// CancelSubscription cancels one Paddle subscription immediately.
func (p *PaddleProvider) CancelSubscription(ctx context.Context, providerSubscriptionID string) error {
	if providerSubscriptionID == "" {
		return errors.New("provider subscription ID is required")
	}

	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: providerSubscriptionID,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromImmediately),
	})
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	return nil
}

// ParseWebhook verifies the Paddle signature and normalizes the payload
// into an Event. Unverifiable payloads never reach the state machine.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}
	if !valid {
		return nil, ErrSignatureInvalid
	}

	var raw struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	event := &Event{
		Type:          mapPaddleEventType(raw.EventType),
		ProviderEvent: raw.EventType,
	}

	switch {
	case strings.HasPrefix(raw.EventType, "subscription."):
		event.SubscriptionID, _ = raw.Data["id"].(string)
		event.CustomerID, _ = raw.Data["customer_id"].(string)
		event.Status, _ = raw.Data["status"].(string)
		event.PriceID = firstPriceID(raw.Data, "price")
		event.PeriodEnd = parsePeriodEnd(raw.Data, "current_billing_period")
		if custom, ok := raw.Data["custom_data"].(map[string]any); ok {
			event.UserID, _ = custom[metadataUserIDKey].(string)
			event.MetadataTier, _ = custom[metadataTierKey].(string)
		}

	case strings.HasPrefix(raw.EventType, "transaction."):
		event.SubscriptionID, _ = raw.Data["subscription_id"].(string)
		event.CustomerID, _ = raw.Data["customer_id"].(string)
		event.Status, _ = raw.Data["status"].(string)
		event.PriceID = firstPriceID(raw.Data, "price")
		event.PeriodEnd = parsePeriodEnd(raw.Data, "billing_period")
		if custom, ok := raw.Data["custom_data"].(map[string]any); ok {
			event.UserID, _ = custom[metadataUserIDKey].(string)
			event.MetadataTier, _ = custom[metadataTierKey].(string)
		}
	}

	return event, nil
}

// mapPaddleEventType maps Paddle event names onto the five normalized
// kinds the state machine handles. Everything else is EventIgnored.
func mapPaddleEventType(name string) EventType {
	switch name {
	case "transaction.completed":
		return EventPurchaseCompleted
	case "subscription.updated":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionDeleted
	case "transaction.payment_succeeded":
		return EventInvoicePaid
	case "transaction.payment_failed", "subscription.past_due":
		return EventInvoicePaymentFailed
	default:
		return EventIgnored
	}
}

// firstPriceID digs the current price ID out of the first line item.
func firstPriceID(data map[string]any, priceKey string) string {
	items, ok := data["items"].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	item, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	if price, ok := item[priceKey].(map[string]any); ok {
		if id, ok := price["id"].(string); ok {
			return id
		}
	}
	if id, ok := item["price_id"].(string); ok {
		return id
	}
	return ""
}

// parsePeriodEnd extracts the billing period end timestamp if present.
func parsePeriodEnd(data map[string]any, periodKey string) *time.Time {
	period, ok := data[periodKey].(map[string]any)
	if !ok {
		return nil
	}
	endsAt, ok := period["ends_at"].(string)
	if !ok || endsAt == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}
