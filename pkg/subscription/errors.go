package subscription

import "errors"

var (
	ErrInvalidTierChange = errors.New("invalid tier change: downgrades and repurchases go through the provider portal")
	ErrUnknownTier       = errors.New("unknown subscription tier")

	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrSignatureInvalid    = errors.New("webhook signature verification failed")
	ErrMalformedEvent      = errors.New("malformed webhook event")
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	ErrNoCheckoutURL = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL   = errors.New("no portal URL returned from provider")

	// Provider configuration errors
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrInvalidEnvironment   = errors.New("invalid billing provider environment")

	ErrPriceNotConfigured = errors.New("no provider price configured for tier")
)
