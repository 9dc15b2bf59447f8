package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unipost/unipost/pkg/subscription"
	"github.com/unipost/unipost/pkg/tier"
)

// jsonResponse is the envelope every endpoint answers with: either data
// or an error detail, never both.
type jsonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body jsonResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, jsonResponse{Data: data})
}

// writeError maps sentinel errors to stable error codes and HTTP statuses.
// Unrecognized errors become an opaque 500 so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "something went wrong"

	switch {
	case errors.Is(err, ErrAuthInvalid):
		status, code, message = http.StatusUnauthorized, "auth_invalid", "authentication required"
	case errors.Is(err, ErrInvalidRequest):
		status, code, message = http.StatusBadRequest, "invalid_request", "request body could not be decoded"
	case errors.Is(err, tier.ErrUnknownTier), errors.Is(err, subscription.ErrUnknownTier):
		status, code, message = http.StatusBadRequest, "unknown_tier", "unknown subscription tier"
	case errors.Is(err, subscription.ErrInvalidTierChange):
		status, code, message = http.StatusConflict, "invalid_tier_change", "requested tier is not an upgrade"
	case errors.Is(err, subscription.ErrPriceNotConfigured):
		status, code, message = http.StatusBadRequest, "unknown_tier", "tier is not purchasable"
	case errors.Is(err, subscription.ErrSignatureInvalid):
		status, code, message = http.StatusBadRequest, "signature_invalid", "webhook signature verification failed"
	case errors.Is(err, subscription.ErrMalformedEvent):
		status, code, message = http.StatusBadRequest, "malformed_event", "webhook payload could not be parsed"
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		status, code, message = http.StatusNotFound, "subscription_not_found", "no subscription on record"
	case errors.Is(err, subscription.ErrProviderUnavailable),
		errors.Is(err, subscription.ErrNoCheckoutURL),
		errors.Is(err, subscription.ErrNoPortalURL):
		status, code, message = http.StatusBadGateway, "provider_unavailable", "billing provider request failed"
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "billing request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
	}

	writeJSON(w, status, jsonResponse{Error: &errorDetail{Code: code, Message: message}})
}
