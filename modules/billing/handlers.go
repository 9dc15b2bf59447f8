package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/unipost/unipost/pkg/tier"
)

// maxWebhookBody caps webhook payload reads. Paddle events are a few KB;
// anything larger is not a legitimate event.
const maxWebhookBody = 1 << 20

// signatureHeader carries the webhook signature from the provider.
const signatureHeader = "Paddle-Signature"

type checkoutRequest struct {
	Tier string `json:"tier"`
}

type checkoutResponse struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, m.log, ErrAuthInvalid)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, m.log, errors.Join(ErrInvalidRequest, err))
		return
	}

	requested, err := tier.Parse(req.Tier)
	if err != nil {
		writeError(w, r, m.log, err)
		return
	}

	session, err := m.subs.CreateCheckout(r.Context(), user.ID, user.Email, requested)
	if err != nil {
		writeError(w, r, m.log, err)
		return
	}

	resp := checkoutResponse{URL: session.URL}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	writeData(w, http.StatusOK, resp)
}

func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, m.log, errors.Join(ErrInvalidRequest, err))
		return
	}

	if err := m.subs.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		// Non-2xx tells the provider to redeliver; 400 for signature and
		// parse failures stops pointless retries.
		writeError(w, r, m.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"received": true})
}

type entitlementsResponse struct {
	Tier                   string     `json:"tier"`
	Status                 string     `json:"status"`
	MaxLinkedDestinations  int64      `json:"max_linked_destinations"`
	RemainingPostsInPeriod int64      `json:"remaining_posts_in_period"`
	SchedulingAllowed      bool       `json:"scheduling_allowed"`
	WatermarkRequired      bool       `json:"watermark_required"`
	BrandingRequired       bool       `json:"branding_required"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
}

func (m *Module) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, m.log, ErrAuthInvalid)
		return
	}

	snap, err := m.subs.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, m.log, err)
		return
	}

	writeData(w, http.StatusOK, entitlementsResponse{
		Tier:                   snap.Tier.String(),
		Status:                 string(snap.Status),
		MaxLinkedDestinations:  snap.MaxLinkedDestinations,
		RemainingPostsInPeriod: snap.RemainingPostsInPeriod,
		SchedulingAllowed:      snap.SchedulingAllowed,
		WatermarkRequired:      snap.WatermarkRequired,
		BrandingRequired:       snap.BrandingRequired,
		CurrentPeriodEnd:       snap.CurrentPeriodEnd,
	})
}

func (m *Module) handlePortal(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, m.log, ErrAuthInvalid)
		return
	}

	url, err := m.subs.CustomerPortalLink(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, m.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"url": url})
}

func (m *Module) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, m.log, ErrAuthInvalid)
		return
	}

	if err := m.account.DeleteAccount(r.Context(), user.ID); err != nil {
		m.log.ErrorContext(r.Context(), "account deletion blocked",
			slog.String("user_id", user.ID.String()), slog.Any("error", err))
		writeError(w, r, m.log, err)
		return
	}

	writeData(w, http.StatusOK, map[string]bool{"success": true})
}
