package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/modules/billing"
	"github.com/unipost/unipost/pkg/account"
	"github.com/unipost/unipost/pkg/identity"
	"github.com/unipost/unipost/pkg/ratelimit"
	"github.com/unipost/unipost/pkg/subscription"
	"github.com/unipost/unipost/pkg/tier"
)

// stubSubs implements subscription.Service with pluggable behavior per test.
type stubSubs struct {
	checkout    func(ctx context.Context, userID uuid.UUID, email string, t tier.Tier) (*subscription.CheckoutSession, error)
	portal      func(ctx context.Context, userID uuid.UUID) (string, error)
	webhook     func(ctx context.Context, payload []byte, signature string) error
	snapshot    func(ctx context.Context, userID uuid.UUID) (*subscription.Snapshot, error)
	cancelAll   func(ctx context.Context, userID uuid.UUID) error
	webhookSigs []string
}

func (s *stubSubs) CreateCheckout(ctx context.Context, userID uuid.UUID, email string, t tier.Tier) (*subscription.CheckoutSession, error) {
	return s.checkout(ctx, userID, email, t)
}

func (s *stubSubs) CustomerPortalLink(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.portal(ctx, userID)
}

func (s *stubSubs) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	s.webhookSigs = append(s.webhookSigs, signature)
	return s.webhook(ctx, payload, signature)
}

func (s *stubSubs) Snapshot(ctx context.Context, userID uuid.UUID) (*subscription.Snapshot, error) {
	return s.snapshot(ctx, userID)
}

func (s *stubSubs) CancelAllBilling(ctx context.Context, userID uuid.UUID) error {
	if s.cancelAll == nil {
		return nil
	}
	return s.cancelAll(ctx, userID)
}

func (s *stubSubs) EnforcementEntitlement(ctx context.Context, userID uuid.UUID) (tier.Entitlement, error) {
	return tier.Resolve(tier.Free), nil
}

type fakeIdentityDeleter struct{ deleted []uuid.UUID }

func (f *fakeIdentityDeleter) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type moduleEnv struct {
	subs     *stubSubs
	identity *fakeIdentityDeleter
	user     identity.User
	token    string
	handler  http.Handler
}

func newModuleEnv(t *testing.T, opts ...billing.Option) *moduleEnv {
	t.Helper()

	user := identity.User{ID: uuid.New(), Email: "creator@example.com", CreatedAt: time.Now()}
	token := "tok-" + user.ID.String()

	users := identity.NewMemoryStore()
	users.Add(token, user)

	subs := &stubSubs{}
	deleter := &fakeIdentityDeleter{}
	acct := account.NewService(subs, deleter, nil)

	m := billing.New(subs, acct, users, opts...)

	return &moduleEnv{
		subs:     subs,
		identity: deleter,
		user:     user,
		token:    token,
		handler:  m.Router(),
	}
}

func (e *moduleEnv) request(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

func TestAuth(t *testing.T) {
	t.Parallel()

	env := newModuleEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := env.request(http.MethodGet, "/entitlements", nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "auth_invalid", errorCode(t, rec))
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/entitlements", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.checkout = func(ctx context.Context, userID uuid.UUID, email string, tr tier.Tier) (*subscription.CheckoutSession, error) {
			assert.Equal(t, env.user.ID, userID)
			assert.Equal(t, env.user.Email, email)
			assert.Equal(t, tier.Pro, tr)
			return &subscription.CheckoutSession{URL: "https://pay.example.com/txn_1"}, nil
		}

		rec := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "pro"}, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, "https://pay.example.com/txn_1", data["url"])
	})

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		rec := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "platinum"}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unknown_tier", errorCode(t, rec))
	})

	t.Run("downgrade rejected", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.checkout = func(context.Context, uuid.UUID, string, tier.Tier) (*subscription.CheckoutSession, error) {
			return nil, subscription.ErrInvalidTierChange
		}

		rec := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "pro"}, true)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_tier_change", errorCode(t, rec))
	})

	t.Run("provider down", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.checkout = func(context.Context, uuid.UUID, string, tier.Tier) (*subscription.CheckoutSession, error) {
			return nil, errors.Join(subscription.ErrProviderUnavailable, errors.New("timeout"))
		}

		rec := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "pro"}, true)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		env := newModuleEnv(t, billing.WithRateLimiter(limiter))
		env.subs.checkout = func(context.Context, uuid.UUID, string, tier.Tier) (*subscription.CheckoutSession, error) {
			return &subscription.CheckoutSession{URL: "https://pay.example.com/txn_1"}, nil
		}

		first := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "pro"}, true)
		require.Equal(t, http.StatusOK, first.Code)

		second := env.request(http.MethodPost, "/checkout", map[string]string{"tier": "pro"}, true)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.webhook = func(ctx context.Context, payload []byte, signature string) error {
			assert.JSONEq(t, `{"event_type":"transaction.completed"}`, string(payload))
			assert.Equal(t, "ts=1;h1=abc", signature)
			return nil
		}

		req := httptest.NewRequest(http.MethodPost, "/webhook",
			bytes.NewBufferString(`{"event_type":"transaction.completed"}`))
		req.Header.Set("Paddle-Signature", "ts=1;h1=abc")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["data"].(map[string]any)["received"])
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.webhook = func(context.Context, []byte, string) error {
			return subscription.ErrSignatureInvalid
		}

		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "signature_invalid", errorCode(t, rec))
	})

	t.Run("processing failure returns 500 for redelivery", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.webhook = func(context.Context, []byte, string) error {
			return errors.New("storage down")
		}

		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestEntitlementsEndpoint(t *testing.T) {
	t.Parallel()

	env := newModuleEnv(t)
	periodEnd := time.Now().Add(20 * 24 * time.Hour).UTC().Truncate(time.Second)
	env.subs.snapshot = func(ctx context.Context, userID uuid.UUID) (*subscription.Snapshot, error) {
		require.Equal(t, env.user.ID, userID)
		return &subscription.Snapshot{
			Tier:                   tier.Pro,
			Status:                 subscription.StatusActive,
			MaxLinkedDestinations:  5,
			RemainingPostsInPeriod: tier.Unlimited,
			SchedulingAllowed:      true,
			BrandingRequired:       true,
			CurrentPeriodEnd:       &periodEnd,
		}, nil
	}

	rec := env.request(http.MethodGet, "/entitlements", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "pro", data["tier"])
	assert.Equal(t, "active", data["status"])
	assert.EqualValues(t, 5, data["max_linked_destinations"])
	assert.EqualValues(t, tier.Unlimited, data["remaining_posts_in_period"])
	assert.Equal(t, true, data["scheduling_allowed"])
	assert.Equal(t, false, data["watermark_required"])
	assert.Equal(t, true, data["branding_required"])
	assert.NotEmpty(t, data["current_period_end"])
}

func TestPortalEndpoint(t *testing.T) {
	t.Parallel()

	env := newModuleEnv(t)
	env.subs.portal = func(ctx context.Context, userID uuid.UUID) (string, error) {
		return "https://portal.example.com/cus_1", nil
	}

	rec := env.request(http.MethodGet, "/portal", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "https://portal.example.com/cus_1", data["url"])
}

func TestDeleteAccountEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		rec := env.request(http.MethodDelete, "/account", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["data"].(map[string]any)["success"])
		assert.Equal(t, []uuid.UUID{env.user.ID}, env.identity.deleted)
	})

	t.Run("billing cancellation failure blocks deletion", func(t *testing.T) {
		t.Parallel()

		env := newModuleEnv(t)
		env.subs.cancelAll = func(context.Context, uuid.UUID) error {
			return errors.Join(subscription.ErrProviderUnavailable, errors.New("api down"))
		}

		rec := env.request(http.MethodDelete, "/account", nil, true)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Empty(t, env.identity.deleted, "identity must survive a failed billing unwind")
	})
}
