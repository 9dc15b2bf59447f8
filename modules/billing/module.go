package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unipost/unipost/pkg/account"
	"github.com/unipost/unipost/pkg/ratelimit"
	"github.com/unipost/unipost/pkg/subscription"
)

// Module is the billing HTTP surface: checkout, webhook ingestion,
// entitlement snapshots, portal links, and account deletion.
type Module struct {
	subs    subscription.Service
	account *account.Service
	auth    Authenticator
	limiter ratelimit.Limiter
	log     *slog.Logger
}

// Option configures the module.
type Option func(*Module)

// WithLogger sets the logger for request failures.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRateLimiter guards checkout and account deletion with the given
// limiter. Without it those endpoints are unlimited.
func WithRateLimiter(limiter ratelimit.Limiter) Option {
	return func(m *Module) { m.limiter = limiter }
}

// New creates the billing module. Panics if a required collaborator is nil.
func New(subs subscription.Service, acct *account.Service, auth Authenticator, opts ...Option) *Module {
	if subs == nil {
		panic("billing: subscription service is required")
	}
	if acct == nil {
		panic("billing: account service is required")
	}
	if auth == nil {
		panic("billing: authenticator is required")
	}

	m := &Module{
		subs:    subs,
		account: acct,
		auth:    auth,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Router mounts the module's routes. The webhook route is unauthenticated;
// its payload is trusted only after signature verification.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/webhook", m.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(m.auth, m.log))

		r.Get("/entitlements", m.handleEntitlements)
		r.Get("/portal", m.handlePortal)

		r.Group(func(r chi.Router) {
			if m.limiter != nil {
				r.Use(ratelimit.Middleware(m.limiter, rateLimitKey))
			}
			r.Post("/checkout", m.handleCheckout)
			r.Delete("/account", m.handleDeleteAccount)
		})
	})

	return r
}

// Handle returns the module as a plain http.Handler for mounting.
func (m *Module) Handle() http.Handler {
	return m.Router()
}
