package billing

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/unipost/unipost/pkg/identity"
	"github.com/unipost/unipost/pkg/ratelimit"
)

// Authenticator resolves a bearer token to a user. identity.Store
// satisfies it.
type Authenticator interface {
	ByToken(ctx context.Context, token string) (identity.User, error)
}

// requireAuth authenticates requests with an Authorization: Bearer token
// and stores the resolved user on the request context.
func requireAuth(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, r, log, ErrAuthInvalid)
				return
			}

			user, err := auth.ByToken(r.Context(), token)
			if err != nil {
				writeError(w, r, log, ErrAuthInvalid)
				return
			}

			next.ServeHTTP(w, withUser(r, user))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// rateLimitKey keys authenticated requests by user ID so users behind a
// shared NAT do not starve each other, falling back to client IP.
func rateLimitKey(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return user.ID.String()
	}
	return ratelimit.ByClientIP(r)
}
