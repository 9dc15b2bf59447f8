package billing

import (
	"context"
	"net/http"

	"github.com/unipost/unipost/pkg/identity"
)

type contextKey struct{ name string }

var userContextKey = &contextKey{"billing.user"}

// UserFromContext returns the authenticated user stored by the auth
// middleware. The second return is false on unauthenticated requests.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userContextKey).(identity.User)
	return u, ok
}

func withUser(r *http.Request, u identity.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, u))
}
