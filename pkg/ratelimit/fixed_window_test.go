package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/pkg/ratelimit"
)

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(nil, 10, time.Minute)
		require.ErrorIs(t, err, ratelimit.ErrStoreRequired)
	})

	t.Run("zero limit", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, 0, time.Minute)
		require.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	})

	t.Run("zero window", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, 10, 0)
		require.ErrorIs(t, err, ratelimit.ErrInvalidInterval)
	})
}

func TestFixedWindow_Allow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allows up to limit then rejects", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 3, time.Minute)
		require.NoError(t, err)

		for i := range 3 {
			result, err := limiter.Allow(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 3, result.Limit)
			assert.Equal(t, 2-i, result.Remaining)
		}

		result, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		first, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		other, err := limiter.Allow(ctx, "user-2")
		require.NoError(t, err)
		assert.True(t, other.Allowed)
	})

	t.Run("window expiry restores quota", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, 20*time.Millisecond)
		require.NoError(t, err)

		first, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		time.Sleep(30 * time.Millisecond)

		again, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, again.Allowed)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "")
		require.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})

	t.Run("reset clears state", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)

		require.NoError(t, limiter.Reset(ctx, "user-1"))

		result, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
		req.RemoteAddr = "10.0.0.1:52000"
		return req
	}

	t.Run("limits by key and sets headers", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 2, time.Minute)
		require.NoError(t, err)

		handler := ratelimit.Middleware(limiter, ratelimit.ByClientIP)(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
		))

		for range 2 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest())
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest())
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("empty key skips limiting", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		handler := ratelimit.Middleware(limiter, func(*http.Request) string { return "" })(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
		))

		for range 3 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest())
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	t.Run("client ip from remote addr", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.7:1234"
		assert.Equal(t, "192.0.2.7", ratelimit.ByClientIP(req))
	})

	t.Run("client ip prefers forwarded header", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ratelimit.ByClientIP(req))
	})

	t.Run("first of prefers earlier keys", func(t *testing.T) {
		t.Parallel()
		fn := ratelimit.FirstOf(
			func(*http.Request) string { return "" },
			func(*http.Request) string { return "user-42" },
			ratelimit.ByClientIP,
		)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, "user-42", fn(req))
	})
}
