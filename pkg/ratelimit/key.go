package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// maxKeyLength caps rate limit keys so storage backends never see
// unbounded key sizes.
const maxKeyLength = 64

// KeyFunc extracts a unique identifier from an HTTP request for rate limiting.
// An empty return value skips rate limiting for the request.
type KeyFunc func(*http.Request) string

// ByClientIP keys requests by client IP, preferring the first hop of
// X-Forwarded-For when the service runs behind a proxy.
func ByClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FirstOf tries each key function in order and returns the first non-empty
// key. Use it to prefer an authenticated identity over the client IP.
func FirstOf(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				return clampKey(key)
			}
		}
		return ""
	}
}

// clampKey hashes keys longer than maxKeyLength down to 32 hex chars.
func clampKey(key string) string {
	if len(key) <= maxKeyLength {
		return key
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}
