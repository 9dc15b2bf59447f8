// Package ratelimit provides fixed window rate limiting with pluggable
// storage backends.
//
// The in-memory store suits tests and single-instance deployments; the
// Redis store shares counters across instances. The HTTP middleware fails
// open so a backend outage degrades to unlimited traffic rather than a
// hard outage:
//
//	store := ratelimit.NewRedisStore(client, "api")
//	limiter, err := ratelimit.NewFixedWindow(store, 30, time.Minute)
//	if err != nil { ... }
//	r.Use(ratelimit.Middleware(limiter, ratelimit.ByClientIP))
package ratelimit
