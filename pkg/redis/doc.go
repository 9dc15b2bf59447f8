// Package redis connects to Redis with startup retry and exposes a
// healthcheck helper. The shared client backs cross-instance concerns
// such as rate limit counters.
package redis
