// Package httpserver runs an http.Server with graceful shutdown wired to
// context cancellation and OS signals, plus a health check handler for
// liveness and readiness probes.
package httpserver
