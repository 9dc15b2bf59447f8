package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEnforcer wires the entitlement enforcer that runs after events
// which can shrink the effective tier.
func WithEnforcer(e Enforcer) ServiceOption {
	return func(s *service) {
		s.enforcer = e
	}
}

// WithNotifier wires best-effort billing lifecycle notifications.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		s.notifier = n
	}
}

// WithPostCounter wires the rolling post usage counter used by
// entitlement snapshots. Must be fast; it runs on every snapshot read.
func WithPostCounter(fn PostCounter) ServiceOption {
	return func(s *service) {
		s.postCounter = fn
	}
}

// WithEnforcementTimeout bounds each asynchronous enforcement run.
func WithEnforcementTimeout(d time.Duration) ServiceOption {
	return func(s *service) {
		if d > 0 {
			s.enforceTimeout = d
		}
	}
}

// WithBlockingEnforcement runs enforcement inline with event processing
// instead of on a background goroutine. Intended for tests and one-shot
// sweep jobs that need deterministic completion.
func WithBlockingEnforcement() ServiceOption {
	return func(s *service) {
		s.blockingEnforce = true
	}
}
