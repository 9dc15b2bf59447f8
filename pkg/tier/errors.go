package tier

import "errors"

var (
	// ErrUnknownTier is returned when a string does not name a member of
	// the closed tier set.
	ErrUnknownTier = errors.New("unknown subscription tier")
)
