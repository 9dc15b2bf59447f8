package destination

import "errors"

var (
	// ErrPartialEnforcement reports that some destinations could not be
	// revoked. Enforcement is idempotent; the remainder is picked up by
	// the next triggering event or the periodic sweep.
	ErrPartialEnforcement = errors.New("some destinations could not be revoked")
)
