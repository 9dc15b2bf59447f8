package destination

import (
	"time"

	"github.com/google/uuid"
)

// LinkedDestination is an authorized connection between a user and one
// external publishing platform. Rows are created by the OAuth linking
// flow and destroyed by user action or by the entitlement enforcer.
type LinkedDestination struct {
	UserID    uuid.UUID
	Platform  string // platform identifier, e.g. "youtube", "tiktok"
	UpdatedAt time.Time
}
