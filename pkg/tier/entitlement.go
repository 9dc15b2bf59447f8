package tier

const (
	// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility).
	Unlimited int64 = -1
)

// Entitlement is the full set of limits and permissions derived from a tier.
// It is computed fresh from a subscription snapshot each time it is needed,
// never cached in client or server state.
type Entitlement struct {
	MaxLinkedDestinations int64
	MonthlyPostQuota      int64 // posts per trailing 30 days, Unlimited for paid tiers
	SchedulingAllowed     bool
	WatermarkRequired     bool
	BrandingRequired      bool
}

// entitlements is the static tier capability table.
var entitlements = map[Tier]Entitlement{
	Free: {
		MaxLinkedDestinations: 3,
		MonthlyPostQuota:      10,
		SchedulingAllowed:     false,
		WatermarkRequired:     true,
		BrandingRequired:      true,
	},
	Pro: {
		MaxLinkedDestinations: 5,
		MonthlyPostQuota:      Unlimited,
		SchedulingAllowed:     true,
		WatermarkRequired:     false,
		BrandingRequired:      true,
	},
	Elite: {
		MaxLinkedDestinations: Unlimited,
		MonthlyPostQuota:      Unlimited,
		SchedulingAllowed:     true,
		WatermarkRequired:     false,
		BrandingRequired:      false,
	},
}

// Resolve maps a tier to its entitlement set. Unknown tiers resolve to the
// Free entitlements so a corrupted stored value fails closed.
func Resolve(t Tier) Entitlement {
	if e, ok := entitlements[t]; ok {
		return e
	}
	return entitlements[Free]
}
