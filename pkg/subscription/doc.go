// Package subscription implements the subscription lifecycle engine: it
// issues checkout sessions for tier purchases, reconciles the payment
// provider's asynchronous at-least-once event feed into one authoritative
// per-user record, and derives live entitlement snapshots from it.
//
// # Model
//
// Each user has at most one Subscription row, created by the first
// completed purchase and keyed by user ID. A user without a row is
// implicitly on the free tier. The row's stored tier changes only through
// provider events; checkout never mutates local state, so an abandoned
// checkout leaves the system untouched.
//
// # Event processing
//
// HandleWebhook verifies the payload signature, normalizes the provider
// event, and applies exactly one atomic keyed update per event kind:
//
//   - purchase completed: upsert by user ID from checkout metadata
//   - subscription updated: update by provider subscription ID, tier
//     derived from the event's current price
//   - subscription deleted: reset to free by provider customer ID
//   - invoice paid: status active, refresh period end
//   - invoice payment failed: status past_due, stored tier untouched
//
// Every handler is idempotent; redelivered events converge to the same
// state. Events that match no row are logged and dropped: only a
// completed purchase may create one. Processing errors are returned so
// the HTTP layer responds non-200 and the provider redelivers.
//
// # Entitlements
//
// Snapshots resolve the effective tier (past_due and canceled read as
// free without touching the stored tier) through the pure tier package
// and attach live usage, such as the remaining rolling 30-day post quota.
//
// Two provider integrations ship with the package: PaddleProvider wraps
// the official Paddle SDK, and the BillingProvider interface keeps the
// engine testable and provider-agnostic.
package subscription
