package destination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/unipost/unipost/pkg/tier"
)

// Enforcer revokes linked destinations that exceed a (possibly reduced)
// entitlement. Victim selection is deterministic: platform IDs are sorted
// lexicographically and the suffix beyond the limit is revoked, so a
// re-run after a crash converges on the same surviving set instead of
// evicting different destinations each time.
type Enforcer struct {
	store    Store
	unlinker Unlinker
	log      *slog.Logger
}

// NewEnforcer creates an enforcer. Panics if store or unlinker is nil.
func NewEnforcer(store Store, unlinker Unlinker, log *slog.Logger) *Enforcer {
	if store == nil {
		panic("destination: Store is required")
	}
	if unlinker == nil {
		panic("destination: Unlinker is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Enforcer{store: store, unlinker: unlinker, log: log}
}

// Enforce brings the user's destination count back within the
// entitlement. Running when already within budget is a no-op. Revocations
// are dispatched concurrently per destination; partial failure returns
// ErrPartialEnforcement and leaves the failed rows for a retry, never a
// permanently over-budget count.
func (e *Enforcer) Enforce(ctx context.Context, userID uuid.UUID, ent tier.Entitlement) error {
	if ent.MaxLinkedDestinations == tier.Unlimited {
		return nil
	}

	platforms, err := e.store.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}
	limit := int(ent.MaxLinkedDestinations)
	if len(platforms) <= limit {
		return nil
	}

	sort.Strings(platforms)
	victims := platforms[limit:]

	e.log.InfoContext(ctx, "revoking destinations over entitlement",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit),
		slog.Int("linked", len(platforms)),
		slog.Any("victims", victims))

	var (
		mu     sync.Mutex
		failed []error
		wg     sync.WaitGroup
	)
	for _, platform := range victims {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.revoke(ctx, userID, platform); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", platform, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(failed) > 0 {
		return errors.Join(append([]error{ErrPartialEnforcement}, failed...)...)
	}
	return nil
}

// EntitlementResolver returns the current entitlement for a user. The
// sweep takes it as a function so this package stays independent of the
// subscription engine.
type EntitlementResolver func(ctx context.Context, userID uuid.UUID) (tier.Entitlement, error)

// Sweep re-runs enforcement for every user with linked destinations,
// catching rows left over-budget by a failed or skipped webhook-triggered
// run. Per-user failures are logged and do not stop the sweep.
func (e *Enforcer) Sweep(ctx context.Context, resolve EntitlementResolver) error {
	userIDs, err := e.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users with destinations: %w", err)
	}

	for _, userID := range userIDs {
		ent, err := resolve(ctx, userID)
		if err != nil {
			e.log.ErrorContext(ctx, "sweep: resolve entitlement",
				slog.String("user_id", userID.String()), slog.Any("error", err))
			continue
		}
		if err := e.Enforce(ctx, userID, ent); err != nil {
			e.log.ErrorContext(ctx, "sweep: enforce",
				slog.String("user_id", userID.String()), slog.Any("error", err))
		}
	}
	return nil
}

// revoke unlinks the platform first and deletes the row only after the
// revocation succeeds, so a failed unlink keeps the row visible to the
// next enforcement run.
func (e *Enforcer) revoke(ctx context.Context, userID uuid.UUID, platform string) error {
	if err := e.unlinker.Unlink(ctx, userID, platform); err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	if err := e.store.Delete(ctx, userID, platform); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	e.log.InfoContext(ctx, "destination revoked",
		slog.String("user_id", userID.String()),
		slog.String("platform", platform))
	return nil
}
