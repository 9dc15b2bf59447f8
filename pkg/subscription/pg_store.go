package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipost/unipost/pkg/tier"
)

// PgStore is the PostgreSQL Store implementation. Every mutation is one
// statement, so concurrent webhook deliveries for the same user serialize
// at the row level without in-process locks, which keeps multiple
// processor instances correct.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("subscription: pgxpool is required")
	}
	return &PgStore{pool: pool}
}

const subscriptionColumns = `user_id, provider_customer_id, provider_subscription_id, tier, status, current_period_end, updated_at`

func (s *PgStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`,
		userID,
	)
	return scanSubscription(row)
}

func (s *PgStore) UpsertPurchase(ctx context.Context, p Purchase) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, provider_customer_id, provider_subscription_id, tier, status, updated_at)
		VALUES ($1, $2, $3, $4, 'active', now())
		ON CONFLICT (user_id) DO UPDATE SET
			provider_customer_id = EXCLUDED.provider_customer_id,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			tier = EXCLUDED.tier,
			status = 'active',
			updated_at = now()
		RETURNING `+subscriptionColumns,
		p.UserID, p.ProviderCustomerID, p.ProviderSubscriptionID, p.Tier.String(),
	)
	return scanSubscription(row)
}

func (s *PgStore) ApplyPlanChange(ctx context.Context, providerSubscriptionID string, change PlanChange) (*Subscription, error) {
	if providerSubscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			tier = $2,
			status = $3,
			current_period_end = $4,
			updated_at = now()
		WHERE provider_subscription_id = $1
		RETURNING `+subscriptionColumns,
		providerSubscriptionID, change.Tier.String(), string(change.Status), change.CurrentPeriodEnd,
	)
	return scanSubscription(row)
}

func (s *PgStore) MarkActive(ctx context.Context, providerSubscriptionID string, periodEnd *time.Time) (*Subscription, error) {
	if providerSubscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			status = 'active',
			current_period_end = $2,
			updated_at = now()
		WHERE provider_subscription_id = $1
		RETURNING `+subscriptionColumns,
		providerSubscriptionID, periodEnd,
	)
	return scanSubscription(row)
}

func (s *PgStore) MarkPastDue(ctx context.Context, providerSubscriptionID string) (*Subscription, error) {
	if providerSubscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			status = 'past_due',
			updated_at = now()
		WHERE provider_subscription_id = $1
		RETURNING `+subscriptionColumns,
		providerSubscriptionID,
	)
	return scanSubscription(row)
}

func (s *PgStore) ResetToFree(ctx context.Context, providerCustomerID string) (*Subscription, error) {
	if providerCustomerID == "" {
		return nil, ErrSubscriptionNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			tier = 'free',
			status = 'canceled',
			provider_subscription_id = '',
			current_period_end = NULL,
			updated_at = now()
		WHERE provider_customer_id = $1
		RETURNING `+subscriptionColumns,
		providerCustomerID,
	)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		sub       Subscription
		tierStr   string
		statusStr string
	)
	err := row.Scan(
		&sub.UserID,
		&sub.ProviderCustomerID,
		&sub.ProviderSubscriptionID,
		&tierStr,
		&statusStr,
		&sub.CurrentPeriodEnd,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub.Tier = tier.Tier(tierStr)
	sub.Status = Status(statusStr)
	return &sub, nil
}
