package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger/internal/domain"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepositoryPG {
	return &AccountRepositoryPG{pool: pool}
}

// GetByUserID fetches an account by its user identifier.
func (r *AccountRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_id, credits, tier, subscription_product_id, subscription_status, subscription_updated_at, created_at, updated_at
FROM accounts
WHERE user_id = $1;
`, userID)
	return scanAccount(row)
}

// Debit subtracts amount from the balance in a single conditional update. The
// row lock serializes concurrent debits on the same account; each one
// re-evaluates the balance predicate after acquiring the lock, so the
// constraint credits >= 0 holds under any interleaving. Zero matched rows
// means the balance (zero for a missing account) does not cover the amount.
func (r *AccountRepositoryPG) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE accounts
SET credits = credits - $2,
    updated_at = NOW()
WHERE user_id = $1
  AND credits >= $2
RETURNING credits;
`, userID, amount)

	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return balance, nil
}

// Credit adds amount to the balance, creating the account on first mutation.
func (r *AccountRepositoryPG) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO accounts (user_id, credits, tier, created_at, updated_at)
VALUES ($1, $2, 'free', NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET credits = accounts.credits + EXCLUDED.credits,
    updated_at = NOW()
RETURNING credits;
`, userID, amount)

	var balance int64
	if err := row.Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplySubscription records an active subscription and its tier.
func (r *AccountRepositoryPG) ApplySubscription(ctx context.Context, userID, productID string, tier domain.Tier) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO accounts (user_id, credits, tier, subscription_product_id, subscription_status, subscription_updated_at, created_at, updated_at)
VALUES ($1, 0, $2, $3, 'active', NOW(), NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET tier = EXCLUDED.tier,
    subscription_product_id = EXCLUDED.subscription_product_id,
    subscription_status = 'active',
    subscription_updated_at = NOW(),
    updated_at = NOW();
`, userID, tier, productID)
	return err
}

// CancelSubscription downgrades the account to the free tier.
func (r *AccountRepositoryPG) CancelSubscription(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO accounts (user_id, credits, tier, subscription_product_id, subscription_status, subscription_updated_at, created_at, updated_at)
VALUES ($1, 0, 'free', NULLIF($2, ''), 'cancelled', NOW(), NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET tier = 'free',
    subscription_product_id = COALESCE(NULLIF(EXCLUDED.subscription_product_id, ''), accounts.subscription_product_id),
    subscription_status = 'cancelled',
    subscription_updated_at = NOW(),
    updated_at = NOW();
`, userID, productID)
	return err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a         domain.Account
		productID *string
		status    *string
		updatedAt *time.Time
	)
	if err := row.Scan(&a.UserID, &a.Credits, &a.Tier, &productID, &status, &updatedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if productID != nil && status != nil {
		sub := &domain.Subscription{
			ProductID: *productID,
			Status:    domain.SubscriptionStatus(*status),
		}
		if updatedAt != nil {
			sub.UpdatedAt = *updatedAt
		}
		a.Subscription = sub
	}
	return &a, nil
}
