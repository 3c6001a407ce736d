package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so the service can apply them on every
// boot. The check constraint on accounts.credits is the last line of defense
// for the non-negative balance invariant; the repositories never rely on it
// for control flow.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
	user_id                 TEXT PRIMARY KEY,
	credits                 BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
	tier                    TEXT NOT NULL DEFAULT 'free',
	subscription_product_id TEXT,
	subscription_status     TEXT,
	subscription_updated_at TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE TABLE IF NOT EXISTS transactions (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL CHECK (type IN ('debit', 'credit')),
	amount     BIGINT NOT NULL CHECK (amount > 0),
	source     TEXT NOT NULL,
	product_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE INDEX IF NOT EXISTS transactions_user_created_idx
	ON transactions (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
	event_id    TEXT PRIMARY KEY,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
