package domain

import (
	"context"
	"time"
)

// AccountRepository defines access methods for accounts. Debit and Credit are
// atomic with respect to concurrent mutations on the same user: the store
// serializes them per row, so two racing debits can never jointly overdraw a
// balance.
type AccountRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Account, error)
	// Debit subtracts amount if the current balance covers it and returns the
	// resulting balance; ErrInsufficientCredits otherwise (a missing account
	// counts as balance zero).
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	// Credit adds amount to the balance, creating the account if needed, and
	// returns the resulting balance.
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	// ApplySubscription sets the tier and marks the subscription active,
	// creating the account if needed.
	ApplySubscription(ctx context.Context, userID, productID string, tier Tier) error
	// CancelSubscription downgrades to the free tier and marks the
	// subscription cancelled. Never requires product recognition.
	CancelSubscription(ctx context.Context, userID, productID string) error
}

// TransactionRepository appends and lists immutable audit records.
type TransactionRepository interface {
	Append(ctx context.Context, txn *Transaction) error
	ListByUserID(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

// WebhookEventRepository tracks processed billing event ids so redelivered
// events are applied at most once.
type WebhookEventRepository interface {
	// MarkProcessed records the event id. It reports false when the id was
	// already recorded by an earlier delivery.
	MarkProcessed(ctx context.Context, eventID string, receivedAt time.Time) (bool, error)
	// Forget releases a previously claimed event id so a provider retry can
	// reprocess a delivery whose application failed.
	Forget(ctx context.Context, eventID string) error
}
