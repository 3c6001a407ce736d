package ledger

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ledger/internal/domain"
)

// Mutator performs atomic balance mutations and pairs each committed change
// with an audit record. All concurrency control lives in the account
// repository's per-row contract; the mutator itself holds no mutable state
// and is safe for concurrent use.
type Mutator struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	logger       zerolog.Logger
}

// NewMutator creates a Mutator.
func NewMutator(accounts domain.AccountRepository, transactions domain.TransactionRepository, logger zerolog.Logger) *Mutator {
	return &Mutator{accounts: accounts, transactions: transactions, logger: logger}
}

// Debit subtracts amount from the user's balance and returns the new balance.
// The userID must come from an authenticated context, never from client
// input. Fails with domain.ErrUnauthenticated on an empty userID,
// domain.ErrInvalidAmount on a non-positive amount and
// domain.ErrInsufficientCredits when the balance does not cover the amount;
// none of these leave any state behind.
func (m *Mutator) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrUnauthenticated
	}
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	balance, err := m.accounts.Debit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	m.logger.Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("credits debited")

	m.audit(ctx, &domain.Transaction{
		UserID: userID,
		Type:   domain.TransactionDebit,
		Amount: amount,
		Source: domain.SourceConsumeCredits,
	})

	return balance, nil
}

// Credit adds amount to the user's balance, creating the account if it does
// not exist, and returns the new balance. There is no upper bound on a
// balance.
func (m *Mutator) Credit(ctx context.Context, userID string, amount int64, source, productID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrUnauthenticated
	}
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	balance, err := m.accounts.Credit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	m.logger.Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Str("source", source).
		Msg("credits granted")

	m.audit(ctx, &domain.Transaction{
		UserID:    userID,
		Type:      domain.TransactionCredit,
		Amount:    amount,
		Source:    source,
		ProductID: productID,
	})

	return balance, nil
}

// audit appends the record for a committed mutation. The append is a separate
// store write, not part of the mutation's transaction: a crash between the
// two loses the audit record but never the balance change. The log stays a
// best-effort observability trail; balances are authoritative on their own.
func (m *Mutator) audit(ctx context.Context, txn *domain.Transaction) {
	if err := m.transactions.Append(ctx, txn); err != nil {
		m.logger.Error().Err(err).
			Str("user_id", txn.UserID).
			Str("type", string(txn.Type)).
			Int64("amount", txn.Amount).
			Msg("failed to append transaction record")
	}
}
