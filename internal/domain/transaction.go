package domain

import "time"

// TransactionType enumerates ledger mutation directions.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Transaction sources tag where a balance change originated.
const (
	SourceConsumeCredits = "consumeCredits"
	SourceSubscription   = "subscription"
	SourceCreditPack     = "credit_pack"
	SourceGrantCredits   = "grantcredits"
)

// Transaction is one immutable audit record for a committed balance change.
// Records are append-only; ordering is by CreatedAt.
type Transaction struct {
	ID        string
	UserID    string
	Type      TransactionType
	Amount    int64
	Source    string
	ProductID string
	CreatedAt time.Time
}
