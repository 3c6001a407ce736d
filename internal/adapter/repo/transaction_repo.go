package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger/internal/domain"
)

// TransactionRepositoryPG implements domain.TransactionRepository backed by
// PostgreSQL. The transactions table is append-only; rows are never updated
// or deleted.
type TransactionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepositoryPG.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{pool: pool}
}

// Append inserts one audit record with a server-assigned creation timestamp.
// The id is filled in when the caller left it empty.
func (r *TransactionRepositoryPG) Append(ctx context.Context, txn *domain.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO transactions (id, user_id, type, amount, source, product_id, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
RETURNING created_at;
`, txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Source, txn.ProductID)
	return row.Scan(&txn.CreatedAt)
}

// ListByUserID returns the newest audit records for a user.
func (r *TransactionRepositoryPG) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, amount, source, COALESCE(product_id, ''), created_at
FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Source, &t.ProductID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
