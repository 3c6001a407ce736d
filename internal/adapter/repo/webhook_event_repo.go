package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEventRepositoryPG implements domain.WebhookEventRepository backed by
// PostgreSQL.
type WebhookEventRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWebhookEventRepository creates a new WebhookEventRepositoryPG.
func NewWebhookEventRepository(pool *pgxpool.Pool) *WebhookEventRepositoryPG {
	return &WebhookEventRepositoryPG{pool: pool}
}

// MarkProcessed claims an event id. The ON CONFLICT DO NOTHING insert makes
// the claim atomic: exactly one of any number of concurrent deliveries of the
// same event observes true.
func (r *WebhookEventRepositoryPG) MarkProcessed(ctx context.Context, eventID string, receivedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO webhook_events (event_id, received_at)
VALUES ($1, $2)
ON CONFLICT (event_id) DO NOTHING;
`, eventID, receivedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Forget releases a claimed event id.
func (r *WebhookEventRepositoryPG) Forget(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM webhook_events WHERE event_id = $1;`, eventID)
	return err
}
