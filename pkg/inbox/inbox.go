package inbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger records which event ids have already been applied. MarkProcessed is
// the idempotency gate for consumers: true means first delivery.
type Ledger interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// PostgresLedger is backed by the inbox table's unique event_id key.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	tag, err := l.pool.Exec(ctx,
		`INSERT INTO inbox(event_id, processed_at) VALUES ($1, now()) ON CONFLICT (event_id) DO NOTHING`,
		eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
