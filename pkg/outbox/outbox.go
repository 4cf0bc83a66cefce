package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metao1/online-store-go/pkg/events"
)

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx, so outbox rows can be
// written inside the same transaction that persists the aggregate.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

func Insert(ctx context.Context, db Execer, msg events.WireMessage) error {
	_, err := db.Exec(ctx,
		`INSERT INTO outbox(event_id, event_type, topic, key, payload) VALUES ($1, $2, $3, $4, $5)`,
		msg.EventID, msg.Type, msg.Topic, msg.Key, msg.Payload)
	return err
}

// InsertAll writes messages in raise order; row ids preserve that order for the relay.
func InsertAll(ctx context.Context, db Execer, msgs []events.WireMessage) error {
	for _, msg := range msgs {
		if err := Insert(ctx, db, msg); err != nil {
			return err
		}
	}
	return nil
}

func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

func FetchPending(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Record, error) {
	rows, err := pool.Query(ctx, `SELECT id, event_id, event_type, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
