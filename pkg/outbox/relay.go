package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Publisher sends one wire payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Relay polls pending outbox rows and publishes them in insertion order.
// Rows are only marked sent after the broker accepts the write, so a crash
// between publish and mark yields redelivery, never loss; consumers
// deduplicate via their inbox ledger.
type Relay struct {
	Pool      *pgxpool.Pool
	Publisher Publisher
	Logger    *zap.Logger
	Interval  time.Duration
	BatchSize int
}

func (r *Relay) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce(ctx, batch)
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context, batch int) {
	recs, err := FetchPending(ctx, r.Pool, batch)
	if err != nil {
		r.Logger.Warn("outbox fetch failed", zap.Error(err))
		return
	}
	for _, rec := range recs {
		if err := r.Publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
			// Stop the batch: later rows for the same key must not overtake this one.
			r.Logger.Warn("outbox publish failed",
				zap.String("event_id", rec.EventID),
				zap.String("topic", rec.Topic),
				zap.Error(err))
			return
		}
		if err := MarkSent(ctx, r.Pool, rec.ID); err != nil {
			r.Logger.Warn("outbox mark sent failed", zap.String("event_id", rec.EventID), zap.Error(err))
			return
		}
	}
}
