package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/inbox"
	"github.com/metao1/online-store-go/pkg/metrics"
	"github.com/metao1/online-store-go/pkg/money"
)

// Consumer reacts to submitted orders by creating and immediately processing
// the order's payment.
type Consumer struct {
	svc           *Service
	ledger        inbox.Ledger
	metrics       *metrics.ConsumerMetrics
	defaultMethod domain.PaymentMethod
	log           *zap.Logger
}

func NewConsumer(svc *Service, ledger inbox.Ledger, m *metrics.ConsumerMetrics, defaultMethod domain.PaymentMethod, log *zap.Logger) *Consumer {
	return &Consumer{svc: svc, ledger: ledger, metrics: m, defaultMethod: defaultMethod, log: log}
}

// HandleOrderEvent consumes the order stream and takes PENDING_PAYMENT
// hand-offs. The idempotency key is the event id; a replayed submission is
// additionally caught by the one-payment-per-order unique key.
func (c *Consumer) HandleOrderEvent(ctx context.Context, env events.Envelope) error {
	if env.Type != events.TypeOrderSubmitted {
		return nil
	}

	var msg events.OrderCreatedMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return fmt.Errorf("decode order payload: %w", err)
	}

	first, err := c.ledger.MarkProcessed(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		c.metrics.Duplicates.WithLabelValues(env.Type).Inc()
		c.log.Info("duplicate order event skipped",
			zap.String("event_id", env.EventID),
			zap.String("order_id", msg.OrderID))
		return nil
	}

	amount, err := money.Parse(msg.Total.Value, msg.Total.Currency)
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	payment, err := c.svc.Create(ctx, msg.OrderID, amount, c.defaultMethod)
	if errors.Is(err, ErrDuplicatePayment) {
		// A previous delivery got past the ledger before crashing; the
		// payment exists, so there is nothing left to do.
		c.metrics.Duplicates.WithLabelValues(env.Type).Inc()
		return nil
	}
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	if err := c.svc.Process(ctx, payment.ID); err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	c.metrics.Processed.WithLabelValues(env.Type).Inc()
	c.log.Info("payment created from order",
		zap.String("event_id", env.EventID),
		zap.String("order_id", msg.OrderID),
		zap.String("payment_id", string(payment.ID)))
	return nil
}
