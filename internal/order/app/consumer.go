package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/inbox"
	"github.com/metao1/online-store-go/pkg/metrics"
	"github.com/metao1/online-store-go/pkg/money"
)

// Consumer applies externally delivered events to the order service. Each
// handler gates on the processed-event ledger before touching business state,
// so duplicate deliveries acknowledge without a second application.
type Consumer struct {
	svc     *Service
	ledger  inbox.Ledger
	metrics *metrics.ConsumerMetrics
	log     *zap.Logger
}

func NewConsumer(svc *Service, ledger inbox.Ledger, m *metrics.ConsumerMetrics, log *zap.Logger) *Consumer {
	return &Consumer{svc: svc, ledger: ledger, metrics: m, log: log}
}

// HandlePaymentEvent consumes payment outcomes. The idempotency key is the
// payment id plus the outcome: a redelivery that minted a fresh event id for
// the same outcome still counts as a duplicate, while a payment that failed
// and later succeeded on retry carries a new key and is applied.
func (c *Consumer) HandlePaymentEvent(ctx context.Context, env events.Envelope) error {
	if env.Type != events.TypePaymentProcessed && env.Type != events.TypePaymentFailed {
		return nil
	}

	var msg events.OrderPaymentMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return fmt.Errorf("decode order-payment payload: %w", err)
	}

	first, err := c.ledger.MarkProcessed(ctx, "payment:"+msg.PaymentID+":"+string(msg.Status))
	if err != nil {
		return err
	}
	if !first {
		c.metrics.Duplicates.WithLabelValues(env.Type).Inc()
		c.log.Info("duplicate payment event skipped",
			zap.String("event_id", env.EventID),
			zap.String("payment_id", msg.PaymentID))
		return nil
	}

	orderID, err := domain.ParseOrderID(msg.OrderID)
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}
	res := domain.PaymentResult{
		PaymentID:  msg.PaymentID,
		Successful: msg.Status == events.PaymentWireSuccessful,
		Reason:     msg.Reason,
	}
	if err := c.svc.ApplyPaymentResult(ctx, orderID, res); err != nil {
		// The ledger entry stays: business failures are not re-applied here,
		// redelivery is the broker retry/DLT path's job.
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	c.metrics.Processed.WithLabelValues(env.Type).Inc()
	c.log.Info("payment result applied",
		zap.String("event_id", env.EventID),
		zap.String("order_id", msg.OrderID),
		zap.String("payment_id", msg.PaymentID),
		zap.String("status", string(msg.Status)))
	return nil
}

// HandleCartEvent turns a checked-out cart into a submitted order.
func (c *Consumer) HandleCartEvent(ctx context.Context, env events.Envelope) error {
	if env.Type != events.TypeCartCheckedOut {
		return nil
	}

	var msg events.CartCheckedOutMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return fmt.Errorf("decode cart-checked-out payload: %w", err)
	}

	first, err := c.ledger.MarkProcessed(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		c.metrics.Duplicates.WithLabelValues(env.Type).Inc()
		return nil
	}

	customerID, err := domain.ParseCustomerID(msg.CustomerID)
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}
	items, err := checkoutItems(msg.Items)
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	order, err := c.svc.CreateFromCheckout(ctx, customerID, items)
	if err != nil {
		c.metrics.Failures.WithLabelValues(env.Type).Inc()
		return err
	}

	c.metrics.Processed.WithLabelValues(env.Type).Inc()
	c.log.Info("order created from cart",
		zap.String("event_id", env.EventID),
		zap.String("cart_id", msg.CartID),
		zap.String("order_id", string(order.ID)))
	return nil
}

func checkoutItems(lines []events.LineItem) ([]CheckoutItem, error) {
	out := make([]CheckoutItem, 0, len(lines))
	for _, line := range lines {
		sku, err := domain.ParseProductSKU(line.SKU)
		if err != nil {
			return nil, err
		}
		qty, err := money.ParseQuantity(line.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := money.Parse(line.UnitPrice.Value, line.UnitPrice.Currency)
		if err != nil {
			return nil, err
		}
		out = append(out, CheckoutItem{SKU: sku, Quantity: qty, UnitPrice: price})
	}
	return out, nil
}
