package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/metrics"
	"github.com/metao1/online-store-go/pkg/money"
)

type memoryLedger struct {
	seen map[string]bool
}

func (l *memoryLedger) MarkProcessed(_ context.Context, key string) (bool, error) {
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

var consumerMetrics = metrics.NewConsumerMetrics("order_service_test")

func testConsumer(t *testing.T) (*Consumer, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())
	return NewConsumer(svc, &memoryLedger{}, consumerMetrics, zap.NewNop()), repo
}

func paymentEnvelope(t *testing.T, paymentID, orderID string, status events.PaymentWireStatus) events.Envelope {
	t.Helper()
	payload, err := json.Marshal(events.OrderPaymentMessage{
		PaymentID: paymentID,
		OrderID:   orderID,
		Status:    status,
		Amount:    events.Amount{Value: "20.00", Currency: "USD"},
	})
	require.NoError(t, err)
	eventType := events.TypePaymentProcessed
	if status == events.PaymentWireFailed {
		eventType = events.TypePaymentFailed
	}
	base := events.NewBase(eventType, orderID)
	return events.Envelope{
		EventID:    base.EventID(),
		Type:       eventType,
		OccurredAt: events.NewTimestamp(base.OccurredAt()),
		Payload:    payload,
	}
}

func submittedOrder(t *testing.T, repo *fakeRepo) *domain.Order {
	t.Helper()
	svc := NewService(repo, zap.NewNop())
	qty, _ := money.QuantityFromInt(2)
	price, _ := money.Parse("10.00", "USD")
	order, err := svc.CreateFromCheckout(context.Background(), "C1",
		[]CheckoutItem{{SKU: "BOOK000001", Quantity: qty, UnitPrice: price}})
	require.NoError(t, err)
	return order
}

func TestHandlePaymentEventAppliesOnce(t *testing.T) {
	consumer, repo := testConsumer(t)
	order := submittedOrder(t, repo)

	env := paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireSuccessful)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), env))
	assert.Equal(t, domain.OrderStatusPaid, repo.orders[order.ID].Status)
	eventsAfterFirst := len(repo.events)

	// Exact redelivery: same envelope, same event id.
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), env))
	assert.Len(t, repo.events, eventsAfterFirst, "duplicate delivery must not produce events")

	// Gateway retry with a fresh event id but the same payment id.
	env2 := paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireSuccessful)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), env2))
	assert.Len(t, repo.events, eventsAfterFirst)
}

func TestHandlePaymentEventRetriedSuccessAfterFailure(t *testing.T) {
	consumer, repo := testConsumer(t)
	order := submittedOrder(t, repo)

	failed := paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireFailed)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), failed))
	assert.Equal(t, domain.OrderStatusPaymentFailed, repo.orders[order.ID].Status)

	// The gateway retried the same payment and it went through.
	succeeded := paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireSuccessful)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), succeeded))
	assert.Equal(t, domain.OrderStatusPaid, repo.orders[order.ID].Status,
		"retried payment success must move the order to PAID")

	// A redelivered copy of either outcome stays a duplicate.
	eventsAfter := len(repo.events)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireSuccessful)))
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireFailed)))
	assert.Len(t, repo.events, eventsAfter)
	assert.Equal(t, domain.OrderStatusPaid, repo.orders[order.ID].Status)
}

func TestHandlePaymentEventFailure(t *testing.T) {
	consumer, repo := testConsumer(t)
	order := submittedOrder(t, repo)

	env := paymentEnvelope(t, "pay-1", string(order.ID), events.PaymentWireFailed)
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), env))
	assert.Equal(t, domain.OrderStatusPaymentFailed, repo.orders[order.ID].Status)
}

func TestHandlePaymentEventIgnoresOtherTypes(t *testing.T) {
	consumer, repo := testConsumer(t)
	env := events.Envelope{EventID: "x", Type: events.TypeProductUpdated}
	require.NoError(t, consumer.HandlePaymentEvent(context.Background(), env))
	assert.Empty(t, repo.events)
}

func TestHandleCartEventCreatesSubmittedOrder(t *testing.T) {
	consumer, repo := testConsumer(t)

	payload, err := json.Marshal(events.CartCheckedOutMessage{
		CartID:     "cart-1",
		CustomerID: "C1",
		Items: []events.LineItem{{
			SKU:       "BOOK000001",
			Quantity:  "2",
			UnitPrice: events.Amount{Value: "10.00", Currency: "USD"},
		}},
		Total: events.Amount{Value: "20.00", Currency: "USD"},
	})
	require.NoError(t, err)
	env := events.Envelope{EventID: "evt-cart-1", Type: events.TypeCartCheckedOut, Payload: payload}

	require.NoError(t, consumer.HandleCartEvent(context.Background(), env))
	require.Len(t, repo.orders, 1)
	for _, o := range repo.orders {
		assert.Equal(t, domain.OrderStatusPendingPayment, o.Status)
	}

	// Redelivery creates no second order.
	require.NoError(t, consumer.HandleCartEvent(context.Background(), env))
	assert.Len(t, repo.orders, 1)
}
