package app

import (
	"fmt"

	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// NewTranslator builds the payment service's event registry. Payment events
// all map to the order-payment wire shape, keyed by order id so the order
// service sees one payment stream per order partition.
func NewTranslator() *events.Registry {
	reg := events.NewRegistry()

	reg.Register(events.TypePaymentProcessed, func(ev events.Event) (events.WireMessage, error) {
		processed, err := as[domain.PaymentProcessed](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return wrapPayment(ev, processed.OrderID, events.PaymentWireSuccessful, processed.Amount, "")
	})

	reg.Register(events.TypePaymentFailed, func(ev events.Event) (events.WireMessage, error) {
		failed, err := as[domain.PaymentFailed](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return wrapPayment(ev, failed.OrderID, events.PaymentWireFailed, failed.Amount, failed.Reason)
	})

	reg.Register(events.TypePaymentCancelled, func(ev events.Event) (events.WireMessage, error) {
		cancelled, err := as[domain.PaymentCancelled](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return wrapPayment(ev, cancelled.OrderID, events.PaymentWireCancelled, cancelled.Amount, "")
	})

	reg.MustCover(
		events.TypePaymentProcessed,
		events.TypePaymentFailed,
		events.TypePaymentCancelled,
	)
	return reg
}

func wrapPayment(ev events.Event, orderID string, status events.PaymentWireStatus, amount money.Money, reason string) (events.WireMessage, error) {
	return events.Wrap(ev, events.TopicOrderPayments, orderID, events.OrderPaymentMessage{
		PaymentID:   ev.AggregateID(),
		OrderID:     orderID,
		Status:      status,
		Amount:      events.Amount{Value: amount.Amount().String(), Currency: amount.Currency()},
		Reason:      reason,
		ProcessedAt: events.NewTimestamp(ev.OccurredAt()),
	})
}

func as[T events.Event](ev events.Event) (T, error) {
	typed, ok := ev.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("event %s has unexpected payload type %T", ev.EventType(), ev)
	}
	return typed, nil
}
