package app

import (
	"fmt"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// statusToWire maps the internal order machine onto the wire enum shared with
// downstream services. Every internal status must have an entry.
var statusToWire = map[domain.OrderStatus]events.OrderWireStatus{
	domain.OrderStatusCreated:        events.OrderWireNew,
	domain.OrderStatusPendingPayment: events.OrderWireSubmitted,
	domain.OrderStatusPaid:           events.OrderWireConfirmed,
	domain.OrderStatusProcessing:     events.OrderWireConfirmed,
	domain.OrderStatusShipped:        events.OrderWireConfirmed,
	domain.OrderStatusDelivered:      events.OrderWireConfirmed,
	domain.OrderStatusPaymentFailed:  events.OrderWireRejected,
	domain.OrderStatusCancelled:      events.OrderWireRolledBack,
}

// NewTranslator builds the order service's event registry, covering every
// event type the Order aggregate can raise.
func NewTranslator() *events.Registry {
	reg := events.NewRegistry()

	reg.Register(events.TypeOrderCreated, func(ev events.Event) (events.WireMessage, error) {
		created, err := as[domain.OrderCreated](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderCreatedMessage{
			OrderID:    ev.AggregateID(),
			CustomerID: string(created.CustomerID),
			Status:     events.OrderWireNew,
			Total:      wireAmount(money.Money{}),
			CreatedAt:  events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeOrderSubmitted, func(ev events.Event) (events.WireMessage, error) {
		submitted, err := as[domain.OrderSubmitted](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderCreatedMessage{
			OrderID:    ev.AggregateID(),
			CustomerID: string(submitted.CustomerID),
			Status:     events.OrderWireSubmitted,
			Total:      wireAmount(submitted.Total),
			Items:      wireItems(submitted.Items),
			CreatedAt:  events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeOrderStatusChanged, func(ev events.Event) (events.WireMessage, error) {
		changed, err := as[domain.StatusChanged](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		status, ok := statusToWire[changed.To]
		if !ok {
			return events.WireMessage{}, fmt.Errorf("no wire mapping for order status %s", changed.To)
		}
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderUpdatedMessage{
			OrderID:   ev.AggregateID(),
			Status:    status,
			Total:     wireAmount(changed.Total),
			UpdatedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeOrderItemAdded, func(ev events.Event) (events.WireMessage, error) {
		added, err := as[domain.ItemAdded](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		price := wireAmount(added.UnitPrice)
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderItemChangeMessage{
			OrderID:   ev.AggregateID(),
			Change:    events.ItemChangeAdded,
			SKU:       string(added.SKU),
			Quantity:  added.Quantity.String(),
			UnitPrice: &price,
			ChangedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeOrderItemQuantityChanged, func(ev events.Event) (events.WireMessage, error) {
		changed, err := as[domain.ItemQuantityChanged](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderItemChangeMessage{
			OrderID:   ev.AggregateID(),
			Change:    events.ItemChangeQuantityChanged,
			SKU:       string(changed.SKU),
			Quantity:  changed.Quantity.String(),
			ChangedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeOrderItemRemoved, func(ev events.Event) (events.WireMessage, error) {
		removed, err := as[domain.ItemRemoved](ev)
		if err != nil {
			return events.WireMessage{}, err
		}
		return events.Wrap(ev, events.TopicOrders, ev.AggregateID(), events.OrderItemChangeMessage{
			OrderID:   ev.AggregateID(),
			Change:    events.ItemChangeRemoved,
			SKU:       string(removed.SKU),
			ChangedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.MustCover(
		events.TypeOrderCreated,
		events.TypeOrderSubmitted,
		events.TypeOrderStatusChanged,
		events.TypeOrderItemAdded,
		events.TypeOrderItemQuantityChanged,
		events.TypeOrderItemRemoved,
	)
	return reg
}

func as[T events.Event](ev events.Event) (T, error) {
	typed, ok := ev.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("event %s has unexpected payload type %T", ev.EventType(), ev)
	}
	return typed, nil
}

func wireAmount(m money.Money) events.Amount {
	return events.Amount{Value: m.Amount().String(), Currency: m.Currency()}
}

func wireItems(items []domain.OrderItem) []events.LineItem {
	out := make([]events.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, events.LineItem{
			SKU:       string(it.SKU),
			Quantity:  it.Quantity.String(),
			UnitPrice: wireAmount(it.UnitPrice),
		})
	}
	return out
}
