package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a state change on an aggregate.
type Event interface {
	EventID() string
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Base carries the fields every domain event shares. Embed it and
// construct it with NewBase at mutation time.
type Base struct {
	ID        string
	Type      string
	Aggregate string
	At        time.Time
}

func NewBase(eventType, aggregateID string) Base {
	return Base{
		ID:        uuid.NewString(),
		Type:      eventType,
		Aggregate: aggregateID,
		At:        time.Now().UTC(),
	}
}

func (b Base) EventID() string       { return b.ID }
func (b Base) EventType() string     { return b.Type }
func (b Base) AggregateID() string   { return b.Aggregate }
func (b Base) OccurredAt() time.Time { return b.At }

// Event types. Dotted names double as the routing discriminator on the wire.
const (
	TypeOrderCreated             = "order.created"
	TypeOrderItemAdded           = "order.item-added"
	TypeOrderItemQuantityChanged = "order.item-quantity-changed"
	TypeOrderItemRemoved         = "order.item-removed"
	TypeOrderSubmitted           = "order.submitted"
	TypeOrderStatusChanged       = "order.status-changed"

	TypePaymentProcessed = "payment.processed"
	TypePaymentFailed    = "payment.failed"
	TypePaymentCancelled = "payment.cancelled"

	TypeCartCheckedOut = "cart.checked-out"

	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
)

// Topics. One topic per aggregate stream; messages are keyed by aggregate id
// so a single order's events stay on one partition.
const (
	TopicOrders        = "store.orders"
	TopicOrderPayments = "store.order-payments"
	TopicCarts         = "store.carts"
	TopicProducts      = "store.products"
)
