package events

import (
	"encoding/json"
	"time"
)

// Envelope is the on-wire frame around every published event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	OccurredAt Timestamp       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Timestamp is a wall-clock instant as seconds + nanos since the epoch.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Amount is a decimal amount paired with its ISO-4217 currency.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// LineItem is one order or cart line on the wire.
type LineItem struct {
	SKU       string `json:"sku"`
	Quantity  string `json:"quantity"`
	UnitPrice Amount `json:"unit_price"`
}

// OrderWireStatus is the order lifecycle as downstream services see it.
// It is deliberately not the internal order status enum.
type OrderWireStatus string

const (
	OrderWireNew        OrderWireStatus = "NEW"
	OrderWireSubmitted  OrderWireStatus = "SUBMITTED"
	OrderWireConfirmed  OrderWireStatus = "CONFIRMED"
	OrderWireRejected   OrderWireStatus = "REJECTED"
	OrderWireRolledBack OrderWireStatus = "ROLLED_BACK"
)

// PaymentWireStatus is the payment outcome enum on the wire.
type PaymentWireStatus string

const (
	PaymentWireSuccessful PaymentWireStatus = "SUCCESSFUL"
	PaymentWireFailed     PaymentWireStatus = "FAILED"
	PaymentWireCancelled  PaymentWireStatus = "CANCELLED"
)

type OrderCreatedMessage struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Status     OrderWireStatus `json:"status"`
	Total      Amount          `json:"total"`
	Items      []LineItem      `json:"items"`
	CreatedAt  Timestamp       `json:"created_at"`
}

type OrderUpdatedMessage struct {
	OrderID   string          `json:"order_id"`
	Status    OrderWireStatus `json:"status"`
	Total     Amount          `json:"total"`
	UpdatedAt Timestamp       `json:"updated_at"`
}

// ItemChange discriminates the order line mutations on the wire.
type ItemChange string

const (
	ItemChangeAdded           ItemChange = "ADDED"
	ItemChangeQuantityChanged ItemChange = "QUANTITY_CHANGED"
	ItemChangeRemoved         ItemChange = "REMOVED"
)

type OrderItemChangeMessage struct {
	OrderID   string     `json:"order_id"`
	Change    ItemChange `json:"change"`
	SKU       string     `json:"sku"`
	Quantity  string     `json:"quantity,omitempty"`
	UnitPrice *Amount    `json:"unit_price,omitempty"`
	ChangedAt Timestamp  `json:"changed_at"`
}

type OrderPaymentMessage struct {
	PaymentID   string            `json:"payment_id"`
	OrderID     string            `json:"order_id"`
	Status      PaymentWireStatus `json:"status"`
	Amount      Amount            `json:"amount"`
	Reason      string            `json:"reason,omitempty"`
	ProcessedAt Timestamp         `json:"processed_at"`
}

type CartCheckedOutMessage struct {
	CartID       string     `json:"cart_id"`
	CustomerID   string     `json:"customer_id"`
	Items        []LineItem `json:"items"`
	Total        Amount     `json:"total"`
	CheckedOutAt Timestamp  `json:"checked_out_at"`
}

type ProductCreatedMessage struct {
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     Amount    `json:"price"`
	Stock     string    `json:"stock"`
	CreatedAt Timestamp `json:"created_at"`
}

type ProductUpdatedMessage struct {
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     Amount    `json:"price"`
	Stock     string    `json:"stock"`
	UpdatedAt Timestamp `json:"updated_at"`
}
