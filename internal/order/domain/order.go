package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type OrderID string
type CustomerID string

func NewOrderID() OrderID {
	return OrderID(uuid.NewString())
}

func ParseOrderID(s string) (OrderID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New("order id cannot be blank")
	}
	return OrderID(s), nil
}

func ParseCustomerID(s string) (CustomerID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New("customer id cannot be blank")
	}
	return CustomerID(s), nil
}

type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "CREATED"
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// transitions is the canonical order state machine. PAID and PAYMENT_FAILED
// are reached only through payment events; CANCELLED and DELIVERED are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:        {OrderStatusPendingPayment, OrderStatusCancelled},
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusProcessing},
	OrderStatusPaymentFailed:  {OrderStatusPendingPayment, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped},
	OrderStatusShipped:        {OrderStatusDelivered},
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports a status change outside the transition table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

var (
	ErrOrderNotEditable  = errors.New("order items can only change while the order is CREATED")
	ErrItemNotFound      = errors.New("order item not found")
	ErrCurrencyMismatch  = errors.New("order items must share one currency")
	ErrUnitPriceMismatch = errors.New("unit price differs from the existing line for this sku")
)

// Order is the aggregate root for a customer's purchase.
type Order struct {
	ID         OrderID
	CustomerID CustomerID
	Status     OrderStatus
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder creates an empty CREATED order and the event recording it.
func NewOrder(id OrderID, customerID CustomerID) (*Order, OrderCreated) {
	now := time.Now().UTC()
	o := &Order{
		ID:         id,
		CustomerID: customerID,
		Status:     OrderStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return o, OrderCreated{
		Base:       events.NewBase(events.TypeOrderCreated, string(id)),
		CustomerID: customerID,
	}
}

func (o *Order) editable() bool {
	return o.Status == OrderStatusCreated
}

// Currency is the currency fixed by the first item, or "" for an empty order.
func (o *Order) Currency() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].UnitPrice.Currency()
}

// AddItem appends a line, or merges into an existing line with the same sku
// and unit price. The first item fixes the order currency.
func (o *Order) AddItem(sku ProductSKU, qty money.Quantity, unitPrice money.Money) (ItemAdded, error) {
	if !o.editable() {
		return ItemAdded{}, ErrOrderNotEditable
	}
	if err := qty.MustBePositive(); err != nil {
		return ItemAdded{}, err
	}
	if cur := o.Currency(); cur != "" && cur != unitPrice.Currency() {
		return ItemAdded{}, fmt.Errorf("%w: order is %s, item is %s", ErrCurrencyMismatch, cur, unitPrice.Currency())
	}

	if idx := o.itemIndex(sku); idx >= 0 {
		if !o.Items[idx].UnitPrice.Equal(unitPrice) {
			return ItemAdded{}, ErrUnitPriceMismatch
		}
		o.Items[idx].Quantity = o.Items[idx].Quantity.Add(qty)
	} else {
		o.Items = append(o.Items, OrderItem{SKU: sku, Quantity: qty, UnitPrice: unitPrice})
	}
	o.touch()

	return ItemAdded{
		Base:      events.NewBase(events.TypeOrderItemAdded, string(o.ID)),
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: unitPrice,
	}, nil
}

func (o *Order) UpdateItemQuantity(sku ProductSKU, qty money.Quantity) (ItemQuantityChanged, error) {
	if !o.editable() {
		return ItemQuantityChanged{}, ErrOrderNotEditable
	}
	if err := qty.MustBePositive(); err != nil {
		return ItemQuantityChanged{}, err
	}
	idx := o.itemIndex(sku)
	if idx < 0 {
		return ItemQuantityChanged{}, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	o.Items[idx].Quantity = qty
	o.touch()

	return ItemQuantityChanged{
		Base:     events.NewBase(events.TypeOrderItemQuantityChanged, string(o.ID)),
		SKU:      sku,
		Quantity: qty,
	}, nil
}

func (o *Order) RemoveItem(sku ProductSKU) (ItemRemoved, error) {
	if !o.editable() {
		return ItemRemoved{}, ErrOrderNotEditable
	}
	idx := o.itemIndex(sku)
	if idx < 0 {
		return ItemRemoved{}, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.touch()

	return ItemRemoved{
		Base: events.NewBase(events.TypeOrderItemRemoved, string(o.ID)),
		SKU:  sku,
	}, nil
}

// UpdateStatus moves the order along the transition table.
func (o *Order) UpdateStatus(to OrderStatus) (StatusChanged, error) {
	if !CanTransition(o.Status, to) {
		return StatusChanged{}, InvalidTransitionError{From: o.Status, To: to}
	}
	from := o.Status
	o.Status = to
	o.touch()

	return StatusChanged{
		Base:  events.NewBase(events.TypeOrderStatusChanged, string(o.ID)),
		From:  from,
		To:    to,
		Total: o.Total(),
	}, nil
}

// Submit freezes the item list and hands the order to payment. It produces
// the status change plus the full snapshot downstream services need.
func (o *Order) Submit() ([]events.Event, error) {
	if len(o.Items) == 0 {
		return nil, errors.New("cannot submit an empty order")
	}
	changed, err := o.UpdateStatus(OrderStatusPendingPayment)
	if err != nil {
		return nil, err
	}
	snapshot := make([]OrderItem, len(o.Items))
	copy(snapshot, o.Items)
	return []events.Event{
		changed,
		OrderSubmitted{
			Base:       events.NewBase(events.TypeOrderSubmitted, string(o.ID)),
			CustomerID: o.CustomerID,
			Items:      snapshot,
			Total:      o.Total(),
		},
	}, nil
}

func (o *Order) Cancel() (StatusChanged, error) {
	return o.UpdateStatus(OrderStatusCancelled)
}

// PaymentResult is the externally delivered payment outcome for this order.
type PaymentResult struct {
	PaymentID  string
	Successful bool
	Reason     string
}

// ApplyPaymentResult advances the order from a payment event. A result that
// was evidently already applied returns no events and no error. Orders still
// in CREATED (payment raced the submit commit) pass through PENDING_PAYMENT
// first, as do PAYMENT_FAILED orders whose payment succeeded on retry.
func (o *Order) ApplyPaymentResult(res PaymentResult) ([]events.Event, error) {
	target := OrderStatusPaid
	if !res.Successful {
		target = OrderStatusPaymentFailed
	}
	if o.Status == target {
		return nil, nil
	}

	var out []events.Event
	if o.Status == OrderStatusCreated || o.Status == OrderStatusPaymentFailed {
		changed, err := o.UpdateStatus(OrderStatusPendingPayment)
		if err != nil {
			return nil, err
		}
		out = append(out, changed)
	}
	changed, err := o.UpdateStatus(target)
	if err != nil {
		return out, err
	}
	return append(out, changed), nil
}

// Total sums item totals. The zero Money value means "no items yet".
func (o *Order) Total() money.Money {
	if len(o.Items) == 0 {
		return money.Money{}
	}
	total := o.Items[0].Total()
	for _, it := range o.Items[1:] {
		// Same-currency by the AddItem invariant.
		total, _ = total.Add(it.Total())
	}
	return total
}

func (o *Order) itemIndex(sku ProductSKU) int {
	for i, it := range o.Items {
		if it.SKU == sku {
			return i
		}
	}
	return -1
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
