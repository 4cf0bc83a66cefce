package domain

import (
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type OrderCreated struct {
	events.Base
	CustomerID CustomerID
}

type ItemAdded struct {
	events.Base
	SKU       ProductSKU
	Quantity  money.Quantity
	UnitPrice money.Money
}

type ItemQuantityChanged struct {
	events.Base
	SKU      ProductSKU
	Quantity money.Quantity
}

type ItemRemoved struct {
	events.Base
	SKU ProductSKU
}

type StatusChanged struct {
	events.Base
	From  OrderStatus
	To    OrderStatus
	Total money.Money
}

// OrderSubmitted carries the frozen item snapshot handed to payment.
type OrderSubmitted struct {
	events.Base
	CustomerID CustomerID
	Items      []OrderItem
	Total      money.Money
}
