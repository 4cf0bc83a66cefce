package domain

import (
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// CartCheckedOut carries the full item snapshot so the order service never
// has to read the cart back.
type CartCheckedOut struct {
	events.Base
	CustomerID CustomerID
	Items      []CartItem
	Total      money.Money
}
