package domain

import (
	"fmt"

	"github.com/metao1/online-store-go/pkg/money"
)

// SKULength is the fixed product sku length across the store.
const SKULength = 10

type ProductSKU string

func ParseProductSKU(s string) (ProductSKU, error) {
	if len(s) != SKULength {
		return "", fmt.Errorf("product sku must be exactly %d characters, got %q", SKULength, s)
	}
	return ProductSKU(s), nil
}

// OrderItem is one line of an order, owned exclusively by it.
type OrderItem struct {
	SKU       ProductSKU
	Quantity  money.Quantity
	UnitPrice money.Money
}

func (i OrderItem) Total() money.Money {
	return i.UnitPrice.Mul(i.Quantity)
}
