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

type CartID string
type CustomerID string
type ProductSKU string

const SKULength = 10

func NewCartID() CartID {
	return CartID(uuid.NewString())
}

func ParseCustomerID(s string) (CustomerID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New("customer id cannot be blank")
	}
	return CustomerID(s), nil
}

func ParseProductSKU(s string) (ProductSKU, error) {
	if len(s) != SKULength {
		return "", fmt.Errorf("sku must be exactly %d characters, got %q", SKULength, s)
	}
	return ProductSKU(s), nil
}

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

var (
	ErrCartNotEditable   = errors.New("cart is already checked out")
	ErrEmptyCart         = errors.New("cannot check out an empty cart")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrCurrencyMismatch  = errors.New("cart items must share one currency")
	ErrUnitPriceMismatch = errors.New("unit price differs from the existing line for this sku")
)

type CartItem struct {
	SKU       ProductSKU
	Quantity  money.Quantity
	UnitPrice money.Money
}

func (it CartItem) Total() money.Money {
	return it.UnitPrice.Mul(it.Quantity)
}

// Cart is the aggregate root for a customer's pre-order item selection. Cart
// mutations raise no events; the only published fact is the checkout snapshot.
type Cart struct {
	ID         CartID
	CustomerID CustomerID
	Status     CartStatus
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewCart(id CartID, customerID CustomerID) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:         id,
		CustomerID: customerID,
		Status:     CartStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Currency is the currency fixed by the first item, or "" for an empty cart.
func (c *Cart) Currency() string {
	if len(c.Items) == 0 {
		return ""
	}
	return c.Items[0].UnitPrice.Currency()
}

// AddItem appends a line, or merges into an existing line with the same sku
// and unit price. The first item fixes the cart currency.
func (c *Cart) AddItem(sku ProductSKU, qty money.Quantity, unitPrice money.Money) error {
	if c.Status != CartStatusActive {
		return ErrCartNotEditable
	}
	if err := qty.MustBePositive(); err != nil {
		return err
	}
	if cur := c.Currency(); cur != "" && cur != unitPrice.Currency() {
		return fmt.Errorf("%w: cart is %s, item is %s", ErrCurrencyMismatch, cur, unitPrice.Currency())
	}

	if idx := c.itemIndex(sku); idx >= 0 {
		if !c.Items[idx].UnitPrice.Equal(unitPrice) {
			return ErrUnitPriceMismatch
		}
		c.Items[idx].Quantity = c.Items[idx].Quantity.Add(qty)
	} else {
		c.Items = append(c.Items, CartItem{SKU: sku, Quantity: qty, UnitPrice: unitPrice})
	}
	c.touch()
	return nil
}

func (c *Cart) UpdateItemQuantity(sku ProductSKU, qty money.Quantity) error {
	if c.Status != CartStatusActive {
		return ErrCartNotEditable
	}
	if err := qty.MustBePositive(); err != nil {
		return err
	}
	idx := c.itemIndex(sku)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	c.Items[idx].Quantity = qty
	c.touch()
	return nil
}

func (c *Cart) RemoveItem(sku ProductSKU) error {
	if c.Status != CartStatusActive {
		return ErrCartNotEditable
	}
	idx := c.itemIndex(sku)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.touch()
	return nil
}

func (c *Cart) Clear() error {
	if c.Status != CartStatusActive {
		return ErrCartNotEditable
	}
	c.Items = nil
	c.touch()
	return nil
}

// Checkout freezes the cart and produces the snapshot the order service
// builds the order from.
func (c *Cart) Checkout() (CartCheckedOut, error) {
	if c.Status != CartStatusActive {
		return CartCheckedOut{}, ErrCartNotEditable
	}
	if len(c.Items) == 0 {
		return CartCheckedOut{}, ErrEmptyCart
	}
	c.Status = CartStatusCheckedOut
	c.touch()

	snapshot := make([]CartItem, len(c.Items))
	copy(snapshot, c.Items)
	return CartCheckedOut{
		Base:       events.NewBase(events.TypeCartCheckedOut, string(c.ID)),
		CustomerID: c.CustomerID,
		Items:      snapshot,
		Total:      c.Total(),
	}, nil
}

// Total sums item totals. The zero Money value means "no items yet".
func (c *Cart) Total() money.Money {
	if len(c.Items) == 0 {
		return money.Money{}
	}
	total := c.Items[0].Total()
	for _, it := range c.Items[1:] {
		// Same-currency by the AddItem invariant.
		total, _ = total.Add(it.Total())
	}
	return total
}

func (c *Cart) itemIndex(sku ProductSKU) int {
	for i, it := range c.Items {
		if it.SKU == sku {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
