package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type ProductSKU string

const SKULength = 10

func ParseProductSKU(s string) (ProductSKU, error) {
	if len(s) != SKULength {
		return "", fmt.Errorf("sku must be exactly %d characters, got %q", SKULength, s)
	}
	return ProductSKU(s), nil
}

var (
	ErrBlankName         = errors.New("product name cannot be blank")
	ErrInvalidPrice      = errors.New("product price must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is the aggregate root for one catalog entry. Stock can never go
// negative; ReserveStock fails before it would.
type Product struct {
	SKU       ProductSKU
	Name      string
	Price     money.Money
	Stock     money.Quantity
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(sku ProductSKU, name string, price money.Money, stock money.Quantity) (*Product, ProductCreated, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ProductCreated{}, ErrBlankName
	}
	if !price.IsPositive() {
		return nil, ProductCreated{}, ErrInvalidPrice
	}
	now := time.Now().UTC()
	p := &Product{
		SKU:       sku,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return p, ProductCreated{
		Base:  events.NewBase(events.TypeProductCreated, string(sku)),
		Name:  name,
		Price: price,
		Stock: stock,
	}, nil
}

func (p *Product) UpdatePrice(price money.Money) (ProductUpdated, error) {
	if !price.IsPositive() {
		return ProductUpdated{}, ErrInvalidPrice
	}
	p.Price = price
	p.touch()
	return p.updated(), nil
}

func (p *Product) Rename(name string) (ProductUpdated, error) {
	if strings.TrimSpace(name) == "" {
		return ProductUpdated{}, ErrBlankName
	}
	p.Name = name
	p.touch()
	return p.updated(), nil
}

// ReserveStock takes qty out of stock, failing before the level would go
// negative.
func (p *Product) ReserveStock(qty money.Quantity) (ProductUpdated, error) {
	if err := qty.MustBePositive(); err != nil {
		return ProductUpdated{}, err
	}
	left, err := p.Stock.Sub(qty)
	if err != nil {
		return ProductUpdated{}, fmt.Errorf("%w: %s has %s, want %s", ErrInsufficientStock, p.SKU, p.Stock, qty)
	}
	p.Stock = left
	p.touch()
	return p.updated(), nil
}

func (p *Product) Restock(qty money.Quantity) (ProductUpdated, error) {
	if err := qty.MustBePositive(); err != nil {
		return ProductUpdated{}, err
	}
	p.Stock = p.Stock.Add(qty)
	p.touch()
	return p.updated(), nil
}

func (p *Product) updated() ProductUpdated {
	return ProductUpdated{
		Base:  events.NewBase(events.TypeProductUpdated, string(p.SKU)),
		Name:  p.Name,
		Price: p.Price,
		Stock: p.Stock,
	}
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
