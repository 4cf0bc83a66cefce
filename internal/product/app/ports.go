package app

import (
	"context"
	"errors"

	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/events"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("a product with this sku already exists")
)

// ProductRepository persists products and their events as one unit of work.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, ev events.Event) error
	Get(ctx context.Context, sku domain.ProductSKU) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, sku domain.ProductSKU, mutate func(*domain.Product) ([]events.Event, error)) error
}
