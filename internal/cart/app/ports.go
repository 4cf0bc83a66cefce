package app

import (
	"context"
	"errors"

	"github.com/metao1/online-store-go/internal/cart/domain"
	"github.com/metao1/online-store-go/pkg/events"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists cart aggregates. GetActiveByCustomer returns the
// customer's single ACTIVE cart; Update persists the mutated cart and the
// translated outbox rows in one transaction.
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	Get(ctx context.Context, id domain.CartID) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error)
	Update(ctx context.Context, id domain.CartID, mutate func(*domain.Cart) ([]events.Event, error)) error
}
