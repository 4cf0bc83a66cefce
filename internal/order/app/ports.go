package app

import (
	"context"
	"errors"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrIdempotencyRace means another request with the same Idempotency-Key
	// committed first; the caller should return that request's order.
	ErrIdempotencyRace = errors.New("idempotency race")

	// ErrPaymentOutcomeReserved rejects client attempts to set PAID or
	// PAYMENT_FAILED; those statuses come only from payment events.
	ErrPaymentOutcomeReserved = errors.New("payment outcome statuses are set from payment events")
)

// OrderRepository persists the aggregate and its produced events as one unit
// of work: implementations write the aggregate rows and the translated outbox
// rows in a single transaction. A non-empty idemKey is recorded in the same
// transaction so a retried creation maps back to the first order.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, evs []events.Event, idemKey string) error
	Get(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID domain.CustomerID) ([]*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (domain.OrderID, error)

	// Update loads the order with a row lock, applies mutate, and persists the
	// result plus the events mutate returned, all inside one transaction.
	Update(ctx context.Context, id domain.OrderID, mutate func(*domain.Order) ([]events.Event, error)) error
}
