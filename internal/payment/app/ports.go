package app

import (
	"context"
	"errors"

	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicatePayment = errors.New("a payment already exists for this order")
)

// PaymentRepository persists payment aggregates together with their
// translated outbox rows in one transaction. Create must surface
// ErrDuplicatePayment when the order already has a payment.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, id domain.PaymentID) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	ExistsByOrderID(ctx context.Context, orderID string) (bool, error)

	// Update loads the payment with a row lock, applies mutate, and persists
	// the result plus the events mutate returned.
	Update(ctx context.Context, id domain.PaymentID, mutate func(*domain.Payment) ([]events.Event, error)) error
}
