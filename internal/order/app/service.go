package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// Service orchestrates order operations: load, mutate, persist, hand the
// produced events to the repository's unit of work.
type Service struct {
	repo OrderRepository
	log  *zap.Logger
}

func NewService(repo OrderRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateOrder creates an empty order. A non-empty idemKey makes the call
// retry-safe: a repeated key returns the order the first call created.
func (s *Service) CreateOrder(ctx context.Context, customerID domain.CustomerID, idemKey string) (*domain.Order, error) {
	if idemKey != "" {
		if id, err := s.repo.FindByIdempotencyKey(ctx, idemKey); err == nil {
			return s.repo.Get(ctx, id)
		} else if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}

	order, created := domain.NewOrder(domain.NewOrderID(), customerID)
	err := s.repo.Create(ctx, order, []events.Event{created}, idemKey)
	if errors.Is(err, ErrIdempotencyRace) {
		id, lookupErr := s.repo.FindByIdempotencyKey(ctx, idemKey)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return s.repo.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("order created",
		zap.String("order_id", string(order.ID)),
		zap.String("customer_id", string(customerID)))
	return order, nil
}

// CheckoutItem is one line of a cart snapshot to turn into an order.
type CheckoutItem struct {
	SKU       domain.ProductSKU
	Quantity  money.Quantity
	UnitPrice money.Money
}

// CreateFromCheckout builds a submitted order out of a cart snapshot in one
// unit of work: creation, the item lines, and the hand-off to payment.
func (s *Service) CreateFromCheckout(ctx context.Context, customerID domain.CustomerID, items []CheckoutItem) (*domain.Order, error) {
	order, created := domain.NewOrder(domain.NewOrderID(), customerID)
	evs := []events.Event{created}

	for _, item := range items {
		added, err := order.AddItem(item.SKU, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, err
		}
		evs = append(evs, added)
	}

	submitted, err := order.Submit()
	if err != nil {
		return nil, err
	}
	evs = append(evs, submitted...)

	if err := s.repo.Create(ctx, order, evs, ""); err != nil {
		return nil, err
	}
	s.log.Info("order created from checkout",
		zap.String("order_id", string(order.ID)),
		zap.String("customer_id", string(customerID)),
		zap.Int("items", len(items)))
	return order, nil
}

func (s *Service) AddItem(ctx context.Context, id domain.OrderID, sku domain.ProductSKU, qty money.Quantity, unitPrice money.Money) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		ev, err := o.AddItem(sku, qty, unitPrice)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

func (s *Service) UpdateItemQuantity(ctx context.Context, id domain.OrderID, sku domain.ProductSKU, qty money.Quantity) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		ev, err := o.UpdateItemQuantity(sku, qty)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, id domain.OrderID, sku domain.ProductSKU) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		ev, err := o.RemoveItem(sku)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

func (s *Service) Submit(ctx context.Context, id domain.OrderID) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		return o.Submit()
	})
}

func (s *Service) Cancel(ctx context.Context, id domain.OrderID) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		ev, err := o.Cancel()
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

// UpdateStatus serves client-driven status changes. PAID and PAYMENT_FAILED
// are off limits here; they are reachable only through ApplyPaymentResult.
func (s *Service) UpdateStatus(ctx context.Context, id domain.OrderID, to domain.OrderStatus) error {
	if to == domain.OrderStatusPaid || to == domain.OrderStatusPaymentFailed {
		return ErrPaymentOutcomeReserved
	}
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		ev, err := o.UpdateStatus(to)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

// ApplyPaymentResult advances the order from an externally delivered payment
// outcome. The repository's locking read serializes racing payment events.
func (s *Service) ApplyPaymentResult(ctx context.Context, id domain.OrderID, res domain.PaymentResult) error {
	return s.repo.Update(ctx, id, func(o *domain.Order) ([]events.Event, error) {
		return o.ApplyPaymentResult(res)
	})
}

func (s *Service) Get(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID domain.CustomerID) ([]*domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
