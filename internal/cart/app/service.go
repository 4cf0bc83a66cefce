package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/cart/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// Service orchestrates cart operations. Item mutations go to the customer's
// ACTIVE cart, which is created lazily on the first add.
type Service struct {
	repo CartRepository
	log  *zap.Logger
}

func NewService(repo CartRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// AddItem puts an item in the customer's active cart, creating the cart when
// none exists yet.
func (s *Service) AddItem(ctx context.Context, customerID domain.CustomerID, sku domain.ProductSKU, qty money.Quantity, unitPrice money.Money) (*domain.Cart, error) {
	cart, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if errors.Is(err, ErrCartNotFound) {
		cart = domain.NewCart(domain.NewCartID(), customerID)
		if err := cart.AddItem(sku, qty, unitPrice); err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, cart); err != nil {
			return nil, err
		}
		s.log.Info("cart created",
			zap.String("cart_id", string(cart.ID)),
			zap.String("customer_id", string(customerID)))
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, cart.ID, func(c *domain.Cart) error {
		return c.AddItem(sku, qty, unitPrice)
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cart.ID)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, customerID domain.CustomerID, sku domain.ProductSKU, qty money.Quantity) error {
	cart, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, cart.ID, func(c *domain.Cart) error {
		return c.UpdateItemQuantity(sku, qty)
	})
}

func (s *Service) RemoveItem(ctx context.Context, customerID domain.CustomerID, sku domain.ProductSKU) error {
	cart, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, cart.ID, func(c *domain.Cart) error {
		return c.RemoveItem(sku)
	})
}

func (s *Service) Clear(ctx context.Context, customerID domain.CustomerID) error {
	cart, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, cart.ID, func(c *domain.Cart) error {
		return c.Clear()
	})
}

// Checkout freezes the active cart and publishes the snapshot the order
// service builds the order from.
func (s *Service) Checkout(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	cart, err := s.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	err = s.repo.Update(ctx, cart.ID, func(c *domain.Cart) ([]events.Event, error) {
		ev, err := c.Checkout()
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("cart checked out",
		zap.String("cart_id", string(cart.ID)),
		zap.String("customer_id", string(customerID)))
	return s.repo.Get(ctx, cart.ID)
}

func (s *Service) GetActive(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	return s.repo.GetActiveByCustomer(ctx, customerID)
}

func (s *Service) mutate(ctx context.Context, id domain.CartID, fn func(*domain.Cart) error) error {
	return s.repo.Update(ctx, id, func(c *domain.Cart) ([]events.Event, error) {
		return nil, fn(c)
	})
}
