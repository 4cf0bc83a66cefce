package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type Service struct {
	repo ProductRepository
	log  *zap.Logger
}

func NewService(repo ProductRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, sku domain.ProductSKU, name string, price money.Money, stock money.Quantity) (*domain.Product, error) {
	product, created, err := domain.NewProduct(sku, name, price, stock)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product, created); err != nil {
		return nil, err
	}
	s.log.Info("product created",
		zap.String("sku", string(sku)),
		zap.String("name", name))
	return product, nil
}

func (s *Service) UpdatePrice(ctx context.Context, sku domain.ProductSKU, price money.Money) error {
	return s.mutate(ctx, sku, func(p *domain.Product) (domain.ProductUpdated, error) {
		return p.UpdatePrice(price)
	})
}

func (s *Service) Rename(ctx context.Context, sku domain.ProductSKU, name string) error {
	return s.mutate(ctx, sku, func(p *domain.Product) (domain.ProductUpdated, error) {
		return p.Rename(name)
	})
}

func (s *Service) ReserveStock(ctx context.Context, sku domain.ProductSKU, qty money.Quantity) error {
	return s.mutate(ctx, sku, func(p *domain.Product) (domain.ProductUpdated, error) {
		return p.ReserveStock(qty)
	})
}

func (s *Service) Restock(ctx context.Context, sku domain.ProductSKU, qty money.Quantity) error {
	return s.mutate(ctx, sku, func(p *domain.Product) (domain.ProductUpdated, error) {
		return p.Restock(qty)
	})
}

func (s *Service) Get(ctx context.Context, sku domain.ProductSKU) (*domain.Product, error) {
	return s.repo.Get(ctx, sku)
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) mutate(ctx context.Context, sku domain.ProductSKU, fn func(*domain.Product) (domain.ProductUpdated, error)) error {
	return s.repo.Update(ctx, sku, func(p *domain.Product) ([]events.Event, error) {
		ev, err := fn(p)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}
