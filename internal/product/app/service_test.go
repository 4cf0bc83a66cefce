package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type fakeRepo struct {
	products map[domain.ProductSKU]*domain.Product
	events   []events.Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: map[domain.ProductSKU]*domain.Product{}}
}

func (r *fakeRepo) Create(_ context.Context, product *domain.Product, ev events.Event) error {
	if _, ok := r.products[product.SKU]; ok {
		return ErrDuplicateSKU
	}
	cp := *product
	r.products[product.SKU] = &cp
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) Get(_ context.Context, sku domain.ProductSKU) (*domain.Product, error) {
	p, ok := r.products[sku]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, sku domain.ProductSKU, mutate func(*domain.Product) ([]events.Event, error)) error {
	p, ok := r.products[sku]
	if !ok {
		return ErrProductNotFound
	}
	evs, err := mutate(p)
	if err != nil {
		return err
	}
	r.events = append(r.events, evs...)
	return nil
}

func testService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, zap.NewNop()), repo
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "USD")
	require.NoError(t, err)
	return m
}

func qty(t *testing.T, n int64) money.Quantity {
	t.Helper()
	q, err := money.QuantityFromInt(n)
	require.NoError(t, err)
	return q
}

func TestCreateProduct(t *testing.T) {
	svc, repo := testService()

	p, err := svc.Create(context.Background(), "BOOK000001", "Book", usd(t, "39.99"), qty(t, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.ProductSKU("BOOK000001"), p.SKU)
	require.Len(t, repo.events, 1)
	assert.Equal(t, events.TypeProductCreated, repo.events[0].EventType())

	_, err = svc.Create(context.Background(), "BOOK000001", "Book", usd(t, "39.99"), qty(t, 10))
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestReserveAndRestock(t *testing.T) {
	svc, repo := testService()
	_, err := svc.Create(context.Background(), "BOOK000001", "Book", usd(t, "39.99"), qty(t, 5))
	require.NoError(t, err)

	require.NoError(t, svc.ReserveStock(context.Background(), "BOOK000001", qty(t, 4)))
	require.NoError(t, svc.Restock(context.Background(), "BOOK000001", qty(t, 2)))

	p, err := svc.Get(context.Background(), "BOOK000001")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(qty(t, 3)))

	err = svc.ReserveStock(context.Background(), "BOOK000001", qty(t, 4))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// One created + two successful updates; the failed reservation emitted nothing.
	assert.Len(t, repo.events, 3)
}

func TestTranslatorCoversProductEvents(t *testing.T) {
	reg := NewTranslator()

	_, created, err := domain.NewProduct("BOOK000001", "Book", usd(t, "39.99"), qty(t, 10))
	require.NoError(t, err)

	msg, err := reg.Translate(created)
	require.NoError(t, err)
	assert.Equal(t, events.TopicProducts, msg.Topic)
	assert.Equal(t, "BOOK000001", msg.Key)
}
