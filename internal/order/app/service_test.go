package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type fakeRepo struct {
	orders   map[domain.OrderID]*domain.Order
	idemKeys map[string]domain.OrderID
	events   []events.Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   map[domain.OrderID]*domain.Order{},
		idemKeys: map[string]domain.OrderID{},
	}
}

func (r *fakeRepo) Create(_ context.Context, order *domain.Order, evs []events.Event, idemKey string) error {
	if idemKey != "" {
		if _, ok := r.idemKeys[idemKey]; ok {
			return ErrIdempotencyRace
		}
		r.idemKeys[idemKey] = order.ID
	}
	cp := *order
	r.orders[order.ID] = &cp
	r.events = append(r.events, evs...)
	return nil
}

func (r *fakeRepo) FindByIdempotencyKey(_ context.Context, key string) (domain.OrderID, error) {
	id, ok := r.idemKeys[key]
	if !ok {
		return "", ErrOrderNotFound
	}
	return id, nil
}

func (r *fakeRepo) Get(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) ListByCustomer(_ context.Context, customerID domain.CustomerID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id domain.OrderID, mutate func(*domain.Order) ([]events.Event, error)) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	evs, err := mutate(o)
	if err != nil {
		return err
	}
	r.events = append(r.events, evs...)
	return nil
}

func eventTypes(evs []events.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.EventType())
	}
	return out
}

func testService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, zap.NewNop()), repo
}

func bookItem(t *testing.T) CheckoutItem {
	t.Helper()
	qty, err := money.QuantityFromInt(2)
	require.NoError(t, err)
	price, err := money.Parse("10.00", "USD")
	require.NoError(t, err)
	return CheckoutItem{SKU: "BOOK000001", Quantity: qty, UnitPrice: price}
}

func TestCreateFromCheckout(t *testing.T) {
	svc, repo := testService(t)

	order, err := svc.CreateFromCheckout(context.Background(), "C1", []CheckoutItem{bookItem(t)})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPendingPayment, order.Status)
	total, err := money.Parse("20.00", "USD")
	require.NoError(t, err)
	assert.True(t, order.Total().Equal(total))

	assert.Equal(t, []string{
		events.TypeOrderCreated,
		events.TypeOrderItemAdded,
		events.TypeOrderStatusChanged,
		events.TypeOrderSubmitted,
	}, eventTypes(repo.events))
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	svc, repo := testService(t)

	first, err := svc.CreateOrder(context.Background(), "C1", "key-1")
	require.NoError(t, err)

	second, err := svc.CreateOrder(context.Background(), "C1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.orders, 1)

	third, err := svc.CreateOrder(context.Background(), "C1", "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCreateFromCheckoutRejectsMixedCurrency(t *testing.T) {
	svc, repo := testService(t)

	eur, err := money.Parse("5.00", "EUR")
	require.NoError(t, err)
	one, err := money.QuantityFromInt(1)
	require.NoError(t, err)

	_, err = svc.CreateFromCheckout(context.Background(), "C1", []CheckoutItem{
		bookItem(t),
		{SKU: "GAME000001", Quantity: one, UnitPrice: eur},
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.Empty(t, repo.orders, "nothing persisted on a failed checkout")
	assert.Empty(t, repo.events)
}

func TestApplyPaymentResultTransitionsOnce(t *testing.T) {
	svc, repo := testService(t)
	order, err := svc.CreateFromCheckout(context.Background(), "C1", []CheckoutItem{bookItem(t)})
	require.NoError(t, err)
	before := len(repo.events)

	err = svc.ApplyPaymentResult(context.Background(), order.ID, domain.PaymentResult{PaymentID: "p1", Successful: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, repo.orders[order.ID].Status)
	assert.Equal(t, []string{events.TypeOrderStatusChanged}, eventTypes(repo.events[before:]))

	// Second application of the same result: the aggregate guard makes it a no-op.
	err = svc.ApplyPaymentResult(context.Background(), order.ID, domain.PaymentResult{PaymentID: "p1", Successful: true})
	require.NoError(t, err)
	assert.Len(t, repo.events, before+1, "no second status-changed event")
}

func TestAddItemOnSubmittedOrderFails(t *testing.T) {
	svc, repo := testService(t)
	order, err := svc.CreateFromCheckout(context.Background(), "C1", []CheckoutItem{bookItem(t)})
	require.NoError(t, err)
	before := len(repo.events)

	item := bookItem(t)
	err = svc.AddItem(context.Background(), order.ID, "GAME000001", item.Quantity, item.UnitPrice)
	assert.ErrorIs(t, err, domain.ErrOrderNotEditable)
	assert.Len(t, repo.events, before)
}

func TestUpdateStatusRejectsPaymentOutcomes(t *testing.T) {
	svc, repo := testService(t)
	order, err := svc.CreateFromCheckout(context.Background(), "C1", []CheckoutItem{bookItem(t)})
	require.NoError(t, err)
	before := len(repo.events)

	err = svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrPaymentOutcomeReserved)
	err = svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPaymentFailed)
	assert.ErrorIs(t, err, ErrPaymentOutcomeReserved)
	assert.Equal(t, domain.OrderStatusPendingPayment, repo.orders[order.ID].Status)
	assert.Len(t, repo.events, before)
}

func TestUpdateMissingOrder(t *testing.T) {
	svc, _ := testService(t)
	err := svc.Cancel(context.Background(), "no-such-order")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
