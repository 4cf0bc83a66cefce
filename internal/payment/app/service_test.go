package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/metrics"
	"github.com/metao1/online-store-go/pkg/money"
)

type fakeRepo struct {
	payments map[domain.PaymentID]*domain.Payment
	byOrder  map[string]domain.PaymentID
	events   []events.Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments: map[domain.PaymentID]*domain.Payment{},
		byOrder:  map[string]domain.PaymentID{},
	}
}

func (r *fakeRepo) Create(_ context.Context, p *domain.Payment) error {
	if _, ok := r.byOrder[p.OrderID]; ok {
		return ErrDuplicatePayment
	}
	cp := *p
	r.payments[p.ID] = &cp
	r.byOrder[p.OrderID] = p.ID
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id domain.PaymentID) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return r.Get(ctx, id)
}

func (r *fakeRepo) ExistsByOrderID(_ context.Context, orderID string) (bool, error) {
	_, ok := r.byOrder[orderID]
	return ok, nil
}

func (r *fakeRepo) Update(_ context.Context, id domain.PaymentID, mutate func(*domain.Payment) ([]events.Event, error)) error {
	p, ok := r.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	evs, err := mutate(p)
	if err != nil {
		return err
	}
	r.events = append(r.events, evs...)
	return nil
}

type approveAll struct{}

func (approveAll) Authorize(context.Context, *domain.Payment) (domain.AuthResult, error) {
	return domain.AuthResult{Authorized: true}, nil
}

type declineAll struct{ reason string }

func (a declineAll) Authorize(context.Context, *domain.Payment) (domain.AuthResult, error) {
	return domain.AuthResult{Authorized: false, Reason: a.reason}, nil
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "USD")
	require.NoError(t, err)
	return m
}

func card() domain.PaymentMethod {
	return domain.PaymentMethod{Type: domain.MethodCard, Details: "****4242"}
}

func testService(repo *fakeRepo, auth domain.Authorizer) *Service {
	return NewService(repo, auth, domain.DefaultLimits(), zap.NewNop())
}

func TestCreatePayment(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})

	p, err := svc.Create(context.Background(), "ord-1", usd(t, "20.00"), card())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Empty(t, repo.events, "creation raises no events")
}

func TestCreateDuplicatePayment(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})

	_, err := svc.Create(context.Background(), "ord-1", usd(t, "20.00"), card())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "ord-1", usd(t, "30.00"), card())
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Len(t, repo.payments, 1)
}

func TestCreateEnforcesLimits(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})

	_, err := svc.Create(context.Background(), "ord-1", usd(t, "5000.01"), card())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Empty(t, repo.payments)
}

func TestProcessPublishesOutcome(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})
	p, err := svc.Create(context.Background(), "ord-1", usd(t, "20.00"), card())
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), p.ID))
	assert.Equal(t, domain.PaymentStatusSuccessful, repo.payments[p.ID].Status)
	require.Len(t, repo.events, 1)
	assert.Equal(t, events.TypePaymentProcessed, repo.events[0].EventType())

	// Processing again is an invalid transition and emits nothing.
	err = svc.Process(context.Background(), p.ID)
	var tErr domain.InvalidTransitionError
	assert.ErrorAs(t, err, &tErr)
	assert.Len(t, repo.events, 1)
}

func TestRetryAfterDecline(t *testing.T) {
	repo := newFakeRepo()
	declineSvc := testService(repo, declineAll{reason: "card expired"})
	p, err := declineSvc.Create(context.Background(), "ord-1", usd(t, "20.00"), card())
	require.NoError(t, err)
	require.NoError(t, declineSvc.Process(context.Background(), p.ID))
	require.Equal(t, domain.PaymentStatusFailed, repo.payments[p.ID].Status)

	retrySvc := testService(repo, approveAll{})
	require.NoError(t, retrySvc.Retry(context.Background(), p.ID))
	assert.Equal(t, domain.PaymentStatusSuccessful, repo.payments[p.ID].Status)
	require.Len(t, repo.events, 2)
	assert.Equal(t, events.TypePaymentFailed, repo.events[0].EventType())
	assert.Equal(t, events.TypePaymentProcessed, repo.events[1].EventType())
}

var consumerMetrics = metrics.NewConsumerMetrics("payment_service_test")

type memoryLedger struct{ seen map[string]bool }

func (l *memoryLedger) MarkProcessed(_ context.Context, key string) (bool, error) {
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

func orderSubmittedEnvelope(t *testing.T, orderID, total string) events.Envelope {
	t.Helper()
	payload, err := json.Marshal(events.OrderCreatedMessage{
		OrderID:    orderID,
		CustomerID: "C1",
		Status:     events.OrderWireSubmitted,
		Total:      events.Amount{Value: total, Currency: "USD"},
	})
	require.NoError(t, err)
	base := events.NewBase(events.TypeOrderSubmitted, orderID)
	return events.Envelope{
		EventID:    base.EventID(),
		Type:       events.TypeOrderSubmitted,
		OccurredAt: events.NewTimestamp(base.OccurredAt()),
		Payload:    payload,
	}
}

func TestConsumerCreatesAndProcessesPayment(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})
	consumer := NewConsumer(svc, &memoryLedger{}, consumerMetrics, card(), zap.NewNop())

	env := orderSubmittedEnvelope(t, "ord-1", "20.00")
	require.NoError(t, consumer.HandleOrderEvent(context.Background(), env))

	require.Len(t, repo.payments, 1)
	p, err := repo.GetByOrderID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccessful, p.Status)
	require.Len(t, repo.events, 1)

	// Redelivery of the same envelope is acknowledged without a second payment.
	require.NoError(t, consumer.HandleOrderEvent(context.Background(), env))
	assert.Len(t, repo.payments, 1)
	assert.Len(t, repo.events, 1)

	// A replayed submission with a fresh event id trips the unique key instead.
	env2 := orderSubmittedEnvelope(t, "ord-1", "20.00")
	require.NoError(t, consumer.HandleOrderEvent(context.Background(), env2))
	assert.Len(t, repo.payments, 1)
}

func TestConsumerIgnoresOtherEventTypes(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, approveAll{})
	consumer := NewConsumer(svc, &memoryLedger{}, consumerMetrics, card(), zap.NewNop())

	require.NoError(t, consumer.HandleOrderEvent(context.Background(),
		events.Envelope{EventID: "x", Type: events.TypeOrderCreated}))
	assert.Empty(t, repo.payments)
}
