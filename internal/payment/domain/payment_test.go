package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type stubAuthorizer struct {
	result AuthResult
	err    error
	calls  int
}

func (a *stubAuthorizer) Authorize(context.Context, *Payment) (AuthResult, error) {
	a.calls++
	return a.result, a.err
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "USD")
	require.NoError(t, err)
	return m
}

func pendingPayment(t *testing.T) *Payment {
	t.Helper()
	p, err := NewPayment(NewPaymentID(), "ord-1", usd(t, "20.00"),
		PaymentMethod{Type: MethodCard, Details: "****4242"})
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := pendingPayment(t)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Nil(t, p.ProcessedAt)
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment(NewPaymentID(), "", usd(t, "10"), PaymentMethod{Type: MethodCard})
	assert.Error(t, err)

	_, err = NewPayment(NewPaymentID(), "ord-1", usd(t, "0"), PaymentMethod{Type: MethodCard})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(NewPaymentID(), "ord-1", usd(t, "-3"), PaymentMethod{Type: MethodCard})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestProcessSuccess(t *testing.T) {
	p := pendingPayment(t)
	ev, err := p.Process(context.Background(), &stubAuthorizer{result: AuthResult{Authorized: true}})
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusSuccessful, p.Status)
	require.NotNil(t, p.ProcessedAt)
	assert.Equal(t, events.TypePaymentProcessed, ev.EventType())

	processed, ok := ev.(PaymentProcessed)
	require.True(t, ok)
	assert.Equal(t, "ord-1", processed.OrderID)
}

func TestProcessDecline(t *testing.T) {
	p := pendingPayment(t)
	ev, err := p.Process(context.Background(),
		&stubAuthorizer{result: AuthResult{Authorized: false, Reason: "insufficient funds"}})
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusFailed, p.Status)
	assert.Equal(t, "insufficient funds", p.FailureReason)
	require.NotNil(t, p.ProcessedAt)

	failed, ok := ev.(PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, "insufficient funds", failed.Reason)
}

func TestProcessAuthorizerErrorLeavesPending(t *testing.T) {
	p := pendingPayment(t)
	_, err := p.Process(context.Background(), &stubAuthorizer{err: errors.New("gateway timeout")})
	assert.Error(t, err)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Nil(t, p.ProcessedAt)
}

func TestProcessOnNonPendingFails(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusSuccessful, PaymentStatusFailed, PaymentStatusCancelled} {
		p := pendingPayment(t)
		p.Status = status
		auth := &stubAuthorizer{result: AuthResult{Authorized: true}}
		_, err := p.Process(context.Background(), auth)
		var tErr InvalidTransitionError
		require.ErrorAs(t, err, &tErr, "status %s", status)
		assert.Equal(t, status, p.Status)
		assert.Zero(t, auth.calls, "authorizer must not run from %s", status)
	}
}

func TestRetryFromFailed(t *testing.T) {
	p := pendingPayment(t)
	_, err := p.Process(context.Background(), &stubAuthorizer{result: AuthResult{Authorized: false, Reason: "declined"}})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusFailed, p.Status)

	ev, err := p.Retry(context.Background(), &stubAuthorizer{result: AuthResult{Authorized: true}})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusSuccessful, p.Status)
	assert.Empty(t, p.FailureReason)
	assert.Equal(t, events.TypePaymentProcessed, ev.EventType())
}

func TestRetryOnlyFromFailed(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusPending, PaymentStatusSuccessful, PaymentStatusCancelled} {
		p := pendingPayment(t)
		p.Status = status
		_, err := p.Retry(context.Background(), &stubAuthorizer{result: AuthResult{Authorized: true}})
		var tErr InvalidTransitionError
		assert.ErrorAs(t, err, &tErr, "status %s", status)
	}
}

func TestCancelOnlyFromPending(t *testing.T) {
	p := pendingPayment(t)
	ev, err := p.Cancel()
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusCancelled, p.Status)
	assert.Equal(t, events.TypePaymentCancelled, ev.EventType())

	for _, status := range []PaymentStatus{PaymentStatusSuccessful, PaymentStatusFailed, PaymentStatusCancelled} {
		p := pendingPayment(t)
		p.Status = status
		_, err := p.Cancel()
		var tErr InvalidTransitionError
		assert.ErrorAs(t, err, &tErr, "status %s", status)
	}
}

func TestLimitPolicy(t *testing.T) {
	limits := DefaultLimits()

	cases := []struct {
		amount string
		method MethodType
		ok     bool
	}{
		{"4999.99", MethodCard, true},
		{"5000", MethodCard, true},
		{"5000.01", MethodCard, false},
		{"2000", MethodDigitalWallet, true},
		{"2000.01", MethodDigitalWallet, false},
		{"10000", MethodBankTransfer, true},
		{"10000.01", MethodBankTransfer, false},
		{"0", MethodCard, false},
		{"-1", MethodCard, false},
	}
	for _, tc := range cases {
		err := limits.Validate(usd(t, tc.amount), tc.method)
		if tc.ok {
			assert.NoError(t, err, "%s via %s", tc.amount, tc.method)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, "%s via %s", tc.amount, tc.method)
		}
	}
}
