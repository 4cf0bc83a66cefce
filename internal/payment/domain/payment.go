package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type PaymentID string

func NewPaymentID() PaymentID {
	return PaymentID(uuid.NewString())
}

func ParsePaymentID(s string) (PaymentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New("payment id cannot be blank")
	}
	return PaymentID(s), nil
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
)

type MethodType string

const (
	MethodCard          MethodType = "CARD"
	MethodDigitalWallet MethodType = "DIGITAL_WALLET"
	MethodBankTransfer  MethodType = "BANK_TRANSFER"
)

func ParseMethodType(s string) (MethodType, error) {
	switch MethodType(s) {
	case MethodCard, MethodDigitalWallet, MethodBankTransfer:
		return MethodType(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// PaymentMethod pairs the method type with its opaque instrument reference
// (masked card number, wallet handle, IBAN).
type PaymentMethod struct {
	Type    MethodType
	Details string
}

type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid payment status transition %s -> %s", e.From, e.To)
}

var ErrInvalidAmount = errors.New("invalid payment amount")

// AuthResult is the outcome of an authorization attempt. Authorized=false
// with a reason is a business decline; infrastructure trouble is an error.
type AuthResult struct {
	Authorized bool
	Reason     string
}

// Authorizer is the pluggable gateway integration.
type Authorizer interface {
	Authorize(ctx context.Context, p *Payment) (AuthResult, error)
}

// Payment is the aggregate root for one order's payment. Exactly one payment
// exists per order; the repository's unique key enforces it.
type Payment struct {
	ID            PaymentID
	OrderID       string
	Amount        money.Money
	Method        PaymentMethod
	Status        PaymentStatus
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// NewPayment creates a PENDING payment. Creation raises no event; the
// outcome events come from Process.
func NewPayment(id PaymentID, orderID string, amount money.Money, method PaymentMethod) (*Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id cannot be blank")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Process runs authorization on a PENDING payment and settles it as
// SUCCESSFUL or FAILED. An authorizer error leaves the payment PENDING.
func (p *Payment) Process(ctx context.Context, auth Authorizer) (events.Event, error) {
	if p.Status != PaymentStatusPending {
		return nil, InvalidTransitionError{From: p.Status, To: PaymentStatusSuccessful}
	}

	res, err := auth.Authorize(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("authorize payment %s: %w", p.ID, err)
	}

	now := time.Now().UTC()
	p.ProcessedAt = &now
	if res.Authorized {
		p.Status = PaymentStatusSuccessful
		p.FailureReason = ""
		return PaymentProcessed{
			Base:    events.NewBase(events.TypePaymentProcessed, string(p.ID)),
			OrderID: p.OrderID,
			Amount:  p.Amount,
		}, nil
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = res.Reason
	return PaymentFailed{
		Base:    events.NewBase(events.TypePaymentFailed, string(p.ID)),
		OrderID: p.OrderID,
		Amount:  p.Amount,
		Reason:  res.Reason,
	}, nil
}

// Retry resets a FAILED payment to PENDING and reprocesses it.
func (p *Payment) Retry(ctx context.Context, auth Authorizer) (events.Event, error) {
	if p.Status != PaymentStatusFailed {
		return nil, InvalidTransitionError{From: p.Status, To: PaymentStatusPending}
	}
	p.Status = PaymentStatusPending
	p.FailureReason = ""
	p.ProcessedAt = nil
	return p.Process(ctx, auth)
}

// Cancel is only valid while the payment is still PENDING.
func (p *Payment) Cancel() (events.Event, error) {
	if p.Status != PaymentStatusPending {
		return nil, InvalidTransitionError{From: p.Status, To: PaymentStatusCancelled}
	}
	p.Status = PaymentStatusCancelled
	return PaymentCancelled{
		Base:    events.NewBase(events.TypePaymentCancelled, string(p.ID)),
		OrderID: p.OrderID,
		Amount:  p.Amount,
	}, nil
}
