package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// Service orchestrates the payment lifecycle. The authorizer is injected so
// the gateway integration (or its simulation) never lives in the aggregate.
type Service struct {
	repo   PaymentRepository
	auth   domain.Authorizer
	limits domain.LimitPolicy
	log    *zap.Logger
}

func NewService(repo PaymentRepository, auth domain.Authorizer, limits domain.LimitPolicy, log *zap.Logger) *Service {
	return &Service{repo: repo, auth: auth, limits: limits, log: log}
}

// Create validates the amount against the limit policy and the one-payment-
// per-order rule, then persists a PENDING payment. The repository's unique
// key backs the existence check against creation races.
func (s *Service) Create(ctx context.Context, orderID string, amount money.Money, method domain.PaymentMethod) (*domain.Payment, error) {
	if err := s.limits.Validate(amount, method.Type); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePayment
	}

	payment, err := domain.NewPayment(domain.NewPaymentID(), orderID, amount, method)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}
	s.log.Info("payment created",
		zap.String("payment_id", string(payment.ID)),
		zap.String("order_id", orderID),
		zap.String("amount", amount.String()))
	return payment, nil
}

func (s *Service) Process(ctx context.Context, id domain.PaymentID) error {
	return s.repo.Update(ctx, id, func(p *domain.Payment) ([]events.Event, error) {
		ev, err := p.Process(ctx, s.auth)
		if err != nil {
			return nil, err
		}
		s.log.Info("payment processed",
			zap.String("payment_id", string(p.ID)),
			zap.String("order_id", p.OrderID),
			zap.String("status", string(p.Status)))
		return []events.Event{ev}, nil
	})
}

func (s *Service) Retry(ctx context.Context, id domain.PaymentID) error {
	return s.repo.Update(ctx, id, func(p *domain.Payment) ([]events.Event, error) {
		ev, err := p.Retry(ctx, s.auth)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

func (s *Service) Cancel(ctx context.Context, id domain.PaymentID) error {
	return s.repo.Update(ctx, id, func(p *domain.Payment) ([]events.Event, error) {
		ev, err := p.Cancel()
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	})
}

func (s *Service) Get(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}
