package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metao1/online-store-go/internal/payment/app"
	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
	"github.com/metao1/online-store-go/pkg/outbox"
)

const uniqueViolation = "23505"

// Payments persists payment aggregates. The UNIQUE(order_id) constraint is
// the last line of defense against a second payment sneaking in for an
// order after the consumer's existence check.
type Payments struct {
	pool      *pgxpool.Pool
	translate *events.Registry
}

func NewPayments(pool *pgxpool.Pool, translate *events.Registry) *Payments {
	return &Payments{pool: pool, translate: translate}
}

func (r *Payments) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments(id, order_id, amount, currency, method_type, method_details, status, failure_reason, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrderID, p.Amount.Amount().String(), p.Amount.Currency(),
		p.Method.Type, p.Method.Details, p.Status, p.FailureReason, p.CreatedAt, p.ProcessedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return app.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *Payments) Get(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	return scanPayment(ctx, r.pool, `WHERE id=$1`, false, id)
}

func (r *Payments) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return scanPayment(ctx, r.pool, `WHERE order_id=$1`, false, orderID)
}

func (r *Payments) ExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE order_id=$1)`, orderID).Scan(&exists)
	return exists, err
}

// Update runs load-for-update, mutate, save and outbox insert in one
// transaction, so the published outcome never disagrees with the stored row.
func (r *Payments) Update(ctx context.Context, id domain.PaymentID, mutate func(*domain.Payment) ([]events.Event, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPayment(ctx, tx, `WHERE id=$1`, true, id)
	if err != nil {
		return err
	}

	evs, err := mutate(p)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE payments SET status=$2, failure_reason=$3, processed_at=$4 WHERE id=$1`,
		p.ID, p.Status, p.FailureReason, p.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	msgs, err := r.translate.TranslateAll(evs)
	if err != nil {
		return err
	}
	if err := outbox.InsertAll(ctx, tx, msgs); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return tx.Commit(ctx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanPayment(ctx context.Context, db querier, where string, forUpdate bool, arg any) (*domain.Payment, error) {
	sql := `SELECT id, order_id, amount::text, currency, method_type, method_details, status, failure_reason, created_at, processed_at
		FROM payments ` + where
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	var (
		p                   domain.Payment
		amountStr, currency string
	)
	err := db.QueryRow(ctx, sql, arg).Scan(
		&p.ID, &p.OrderID, &amountStr, &currency, &p.Method.Type, &p.Method.Details,
		&p.Status, &p.FailureReason, &p.CreatedAt, &p.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Amount, err = money.Parse(amountStr, currency)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	return &p, nil
}
