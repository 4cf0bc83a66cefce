package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metao1/online-store-go/internal/order/app"
	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
	"github.com/metao1/online-store-go/pkg/outbox"
)

const uniqueViolation = "23505"

// Orders persists order aggregates. Every write also inserts the translated
// outbox rows inside the same transaction.
type Orders struct {
	pool      *pgxpool.Pool
	translate *events.Registry
}

func NewOrders(pool *pgxpool.Pool, translate *events.Registry) *Orders {
	return &Orders{pool: pool, translate: translate}
}

func (r *Orders) Create(ctx context.Context, order *domain.Order, evs []events.Event, idemKey string) error {
	msgs, err := r.translate.TranslateAll(evs)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders(id, customer_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.CustomerID, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if idemKey != "" {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_idempotency(idempotency_key, order_id) VALUES ($1, $2)`,
			idemKey, order.ID)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return app.ErrIdempotencyRace
		}
		if err != nil {
			return fmt.Errorf("record idempotency key: %w", err)
		}
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}
	if err := outbox.InsertAll(ctx, tx, msgs); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Orders) FindByIdempotencyKey(ctx context.Context, key string) (domain.OrderID, error) {
	var id domain.OrderID
	err := r.pool.QueryRow(ctx,
		`SELECT order_id FROM order_idempotency WHERE idempotency_key=$1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", app.ErrOrderNotFound
	}
	return id, err
}

func (r *Orders) Get(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	return scanOrder(ctx, r.pool, id, false)
}

func (r *Orders) ListByCustomer(ctx context.Context, customerID domain.CustomerID) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM orders WHERE customer_id=$1 ORDER BY created_at`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []domain.OrderID
	for rows.Next() {
		var id domain.OrderID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Update runs load-for-update, mutate, save and outbox insert in one
// transaction. The row lock serializes racing payment events on one order.
func (r *Orders) Update(ctx context.Context, id domain.OrderID, mutate func(*domain.Order) ([]events.Event, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := scanOrder(ctx, tx, id, true)
	if err != nil {
		return err
	}

	evs, err := mutate(order)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, order.ID); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return err
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
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertItems(ctx context.Context, db querier, order *domain.Order) error {
	for pos, it := range order.Items {
		_, err := db.Exec(ctx,
			`INSERT INTO order_items(order_id, position, sku, quantity, unit_price, currency)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, pos, it.SKU, it.Quantity.String(), it.UnitPrice.Amount().String(), it.UnitPrice.Currency())
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", it.SKU, err)
		}
	}
	return nil
}

func scanOrder(ctx context.Context, db querier, id domain.OrderID, forUpdate bool) (*domain.Order, error) {
	headSQL := `SELECT id, customer_id, status, created_at, updated_at FROM orders WHERE id=$1`
	if forUpdate {
		headSQL += ` FOR UPDATE`
	}

	var order domain.Order
	err := db.QueryRow(ctx, headSQL, id).Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT sku, quantity::text, unit_price::text, currency FROM order_items WHERE order_id=$1 ORDER BY position`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sku, qtyStr, priceStr, currency string
		if err := rows.Scan(&sku, &qtyStr, &priceStr, &currency); err != nil {
			return nil, err
		}
		qty, err := money.ParseQuantity(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("order %s item %s: %w", id, sku, err)
		}
		price, err := money.Parse(priceStr, currency)
		if err != nil {
			return nil, fmt.Errorf("order %s item %s: %w", id, sku, err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			SKU:       domain.ProductSKU(sku),
			Quantity:  qty,
			UnitPrice: price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &order, nil
}
