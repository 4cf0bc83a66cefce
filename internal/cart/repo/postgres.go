package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metao1/online-store-go/internal/cart/app"
	"github.com/metao1/online-store-go/internal/cart/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
	"github.com/metao1/online-store-go/pkg/outbox"
)

// Carts persists cart aggregates. The checkout event rides the same
// transaction as the status flip, so a published snapshot always matches a
// CHECKED_OUT row.
type Carts struct {
	pool      *pgxpool.Pool
	translate *events.Registry
}

func NewCarts(pool *pgxpool.Pool, translate *events.Registry) *Carts {
	return &Carts{pool: pool, translate: translate}
}

func (r *Carts) Create(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO carts(id, customer_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		cart.ID, cart.CustomerID, cart.Status, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	if err := insertItems(ctx, tx, cart); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Carts) Get(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	return scanCart(ctx, r.pool, `WHERE id=$1`, false, id)
}

func (r *Carts) GetActiveByCustomer(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	return scanCart(ctx, r.pool, `WHERE customer_id=$1 AND status='ACTIVE'`, false, customerID)
}

// Update runs load-for-update, mutate, save and outbox insert in one
// transaction.
func (r *Carts) Update(ctx context.Context, id domain.CartID, mutate func(*domain.Cart) ([]events.Event, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cart, err := scanCart(ctx, tx, `WHERE id=$1`, true, id)
	if err != nil {
		return err
	}

	evs, err := mutate(cart)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE carts SET status=$2, updated_at=$3 WHERE id=$1`,
		cart.ID, cart.Status, cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if err := insertItems(ctx, tx, cart); err != nil {
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

func insertItems(ctx context.Context, db querier, cart *domain.Cart) error {
	for pos, it := range cart.Items {
		_, err := db.Exec(ctx,
			`INSERT INTO cart_items(cart_id, position, sku, quantity, unit_price, currency)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			cart.ID, pos, it.SKU, it.Quantity.String(), it.UnitPrice.Amount().String(), it.UnitPrice.Currency())
		if err != nil {
			return fmt.Errorf("insert cart item %s: %w", it.SKU, err)
		}
	}
	return nil
}

func scanCart(ctx context.Context, db querier, where string, forUpdate bool, arg any) (*domain.Cart, error) {
	headSQL := `SELECT id, customer_id, status, created_at, updated_at FROM carts ` + where
	if forUpdate {
		headSQL += ` FOR UPDATE`
	}

	var cart domain.Cart
	err := db.QueryRow(ctx, headSQL, arg).Scan(
		&cart.ID, &cart.CustomerID, &cart.Status, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT sku, quantity::text, unit_price::text, currency FROM cart_items WHERE cart_id=$1 ORDER BY position`,
		cart.ID)
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
			return nil, fmt.Errorf("cart %s item %s: %w", cart.ID, sku, err)
		}
		price, err := money.Parse(priceStr, currency)
		if err != nil {
			return nil, fmt.Errorf("cart %s item %s: %w", cart.ID, sku, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{
			SKU:       domain.ProductSKU(sku),
			Quantity:  qty,
			UnitPrice: price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}
