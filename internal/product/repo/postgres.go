package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metao1/online-store-go/internal/product/app"
	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
	"github.com/metao1/online-store-go/pkg/outbox"
)

const uniqueViolation = "23505"

type Products struct {
	pool      *pgxpool.Pool
	translate *events.Registry
}

func NewProducts(pool *pgxpool.Pool, translate *events.Registry) *Products {
	return &Products{pool: pool, translate: translate}
}

func (r *Products) Create(ctx context.Context, product *domain.Product, ev events.Event) error {
	msg, err := r.translate.Translate(ev)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO products(sku, name, price, currency, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		product.SKU, product.Name, product.Price.Amount().String(), product.Price.Currency(),
		product.Stock.String(), product.CreatedAt, product.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return app.ErrDuplicateSKU
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if err := outbox.Insert(ctx, tx, msg); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Products) Get(ctx context.Context, sku domain.ProductSKU) (*domain.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, selectSQL+` WHERE sku=$1`, sku))
}

func (r *Products) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectSQL+` ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update runs load-for-update, mutate, save and outbox insert in one
// transaction. The row lock serializes concurrent stock reservations.
func (r *Products) Update(ctx context.Context, sku domain.ProductSKU, mutate func(*domain.Product) ([]events.Event, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, selectSQL+` WHERE sku=$1 FOR UPDATE`, sku))
	if err != nil {
		return err
	}

	evs, err := mutate(p)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE products SET name=$2, price=$3, currency=$4, stock=$5, updated_at=$6 WHERE sku=$1`,
		p.SKU, p.Name, p.Price.Amount().String(), p.Price.Currency(), p.Stock.String(), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
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

const selectSQL = `SELECT sku, name, price::text, currency, stock::text, created_at, updated_at FROM products`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p                            domain.Product
		priceStr, currency, stockStr string
	)
	err := row.Scan(&p.SKU, &p.Name, &priceStr, &currency, &stockStr, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Price, err = money.Parse(priceStr, currency)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.SKU, err)
	}
	p.Stock, err = money.ParseQuantity(stockStr)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.SKU, err)
	}
	return &p, nil
}
