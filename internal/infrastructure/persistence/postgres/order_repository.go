package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
)

type OrderRepository struct {
	q querier
}

const orderColumns = `id, account_id, status, shipping_method,
	ship_name, ship_street, ship_city, ship_province, ship_postal_code,
	cardholder_name, card_last4, card_expiry, placed_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	a := &o.Shipping.Address
	err := row.Scan(
		&o.ID,
		&o.AccountID,
		&o.Status,
		&o.Shipping.Method,
		&a.Name, &a.Street, &a.City, &a.Province, &a.PostalCode,
		&o.Payment.CardholderName,
		&o.Payment.CardLast4,
		&o.Payment.Expiry,
		&o.PlacedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	const query = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	a := o.Shipping.Address
	_, err := r.q.Exec(ctx, query,
		o.ID,
		o.AccountID,
		string(o.Status),
		string(o.Shipping.Method),
		a.Name, a.Street, a.City, a.Province, a.PostalCode,
		o.Payment.CardholderName,
		o.Payment.CardLast4,
		o.Payment.Expiry,
		o.PlacedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return repository.NewPersistenceError("create order", err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByIDForUpdate locks the order row until the surrounding transaction
// ends.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*order.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY placed_at, id`)
}

func (r *OrderRepository) FindByAccount(ctx context.Context, accountID string) ([]*order.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders WHERE account_id = $1 ORDER BY placed_at, id`, accountID)
}

// Update writes the status and replaces the lines.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	const query = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, o.ID, string(o.Status), o.UpdatedAt)
	if err != nil {
		return repository.NewPersistenceError("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOrderNotFound
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return repository.NewPersistenceError("update order lines", err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepository) insertLines(ctx context.Context, o *order.Order) error {
	const query = `
		INSERT INTO order_lines (order_id, position, product_id, product_name, quantity, sale_price)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)`

	for i, l := range o.Lines {
		if _, err := r.q.Exec(ctx, query, o.ID, i, l.ProductID, l.ProductName, l.Quantity, l.SalePrice.String()); err != nil {
			return repository.NewPersistenceError("insert order line", err)
		}
	}
	return nil
}

func (r *OrderRepository) findOne(ctx context.Context, query string, id string) (*order.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrOrderNotFound
	}
	if err != nil {
		return nil, repository.NewPersistenceError("find order", err)
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) findMany(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, repository.NewPersistenceError("list orders", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*order.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, repository.NewPersistenceError("list orders", err)
	}
	for _, o := range orders {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, o *order.Order) error {
	const query = `
		SELECT product_id, product_name, quantity, sale_price::text
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position`

	rows, err := r.q.Query(ctx, query, o.ID)
	if err != nil {
		return repository.NewPersistenceError("load order lines", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var (
			l     order.LineItem
			price string
		)
		if err := row.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &price); err != nil {
			return l, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return l, fmt.Errorf("parse sale price: %w", err)
		}
		l.SalePrice = d
		return l, nil
	})
	if err != nil {
		return repository.NewPersistenceError("load order lines", err)
	}
	o.Lines = lines
	return nil
}

func (r *OrderRepository) HasOpenOrderFor(ctx context.Context, productID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM order_lines l
			JOIN orders o ON o.id = l.order_id
			WHERE l.product_id = $1 AND o.status IN ($2, $3)
		)`

	var exists bool
	err := r.q.QueryRow(ctx, query, productID, string(order.StatusSubmitted), string(order.StatusConfirmed)).Scan(&exists)
	if err != nil {
		return false, repository.NewPersistenceError("find open orders for product", err)
	}
	return exists, nil
}
