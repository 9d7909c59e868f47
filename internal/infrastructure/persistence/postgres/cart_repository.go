package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/repository"
)

type CartRepository struct {
	q querier
}

func (r *CartRepository) FindCurrent(ctx context.Context, accountID string) (*cart.Cart, error) {
	return r.findCurrent(ctx, accountID, "")
}

// FindCurrentForUpdate locks the cart row. A transaction that waited on the
// lock sees no cart if the holder converted it.
func (r *CartRepository) FindCurrentForUpdate(ctx context.Context, accountID string) (*cart.Cart, error) {
	return r.findCurrent(ctx, accountID, " FOR UPDATE")
}

func (r *CartRepository) findCurrent(ctx context.Context, accountID, lock string) (*cart.Cart, error) {
	query := `
		SELECT id, account_id, COALESCE(order_id, ''), created_at
		FROM carts
		WHERE account_id = $1 AND order_id IS NULL` + lock

	var c cart.Cart
	err := r.q.QueryRow(ctx, query, accountID).Scan(&c.ID, &c.AccountID, &c.OrderID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repository.NewPersistenceError("find cart", err)
	}

	rows, err := r.q.Query(ctx, `SELECT product_id, quantity FROM cart_lines WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, repository.NewPersistenceError("load cart lines", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ProductID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, repository.NewPersistenceError("load cart lines", err)
	}
	c.Lines = lines
	return &c, nil
}

// Save upserts the cart and replaces its lines.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if c == nil {
		return fmt.Errorf("cart is nil")
	}

	const upsert = `
		INSERT INTO carts (id, account_id, order_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (id) DO UPDATE
		SET order_id = EXCLUDED.order_id`

	if _, err := r.q.Exec(ctx, upsert, c.ID, c.AccountID, c.OrderID, c.CreatedAt); err != nil {
		return repository.NewPersistenceError("save cart", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, c.ID); err != nil {
		return repository.NewPersistenceError("save cart lines", err)
	}

	const insertLine = `INSERT INTO cart_lines (cart_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`
	for i, l := range c.Lines {
		if _, err := r.q.Exec(ctx, insertLine, c.ID, i, l.ProductID, l.Quantity); err != nil {
			return repository.NewPersistenceError("save cart lines", err)
		}
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND order_id IS NULL`, cartID)
	return repository.NewPersistenceError("delete cart", err)
}

// MarkConsumed only matches an unconverted cart, so of two racing
// conversions exactly one updates a row.
func (r *CartRepository) MarkConsumed(ctx context.Context, cartID, orderID string) error {
	const query = `UPDATE carts SET order_id = $2 WHERE id = $1 AND order_id IS NULL`

	tag, err := r.q.Exec(ctx, query, cartID, orderID)
	if err != nil {
		return repository.NewPersistenceError("mark cart consumed", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrEmptyCart
	}
	return nil
}
