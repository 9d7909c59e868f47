package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL CHECK (stock >= 0),
		minimum_stock INTEGER NOT NULL DEFAULT 0 CHECK (minimum_stock >= 0)
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PASSEE', 'VALIDEE', 'ENVOYEE', 'SUPPRIMEE')),
		shipping_method TEXT NOT NULL,
		ship_name TEXT NOT NULL,
		ship_street TEXT NOT NULL,
		ship_city TEXT NOT NULL,
		ship_province TEXT NOT NULL,
		ship_postal_code TEXT NOT NULL,
		cardholder_name TEXT NOT NULL,
		card_last4 TEXT NOT NULL,
		card_expiry TEXT NOT NULL,
		placed_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_account_id ON orders(account_id)`,

	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		sale_price NUMERIC(12, 2) NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_product_id ON order_lines(product_id)`,

	`CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		order_id TEXT REFERENCES orders(id),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	// One unconverted cart per account.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_current ON carts(account_id) WHERE order_id IS NULL`,

	`CREATE TABLE IF NOT EXISTS cart_lines (
		cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (cart_id, product_id)
	)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}
