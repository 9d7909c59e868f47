package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/repository"
)

type ProductRepository struct {
	q querier
}

const productColumns = `id, name, price::text, stock, minimum_stock`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.MinimumStock); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price of %s: %w", p.ID, err)
	}
	p.Price = d
	return &p, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrUnknownProduct
	}
	if err != nil {
		return nil, repository.NewPersistenceError("find product", err)
	}
	return p, nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*catalog.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, repository.NewPersistenceError("list products", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, repository.NewPersistenceError("list products", err)
	}
	return products, nil
}

// LockCatalog takes row locks in id order so that two transactions touching
// overlapping products always lock them in the same sequence.
func (r *ProductRepository) LockCatalog(ctx context.Context, ids []string) (catalog.Catalog, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	if len(ids) == 0 {
		return catalog.New(), nil
	}
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, repository.NewPersistenceError("lock products", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, repository.NewPersistenceError("lock products", err)
	}
	return catalog.New(products...), nil
}

func (r *ProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}

	const query = `
		INSERT INTO products (id, name, price, stock, minimum_stock)
		VALUES ($1, $2, $3::numeric, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			minimum_stock = EXCLUDED.minimum_stock`

	_, err := r.q.Exec(ctx, query, p.ID, p.Name, p.Price.String(), p.Stock, p.MinimumStock)
	return repository.NewPersistenceError("save product", err)
}

func (r *ProductRepository) UpdateStock(ctx context.Context, products ...*catalog.Product) error {
	const query = `UPDATE products SET stock = $2 WHERE id = $1`

	for _, p := range products {
		tag, err := r.q.Exec(ctx, query, p.ID, p.Stock)
		if err != nil {
			return repository.NewPersistenceError("update stock", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.NewPersistenceError("update stock", fmt.Errorf("product %s: %w", p.ID, catalog.ErrUnknownProduct))
		}
	}
	return nil
}

// Delete relies on cart_lines cascading; order lines keep their own copy of
// the product name and price.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return repository.NewPersistenceError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, catalog.ErrUnknownProduct)
	}
	return nil
}
