package repository

import (
	"context"

	"fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/order"
)

type ProductRepository interface {
	// FindByID returns catalog.ErrUnknownProduct when the product is absent.
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
	FindAll(ctx context.Context) ([]*catalog.Product, error)
	// LockCatalog loads the given products for update, in ascending id
	// order. Unknown ids are simply absent from the result.
	LockCatalog(ctx context.Context, ids []string) (catalog.Catalog, error)
	Save(ctx context.Context, p *catalog.Product) error
	UpdateStock(ctx context.Context, products ...*catalog.Product) error
	// Delete removes the product and its cart lines. It returns
	// catalog.ErrUnknownProduct when the product is absent.
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	// FindByID and FindByIDForUpdate return ErrOrderNotFound when absent.
	FindByID(ctx context.Context, id string) (*order.Order, error)
	FindByIDForUpdate(ctx context.Context, id string) (*order.Order, error)
	FindAll(ctx context.Context) ([]*order.Order, error)
	FindByAccount(ctx context.Context, accountID string) ([]*order.Order, error)
	Update(ctx context.Context, o *order.Order) error
	// HasOpenOrderFor reports whether a submitted or confirmed order has a
	// line for productID.
	HasOpenOrderFor(ctx context.Context, productID string) (bool, error)
}

type CartRepository interface {
	// FindCurrent returns the account's unconverted cart, or nil when there
	// is none.
	FindCurrent(ctx context.Context, accountID string) (*cart.Cart, error)
	FindCurrentForUpdate(ctx context.Context, accountID string) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, cartID string) error
	// MarkConsumed attaches an unconverted cart to orderID. It returns
	// cart.ErrEmptyCart when the cart is gone or already converted.
	MarkConsumed(ctx context.Context, cartID, orderID string) error
}

// Store groups the repositories bound to one unit of work.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Carts() CartRepository
}

// UnitOfWork runs fn inside one atomic scope. Everything fn writes through
// the Store is committed when fn returns nil and rolled back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	// Store returns repositories that run outside any transaction, for reads.
	Store() Store
}
