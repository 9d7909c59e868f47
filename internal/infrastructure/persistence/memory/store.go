// Package memory is an in-process implementation of the repository ports.
// A single mutex serialises units of work; each unit works on a copy of the
// data that replaces the live copy only when it succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
)

type state struct {
	products map[string]*catalog.Product
	orders   map[string]*order.Order
	carts    map[string]*cart.Cart
}

func newState() *state {
	return &state{
		products: make(map[string]*catalog.Product),
		orders:   make(map[string]*order.Order),
		carts:    make(map[string]*cart.Cart),
	}
}

func (s *state) clone() *state {
	cp := &state{
		products: make(map[string]*catalog.Product, len(s.products)),
		orders:   make(map[string]*order.Order, len(s.orders)),
		carts:    make(map[string]*cart.Cart, len(s.carts)),
	}
	for k, v := range s.products {
		cp.products[k] = v.Clone()
	}
	for k, v := range s.orders {
		cp.orders[k] = v.Clone()
	}
	for k, v := range s.carts {
		cp.carts[k] = v.Clone()
	}
	return cp
}

type Store struct {
	mu    sync.Mutex
	state *state
}

var _ repository.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &view{store: s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Store returns repositories where every call is its own unit of work.
func (s *Store) Store() repository.Store {
	return &view{store: s}
}

// view binds repositories either to a transaction's working copy or, when tx
// is nil, to the live state under the store mutex.
type view struct {
	store *Store
	tx    *state
}

func (v *view) with(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (v *view) Products() repository.ProductRepository { return productRepo{v} }
func (v *view) Orders() repository.OrderRepository     { return orderRepo{v} }
func (v *view) Carts() repository.CartRepository       { return cartRepo{v} }

type productRepo struct{ v *view }

func (r productRepo) FindByID(_ context.Context, id string) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.v.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return catalog.ErrUnknownProduct
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r productRepo) FindAll(_ context.Context) ([]*catalog.Product, error) {
	var out []*catalog.Product
	err := r.v.with(func(st *state) error {
		out = make([]*catalog.Product, 0, len(st.products))
		for _, p := range st.products {
			out = append(out, p.Clone())
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r productRepo) LockCatalog(_ context.Context, ids []string) (catalog.Catalog, error) {
	c := make(catalog.Catalog, len(ids))
	err := r.v.with(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				c[id] = p.Clone()
			}
		}
		return nil
	})
	return c, err
}

func (r productRepo) Save(_ context.Context, p *catalog.Product) error {
	return r.v.with(func(st *state) error {
		st.products[p.ID] = p.Clone()
		return nil
	})
}

func (r productRepo) UpdateStock(_ context.Context, products ...*catalog.Product) error {
	return r.v.with(func(st *state) error {
		for _, p := range products {
			cur, ok := st.products[p.ID]
			if !ok {
				return repository.NewPersistenceError("update stock", fmt.Errorf("product %s: %w", p.ID, catalog.ErrUnknownProduct))
			}
			if p.Stock < 0 || p.Stock > catalog.MaxQuantity {
				return repository.NewPersistenceError("update stock", catalog.ErrInvalidQuantity)
			}
			cur.Stock = p.Stock
		}
		return nil
	})
}

func (r productRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return fmt.Errorf("product %s: %w", id, catalog.ErrUnknownProduct)
		}
		delete(st.products, id)
		for _, c := range st.carts {
			kept := c.Lines[:0]
			for _, l := range c.Lines {
				if l.ProductID != id {
					kept = append(kept, l)
				}
			}
			c.Lines = kept
		}
		return nil
	})
}

type orderRepo struct{ v *view }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	return r.v.with(func(st *state) error {
		if _, exists := st.orders[o.ID]; exists {
			return repository.NewPersistenceError("create order", errDuplicateKey)
		}
		st.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r orderRepo) FindByID(_ context.Context, id string) (*order.Order, error) {
	var out *order.Order
	err := r.v.with(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return repository.ErrOrderNotFound
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no extra locking: the unit of work already holds
// the store mutex.
func (r orderRepo) FindByIDForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r orderRepo) FindAll(_ context.Context) ([]*order.Order, error) {
	return r.filter(func(*order.Order) bool { return true })
}

func (r orderRepo) FindByAccount(_ context.Context, accountID string) ([]*order.Order, error) {
	return r.filter(func(o *order.Order) bool { return o.AccountID == accountID })
}

func (r orderRepo) filter(keep func(*order.Order) bool) ([]*order.Order, error) {
	var out []*order.Order
	err := r.v.with(func(st *state) error {
		out = make([]*order.Order, 0, len(st.orders))
		for _, o := range st.orders {
			if keep(o) {
				out = append(out, o.Clone())
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].PlacedAt.Equal(out[j].PlacedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].PlacedAt.Before(out[j].PlacedAt)
		})
		return nil
	})
	return out, err
}

func (r orderRepo) Update(_ context.Context, o *order.Order) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.orders[o.ID]; !ok {
			return repository.ErrOrderNotFound
		}
		st.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r orderRepo) HasOpenOrderFor(_ context.Context, productID string) (bool, error) {
	var found bool
	err := r.v.with(func(st *state) error {
		for _, o := range st.orders {
			if o.Status != order.StatusSubmitted && o.Status != order.StatusConfirmed {
				continue
			}
			for _, l := range o.Lines {
				if l.ProductID == productID {
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}

type cartRepo struct{ v *view }

func (r cartRepo) FindCurrent(_ context.Context, accountID string) (*cart.Cart, error) {
	var out *cart.Cart
	err := r.v.with(func(st *state) error {
		if c := currentCart(st, accountID); c != nil {
			out = c.Clone()
		}
		return nil
	})
	return out, err
}

func (r cartRepo) FindCurrentForUpdate(ctx context.Context, accountID string) (*cart.Cart, error) {
	return r.FindCurrent(ctx, accountID)
}

func (r cartRepo) Save(_ context.Context, c *cart.Cart) error {
	return r.v.with(func(st *state) error {
		if cur := currentCart(st, c.AccountID); cur != nil && cur.ID != c.ID && !c.Consumed() {
			return repository.NewPersistenceError("save cart", errDuplicateKey)
		}
		st.carts[c.ID] = c.Clone()
		return nil
	})
}

func (r cartRepo) Delete(_ context.Context, cartID string) error {
	return r.v.with(func(st *state) error {
		delete(st.carts, cartID)
		return nil
	})
}

func (r cartRepo) MarkConsumed(_ context.Context, cartID, orderID string) error {
	return r.v.with(func(st *state) error {
		c, ok := st.carts[cartID]
		if !ok {
			return cart.ErrEmptyCart
		}
		return c.Consume(orderID)
	})
}

func currentCart(st *state, accountID string) *cart.Cart {
	for _, c := range st.carts {
		if c.AccountID == accountID && !c.Consumed() {
			return c
		}
	}
	return nil
}
