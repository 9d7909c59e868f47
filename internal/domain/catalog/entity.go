package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Product is a sellable item with its stock counter.
// Stock is only changed through the stock ledger.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	MinimumStock int             `json:"minimum_stock"`
}

func NewProduct(id, name string, price decimal.Decimal, stock, minimum int) (*Product, error) {
	if id == "" || name == "" {
		return nil, ErrMissingField
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 || minimum < 0 || stock > MaxQuantity || minimum > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:           id,
		Name:         name,
		Price:        price,
		Stock:        stock,
		MinimumStock: minimum,
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Catalog maps product ids to products. It is built per unit of work by the
// persistence layer and handed to the stock ledger; it is never shared
// between operations.
type Catalog map[string]*Product

func New(products ...*Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		if p != nil {
			c[p.ID] = p
		}
	}
	return c
}

func (c Catalog) Lookup(id string) (*Product, bool) {
	p, ok := c[id]
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// IDs returns the product ids in ascending order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c Catalog) Products() []*Product {
	out := make([]*Product, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, c[id])
	}
	return out
}
