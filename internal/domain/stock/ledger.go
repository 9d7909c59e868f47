// Package stock holds the stock ledger: the only functions allowed to change
// a product's stock counter.
package stock

import "fulfillment/internal/domain/catalog"

// HasSufficientStock reports whether productID exists and holds at least q
// units. An out-of-range q is never satisfiable.
func HasSufficientStock(c catalog.Catalog, productID string, q catalog.Quantity) bool {
	p, ok := c.Lookup(productID)
	if !ok || !q.Valid() {
		return false
	}
	return p.Stock >= q.Int()
}

// NeedsReplenishment reports whether productID exists and its stock is
// strictly below its minimum threshold. Unknown products never need it.
func NeedsReplenishment(c catalog.Catalog, productID string) bool {
	p, ok := c.Lookup(productID)
	if !ok {
		return false
	}
	return p.Stock < p.MinimumStock
}

// AddStock credits q units to productID. It returns false, leaving the
// catalog untouched, when the product is unknown, q is out of range or the
// counter would exceed catalog.MaxQuantity.
func AddStock(c catalog.Catalog, productID string, q catalog.Quantity) bool {
	p, ok := c.Lookup(productID)
	if !ok || !q.Fits(p.Stock) {
		return false
	}
	p.Stock += q.Int()
	return true
}

// RemoveStock debits q units from productID only when the product exists and
// holds at least q units. Otherwise nothing changes and false is returned.
func RemoveStock(c catalog.Catalog, productID string, q catalog.Quantity) bool {
	if !HasSufficientStock(c, productID, q) {
		return false
	}
	p, _ := c.Lookup(productID)
	p.Stock -= q.Int()
	return true
}
