package order

import (
	"fmt"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/stock"
)

const (
	OpConfirm = "confirm"
	OpShip    = "ship"
	OpCancel  = "cancel"
	OpAddItem = "add item to"
)

// Movement is a stock change applied as a side effect of a transition.
// Delta is negative for a reservation and positive for a release.
type Movement struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

type Transition struct {
	Op        string
	From      Status
	To        Status
	Movements []Movement
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

// Confirm reserves stock for every line and moves a submitted order to
// confirmed. If any line cannot be satisfied nothing is reserved and the
// order is cancelled. A confirmed or cancelled order is left as is; a
// shipped order is terminal and the call fails.
func (o *Order) Confirm(c catalog.Catalog) (Transition, error) {
	t := Transition{Op: OpConfirm, From: o.Status, To: o.Status}
	if o.Status == StatusShipped {
		return t, &InvalidTransitionError{OrderID: o.ID, Op: OpConfirm, Status: o.Status}
	}
	if o.Status != StatusSubmitted {
		return t, nil
	}

	// Lines are checked against the summed demand per product so that a
	// product listed twice cannot pass both checks on its own. A sum out of
	// range is recorded as -1, which no stock satisfies.
	demand := make(map[string]int, len(o.Lines))
	for _, l := range o.Lines {
		cur := demand[l.ProductID]
		if cur < 0 || !catalog.Quantity(l.Quantity).Fits(cur) {
			demand[l.ProductID] = -1
			continue
		}
		demand[l.ProductID] = cur + l.Quantity
	}
	for _, l := range o.Lines {
		if !stock.HasSufficientStock(c, l.ProductID, catalog.Quantity(demand[l.ProductID])) {
			o.setStatus(StatusCancelled)
			t.To = StatusCancelled
			return t, nil
		}
	}

	for _, l := range o.Lines {
		q := catalog.Quantity(l.Quantity)
		if stock.RemoveStock(c, l.ProductID, q) {
			t.Movements = append(t.Movements, Movement{ProductID: l.ProductID, Delta: -l.Quantity})
		}
	}
	o.setStatus(StatusConfirmed)
	t.To = StatusConfirmed
	return t, nil
}

// Ship marks a confirmed order as shipped. Submitted and cancelled orders
// are left as is; shipping twice fails.
func (o *Order) Ship() (Transition, error) {
	t := Transition{Op: OpShip, From: o.Status, To: o.Status}
	switch o.Status {
	case StatusConfirmed:
		o.setStatus(StatusShipped)
		t.To = StatusShipped
	case StatusShipped:
		return t, &InvalidTransitionError{OrderID: o.ID, Op: OpShip, Status: o.Status}
	}
	return t, nil
}

// Cancel moves an order to cancelled. A confirmed order gives its reserved
// quantities back to the catalog. Cancelling a cancelled or shipped order
// fails without touching stock.
func (o *Order) Cancel(c catalog.Catalog) (Transition, error) {
	t := Transition{Op: OpCancel, From: o.Status, To: o.Status}
	switch o.Status {
	case StatusSubmitted:
	case StatusConfirmed:
		for _, l := range o.Lines {
			if stock.AddStock(c, l.ProductID, catalog.Quantity(l.Quantity)) {
				t.Movements = append(t.Movements, Movement{ProductID: l.ProductID, Delta: l.Quantity})
			}
		}
	default:
		return t, &InvalidTransitionError{OrderID: o.ID, Op: OpCancel, Status: o.Status}
	}
	o.setStatus(StatusCancelled)
	t.To = StatusCancelled
	return t, nil
}

// AddLineItem accumulates q onto the line for productID, or appends a new
// line when the product exists in c. Unknown products are ignored and false
// is returned. Stock is not checked here, only at confirmation. A line never
// grows past catalog.MaxQuantity; such an addition fails with
// catalog.ErrInvalidQuantity and leaves the order unchanged.
//
// Lines can only change while the order is submitted: a confirmed order's
// lines are the record of what was reserved.
func (o *Order) AddLineItem(c catalog.Catalog, productID string, q catalog.Quantity) (bool, error) {
	if o.Status != StatusSubmitted {
		return false, &InvalidTransitionError{OrderID: o.ID, Op: OpAddItem, Status: o.Status}
	}
	if !q.Valid() {
		return false, catalog.ErrInvalidQuantity
	}

	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			if !q.Fits(o.Lines[i].Quantity) {
				return false, fmt.Errorf("line %s of order %s would exceed %d units: %w",
					productID, o.ID, catalog.MaxQuantity, catalog.ErrInvalidQuantity)
			}
			o.Lines[i].Quantity += q.Int()
			o.touch()
			return true, nil
		}
	}

	p, ok := c.Lookup(productID)
	if !ok {
		return false, nil
	}
	o.Lines = append(o.Lines, LineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    q.Int(),
		SalePrice:   p.Price,
	})
	o.touch()
	return true, nil
}
