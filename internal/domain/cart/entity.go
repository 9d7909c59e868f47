package cart

import (
	"time"

	"fulfillment/internal/domain/catalog"
)

type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is an account's pre-order basket. OrderID is empty until the cart is
// converted; a converted cart is never edited or converted again.
type Cart struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Lines     []Line    `json:"lines"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCart(id, accountID string) (*Cart, error) {
	if id == "" || accountID == "" {
		return nil, ErrMissingField
	}
	return &Cart{
		ID:        id,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) Consumed() bool {
	return c != nil && c.OrderID != ""
}

func (c *Cart) Line(productID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// Put sets the quantity of productID. A nil quantity increments an existing
// line by one or inserts the product with a quantity of one.
func (c *Cart) Put(productID string, q *catalog.Quantity) (Line, error) {
	if c.Consumed() {
		return Line{}, ErrCartConsumed
	}
	if q != nil && (!q.Valid() || *q == 0) {
		return Line{}, catalog.ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if q == nil {
			if !catalog.Quantity(1).Fits(c.Lines[i].Quantity) {
				return Line{}, catalog.ErrInvalidQuantity
			}
			c.Lines[i].Quantity++
		} else {
			c.Lines[i].Quantity = q.Int()
		}
		return c.Lines[i], nil
	}

	l := Line{ProductID: productID, Quantity: 1}
	if q != nil {
		l.Quantity = q.Int()
	}
	c.Lines = append(c.Lines, l)
	return l, nil
}

func (c *Cart) Remove(productID string) error {
	if c.Consumed() {
		return ErrCartConsumed
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return nil
}

// Consume attaches the cart to orderID. It fails with ErrEmptyCart when the
// cart has nothing to convert or was already converted.
func (c *Cart) Consume(orderID string) error {
	if c.IsEmpty() || c.Consumed() {
		return ErrEmptyCart
	}
	c.OrderID = orderID
	return nil
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp
}
