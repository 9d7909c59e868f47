package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem references one catalog product. SalePrice is frozen when the
// order is created from a cart.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	SalePrice   decimal.Decimal `json:"sale_price"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Lines     []LineItem `json:"lines"`
	Status    Status     `json:"status"`
	Shipping  Shipping   `json:"shipping"`
	Payment   Payment    `json:"payment"`
	PlacedAt  time.Time  `json:"placed_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewOrder(id, accountID string, lines []LineItem, shipping Shipping, payment Payment) (*Order, error) {
	if id == "" || accountID == "" {
		return nil, ErrMissingField
	}
	now := time.Now().UTC()
	return &Order{
		ID:        id,
		AccountID: accountID,
		Lines:     append([]LineItem(nil), lines...),
		Status:    StatusSubmitted,
		Shipping:  shipping,
		Payment:   payment,
		PlacedAt:  now,
		UpdatedAt: now,
	}, nil
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ProductIDs returns the distinct product ids of the order in line order.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	ids := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Lines = append([]LineItem(nil), o.Lines...)
	return &cp
}

func (o *Order) setStatus(s Status) {
	o.Status = s
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
