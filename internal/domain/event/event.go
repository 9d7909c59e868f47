package event

import (
	"time"

	"github.com/google/uuid"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/order"
)

type OrderEventType string

const (
	OrderPlaced    OrderEventType = "order.placed"
	OrderConfirmed OrderEventType = "order.confirmed"
	OrderRejected  OrderEventType = "order.rejected"
	OrderShipped   OrderEventType = "order.shipped"
	OrderCancelled OrderEventType = "order.cancelled"
)

type StockMovement struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

// OrderEvent is published after a lifecycle transition has been committed.
type OrderEvent struct {
	EventID    string          `json:"event_id"`
	Type       OrderEventType  `json:"type"`
	OrderID    string          `json:"order_id"`
	AccountID  string          `json:"account_id"`
	FromStatus string          `json:"from_status"`
	ToStatus   string          `json:"to_status"`
	Total      string          `json:"total"`
	Movements  []StockMovement `json:"movements"`
	RequestID  string          `json:"request_id"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewOrderPlaced(o *order.Order, requestID string) OrderEvent {
	return newOrderEvent(OrderPlaced, o, "", nil, requestID)
}

// FromTransition maps a committed transition to its event type. ok is false
// for transitions that changed nothing.
func FromTransition(o *order.Order, t order.Transition, requestID string) (OrderEvent, bool) {
	if !t.Changed() {
		return OrderEvent{}, false
	}
	var typ OrderEventType
	switch {
	case t.To == order.StatusConfirmed:
		typ = OrderConfirmed
	case t.Op == order.OpConfirm && t.To == order.StatusCancelled:
		typ = OrderRejected
	case t.To == order.StatusShipped:
		typ = OrderShipped
	case t.To == order.StatusCancelled:
		typ = OrderCancelled
	default:
		return OrderEvent{}, false
	}
	return newOrderEvent(typ, o, string(t.From), t.Movements, requestID), true
}

func newOrderEvent(typ OrderEventType, o *order.Order, from string, moves []order.Movement, requestID string) OrderEvent {
	movements := make([]StockMovement, 0, len(moves))
	for _, m := range moves {
		movements = append(movements, StockMovement{ProductID: m.ProductID, Delta: m.Delta})
	}
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		OrderID:    o.ID,
		AccountID:  o.AccountID,
		FromStatus: from,
		ToStatus:   string(o.Status),
		Total:      o.Total().String(),
		Movements:  movements,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
}

// ReplenishmentRequest asks purchasing to reorder a product whose stock fell
// below its minimum.
type ReplenishmentRequest struct {
	RequestID    string    `json:"request_id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Stock        int       `json:"stock"`
	MinimumStock int       `json:"minimum_stock"`
	Shortfall    int       `json:"shortfall"`
	RequestedAt  time.Time `json:"requested_at"`
}

func NewReplenishmentRequest(p *catalog.Product) ReplenishmentRequest {
	return ReplenishmentRequest{
		RequestID:    uuid.NewString(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		Stock:        p.Stock,
		MinimumStock: p.MinimumStock,
		Shortfall:    p.MinimumStock - p.Stock,
		RequestedAt:  time.Now().UTC(),
	}
}

// Restock is consumed from the restock topic when goods are received.
type Restock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
