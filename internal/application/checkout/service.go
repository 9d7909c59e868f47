package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
	"fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
	"fulfillment/pkg/logger"
)

var ErrInvalidCommand = errors.New("invalid place order command")

type PlaceOrderCommand struct {
	AccountID      string        `json:"-"`
	CardholderName string        `json:"cardholder_name"`
	CardNumber     string        `json:"card_number"`
	Expiry         string        `json:"expiry"`
	ShippingMethod string        `json:"shipping_method"`
	Address        order.Address `json:"address"`
	// IdempotencyKey is optional. A retried command with the same key
	// returns the order created by the first attempt.
	IdempotencyKey string `json:"-"`
}

func (c PlaceOrderCommand) validate() (order.Shipping, order.Payment, error) {
	if c.AccountID == "" {
		return order.Shipping{}, order.Payment{}, fmt.Errorf("%w: account id is required", ErrInvalidCommand)
	}
	payment, err := order.NewPayment(c.CardholderName, c.CardNumber, c.Expiry)
	if err != nil {
		return order.Shipping{}, order.Payment{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	method, err := order.ParseShippingMethod(c.ShippingMethod)
	if err != nil {
		return order.Shipping{}, order.Payment{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if err := c.Address.Validate(); err != nil {
		return order.Shipping{}, order.Payment{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return order.Shipping{Method: method, Address: c.Address}, payment, nil
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev event.OrderEvent) error
}

type IdempotencyStore interface {
	Lookup(ctx context.Context, accountID, key string) (orderID string, found bool, err error)
	Remember(ctx context.Context, accountID, key, orderID string) error
}

// Service converts an account's current cart into a submitted order.
type Service struct {
	uow         repository.UnitOfWork
	publisher   Publisher
	idempotency IdempotencyStore
	log         logger.Logger
}

// NewService builds the checkout service. idempotency may be nil.
func NewService(uow repository.UnitOfWork, publisher Publisher, idempotency IdempotencyStore, log logger.Logger) *Service {
	return &Service{uow: uow, publisher: publisher, idempotency: idempotency, log: log}
}

// PlaceOrder snapshots the cart lines with the current product prices,
// creates the order and marks the cart converted, all in one unit of work.
// Concurrent conversions of the same cart produce exactly one order; the
// others fail with cart.ErrEmptyCart.
func (s *Service) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*order.Order, error) {
	shipping, payment, err := cmd.validate()
	if err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx).WithFields(logger.String("account_id", cmd.AccountID))

	if o := s.replay(ctx, cmd, log); o != nil {
		return o, nil
	}

	var placed *order.Order
	err = s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Carts().FindCurrentForUpdate(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return cart.ErrEmptyCart
		}

		ids := make([]string, 0, len(c.Lines))
		for _, l := range c.Lines {
			ids = append(ids, l.ProductID)
		}
		products, err := st.Products().LockCatalog(ctx, ids)
		if err != nil {
			return err
		}

		lines := make([]order.LineItem, 0, len(c.Lines))
		for _, l := range c.Lines {
			p, ok := products.Lookup(l.ProductID)
			if !ok {
				return fmt.Errorf("price cart line %s: %w", l.ProductID, catalog.ErrUnknownProduct)
			}
			lines = append(lines, order.LineItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				SalePrice:   p.Price,
			})
		}

		o, err := order.NewOrder(uuid.NewString(), cmd.AccountID, lines, shipping, payment)
		if err != nil {
			return err
		}
		if err := st.Orders().Create(ctx, o); err != nil {
			return err
		}
		if err := st.Carts().MarkConsumed(ctx, c.ID, o.ID); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			log.Warn("Nothing to convert")
		}
		return nil, err
	}

	log.Info("Order placed",
		logger.String("order_id", placed.ID),
		logger.Int("lines", len(placed.Lines)),
		logger.String("total", placed.Total().String()))

	if err := s.publisher.PublishOrderEvent(ctx, event.NewOrderPlaced(placed, logger.RequestIDFromContext(ctx))); err != nil {
		log.Error("Failed to publish order event", logger.String("order_id", placed.ID), logger.Error(err))
	}
	s.remember(ctx, cmd, placed.ID, log)
	return placed, nil
}

func (s *Service) replay(ctx context.Context, cmd PlaceOrderCommand, log logger.Logger) *order.Order {
	if s.idempotency == nil || cmd.IdempotencyKey == "" {
		return nil
	}
	orderID, found, err := s.idempotency.Lookup(ctx, cmd.AccountID, cmd.IdempotencyKey)
	if err != nil {
		log.Warn("Idempotency lookup failed", logger.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	o, err := s.uow.Store().Orders().FindByID(ctx, orderID)
	if err != nil {
		log.Warn("Idempotency key points to unreadable order",
			logger.String("order_id", orderID),
			logger.Error(err))
		return nil
	}
	log.Info("Replaying placed order", logger.String("order_id", orderID))
	return o
}

func (s *Service) remember(ctx context.Context, cmd PlaceOrderCommand, orderID string, log logger.Logger) {
	if s.idempotency == nil || cmd.IdempotencyKey == "" {
		return
	}
	if err := s.idempotency.Remember(ctx, cmd.AccountID, cmd.IdempotencyKey, orderID); err != nil {
		log.Warn("Failed to remember idempotency key", logger.Error(err))
	}
}
