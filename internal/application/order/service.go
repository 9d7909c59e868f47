package order

import (
	"context"
	"fmt"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
	domain "fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
	"fulfillment/pkg/logger"
)

type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev event.OrderEvent) error
}

// Service runs the order lifecycle against persisted state. Every
// transition loads the order and the products it references inside one
// unit of work, so concurrent transitions on shared products serialise.
type Service struct {
	uow       repository.UnitOfWork
	publisher Publisher
	log       logger.Logger
}

func NewService(uow repository.UnitOfWork, publisher Publisher, log logger.Logger) *Service {
	return &Service{uow: uow, publisher: publisher, log: log}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.uow.Store().Orders().FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	return s.uow.Store().Orders().FindAll(ctx)
}

func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]*domain.Order, error) {
	return s.uow.Store().Orders().FindByAccount(ctx, accountID)
}

// Confirm reserves stock for a submitted order. An order that cannot be
// fully satisfied is cancelled instead, which is not an error. Confirming a
// shipped order fails with order.ErrInvalidTransition.
func (s *Service) Confirm(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, true, func(o *domain.Order, c catalog.Catalog) (domain.Transition, error) {
		return o.Confirm(c)
	})
}

func (s *Service) Ship(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, false, func(o *domain.Order, _ catalog.Catalog) (domain.Transition, error) {
		return o.Ship()
	})
}

func (s *Service) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, true, func(o *domain.Order, c catalog.Catalog) (domain.Transition, error) {
		return o.Cancel(c)
	})
}

// AddLineItem adds quantity of productID to a submitted order.
func (s *Service) AddLineItem(ctx context.Context, id, productID string, quantity int) (*domain.Order, error) {
	q, err := catalog.NewPositiveQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var o *domain.Order
	err = s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		var err error
		o, err = st.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		c, err := st.Products().LockCatalog(ctx, []string{productID})
		if err != nil {
			return err
		}
		added, err := o.AddLineItem(c, productID, q)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("add %s to order %s: %w", productID, id, catalog.ErrUnknownProduct)
		}
		return st.Orders().Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Line item added",
		logger.String("order_id", id),
		logger.String("product_id", productID),
		logger.Int("quantity", quantity))
	return o, nil
}

type applyFunc func(o *domain.Order, c catalog.Catalog) (domain.Transition, error)

func (s *Service) transition(ctx context.Context, id string, touchesStock bool, apply applyFunc) (*domain.Order, error) {
	var (
		o *domain.Order
		t domain.Transition
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		var err error
		o, err = st.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		c := catalog.New()
		if touchesStock {
			c, err = st.Products().LockCatalog(ctx, o.ProductIDs())
			if err != nil {
				return err
			}
		}

		t, err = apply(o, c)
		if err != nil {
			return err
		}
		if !t.Changed() {
			return nil
		}

		if moved := movedProducts(c, t); len(moved) > 0 {
			if err := st.Products().UpdateStock(ctx, moved...); err != nil {
				return err
			}
		}
		return st.Orders().Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx)
	if !t.Changed() {
		log.Warn("Transition had no effect",
			logger.String("order_id", id),
			logger.String("op", t.Op),
			logger.String("status", string(o.Status)))
		return o, nil
	}
	log.Info("Order transitioned",
		logger.String("order_id", id),
		logger.String("op", t.Op),
		logger.String("from", string(t.From)),
		logger.String("to", string(t.To)),
		logger.Int("movements", len(t.Movements)))

	s.publish(ctx, o, t)
	return o, nil
}

func (s *Service) publish(ctx context.Context, o *domain.Order, t domain.Transition) {
	ev, ok := event.FromTransition(o, t, logger.RequestIDFromContext(ctx))
	if !ok {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, ev); err != nil {
		s.log.WithContext(ctx).Error("Failed to publish order event",
			logger.String("order_id", o.ID),
			logger.String("type", string(ev.Type)),
			logger.Error(err))
	}
}

func movedProducts(c catalog.Catalog, t domain.Transition) []*catalog.Product {
	seen := make(map[string]bool, len(t.Movements))
	var out []*catalog.Product
	for _, m := range t.Movements {
		if seen[m.ProductID] {
			continue
		}
		seen[m.ProductID] = true
		if p, ok := c.Lookup(m.ProductID); ok {
			out = append(out, p)
		}
	}
	return out
}
