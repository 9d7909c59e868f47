package cart

import (
	"context"

	"github.com/google/uuid"

	domain "fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/repository"
	"fulfillment/pkg/logger"
)

// Service edits an account's current cart.
type Service struct {
	uow repository.UnitOfWork
	log logger.Logger
}

func NewService(uow repository.UnitOfWork, log logger.Logger) *Service {
	return &Service{uow: uow, log: log}
}

// Get returns the current cart, or an empty unsaved one when the account has
// none.
func (s *Service) Get(ctx context.Context, accountID string) (*domain.Cart, error) {
	c, err := s.uow.Store().Carts().FindCurrent(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &domain.Cart{AccountID: accountID, Lines: []domain.Line{}}, nil
	}
	return c, nil
}

// PutItem sets the quantity of productID in the cart, creating the cart on
// first use. A nil quantity adds one unit.
func (s *Service) PutItem(ctx context.Context, accountID, productID string, quantity *int) (domain.Line, error) {
	var q *catalog.Quantity
	if quantity != nil {
		v, err := catalog.NewPositiveQuantity(*quantity)
		if err != nil {
			return domain.Line{}, err
		}
		q = &v
	}

	var line domain.Line
	err := s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		if _, err := st.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		c, err := s.current(ctx, st, accountID)
		if err != nil {
			return err
		}
		line, err = c.Put(productID, q)
		if err != nil {
			return err
		}
		return st.Carts().Save(ctx, c)
	})
	if err != nil {
		return domain.Line{}, err
	}

	s.log.WithContext(ctx).Info("Cart updated",
		logger.String("account_id", accountID),
		logger.String("product_id", productID),
		logger.Int("quantity", line.Quantity))
	return line, nil
}

func (s *Service) RemoveItem(ctx context.Context, accountID, productID string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Carts().FindCurrentForUpdate(ctx, accountID)
		if err != nil || c == nil {
			return err
		}
		if err := c.Remove(productID); err != nil {
			return err
		}
		return st.Carts().Save(ctx, c)
	})
}

// Clear drops the current cart. Converted carts stay attached to their order.
func (s *Service) Clear(ctx context.Context, accountID string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Carts().FindCurrentForUpdate(ctx, accountID)
		if err != nil || c == nil {
			return err
		}
		return st.Carts().Delete(ctx, c.ID)
	})
}

func (s *Service) current(ctx context.Context, st repository.Store, accountID string) (*domain.Cart, error) {
	c, err := st.Carts().FindCurrentForUpdate(ctx, accountID)
	if err != nil || c != nil {
		return c, err
	}
	return domain.NewCart(uuid.NewString(), accountID)
}
