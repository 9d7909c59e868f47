package catalog

import (
	"context"
	"fmt"

	domain "fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/repository"
	"fulfillment/internal/domain/stock"
	"fulfillment/pkg/logger"
)

type Service struct {
	uow repository.UnitOfWork
	log logger.Logger
}

func NewService(uow repository.UnitOfWork, log logger.Logger) *Service {
	return &Service{uow: uow, log: log}
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	return s.uow.Store().Products().FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.uow.Store().Products().FindByID(ctx, id)
}

// Create adds a new product with its initial stock. An existing id fails
// with ErrProductExists.
func (s *Service) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created, err := domain.NewProduct(p.ID, p.Name, p.Price, p.Stock, p.MinimumStock)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Products().LockCatalog(ctx, []string{created.ID})
		if err != nil {
			return err
		}
		if _, ok := c.Lookup(created.ID); ok {
			return fmt.Errorf("create %s: %w", created.ID, domain.ErrProductExists)
		}
		return st.Products().Save(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Product created",
		logger.String("product_id", created.ID),
		logger.Int("stock", created.Stock))
	return created, nil
}

// Update replaces the name, price and minimum stock of an existing product.
// The stock counter is left alone: it only moves through the ledger.
func (s *Service) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if _, err := domain.NewProduct(p.ID, p.Name, p.Price, 0, p.MinimumStock); err != nil {
		return nil, err
	}

	var updated *domain.Product
	err := s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Products().LockCatalog(ctx, []string{p.ID})
		if err != nil {
			return err
		}
		cur, ok := c.Lookup(p.ID)
		if !ok {
			return fmt.Errorf("update %s: %w", p.ID, domain.ErrUnknownProduct)
		}
		cur.Name = p.Name
		cur.Price = p.Price
		cur.MinimumStock = p.MinimumStock
		updated = cur
		return st.Products().Save(ctx, cur)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Product updated", logger.String("product_id", updated.ID))
	return updated, nil
}

// Delete removes a product that no submitted or confirmed order references.
// The product row is locked first, so an order cannot pick it up between the
// check and the delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Products().LockCatalog(ctx, []string{id})
		if err != nil {
			return err
		}
		if _, ok := c.Lookup(id); !ok {
			return fmt.Errorf("delete %s: %w", id, domain.ErrUnknownProduct)
		}
		inUse, err := st.Orders().HasOpenOrderFor(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("delete %s: %w", id, domain.ErrProductInUse)
		}
		return st.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.WithContext(ctx).Info("Product deleted", logger.String("product_id", id))
	return nil
}

// Restock adds received goods to a product's stock.
func (s *Service) Restock(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	q, err := domain.NewPositiveQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var restocked *domain.Product
	err = s.uow.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		c, err := st.Products().LockCatalog(ctx, []string{productID})
		if err != nil {
			return err
		}
		p, ok := c.Lookup(productID)
		if !ok {
			return fmt.Errorf("restock %s: %w", productID, domain.ErrUnknownProduct)
		}
		if !stock.AddStock(c, productID, q) {
			return fmt.Errorf("restock %s: stock %d plus %d exceeds %d: %w",
				productID, p.Stock, quantity, domain.MaxQuantity, domain.ErrInvalidQuantity)
		}
		restocked = p
		return st.Products().UpdateStock(ctx, restocked)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Stock added",
		logger.String("product_id", productID),
		logger.Int("quantity", quantity),
		logger.Int("stock", restocked.Stock))
	return restocked, nil
}
