package replenishment

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
	"fulfillment/internal/domain/stock"
)

// ProductLister abstracts the product store so the scan is easy to test.
type ProductLister interface {
	FindAll(ctx context.Context) ([]*catalog.Product, error)
}

type Publisher interface {
	PublishReplenishment(ctx context.Context, r event.ReplenishmentRequest) error
}

type Service struct {
	products  ProductLister
	publisher Publisher
}

func NewService(products ProductLister, publisher Publisher) *Service {
	return &Service{
		products:  products,
		publisher: publisher,
	}
}

// Scan publishes a replenishment request for every product whose stock has
// fallen below its minimum and returns how many were published.
func (s *Service) Scan(ctx context.Context) (int, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}

	c := catalog.New(products...)
	count := 0
	for _, id := range c.IDs() {
		if !stock.NeedsReplenishment(c, id) {
			continue
		}
		p, _ := c.Lookup(id)
		if err := s.publisher.PublishReplenishment(ctx, event.NewReplenishmentRequest(p)); err != nil {
			return count, fmt.Errorf("publish replenishment for %s: %w", id, err)
		}
		count++
	}
	return count, nil
}

// Run scans once and then every interval until ctx is done. A non-positive
// interval scans once and returns.
func (s *Service) Run(ctx context.Context, interval time.Duration, report func(published int)) error {
	for {
		n, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		if report != nil {
			report(n)
		}
		if interval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
