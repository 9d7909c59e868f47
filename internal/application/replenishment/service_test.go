package replenishment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
)

// MockProductLister is a mock for ProductLister
type MockProductLister struct {
	mock.Mock
}

func (m *MockProductLister) FindAll(ctx context.Context) ([]*catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

// MockPublisher is a mock for Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReplenishment(ctx context.Context, r event.ReplenishmentRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func product(id string, stock, minimum int) *catalog.Product {
	return &catalog.Product{ID: id, Name: "Produit " + id, Price: decimal.NewFromInt(10), Stock: stock, MinimumStock: minimum}
}

func forProduct(id string, shortfall int) interface{} {
	return mock.MatchedBy(func(r event.ReplenishmentRequest) bool {
		return r.ProductID == id && r.Shortfall == shortfall
	})
}

func TestService_Scan_PublishesLowStock(t *testing.T) {
	// Arrange
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx := context.Background()

	lister.On("FindAll", ctx).Return([]*catalog.Product{
		product("PC", 2, 10),
		product("PA", 50, 10),
		product("PB", 10, 10),
		product("PD", 0, 5),
	}, nil)
	publisher.On("PublishReplenishment", ctx, forProduct("PC", 8)).Return(nil).Once()
	publisher.On("PublishReplenishment", ctx, forProduct("PD", 5)).Return(nil).Once()

	// Act
	count, err := service.Scan(ctx)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	lister.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestService_Scan_ListError(t *testing.T) {
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx := context.Background()

	lister.On("FindAll", ctx).Return(nil, errors.New("db down"))

	count, err := service.Scan(ctx)

	assert.ErrorContains(t, err, "list products")
	assert.Equal(t, 0, count)
	publisher.AssertNotCalled(t, "PublishReplenishment", mock.Anything, mock.Anything)
}

func TestService_Scan_PublishError(t *testing.T) {
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx := context.Background()

	lister.On("FindAll", ctx).Return([]*catalog.Product{product("PA", 1, 10), product("PB", 1, 10)}, nil)
	publisher.On("PublishReplenishment", ctx, forProduct("PA", 9)).Return(errors.New("publish failed"))

	count, err := service.Scan(ctx)

	assert.ErrorContains(t, err, "publish replenishment for PA")
	assert.Equal(t, 0, count)
	publisher.AssertNumberOfCalls(t, "PublishReplenishment", 1)
}

func TestService_Scan_NothingLow(t *testing.T) {
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx := context.Background()

	lister.On("FindAll", ctx).Return([]*catalog.Product{}, nil)

	count, err := service.Scan(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 0, count)
	publisher.AssertNotCalled(t, "PublishReplenishment", mock.Anything, mock.Anything)
}

func TestService_Run_Once(t *testing.T) {
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx := context.Background()

	lister.On("FindAll", ctx).Return([]*catalog.Product{product("PA", 1, 10)}, nil).Once()
	publisher.On("PublishReplenishment", ctx, forProduct("PA", 9)).Return(nil).Once()

	var reported []int
	err := service.Run(ctx, 0, func(n int) { reported = append(reported, n) })

	assert.NoError(t, err)
	assert.Equal(t, []int{1}, reported)
	lister.AssertExpectations(t)
}

func TestService_Run_StopsWithContext(t *testing.T) {
	lister := new(MockProductLister)
	publisher := new(MockPublisher)
	service := NewService(lister, publisher)
	ctx, cancel := context.WithCancel(context.Background())

	lister.On("FindAll", ctx).Return([]*catalog.Product{}, nil)

	scans := 0
	err := service.Run(ctx, time.Millisecond, func(int) {
		scans++
		if scans == 3 {
			cancel()
		}
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, scans)
}
