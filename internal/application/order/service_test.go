package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
	domain "fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
	"fulfillment/internal/infrastructure/persistence/memory"
	"fulfillment/pkg/logger"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, ev event.OrderEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func eventOfType(typ event.OrderEventType) interface{} {
	return mock.MatchedBy(func(ev event.OrderEvent) bool { return ev.Type == typ })
}

func seed(t *testing.T, store *memory.Store, orders ...*domain.Order) {
	t.Helper()
	ctx := context.Background()
	products := []*catalog.Product{
		{ID: "PA", Name: "Produit A", Price: decimal.NewFromInt(10), Stock: 100, MinimumStock: 10},
		{ID: "PB", Name: "Produit B", Price: decimal.NewFromInt(20), Stock: 100, MinimumStock: 10},
		{ID: "PX", Name: "Produit X", Price: decimal.NewFromInt(40), Stock: 150, MinimumStock: 10},
	}
	for _, p := range products {
		require.NoError(t, store.Store().Products().Save(ctx, p))
	}
	for _, o := range orders {
		require.NoError(t, store.Store().Orders().Create(ctx, o))
	}
}

func newOrder(id string, lines ...domain.LineItem) *domain.Order {
	o, err := domain.NewOrder(id, "josbleau", lines,
		domain.Shipping{Method: domain.ShippingFedex, Address: domain.Address{
			Name: "Jos Bleau", Street: "1 rue Principale", City: "Montreal", Province: "QC", PostalCode: "H2X 1Y4",
		}},
		domain.Payment{CardholderName: "Jos Bleau", CardLast4: "4242", Expiry: "12/30"})
	if err != nil {
		panic(err)
	}
	return o
}

func item(productID string, qty int) domain.LineItem {
	return domain.LineItem{ProductID: productID, ProductName: productID, Quantity: qty, SalePrice: decimal.NewFromInt(1)}
}

func stockOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	p, err := store.Store().Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestService_Confirm_ReservesStock(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-1", item("PA", 20), item("PB", 30)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(event.OrderConfirmed)).Return(nil).Once()
	svc := NewService(store, pub, logger.NewNop())

	o, err := svc.Confirm(context.Background(), "o-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Equal(t, 80, stockOf(t, store, "PA"))
	assert.Equal(t, 70, stockOf(t, store, "PB"))

	persisted, err := svc.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, persisted.Status)
	pub.AssertExpectations(t)
}

func TestService_Confirm_RejectsWithoutPartialDebit(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-2", item("PA", 20), item("PB", 30)))
	ctx := context.Background()
	pb, err := store.Store().Products().FindByID(ctx, "PB")
	require.NoError(t, err)
	pb.Stock = 10
	require.NoError(t, store.Store().Products().UpdateStock(ctx, pb))

	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(event.OrderRejected)).Return(nil).Once()
	svc := NewService(store, pub, logger.NewNop())

	o, err := svc.Confirm(ctx, "o-2")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, 100, stockOf(t, store, "PA"))
	assert.Equal(t, 10, stockOf(t, store, "PB"))
	pub.AssertExpectations(t)
}

func TestService_Confirm_NoopOnConfirmedOrder(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-3", item("PA", 20)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Once()
	svc := NewService(store, pub, logger.NewNop())

	_, err := svc.Confirm(context.Background(), "o-3")
	require.NoError(t, err)
	o, err := svc.Confirm(context.Background(), "o-3")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Equal(t, 80, stockOf(t, store, "PA"))
	pub.AssertNumberOfCalls(t, "PublishOrderEvent", 1)
}

func TestService_Cancel_RestoresOnceThenFails(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-4", item("PX", 57)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(event.OrderConfirmed)).Return(nil).Once()
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(event.OrderCancelled)).Return(nil).Once()
	svc := NewService(store, pub, logger.NewNop())
	ctx := context.Background()

	_, err := svc.Confirm(ctx, "o-4")
	require.NoError(t, err)
	require.Equal(t, 93, stockOf(t, store, "PX"))

	o, err := svc.Cancel(ctx, "o-4")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, 150, stockOf(t, store, "PX"))

	_, err = svc.Cancel(ctx, "o-4")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusCancelled, invalid.Status)
	assert.Equal(t, 150, stockOf(t, store, "PX"))
	pub.AssertExpectations(t)
}

func TestService_Ship(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-5", item("PA", 1)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)
	svc := NewService(store, pub, logger.NewNop())
	ctx := context.Background()

	o, err := svc.Ship(ctx, "o-5")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, o.Status)

	_, err = svc.Confirm(ctx, "o-5")
	require.NoError(t, err)
	o, err = svc.Ship(ctx, "o-5")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)

	_, err = svc.Ship(ctx, "o-5")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = svc.Confirm(ctx, "o-5")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Cancel(ctx, "o-5")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 99, stockOf(t, store, "PA"))
}

func TestService_AddLineItem(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-6", item("PA", 20)))
	svc := NewService(store, new(MockPublisher), logger.NewNop())
	ctx := context.Background()

	o, err := svc.AddLineItem(ctx, "o-6", "PA", 10)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 30, o.Lines[0].Quantity)

	o, err = svc.AddLineItem(ctx, "o-6", "PB", 2)
	require.NoError(t, err)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Produit B", o.Lines[1].ProductName)
	assert.True(t, decimal.NewFromInt(20).Equal(o.Lines[1].SalePrice))

	_, err = svc.AddLineItem(ctx, "o-6", "ghost", 1)
	assert.ErrorIs(t, err, catalog.ErrUnknownProduct)

	_, err = svc.AddLineItem(ctx, "o-6", "PA", 0)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)

	persisted, err := svc.Get(ctx, "o-6")
	require.NoError(t, err)
	assert.Len(t, persisted.Lines, 2)
}

func TestService_AddLineItem_OverflowIsInputError(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-11", item("PA", 20)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, eventOfType(event.OrderConfirmed)).Return(nil).Once()
	svc := NewService(store, pub, logger.NewNop())
	ctx := context.Background()

	_, err := svc.AddLineItem(ctx, "o-11", "PA", catalog.MaxQuantity)

	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)
	assert.NotErrorIs(t, err, repository.ErrPersistence)

	_, err = svc.AddLineItem(ctx, "o-11", "PA", catalog.MaxQuantity+1)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)

	persisted, err := svc.Get(ctx, "o-11")
	require.NoError(t, err)
	assert.Equal(t, 20, persisted.Lines[0].Quantity)

	o, err := svc.Confirm(ctx, "o-11")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Equal(t, 80, stockOf(t, store, "PA"))
	pub.AssertExpectations(t)
}

func TestService_NotFound(t *testing.T) {
	svc := NewService(memory.NewStore(), new(MockPublisher), logger.NewNop())

	_, err := svc.Confirm(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestService_PublishFailureKeepsTransition(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-7", item("PA", 5)))
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewService(store, pub, logger.NewNop())

	o, err := svc.Confirm(context.Background(), "o-7")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Equal(t, 95, stockOf(t, store, "PA"))
}

// failingUoW makes order Update fail after the stock write already happened
// inside the same unit of work.
type failingUoW struct {
	inner *memory.Store
}

func (f failingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		return fn(ctx, failingStore{s})
	})
}

func (f failingUoW) Store() repository.Store {
	return f.inner.Store()
}

type failingStore struct {
	repository.Store
}

func (s failingStore) Orders() repository.OrderRepository {
	return failingOrders{s.Store.Orders()}
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) Update(context.Context, *domain.Order) error {
	return repository.NewPersistenceError("update order", errors.New("connection reset"))
}

func TestService_PersistenceFailureRollsBack(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, newOrder("o-8", item("PA", 20)))
	svc := NewService(failingUoW{store}, new(MockPublisher), logger.NewNop())

	_, err := svc.Confirm(context.Background(), "o-8")

	assert.ErrorIs(t, err, repository.ErrPersistence)
	assert.Equal(t, 100, stockOf(t, store, "PA"))
	o, err := store.Store().Orders().FindByID(context.Background(), "o-8")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, o.Status)
}

func TestService_ListByAccount(t *testing.T) {
	store := memory.NewStore()
	other := newOrder("o-10", item("PA", 1))
	other.AccountID = "someone"
	seed(t, store, newOrder("o-9", item("PA", 1)), other)
	svc := NewService(store, new(MockPublisher), logger.NewNop())

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListByAccount(context.Background(), "josbleau")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "o-9", mine[0].ID)
}
