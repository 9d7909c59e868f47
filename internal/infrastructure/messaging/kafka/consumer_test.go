package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/repository"
	"fulfillment/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockRestocker struct {
	mock.Mock
}

func (m *MockRestocker) Restock(ctx context.Context, productID string, quantity int) (*catalog.Product, error) {
	args := m.Called(ctx, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafkago.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func newTestConsumer(reader messageReader, handler Restocker) *RestockConsumer {
	return &RestockConsumer{reader: reader, handler: handler, logger: logger.NewNop()}
}

func TestRestockConsumer_AppliesAndCommits(t *testing.T) {
	handler := new(MockRestocker)
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 1, Value: []byte(`{"product_id":"P1","quantity":20}`)},
		{Offset: 2, Value: []byte(`{not json}`)},
		{Offset: 3, Value: []byte(`{"product_id":"ghost","quantity":1}`)},
	}}
	handler.On("Restock", mock.Anything, "P1", 20).Return(&catalog.Product{ID: "P1", Stock: 25}, nil).Once()
	handler.On("Restock", mock.Anything, "ghost", 1).Return(nil, catalog.ErrUnknownProduct).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestConsumer(reader, handler).Start(ctx) }()

	assert.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 3
	}, time.Second, 10*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	handler.AssertExpectations(t)
}

func TestRestockConsumer_StopsOnPersistenceFailure(t *testing.T) {
	handler := new(MockRestocker)
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 7, Value: []byte(`{"product_id":"P1","quantity":5}`)},
	}}
	failure := repository.NewPersistenceError("update stock", errors.New("connection reset"))
	handler.On("Restock", mock.Anything, "P1", 5).Return(nil, failure)

	err := newTestConsumer(reader, handler).Start(context.Background())

	assert.ErrorIs(t, err, repository.ErrPersistence)
	assert.Empty(t, reader.committed)
}

func TestRestockConsumer_ShutdownDuringHandleIsClean(t *testing.T) {
	handler := new(MockRestocker)
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 9, Value: []byte(`{"product_id":"P1","quantity":5}`)},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	handler.On("Restock", mock.Anything, "P1", 5).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, repository.NewPersistenceError("begin tx", context.Canceled))

	err := newTestConsumer(reader, handler).Start(ctx)

	assert.NoError(t, err)
	assert.Empty(t, reader.committed)
	handler.AssertExpectations(t)
}

func TestRestockConsumer_Close(t *testing.T) {
	reader := &fakeReader{}

	newTestConsumer(reader, new(MockRestocker)).Close()

	assert.True(t, reader.closed)
}
