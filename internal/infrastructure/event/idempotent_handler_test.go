package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	inner := newTestHandler("ProductionRunCompleted")
	h := NewIdempotentHandler(inner, store, 0, zap.NewNop())
	assert.Equal(t, []string{"ProductionRunCompleted"}, h.EventTypes())

	evt := newTestEvent("ProductionRunCompleted")
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("ProductionRunCompleted")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{EventsProcessed: 2, EventsDuplicate: 1}, h.Stats())
}

func TestIdempotentHandler_FailureReleasesClaim(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	inner := newTestHandler("AllocationsReleased")
	inner.err = errors.New("exporter unavailable")
	h := NewIdempotentHandler(inner, store, time.Minute, zap.NewNop())

	evt := newTestEvent("AllocationsReleased")
	assert.Error(t, h.Handle(context.Background(), evt))

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, 2, inner.count(), "retry after failure reaches the handler")
	assert.Equal(t, int64(1), h.Stats().EventsFailed)
}

func TestIdempotentHandler_StoreErrorProcessesAnyway(t *testing.T) {
	store := new(MockIdempotencyStore)
	evt := newTestEvent("AllocationsReserved")
	key := "event:" + evt.EventID().String()
	store.On("Acquire", mock.Anything, key, DefaultDedupTTL).Return(false, errors.New("redis down"))

	inner := newTestHandler("AllocationsReserved")
	h := NewIdempotentHandler(inner, store, 0, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, 1, inner.count())
	store.AssertExpectations(t)
}
