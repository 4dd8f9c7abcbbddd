package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "ProductionRun", uuid.New(), uuid.New()),
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	block      chan struct{}
	panics     bool
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_SyncBeforeStart(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{})

	completed := newTestHandler("ProductionRunCompleted")
	all := newTestHandler()
	bus.Subscribe(completed)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("ProductionRunCompleted"),
		newTestEvent("AllocationsReserved"),
	))

	assert.Equal(t, 1, completed.count())
	assert.Equal(t, 2, all.count(), "wildcard handler sees every event")
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{})

	failing := newTestHandler("AllocationsReleased")
	failing.err = errors.New("sink down")
	panicking := newTestHandler("AllocationsReleased")
	panicking.panics = true
	healthy := newTestHandler("AllocationsReleased")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("AllocationsReleased"))
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(2), bus.failed.Load())
}

func TestInMemoryEventBus_AsyncDrainOnStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{BufferSize: 64, Workers: 4})
	handler := newTestHandler("AllocationsConsumed")
	bus.Subscribe(handler)

	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())
	assert.Error(t, bus.Start(context.Background()), "second start is rejected")

	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("AllocationsConsumed")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
	assert.Equal(t, 50, handler.count())

	// after stop the bus is synchronous again
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("AllocationsConsumed")))
	assert.Equal(t, 51, handler.count())
}

func TestInMemoryEventBus_FullQueueDispatchesInline(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{BufferSize: 1, Workers: 1})

	gate := make(chan struct{})
	slow := newTestHandler("Slow")
	slow.block = gate
	bus.Subscribe(slow)

	fast := newTestHandler("Fast")
	bus.Subscribe(fast)

	require.NoError(t, bus.Start(context.Background()))

	// one event held by the worker, one in the buffer
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Slow")))
	require.Eventually(t, func() bool { return len(bus.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Slow")))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Fast")))
	assert.Equal(t, 1, fast.count(), "overflow is delivered on the caller goroutine")
	assert.Equal(t, int64(1), bus.inline.Load())

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.Equal(t, 2, slow.count())
}

func TestInMemoryEventBus_StopTimeout(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{BufferSize: 4, Workers: 1})
	gate := make(chan struct{})
	defer close(gate)
	stuck := newTestHandler("Stuck")
	stuck.block = gate
	bus.Subscribe(stuck)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Stuck")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}

func TestInMemoryEventBus_PublishOutlivesRequestContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{})
	var seen error
	h := &ctxHandler{fn: func(ctx context.Context) { seen = ctx.Err() }}
	bus.Subscribe(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bus.Publish(ctx, newTestEvent("ProductionRunCancelled")))
	assert.NoError(t, seen)
}

type ctxHandler struct {
	fn func(context.Context)
}

func (h *ctxHandler) Handle(ctx context.Context, _ shared.DomainEvent) error {
	h.fn(ctx)
	return nil
}

func (h *ctxHandler) EventTypes() []string { return nil }

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), Options{})
	handler := newTestHandler("AllocationsReserved")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("AllocationsReserved"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("AllocationsReserved"))

	assert.Equal(t, 1, handler.count())
}
