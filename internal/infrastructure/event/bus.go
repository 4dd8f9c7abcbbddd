package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// Options sizes the bus queue and worker pool
type Options struct {
	BufferSize int
	Workers    int
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus delivers domain events to subscribed handlers. Before
// Start and after Stop it dispatches synchronously on the publisher's
// goroutine; while running, a fixed pool of workers drains a bounded queue.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	opts     Options

	mu      sync.RWMutex // guards queue against send-after-close
	queue   chan envelope
	running atomic.Bool
	wg      sync.WaitGroup

	delivered atomic.Int64
	inline    atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts Options) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// Publish hands events to their handlers. Handler errors are logged and never
// returned, so a failing subscriber cannot undo a committed transaction.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	// handlers must outlive the request that produced the event
	ctx = context.WithoutCancel(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, event := range events {
		if event == nil {
			continue
		}
		if b.queue == nil {
			b.dispatch(ctx, event)
			continue
		}
		select {
		case b.queue <- envelope{ctx: ctx, event: event}:
		default:
			b.inline.Add(1)
			b.logger.Warn("event queue full, dispatching inline",
				zap.String("event_type", event.EventType()),
				zap.Int("buffer_size", b.opts.BufferSize),
			)
			b.dispatch(ctx, event)
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes), zap.Int("subscriptions", b.registry.Len()))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the workers
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return errors.New("event bus already running")
	}
	b.queue = make(chan envelope, b.opts.BufferSize)
	for i := 0; i < b.opts.Workers; i++ {
		b.wg.Add(1)
		go b.worker(b.queue)
	}
	b.running.Store(true)
	b.logger.Info("event bus started",
		zap.Int("workers", b.opts.Workers),
		zap.Int("buffer_size", b.opts.BufferSize),
	)
	return nil
}

// Stop closes the queue and waits for the workers to drain it, or for ctx
// to expire.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return nil
	}
	close(b.queue)
	b.queue = nil
	b.running.Store(false)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped",
			zap.Int64("delivered", b.delivered.Load()),
			zap.Int64("inline", b.inline.Load()),
			zap.Int64("failed", b.failed.Load()),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether workers are active
func (b *InMemoryEventBus) Running() bool {
	return b.running.Load()
}

func (b *InMemoryEventBus) worker(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.failed.Add(1)
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
			continue
		}
		b.delivered.Add(1)
	}
}

func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = errors.New("handler panicked")
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
