package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
)

// EventRecorder captures published or handled events. It serves both as an
// EventPublisher and as an EventHandler subscribed to every type.
type EventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Publish records events and returns the configured error
func (r *EventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

// Handle records a delivered event
func (r *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	return r.Publish(ctx, event)
}

// EventTypes subscribes the recorder to everything
func (r *EventRecorder) EventTypes() []string {
	return nil
}

// SetError makes later calls fail with err
func (r *EventRecorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns a copy of what was recorded
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type
func (r *EventRecorder) OfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// WaitForType waits until at least count events of eventType were recorded
func (r *EventRecorder) WaitForType(t *testing.T, eventType string, count int, timeout time.Duration) {
	t.Helper()
	RequireEventually(t, func() bool {
		return len(r.OfType(eventType)) >= count
	}, timeout, 10*time.Millisecond, "waiting for %d %s events", count, eventType)
}

var (
	_ shared.EventPublisher = (*EventRecorder)(nil)
	_ shared.EventHandler   = (*EventRecorder)(nil)
)
