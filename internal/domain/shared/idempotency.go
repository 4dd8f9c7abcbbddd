package shared

import (
	"context"
	"time"
)

// IdempotencyStore claims keys for a bounded time. Completion uses it to turn
// concurrent requests for one run into a single winner and the event bus uses
// it to drop redelivered events.
type IdempotencyStore interface {
	// Acquire reports false when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Close() error
}
