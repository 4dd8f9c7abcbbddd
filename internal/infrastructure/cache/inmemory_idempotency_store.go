package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps claims in process memory. Two API instances
// do not see each other's claims, so concurrent completions across instances
// fall back to the run row lock.
type InMemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]time.Time // key -> expiry
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInMemoryIdempotencyStore starts a store whose sweeper drops expired
// claims every interval (one minute when interval is not positive).
func NewInMemoryIdempotencyStore(interval time.Duration) *InMemoryIdempotencyStore {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		claims: make(map[string]time.Time),
		now:    time.Now,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.sweep(ctx, interval)
	return s
}

func (s *InMemoryIdempotencyStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, held := s.claims[key]; held && exp.After(now) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper; further calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Size counts held claims, including expired ones not yet swept.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *InMemoryIdempotencyStore) sweep(ctx context.Context, every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, exp := range s.claims {
		if !exp.After(now) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
