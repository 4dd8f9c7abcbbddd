package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces guard keys in a shared Redis
const DefaultKeyPrefix = "bakery:guard:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// RedisIdempotencyStore claims keys with redislock so that every API
// instance sees the same claims. A claim carries a random token, so Release
// only removes claims this instance obtained; a claim that already expired
// and was taken over elsewhere is left alone.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	locker    *redislock.Client
	keyPrefix string

	mu   sync.Mutex
	held map[string]heldLock
}

type heldLock struct {
	lock    *redislock.Lock
	expires time.Time
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg RedisConfig) (*RedisIdempotencyStore, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisIdempotencyStoreWithClient(client, DefaultKeyPrefix), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client
func NewRedisIdempotencyStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		locker:    redislock.New(client),
		keyPrefix: keyPrefix,
		held:      make(map[string]heldLock),
	}
}

// Acquire takes the redis lock for key; false means another caller holds it
func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lock, err := s.locker.Obtain(ctx, s.keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.pruneLocked(now)
	s.held[key] = heldLock{lock: lock, expires: now.Add(ttl)}
	s.mu.Unlock()
	return true, nil
}

// Release gives up a lock taken by Acquire. Unknown keys are a no-op.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	h, ok := s.held[key]
	delete(s.held, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := h.lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// pruneLocked forgets claims whose ttl has passed. Event dedup keys are
// never released, so without this the map would only grow.
func (s *RedisIdempotencyStore) pruneLocked(now time.Time) {
	for k, h := range s.held {
		if !h.expires.After(now) {
			delete(s.held, k)
		}
	}
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
