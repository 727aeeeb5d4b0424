package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

const redisKeyPrefix = "cashdesk:idempotency:"

// RedisIdempotencyStore backs idempotent close retries with Redis so every
// instance behind the load balancer sees the same processed tokens.
type RedisIdempotencyStore struct {
	client *redis.Client
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore connects to Redis at addr and verifies the
// connection with a ping before returning.
func NewRedisIdempotencyStore(addr, password string, db int) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis at %s: %w", addr, err)
	}

	return &RedisIdempotencyStore{client: client}, nil
}

// MarkProcessed records the key for the given TTL. SET NX makes the mark
// atomic: exactly one of several concurrent retries gets true back.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	marked, err := s.client.SetNX(ctx, redisKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("marking key as processed: %w", err)
	}
	return marked, nil
}

// IsProcessed reports whether the key holds a live entry. Redis expires the
// key at the end of its TTL, so a stale token simply stops existing.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("checking processed key: %w", err)
	}
	return exists > 0, nil
}

// Close releases the Redis client.
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}
