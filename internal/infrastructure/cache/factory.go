package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/config"
)

// IdempotencyStoreFactory picks the idempotency backend at startup: Redis
// when reachable, the in-memory store otherwise.
type IdempotencyStoreFactory struct {
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// IdempotencyStoreFactoryOption configures the factory.
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger used to report which backend was chosen.
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store (the default) or fails startup.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowFallback = allow
	}
}

// NewIdempotencyStoreFactory builds a factory for the given Redis config.
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore tries Redis first and falls back to the in-memory store when
// allowed. The fallback does not share state across instances, so a retried
// close that lands on another instance would be applied twice.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	addr := fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port)
	store, err := NewRedisIdempotencyStore(addr, f.redisConfig.Password, f.redisConfig.DB)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", addr))
		return store, nil
	}

	if !f.allowFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
