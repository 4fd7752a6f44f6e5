// Package cache holds the idempotency key stores.
package cache

import (
	"context"
	"time"

	"github.com/erp/lifetime/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStore remembers request keys for a limited time
type IdempotencyStore interface {
	// Claim marks key as seen. It returns false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so the request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}

// NewIdempotencyStore returns a Redis backed store when Redis is enabled,
// otherwise an in-memory store local to this process.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) (IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, keeping idempotency keys in memory")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Idempotency keys stored in Redis", zap.String("host", cfg.Host), zap.Int("db", cfg.DB))
	return store, nil
}
