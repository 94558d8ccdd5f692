package cache

import (
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store implementation from configuration.
// Redis is opt-in; when it is disabled or unreachable the in-memory store
// is used, which is fine for a single instance but loses replay protection
// across restarts.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Enabled {
		logger.Info("using in-memory idempotency store")
		return NewMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.Error(err))
		return NewMemoryIdempotencyStore()
	}

	logger.Info("using Redis idempotency store",
		zap.String("host", cfg.Host))
	return store
}
