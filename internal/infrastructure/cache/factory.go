package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/auth"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory creates the Redis-backed coordination primitives, falling back to
// in-process implementations when Redis is disabled or unreachable
type Factory struct {
	redisConfig           config.RedisConfig
	workflowConfig        config.WorkflowConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-process
// primitives when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(redisCfg config.RedisConfig, workflowCfg config.WorkflowConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           redisCfg,
		workflowConfig:        workflowCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// redisClient returns the shared client, nil when Redis is not in use
func (f *Factory) redisClient() (*redis.Client, error) {
	if !f.redisConfig.Enabled {
		return nil, nil
	}
	if f.client != nil {
		return f.client, nil
	}
	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-process locking and idempotency. "+
			"Trades are only serialised within this instance.",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return nil, nil
	}
	f.client = client
	return client, nil
}

// CreateLocker returns the per-trade locker
func (f *Factory) CreateLocker() (workflow.Locker, error) {
	client, err := f.redisClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		f.logger.Info("using in-process trade locker")
		return NewKeyedMutexLocker(), nil
	}
	f.logger.Info("using Redis trade locker", zap.Duration("ttl", f.workflowConfig.LockTTL))
	return NewRedisLocker(client, f.workflowConfig.LockTTL, f.workflowConfig.LockRetry, WithLockLogger(f.logger)), nil
}

// CreateIdempotencyStore returns the HTTP idempotency store
func (f *Factory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	client, err := f.redisClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return NewInMemoryIdempotencyStore(), nil
	}
	return NewRedisIdempotencyStore(client, ""), nil
}

// CreateRevocationList returns the token revocation list
func (f *Factory) CreateRevocationList() (auth.RevocationList, error) {
	client, err := f.redisClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return auth.NewMemoryRevocationList(), nil
	}
	return auth.NewRedisRevocationList(client), nil
}

// Close releases the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Ping checks the Redis connection. It succeeds trivially when the factory
// runs on in-process primitives.
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Ping(ctx).Err()
}
