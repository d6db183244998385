package cache

import (
	"fmt"
	"time"

	"github.com/awr/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LeaseStoreFactory creates lease stores based on configuration
type LeaseStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	dialTimeout           time.Duration
}

// LeaseStoreFactoryOption is a functional option for configuring the factory
type LeaseStoreFactoryOption func(*LeaseStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LeaseStoreFactoryOption {
	return func(f *LeaseStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// process memory. Default is true.
func WithInMemoryFallback(allow bool) LeaseStoreFactoryOption {
	return func(f *LeaseStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithDialTimeout bounds the Redis connection check
func WithDialTimeout(d time.Duration) LeaseStoreFactoryOption {
	return func(f *LeaseStoreFactory) {
		f.dialTimeout = d
	}
}

// NewLeaseStoreFactory creates a new factory
func NewLeaseStoreFactory(cfg config.RedisConfig, opts ...LeaseStoreFactoryOption) *LeaseStoreFactory {
	f := &LeaseStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dialTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is configured and reachable,
// otherwise an in-memory store if fallback is allowed
func (f *LeaseStoreFactory) CreateStore() (LeaseStore, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory action lease")
		return NewInMemoryLeaseStore(), nil
	}

	store, err := NewRedisLeaseStore(RedisConfig{
		Addr:        f.redisConfig.Addr(),
		Password:    f.redisConfig.Password,
		DB:          f.redisConfig.DB,
		DialTimeout: f.dialTimeout,
	})
	if err == nil {
		f.logger.Info("Using Redis action lease", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for action lease but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory action lease. "+
		"Leases are not shared between server instances.",
		zap.Error(err),
	)
	return NewInMemoryLeaseStore(), nil
}
