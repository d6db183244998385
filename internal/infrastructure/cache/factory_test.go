package cache

import (
	"testing"
	"time"

	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLeaseStoreFactory_NoRedisConfigured(t *testing.T) {
	factory := NewLeaseStoreFactory(config.RedisConfig{})

	store, err := factory.CreateStore()
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryLeaseStore{}, store)
}

func TestLeaseStoreFactory_FallbackWhenUnreachable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	factory := NewLeaseStoreFactory(
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithLogger(zap.New(core)),
		WithDialTimeout(200*time.Millisecond),
	)

	store, err := factory.CreateStore()
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryLeaseStore{}, store)
	assert.Equal(t, 1, logs.FilterMessageSnippet("falling back").Len())
}

func TestLeaseStoreFactory_FallbackDisabled(t *testing.T) {
	factory := NewLeaseStoreFactory(
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithInMemoryFallback(false),
		WithDialTimeout(200*time.Millisecond),
	)

	store, err := factory.CreateStore()
	assert.Nil(t, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis required")
}

func TestNewRedisLeaseStore_Unreachable(t *testing.T) {
	store, err := NewRedisLeaseStore(RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.Nil(t, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
