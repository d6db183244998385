package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLeaseStore_AcquireAndRelease(t *testing.T) {
	store := NewInMemoryLeaseStore()
	defer store.Close()
	ctx := context.Background()
	key := ItemLeaseKey(42)

	ok, err := store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while the lease is held")

	require.NoError(t, store.Release(ctx, key))

	ok, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryLeaseStore_IndependentKeys(t *testing.T) {
	store := NewInMemoryLeaseStore()
	defer store.Close()
	ctx := context.Background()

	ok1, _ := store.Acquire(ctx, ItemLeaseKey(1), time.Minute)
	ok2, _ := store.Acquire(ctx, ItemLeaseKey(2), time.Minute)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryLeaseStore_Expiry(t *testing.T) {
	store := NewInMemoryLeaseStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ok, _ := store.Acquire(ctx, "k", 30*time.Second)
	require.True(t, ok)

	now = now.Add(29 * time.Second)
	ok, _ = store.Acquire(ctx, "k", 30*time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = store.Acquire(ctx, "k", 30*time.Second)
	assert.True(t, ok, "expired lease can be taken over")
}

func TestInMemoryLeaseStore_Cleanup(t *testing.T) {
	store := NewInMemoryLeaseStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _ = store.Acquire(ctx, "short", time.Second)
	_, _ = store.Acquire(ctx, "long", time.Hour)
	now = now.Add(time.Minute)

	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryLeaseStore_ConcurrentAcquire(t *testing.T) {
	store := NewInMemoryLeaseStore()
	defer store.Close()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Acquire(ctx, ItemLeaseKey(7), time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryLeaseStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryLeaseStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestItemLeaseKey(t *testing.T) {
	assert.Equal(t, "awr:item:15", ItemLeaseKey(15))
}
