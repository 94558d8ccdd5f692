package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStoreMarkProcessed(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	processed, err := store.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsProcessed(ctx, "evt-2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestMemoryIdempotencyStoreExpiry(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "evt-short", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, fresh)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "evt-short")
	require.NoError(t, err)
	assert.False(t, processed)

	// An expired key can be marked again
	fresh, err = store.MarkProcessed(ctx, "evt-short", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryIdempotencyStoreConcurrentMark(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(ctx, "evt-race", time.Minute)
			assert.NoError(t, err)
			if fresh {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestMemoryIdempotencyStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
