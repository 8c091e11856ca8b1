package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save(ctx, sampleReport("c.csv", time.Now()))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := store.List(ctx, ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
