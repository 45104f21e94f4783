package embedder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder tracks construction and close calls for lifecycle tests
type countingEmbedder struct {
	*LocalProvider
	closed *bool
}

func (c *countingEmbedder) Close() error {
	*c.closed = true
	return nil
}

func newCountingPool(t *testing.T) (*Pool, *int, *bool) {
	t.Helper()

	inits := 0
	closed := false
	pool := NewPool(func() (Embedder, error) {
		inits++
		local, err := NewLocalProvider(nil)
		if err != nil {
			return nil, err
		}
		return &countingEmbedder{LocalProvider: local, closed: &closed}, nil
	})
	return pool, &inits, &closed
}

func TestPoolLazyInitOnce(t *testing.T) {
	pool, inits, _ := newCountingPool(t)

	assert.Equal(t, 0, *inits, "backend must not initialize before first use")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emb, release, err := pool.Acquire()
			require.NoError(t, err)
			defer release()
			_, err = emb.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "x"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, *inits, "concurrent callers share one initialized backend")
}

func TestPoolCloseBeforeInit(t *testing.T) {
	pool, inits, closed := newCountingPool(t)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close()) // idempotent
	assert.Equal(t, 0, *inits)
	assert.False(t, *closed)

	_, _, err := pool.Acquire()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPoolCloseAfterUse(t *testing.T) {
	pool, _, closed := newCountingPool(t)

	_, release, err := pool.Acquire()
	require.NoError(t, err)
	release()

	require.NoError(t, pool.Close())
	assert.True(t, *closed)
}

func TestPoolInitErrorPropagates(t *testing.T) {
	boom := errors.New("backend missing")
	pool := NewPool(func() (Embedder, error) { return nil, boom })

	_, _, err := pool.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	require.NoError(t, pool.Close())
}
