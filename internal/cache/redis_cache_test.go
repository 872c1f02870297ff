package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "exam", Count: 3}, 0))

	var got payload
	require.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "exam", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, "k1"))
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)

	assert.ErrorIs(t, c.Get(ctx, "never-set", &got), ErrCacheMiss)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "short", "v", time.Nanosecond))
	time.Sleep(time.Millisecond)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "analysis:exam-1:exam:aa", 1, 0))
	require.NoError(t, c.Set(ctx, "analysis:exam-1:variant:bb", 2, 0))
	require.NoError(t, c.Set(ctx, "analysis:exam-2:exam:cc", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "analysis:exam-1:*"))

	var got int
	assert.ErrorIs(t, c.Get(ctx, "analysis:exam-1:exam:aa", &got), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "analysis:exam-1:variant:bb", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "analysis:exam-2:exam:cc", &got))
}
