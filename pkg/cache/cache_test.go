package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("properties", map[string]string{"type": "Villa", "city": "Dubai"})
	b := Key("properties", map[string]string{"city": "Dubai", "type": "Villa"})
	c := Key("properties", map[string]string{"city": "London", "type": "Villa"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "properties:")
	assert.Len(t, a, len("properties:")+32)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	hit, err := c.Get(ctx, "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(ctx, "k", 1))
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.Close())
	assert.Nil(t, c.Client())
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := New(ctx, addr, "", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "summary", map[string]int{"total": 3}))
	var got map[string]int
	hit, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, got["total"])

	require.NoError(t, c.Invalidate(ctx))
	hit, err = c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
