package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "battle:live:1", "{}", 0))
	v, err := c.Get(ctx, "battle:live:1")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ttl_key", "val", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "ttl_key")
	assert.False(t, ok)
}

func TestGCRemovesExpired(t *testing.T) {
	c, err := NewCache(Config{GCInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set(context.Background(), "k", "v", time.Millisecond))

	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.kv) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDelRemovesBothKinds(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.ZAdd(ctx, "z", 1, "a")

	require.NoError(t, c.Del(ctx, "k", "z"))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "z")
	assert.False(t, ok)
}

func TestZSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "ranking:wins", 3, "heroes"))
	require.NoError(t, c.ZAdd(ctx, "ranking:wins", 5, "rogues"))
	require.NoError(t, c.ZAdd(ctx, "ranking:wins", 1, "mages"))

	members, err := c.ZRevRange(ctx, "ranking:wins", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"rogues", "heroes", "mages"}, members)

	top, err := c.ZRevRange(ctx, "ranking:wins", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"rogues"}, top)

	score, err := c.ZScore(ctx, "ranking:wins", "heroes")
	require.NoError(t, err)
	assert.Equal(t, float64(3), score)

	_, err = c.ZScore(ctx, "ranking:wins", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZIncrBy(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	s, err := c.ZIncrBy(ctx, "z", 1, "a")
	require.NoError(t, err)
	assert.Equal(t, float64(1), s)
	s, _ = c.ZIncrBy(ctx, "z", 2, "a")
	assert.Equal(t, float64(3), s)
	_, _ = c.ZIncrBy(ctx, "z", 3, "b")

	members, _ := c.ZRevRange(ctx, "z", 0, -1)
	assert.Equal(t, []string{"a", "b"}, members, "ties order by member")
}

func TestZRevRange_Empty(t *testing.T) {
	c := newTestCache(t)
	members, err := c.ZRevRange(context.Background(), "none", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, members)
}
