package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kasuganosora/turnbattle/cache"
	"github.com/kasuganosora/turnbattle/cache/local"
	cacheredis "github.com/kasuganosora/turnbattle/cache/redis"
	"github.com/kasuganosora/turnbattle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalWithoutRedis(t *testing.T) {
	c, err := cache.NewCache(config.CacheConfig{LocalGCInterval: time.Minute})
	require.NoError(t, err)
	lc, ok := c.(*local.LocalCache)
	require.True(t, ok)
	defer lc.Close()

	_, err = c.Get(context.Background(), "missing")
	assert.True(t, cache.IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, cache.IsNotFound(local.ErrNotFound))
	assert.True(t, cache.IsNotFound(cacheredis.ErrNotFound))
	assert.True(t, cache.IsNotFound(fmt.Errorf("live state: %w", local.ErrNotFound)))
	assert.False(t, cache.IsNotFound(nil))
	assert.False(t, cache.IsNotFound(context.Canceled))
}

func TestLocalPubSubAdapter(t *testing.T) {
	ps, err := cache.NewPubSub(config.CacheConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "battle:x")
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, "battle:x", `{"type":"turn_start"}`))

	select {
	case msg := <-ch:
		assert.Equal(t, "battle:x", msg.Channel)
		assert.Equal(t, `{"type":"turn_start"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open, "adapter channel closes after cancel")
}
