package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/interfaces"
)

func TestCacheConfigStore_RoundTrip(t *testing.T) {
	cache := newMockCache()
	store := NewCacheConfigStore(cache)
	ctx := context.Background()

	cfg := hintConfig()
	require.NoError(t, store.Save(ctx, cfg))

	assert.Contains(t, cache.data, "source_config:example")
	assert.Equal(t, time.Duration(0), cache.ttls["source_config:example"])

	loaded, err := store.Load(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCacheConfigStore_Miss(t *testing.T) {
	_, err := NewCacheConfigStore(newMockCache()).Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, interfaces.ErrCacheMiss))
}

func TestCacheConfigStore_CorruptEntry(t *testing.T) {
	cache := newMockCache()
	cache.data["source_config:bad"] = []byte("{not json")

	_, err := NewCacheConfigStore(cache).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, interfaces.ErrCacheMiss))
}

func TestCacheConfigStore_SaveRequiresSourceCode(t *testing.T) {
	err := NewCacheConfigStore(newMockCache()).Save(context.Background(), &domain.SourceConfig{ListURL: "https://x"})
	assert.Error(t, err)
}
