package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCache_GetSet(t *testing.T) {
	cache := NewSettingsCache(time.Minute)

	_, ok := cache.Get()
	assert.False(t, ok, "empty cache misses")

	cache.Set([]string{"a", "b"})

	ids, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSettingsCache_Expiry(t *testing.T) {
	cache := NewSettingsCache(10 * time.Millisecond)
	cache.Set([]string{"a"})

	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get()
	assert.False(t, ok, "expired entry misses")
}

func TestSettingsCache_Invalidate(t *testing.T) {
	cache := NewSettingsCache(time.Minute)
	cache.Set([]string{"a"})

	cache.Invalidate()

	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestSettingsCache_CopySemantics(t *testing.T) {
	cache := NewSettingsCache(time.Minute)

	input := []string{"a", "b"}
	cache.Set(input)
	input[0] = "mutated"

	ids, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "a", ids[0], "Set must copy its input")

	ids[1] = "mutated"
	again, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "b", again[1], "Get must return a copy")
}

func TestSettingsCache_Stats(t *testing.T) {
	cache := NewSettingsCache(time.Minute)

	cache.Get()
	cache.Set([]string{"a"})
	cache.Get()
	cache.Get()

	stats := cache.Stats()
	assert.True(t, stats.Cached)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}
