package cache

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/log"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4")

	_, found := c.Get("key1")
	assert.False(t, found, "key1 should have been evicted")
	for _, k := range []string{"key2", "key3", "key4"} {
		_, found := c.Get(k)
		assert.True(t, found, k)
	}
	assert.Equal(t, 3, c.Size())
}

func TestLRUCacheRecentlyUsedSurvives(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, found := c.Get("b")
	assert.False(t, found)
	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 1, v)
}

func TestLRUCacheExpiration(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(30 * time.Second)
	c.Set("b", "z")

	now = now.Add(45 * time.Second)
	_, found := c.Get("a")
	assert.False(t, found, "a expired")

	v, found := c.Get("b")
	require.True(t, found)
	assert.Equal(t, "z", v)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestDelete(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "x")
	c.Delete("a")
	c.Delete("missing")
	assert.Zero(t, c.Size())
}

func TestGenerationsInvalidateKeys(t *testing.T) {
	g := NewGenerations()
	before := g.Key("u1", "filter")
	assert.Equal(t, before, g.Key("u1", "filter"))

	other := g.Key("u2", "filter")
	g.Bump("u1")

	assert.NotEqual(t, before, g.Key("u1", "filter"))
	assert.Equal(t, other, g.Key("u2", "filter"))
	assert.Equal(t, uint64(1), g.Current("u1"))
}

func TestManagerCleanNow(t *testing.T) {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	m := NewManager(logger)

	c := NewLRUCache[int](5, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	m.Register(c)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
