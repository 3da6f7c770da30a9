package service

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

// memoryCache stores JSON payloads the way the redis repository does.
type memoryCache struct {
	items    map[string][]byte
	patterns []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	for k := range m.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.items, k)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)

	cache.Set(context.Background(), "dashboard:3", map[string]int{"students": 4}, 0)

	var out map[string]int
	require.True(t, cache.Get(context.Background(), "dashboard:3", &out))
	assert.Equal(t, 4, out["students"])
	assert.False(t, cache.Get(context.Background(), "dashboard:4", &out))
}

func TestCacheServiceInvalidateGrades(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	cache.Set(ctx, ReportCardCacheKey("enr-1"), "card", 0)
	cache.Set(ctx, ReportCardCacheKey("enr-2"), "card", 0)
	cache.Set(ctx, DashboardCacheKey(3), "dash", 0)

	cache.InvalidateGrades(ctx, "enr-1")

	assert.NotContains(t, repo.items, "report:card:enr-1")
	assert.Contains(t, repo.items, "report:card:enr-2")
	assert.NotContains(t, repo.items, "dashboard:3")
	assert.Equal(t, []string{"dashboard:*"}, repo.patterns)
}

func TestCacheServiceDisabledAndNil(t *testing.T) {
	repo := newMemoryCache()
	disabled := NewCacheService(repo, nil, time.Minute, nil, false)
	disabled.Set(context.Background(), "k", 1, 0)
	assert.Empty(t, repo.items)

	var nilCache *CacheService
	var out int
	assert.False(t, nilCache.Get(context.Background(), "k", &out))
	nilCache.InvalidateGrades(context.Background(), "enr-1")
}
