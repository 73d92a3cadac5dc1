package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

func newTestRateCache(t *testing.T, source GroupLister) (*RateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateCache(client, time.Minute, pricing.DefaultRates(), source), mr
}

func TestRateCacheMergesDefaultsWithGroups(t *testing.T) {
	repo := newMemRepo()
	repo.groups[1] = Group{ID: 1, Name: "Marketing", CommissionPercent: dec("25")}
	repo.groups[2] = Group{ID: 2, Name: "Suporte", CommissionPercent: dec("3")}
	cache, _ := newTestRateCache(t, repo)

	rates, err := cache.Rates(context.Background())
	require.NoError(t, err)

	assert.True(t, rates.Rate("Marketing").Equal(dec("0.25")), "database wins over defaults")
	assert.True(t, rates.Rate("Suporte").Equal(dec("0.03")))
	assert.True(t, rates.Rate("Sites").Equal(dec("0.075")))
	assert.True(t, rates.Rate("Desconhecido").IsZero())
}

func TestRateCacheServesFromRedisUntilInvalidated(t *testing.T) {
	repo := newMemRepo()
	repo.groups[1] = Group{ID: 1, Name: "Marketing", CommissionPercent: dec("25")}
	cache, mr := newTestRateCache(t, repo)
	ctx := context.Background()

	_, err := cache.Rates(ctx)
	require.NoError(t, err)
	_, err = cache.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.groupListCalls)
	assert.True(t, mr.Exists(rateCacheKey+":0"))
	assert.Equal(t, time.Minute, mr.TTL(rateCacheKey+":0"))

	repo.groups[1] = Group{ID: 1, Name: "Marketing", CommissionPercent: dec("30")}
	require.NoError(t, cache.Invalidate(ctx))

	rates, err := cache.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.groupListCalls)
	assert.True(t, rates.Rate("Marketing").Equal(dec("0.3")))
}

func TestRateCacheIgnoresCorruptEntries(t *testing.T) {
	repo := newMemRepo()
	cache, mr := newTestRateCache(t, repo)
	require.NoError(t, mr.Set(rateCacheKey+":0", "{not json"))

	rates, err := cache.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.groupListCalls)
	assert.True(t, rates.Rate("Serviços").Equal(dec("0.05")))
}

func TestRateCacheWithoutRedis(t *testing.T) {
	repo := newMemRepo()
	cache := NewRateCache(nil, 0, nil, repo)
	ctx := context.Background()

	_, err := cache.Rates(ctx)
	require.NoError(t, err)
	_, err = cache.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.groupListCalls)
	assert.NoError(t, cache.Invalidate(ctx))
}

func TestRateCachePropagatesSourceErrors(t *testing.T) {
	repo := newMemRepo()
	repo.listErr = errors.New("db down")
	cache, mr := newTestRateCache(t, repo)

	_, err := cache.Rates(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.False(t, mr.Exists(rateCacheKey+":0"))
}

func TestRateCacheFallsBackWhenRedisStops(t *testing.T) {
	repo := newMemRepo()
	repo.groups[1] = Group{ID: 1, Name: "Marketing", CommissionPercent: dec("25")}
	cache, mr := newTestRateCache(t, repo)
	ctx := context.Background()

	_, err := cache.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.groupListCalls)

	mr.Close()

	rates, err := cache.Rates(ctx)
	require.NoError(t, err)
	assert.True(t, rates.Rate("Marketing").Equal(dec("0.25")))
	assert.Equal(t, 2, repo.groupListCalls)

	repo.groups[1] = Group{ID: 1, Name: "Marketing", CommissionPercent: dec("40")}
	rates, err = cache.Rates(ctx)
	require.NoError(t, err)
	assert.True(t, rates.Rate("Marketing").Equal(dec("0.4")), "source is read while redis is down")
}

func TestRateCacheStillFailsWhenSourceFailsWithoutRedis(t *testing.T) {
	repo := newMemRepo()
	cache, mr := newTestRateCache(t, repo)
	mr.Close()
	repo.listErr = errors.New("db down")

	_, err := cache.Rates(context.Background())
	assert.ErrorContains(t, err, "db down")
}
