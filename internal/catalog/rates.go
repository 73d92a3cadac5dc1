package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

const (
	rateCacheKey   = "catalog:rates"
	rateVersionKey = "catalog:rates:version"
	defaultRateTTL = 10 * time.Minute
)

// GroupLister is the slice of Repository the rate cache needs.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]Group, error)
}

// RateCache serves the commission rate table. Configured defaults are merged
// with the groups stored in the database, database values winning. Redis
// failures are logged and the table is read from the source instead.
type RateCache struct {
	client   *redis.Client
	ttl      time.Duration
	defaults pricing.RateTable
	source   GroupLister
	logger   *slog.Logger
	flight   singleflight.Group
}

// NewRateCache builds a rate cache. A nil client disables caching.
func NewRateCache(client *redis.Client, ttl time.Duration, defaults pricing.RateTable, source GroupLister) *RateCache {
	if ttl <= 0 {
		ttl = defaultRateTTL
	}
	if defaults == nil {
		defaults = pricing.DefaultRates()
	}
	return &RateCache{client: client, ttl: ttl, defaults: defaults, source: source, logger: slog.Default()}
}

// WithLogger sets the logger used to report cache failures.
func (c *RateCache) WithLogger(logger *slog.Logger) *RateCache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Rates returns the current rate table.
func (c *RateCache) Rates(ctx context.Context) (pricing.RateTable, error) {
	key, cacheable := c.key(ctx)
	if cacheable {
		if cached, ok := c.cached(ctx, key); ok {
			return cached, nil
		}
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, cacheable)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(pricing.RateTable), nil
	}
}

// Invalidate bumps the cache version so that the next read reloads groups.
func (c *RateCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, rateVersionKey).Err()
}

// key returns the versioned cache key and whether Redis can be used for it.
func (c *RateCache) key(ctx context.Context) (string, bool) {
	if c.client == nil {
		return rateCacheKey, false
	}
	ver, err := c.client.Get(ctx, rateVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return fmt.Sprintf("%s:%d", rateCacheKey, 0), true
	}
	if err != nil {
		c.logger.Warn("rate cache version unavailable", slog.Any("error", err))
		return rateCacheKey, false
	}
	return fmt.Sprintf("%s:%d", rateCacheKey, ver), true
}

func (c *RateCache) cached(ctx context.Context, key string) (pricing.RateTable, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("read cached rates", slog.Any("error", err))
		}
		return nil, false
	}
	var raw map[string]decimal.Decimal
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	return pricing.RateTable(raw), true
}

func (c *RateCache) load(ctx context.Context, key string, cacheable bool) (pricing.RateTable, error) {
	groups, err := c.source.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	stored := make(pricing.RateTable, len(groups))
	for _, g := range groups {
		stored[g.Name] = g.Rate()
	}
	rates := c.defaults.Merge(stored)

	if cacheable {
		raw, err := json.Marshal(map[string]decimal.Decimal(rates))
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("store rates", slog.String("key", key), slog.Any("error", err))
		}
	}
	return rates, nil
}
