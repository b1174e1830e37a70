// Package cache provides a Redis read-through cache in front of a clan store.
// Only single-record lookups are cached; List always goes to the backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	clanmetrics "clanhub/internal/clan/metrics"
	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
)

const (
	keyPrefix          = "clanhub:clan:"
	defaultLoadTimeout = 5 * time.Second
)

// Backend is the store being cached.
type Backend interface {
	Create(ctx context.Context, clan *models.Clan) error
	List(ctx context.Context, q models.ListQuery) ([]*models.Clan, error)
	FindByID(ctx context.Context, clanID id.ClanID) (*models.Clan, error)
	Delete(ctx context.Context, clanID id.ClanID) error
}

// RedisCache wraps a Backend. Redis failures degrade to backend reads and are
// logged; they never fail a request.
type RedisCache struct {
	next        Backend
	client      *redis.Client
	ttl         time.Duration
	loadTimeout time.Duration
	logger      *slog.Logger
	metrics     *clanmetrics.Metrics
	group       singleflight.Group
}

// Option configures a RedisCache.
type Option func(*RedisCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithMetrics(m *clanmetrics.Metrics) Option {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

// WithLoadTimeout bounds a shared backend read on a miss.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *RedisCache) {
		c.loadTimeout = d
	}
}

// NewRedisCache constructs a cache in front of next with the given entry TTL.
func NewRedisCache(next Backend, client *redis.Client, ttl time.Duration, opts ...Option) *RedisCache {
	c := &RedisCache{next: next, client: client, ttl: ttl, loadTimeout: defaultLoadTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedClan struct {
	ID        id.ClanID `json:"id"`
	Name      string    `json:"name"`
	Region    *string   `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *RedisCache) Create(ctx context.Context, clan *models.Clan) error {
	return c.next.Create(ctx, clan)
}

func (c *RedisCache) List(ctx context.Context, q models.ListQuery) ([]*models.Clan, error) {
	return c.next.List(ctx, q)
}

// FindByID serves from Redis when possible. Concurrent misses for the same
// id share one backend read, which runs detached from any single caller's
// context; each caller still returns as soon as its own context is done.
func (c *RedisCache) FindByID(ctx context.Context, clanID id.ClanID) (*models.Clan, error) {
	key := cacheKey(clanID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedClan
		uerr := json.Unmarshal(raw, &cached)
		if uerr == nil {
			c.observe("hit")
			return fromCached(cached), nil
		}
		c.observe("error")
		c.warn(ctx, "discarding undecodable cache entry", key, uerr)
	case errors.Is(err, redis.Nil):
		c.observe("miss")
	default:
		c.observe("error")
		c.warn(ctx, "cache read failed", key, err)
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(loadCtx, c.loadTimeout)
		defer cancel()
		clan, err := c.next.FindByID(ctx, clanID)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, clan)
		return clan, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// singleflight shares the pointer between callers
	shared := *res.Val.(*models.Clan)
	if shared.Region != nil {
		region := *shared.Region
		shared.Region = &region
	}
	return &shared, nil
}

// Delete removes the clan from the backend, then drops any cached copy. The
// cache entry is dropped even when the backend reports NotFound.
func (c *RedisCache) Delete(ctx context.Context, clanID id.ClanID) error {
	err := c.next.Delete(ctx, clanID)
	key := cacheKey(clanID)
	c.group.Forget(key)
	if derr := c.client.Del(ctx, key).Err(); derr != nil {
		c.warn(ctx, "cache invalidation failed", key, derr)
	}
	return err
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *RedisCache) store(ctx context.Context, key string, clan *models.Clan) {
	payload, err := json.Marshal(cachedClan{
		ID:        clan.ID,
		Name:      clan.Name,
		Region:    clan.Region,
		CreatedAt: clan.CreatedAt,
	})
	if err != nil {
		c.warn(ctx, "cache encode failed", key, err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.warn(ctx, "cache write failed", key, err)
	}
}

func (c *RedisCache) observe(result string) {
	if c.metrics != nil {
		c.metrics.ObserveCacheLookup(result)
	}
}

func (c *RedisCache) warn(ctx context.Context, msg, key string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}

func cacheKey(clanID id.ClanID) string {
	return keyPrefix + clanID.String()
}

func fromCached(cached cachedClan) *models.Clan {
	return &models.Clan{
		ID:        cached.ID,
		Name:      cached.Name,
		Region:    cached.Region,
		CreatedAt: cached.CreatedAt,
	}
}
