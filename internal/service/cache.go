package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/models"
)

const (
	propertyCacheTTL     = 60 * time.Second
	propertyCachePrefix  = "gb:property:"
	cacheOperationBudget = 200 * time.Millisecond
)

// PropertyCache is a read-through Redis cache for single-property lookups.
// Listings are the hottest read path and tolerate 60 seconds of staleness;
// every status-changing write invalidates the entry. A nil *PropertyCache
// is a no-op so the cache stays optional.
type PropertyCache struct {
	rdb *redis.Client
	log *logrus.Logger
}

// NewPropertyCache creates a PropertyCache from a REDIS_URL. Returns nil
// (cache disabled) when the URL is empty.
func NewPropertyCache(redisURL string, log *logrus.Logger) (*PropertyCache, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &PropertyCache{rdb: redis.NewClient(opts), log: log}, nil
}

// Get returns the cached property, or nil on miss or error. Cache errors
// are logged and treated as misses; the database remains authoritative.
func (c *PropertyCache) Get(ctx context.Context, id string) *models.Property {
	if c == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOperationBudget)
	defer cancel()

	raw, err := c.rdb.Get(ctx, propertyCachePrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("property cache read failed")
		}
		return nil
	}

	var p models.Property
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.WithError(err).Warn("property cache entry corrupt, dropping")
		c.Invalidate(ctx, id)
		return nil
	}

	return &p
}

// Set stores a property with the cache TTL.
func (c *PropertyCache) Set(ctx context.Context, p *models.Property) {
	if c == nil || p == nil {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOperationBudget)
	defer cancel()

	if err := c.rdb.Set(ctx, propertyCachePrefix+p.ID, raw, propertyCacheTTL).Err(); err != nil {
		c.log.WithError(err).Debug("property cache write failed")
	}
}

// Invalidate removes a property from the cache.
func (c *PropertyCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOperationBudget)
	defer cancel()

	if err := c.rdb.Del(ctx, propertyCachePrefix+id).Err(); err != nil {
		c.log.WithError(err).Debug("property cache invalidation failed")
	}
}

// Close releases the underlying Redis connection.
func (c *PropertyCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
