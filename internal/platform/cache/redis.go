package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"decode/internal/platform/models"
)

const keyPrefix = "decode:org:"

// RedisCache shares the organization cache between server replicas. Redis
// failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, slug string) (*models.Organization, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("slug", slug).Msg("org cache read failed")
		}
		return nil, false
	}

	var org models.Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("org cache entry corrupt")
		return nil, false
	}
	return &org, true
}

func (c *RedisCache) Set(ctx context.Context, org *models.Organization) {
	raw, err := json.Marshal(org)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+org.Slug, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("slug", org.Slug).Msg("org cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, keyPrefix+slug).Err(); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("org cache invalidate failed")
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
