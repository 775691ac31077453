package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"decode/internal/platform/config"
	"decode/internal/platform/models"
)

// OrgCache caches organizations by slug for the per-request membership checks.
type OrgCache interface {
	Get(ctx context.Context, slug string) (*models.Organization, bool)
	Set(ctx context.Context, org *models.Organization)
	Invalidate(ctx context.Context, slug string)
	Ping(ctx context.Context) error
}

// New builds the cache selected by cfg.Driver ("memory" or "redis").
func New(cfg config.CacheConfig) (OrgCache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryCache(cfg.OrgTTL), nil
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return NewRedisCache(redis.NewClient(opt), cfg.OrgTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

type cachedOrg struct {
	org      models.Organization
	cachedAt time.Time
}

type MemoryCache struct {
	store sync.Map // map[slug]cachedOrg
	ttl   time.Duration
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, slug string) (*models.Organization, bool) {
	val, ok := c.store.Load(slug)
	if !ok {
		return nil, false
	}

	cached := val.(cachedOrg)
	if time.Since(cached.cachedAt) > c.ttl {
		c.store.Delete(slug)
		return nil, false
	}

	org := cached.org
	org.AllowedFeatures = append([]string(nil), cached.org.AllowedFeatures...)
	return &org, true
}

func (c *MemoryCache) Set(_ context.Context, org *models.Organization) {
	copied := *org
	copied.AllowedFeatures = append([]string(nil), org.AllowedFeatures...)
	c.store.Store(org.Slug, cachedOrg{org: copied, cachedAt: time.Now()})
}

func (c *MemoryCache) Invalidate(_ context.Context, slug string) {
	c.store.Delete(slug)
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}
