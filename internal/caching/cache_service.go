package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tablekeep/internal/models"

	"github.com/redis/go-redis/v9"
)

// TenantCache caches public slug lookups. Only active tenants are cached.
type TenantCache interface {
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenant(ctx context.Context, slug string) error
}

// RedisCmdable is the subset of the go-redis client used by the cache.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisTenantCache struct {
	client RedisCmdable
	ttl    time.Duration
}

// NewRedisClient parses a host:port or redis:// address and returns a client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}
	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func NewRedisTenantCache(client RedisCmdable, ttl time.Duration) TenantCache {
	return &redisTenantCache{client: client, ttl: ttl}
}

func tenantSlugKey(slug string) string {
	return fmt.Sprintf("tablekeep:tenant:slug:%s", slug)
}

// GetTenantBySlug returns nil, nil on a cache miss.
func (r *redisTenantCache) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	data, err := r.client.Get(ctx, tenantSlugKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisTenantCache) SetTenant(ctx context.Context, tenant *models.Tenant) error {
	if !tenant.Active {
		return r.DeleteTenant(ctx, tenant.Slug)
	}
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tenantSlugKey(tenant.Slug), data, r.ttl).Err()
}

func (r *redisTenantCache) DeleteTenant(ctx context.Context, slug string) error {
	return r.client.Del(ctx, tenantSlugKey(slug)).Err()
}

// NopTenantCache never caches.
type NopTenantCache struct{}

func (NopTenantCache) GetTenantBySlug(context.Context, string) (*models.Tenant, error) { return nil, nil }
func (NopTenantCache) SetTenant(context.Context, *models.Tenant) error               { return nil }
func (NopTenantCache) DeleteTenant(context.Context, string) error                    { return nil }
