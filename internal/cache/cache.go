// Package cache keeps product reads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RavenLB/E-commerce/internal/entity"
)

// ProductCache is a best-effort cache. Failures are logged and reported as
// misses; the database stays the source of truth.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*entity.Product, bool)
	Set(ctx context.Context, p *entity.Product)
	Invalidate(ctx context.Context, ids ...int64)
}

func productKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (*entity.Product, bool) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Product cache read failed", "product_id", id, "error", err)
		}
		return nil, false
	}

	var p entity.Product
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("Discarding unreadable cached product", "product_id", id, "error", err)
		return nil, false
	}
	return &p, true
}

func (c *RedisProductCache) Set(ctx context.Context, p *entity.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("Failed to encode product for cache", "product_id", p.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		slog.Warn("Product cache write failed", "product_id", p.ID, "error", err)
	}
}

func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Product cache invalidation failed", "product_ids", ids, "error", err)
	}
}

// Nop caches nothing. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, int64) (*entity.Product, bool) { return nil, false }
func (Nop) Set(context.Context, *entity.Product)               {}
func (Nop) Invalidate(context.Context, ...int64)               {}
