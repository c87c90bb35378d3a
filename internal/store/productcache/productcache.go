// Package productcache decorates the catalog with a short-TTL Redis
// cache, mirroring the storefront's 60 second revalidation window for
// product data.
package productcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/store"
)

const keyPrefix = "product:handle:"

// Cache wraps a store.Catalog with read-through caching. Cache failures
// degrade to the underlying catalog; they never fail a product lookup.
type Cache struct {
	next   store.Catalog
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a read-through product cache with the given TTL.
func New(next store.Catalog, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{next: next, client: client, ttl: ttl, logger: logger}
}

// ProductByHandle serves from Redis when a fresh entry exists, otherwise
// falls through to the catalog and stores the result. Not-found results
// are not cached; an unknown handle stays cheap to probe and becomes
// visible immediately once the product is published.
func (c *Cache) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	key := keyPrefix + handle

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		c.logger.WarnContext(ctx, "corrupt product cache entry, refetching",
			slog.String("handle", handle),
		)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "product cache read failed",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
	}

	product, err := c.next.ProductByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "product cache write failed",
				slog.String("handle", handle),
				slog.String("error", err.Error()),
			)
		}
	}

	return product, nil
}

// Ping verifies Redis connectivity for readiness checks.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
