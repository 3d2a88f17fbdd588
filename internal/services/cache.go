package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

const (
	cacheKeyPrefix        = "catalog:"
	cacheKeyRooms         = cacheKeyPrefix + "rooms"
	cacheKeyProductCats   = cacheKeyPrefix + "product-categories"
	cacheKeyManufacturers = cacheKeyPrefix + "manufacturers"
	cacheKeyProductLists  = cacheKeyPrefix + "products:*"
)

// CatalogCache holds rendered catalog reads. A miss or a backend failure is
// reported as a miss, so callers always fall back to the database.
type CatalogCache interface {
	Get(ctx context.Context, key string, dst interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	// Invalidate drops exact keys and keys matching glob patterns.
	Invalidate(ctx context.Context, keys ...string)
}

type redisCatalogCache struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(log *logger.Logger, client *redis.Client, ttl time.Duration) CatalogCache {
	return &redisCatalogCache{
		log:    log.With("service", "CatalogCache"),
		client: client,
		ttl:    ttl,
	}
}

func (rc *redisCatalogCache) Get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		rc.log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		rc.log.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		rc.client.Del(ctx, key)
		return false
	}
	return true
}

func (rc *redisCatalogCache) Set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		rc.log.Warn("Cache encode failed", "key", key, "error", err)
		return
	}
	if err := rc.client.Set(ctx, key, raw, rc.ttl).Err(); err != nil {
		rc.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (rc *redisCatalogCache) Invalidate(ctx context.Context, keys ...string) {
	var exact []string
	for _, key := range keys {
		if !strings.ContainsAny(key, "*?[") {
			exact = append(exact, key)
			continue
		}
		iter := rc.client.Scan(ctx, 0, key, 100).Iterator()
		for iter.Next(ctx) {
			exact = append(exact, iter.Val())
		}
		if err := iter.Err(); err != nil {
			rc.log.Warn("Cache scan failed", "pattern", key, "error", err)
		}
	}
	if len(exact) == 0 {
		return
	}
	if err := rc.client.Del(ctx, exact...).Err(); err != nil {
		rc.log.Warn("Cache invalidation failed", "keys", len(exact), "error", err)
		return
	}
	rc.log.Debug("Cache invalidated", "keys", len(exact))
}

type noCache struct{}

func (noCache) Get(context.Context, string, interface{}) bool { return false }
func (noCache) Set(context.Context, string, interface{})      {}
func (noCache) Invalidate(context.Context, ...string)         {}

// NoCache is used when Redis is not configured.
var NoCache CatalogCache = noCache{}

func productCacheKey(slug string) string {
	return cacheKeyPrefix + "product:" + slug
}

func manufacturerCacheKey(slug string) string {
	return cacheKeyPrefix + "manufacturer:" + slug
}

// productListCacheKey is stable for equal filters regardless of slug order.
func productListCacheKey(filter *types.ProductFilter, page types.Page) string {
	var b strings.Builder
	b.WriteString(cacheKeyPrefix + "products:")
	if filter != nil {
		b.WriteString("r=" + sortedJoin(filter.RoomCategories))
		b.WriteString("|c=" + sortedJoin(filter.ProductCategories))
		b.WriteString("|m=" + sortedJoin(filter.Manufacturers))
		b.WriteString("|min=" + priceKey(filter.MinPrice))
		b.WriteString("|max=" + priceKey(filter.MaxPrice))
		b.WriteString("|")
	}
	fmt.Fprintf(&b, "page=%d|size=%d", page.Number, page.Size)
	return b.String()
}

func sortedJoin(values []string) string {
	cp := append([]string(nil), values...)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}

func priceKey(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
