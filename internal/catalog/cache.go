package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"moviehub/internal/models"
)

const keyPrefix = "catalog:"

// TTLs holds cache lifetimes per call family.
type TTLs struct {
	Search time.Duration
	Movie  time.Duration
	List   time.Duration
	Genre  time.Duration
}

// CachedProvider wraps a Provider with a Redis cache-aside layer. With a nil
// Redis client every call passes straight through.
type CachedProvider struct {
	next  Provider
	redis *redis.Client
	ttl   TTLs
}

// NewCachedProvider creates a new CachedProvider.
func NewCachedProvider(next Provider, rdb *redis.Client, ttl TTLs) *CachedProvider {
	return &CachedProvider{next: next, redis: rdb, ttl: ttl}
}

func (p *CachedProvider) Search(ctx context.Context, filters models.SearchFilters) ([]models.Movie, error) {
	filters.Validate()
	key := keyPrefix + "search:" + searchKey(filters)
	return cached(ctx, p, key, p.ttl.Search, func() ([]models.Movie, error) {
		return p.next.Search(ctx, filters)
	})
}

func (p *CachedProvider) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	key := fmt.Sprintf("%smovie:%d", keyPrefix, id)
	return cached(ctx, p, key, p.ttl.Movie, func() (*models.Movie, error) {
		return p.next.GetMovie(ctx, id)
	})
}

func (p *CachedProvider) Trending(ctx context.Context) ([]models.Movie, error) {
	return cached(ctx, p, keyPrefix+"trending", p.ttl.List, func() ([]models.Movie, error) {
		return p.next.Trending(ctx)
	})
}

func (p *CachedProvider) Popular(ctx context.Context) ([]models.Movie, error) {
	return cached(ctx, p, keyPrefix+"popular", p.ttl.List, func() ([]models.Movie, error) {
		return p.next.Popular(ctx)
	})
}

func (p *CachedProvider) Genres(ctx context.Context) ([]models.Genre, error) {
	return cached(ctx, p, keyPrefix+"genres", p.ttl.Genre, func() ([]models.Genre, error) {
		return p.next.Genres(ctx)
	})
}

// Invalidate drops every cached catalog entry.
func (p *CachedProvider) Invalidate(ctx context.Context) {
	if p.redis == nil {
		return
	}
	iter := p.redis.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		p.redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Error("failed to invalidate catalog cache", "error", err)
		return
	}
	slog.Info("catalog cache invalidated")
}

// cached is the cache-aside read path. Errors from the wrapped provider are
// never cached.
func cached[T any](ctx context.Context, p *CachedProvider, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if p.redis != nil {
		if data, err := p.redis.Get(ctx, key).Bytes(); err == nil {
			var v T
			if json.Unmarshal(data, &v) == nil {
				slog.Debug("cache hit", "key", key)
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if p.redis != nil && ttl > 0 {
		if data, err := json.Marshal(v); err == nil {
			if err := p.redis.Set(ctx, key, data, ttl).Err(); err != nil {
				slog.Error("failed to set cache", "key", key, "error", err)
			}
		}
	}
	return v, nil
}

func searchKey(f models.SearchFilters) string {
	raw := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(f.Query)), f.Genre, f.Year,
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
