package repository

import (
	"context"
	"log/slog"

	"moviehub/internal/models"
)

// CachedStore reads through a Redis copy in front of a durable store.
// Cache failures are logged and fall back to the durable store.
type CachedStore struct {
	cache *RedisStore
	next  SessionStore
}

func NewCachedStore(cache *RedisStore, next SessionStore) *CachedStore {
	return &CachedStore{cache: cache, next: next}
}

func (c *CachedStore) Load(ctx context.Context, key string) (*models.User, error) {
	user, err := c.cache.Load(ctx, key)
	if err != nil {
		slog.Warn("session cache read failed", "error", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = c.next.Load(ctx, key)
	if err != nil || user == nil {
		return user, err
	}
	if err := c.cache.Save(ctx, key, user); err != nil {
		slog.Warn("session cache write failed", "error", err)
	}
	return user, nil
}

func (c *CachedStore) Save(ctx context.Context, key string, user *models.User) error {
	if err := c.next.Save(ctx, key, user); err != nil {
		return err
	}
	if err := c.cache.Save(ctx, key, user); err != nil {
		slog.Warn("session cache write failed", "error", err)
	}
	return nil
}

// Delete removes the cached copy first so a failed durable delete can't
// leave a stale cache entry behind.
func (c *CachedStore) Delete(ctx context.Context, key string) error {
	if err := c.cache.Delete(ctx, key); err != nil {
		slog.Warn("session cache delete failed", "error", err)
	}
	return c.next.Delete(ctx, key)
}
