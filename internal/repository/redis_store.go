package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"moviehub/internal/models"
)

// SessionKeyPrefix namespaces persisted sessions in Redis.
const SessionKeyPrefix = "moviehub_user:"

// RedisStore keeps snapshots as JSON strings with an optional expiry.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl keeps entries forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: rdb, ttl: ttl}
}

func redisKey(key string) string {
	return SessionKeyPrefix + key
}

func (r *RedisStore) Load(ctx context.Context, key string) (*models.User, error) {
	data, err := r.redis.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return user.Clone(), nil
}

func (r *RedisStore) Save(ctx context.Context, key string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.redis.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
