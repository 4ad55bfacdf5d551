package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/database"
	"moviehub/internal/models"
)

func sampleUser() *models.User {
	return &models.User{
		ID:        "1",
		Name:      "Demo User",
		Email:     "demo@moviehub.com",
		Watchlist: []int{550, 680, 155},
		Ratings:   map[int]int{550: 5, 680: 4, 155: 4},
		CreatedAt: time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
	}
}

// exerciseStore runs the common SessionStore contract.
func exerciseStore(t *testing.T, s SessionStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := sampleUser()
	require.NoError(t, s.Save(ctx, "k1", want))
	got, err = s.Load(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Watchlist, got.Watchlist)
	assert.Equal(t, want.Ratings, got.Ratings)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	want.Watchlist = []int{680}
	require.NoError(t, s.Save(ctx, "k1", want))
	got, err = s.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []int{680}, got.Watchlist)

	require.NoError(t, s.Delete(ctx, "k1"))
	got, err = s.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.Delete(ctx, "k1"))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_DoesNotAlias(t *testing.T) {
	s := NewMemoryStore()
	u := sampleUser()
	require.NoError(t, s.Save(context.Background(), "k", u))
	u.Watchlist[0] = 1

	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 550, got.Watchlist[0])
}

func TestRedisStore(t *testing.T) {
	_, rdb := newRedis(t)
	exerciseStore(t, NewRedisStore(rdb, time.Hour))
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, time.Hour)

	require.NoError(t, s.Save(context.Background(), "abc", sampleUser()))
	assert.True(t, mr.Exists("moviehub_user:abc"))
	assert.Equal(t, time.Hour, mr.TTL("moviehub_user:abc"))

	mr.FastForward(2 * time.Hour)
	got, err := s.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("moviehub_user:bad", "{not json"))

	_, err := NewRedisStore(rdb, 0).Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to decode session")
}

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Save(ctx context.Context, key string, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.Save(ctx, key, u)
}

func TestCachedStore(t *testing.T) {
	_, rdb := newRedis(t)
	exerciseStore(t, NewCachedStore(NewRedisStore(rdb, time.Hour), NewMemoryStore()))
}

func TestCachedStore_ReadThrough(t *testing.T) {
	mr, rdb := newRedis(t)
	durable := NewMemoryStore()
	require.NoError(t, durable.Save(context.Background(), "k", sampleUser()))
	s := NewCachedStore(NewRedisStore(rdb, time.Hour), durable)

	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, mr.Exists("moviehub_user:k"))
}

func TestCachedStore_DurableFailureSkipsCache(t *testing.T) {
	mr, rdb := newRedis(t)
	durable := &failingStore{MemoryStore: NewMemoryStore(), err: errors.New("db down")}
	s := NewCachedStore(NewRedisStore(rdb, time.Hour), durable)

	err := s.Save(context.Background(), "k", sampleUser())
	assert.ErrorContains(t, err, "db down")
	assert.False(t, mr.Exists("moviehub_user:k"))
}

func TestCachedStore_CacheOutageFallsBack(t *testing.T) {
	mr, rdb := newRedis(t)
	durable := NewMemoryStore()
	s := NewCachedStore(NewRedisStore(rdb, time.Hour), durable)
	mr.Close()

	require.NoError(t, s.Save(context.Background(), "k", sampleUser()))
	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.ID)
}

// TestPostgresStore runs against a real database when MOVIEHUB_TEST_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MOVIEHUB_TEST_DSN")
	if dsn == "" {
		t.Skip("MOVIEHUB_TEST_DSN not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(db)
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), "stale", sampleUser()))
	n, err := s.DeleteStale(context.Background(), -time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
