package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"moviehub/internal/models"
)

// PostgresStore keeps snapshots in the user_sessions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the snapshot stored under key.
func (r *PostgresStore) Load(ctx context.Context, key string) (*models.User, error) {
	var (
		user      models.User
		watchlist pq.Int64Array
		ratings   []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, name, email, avatar, watchlist, ratings, created_at
		FROM user_sessions WHERE session_key = $1
	`, key).Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &watchlist, &ratings, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user.Watchlist = make([]int, 0, len(watchlist))
	for _, id := range watchlist {
		user.Watchlist = append(user.Watchlist, int(id))
	}
	if err := json.Unmarshal(ratings, &user.Ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}
	return user.Clone(), nil
}

// Save upserts the snapshot for key.
func (r *PostgresStore) Save(ctx context.Context, key string, user *models.User) error {
	watchlist := make(pq.Int64Array, 0, len(user.Watchlist))
	for _, id := range user.Watchlist {
		watchlist = append(watchlist, int64(id))
	}
	ratings := user.Ratings
	if ratings == nil {
		ratings = map[int]int{}
	}
	ratingsJSON, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("failed to encode ratings: %w", err)
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_sessions (session_key, user_id, name, email, avatar, watchlist, ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (session_key) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			avatar = EXCLUDED.avatar,
			watchlist = EXCLUDED.watchlist,
			ratings = EXCLUDED.ratings,
			updated_at = NOW()
	`, key, user.ID, user.Name, user.Email, user.Avatar, watchlist, ratingsJSON, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the snapshot for key.
func (r *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteStale removes sessions not updated within ttl.
func (r *PostgresStore) DeleteStale(ctx context.Context, ttl time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE updated_at < $1`, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	return res.RowsAffected()
}
