package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"moviehub/internal/config"
)

func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := Open(cfg.DSN())
	if err != nil {
		return nil, err
	}
	slog.Info("connected to PostgreSQL", "db", cfg.DBName)
	return db, nil
}

// Open connects to dsn and applies the schema migrations.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// migrations is the schema for persisted sessions, applied in order.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_sessions (
		session_key VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		watchlist INTEGER[] NOT NULL DEFAULT '{}',
		ratings JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_updated_at ON user_sessions(updated_at)`,
}

// RunMigrations applies the schema migrations.
func RunMigrations(db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
