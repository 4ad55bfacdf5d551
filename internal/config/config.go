package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session persistence backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config holds all configuration for the MovieHub server.
type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	TMDB      TMDBConfig
	Session   SessionConfig
	Search    SearchConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Port      string
	LogLevel  string
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey   string
	BaseURL  string
	Language string
}

// SessionConfig controls where client sessions are mirrored.
type SessionConfig struct {
	Backend        string
	TTL            time.Duration
	PersistTimeout time.Duration
}

// SearchConfig controls the query pipeline.
type SearchConfig struct {
	Debounce             time.Duration
	Timeout              time.Duration
	WatchlistConcurrency int
}

// CacheConfig holds catalog cache TTLs.
type CacheConfig struct {
	SearchTTL time.Duration
	MovieTTL  time.Duration
	ListTTL   time.Duration
	GenreTTL  time.Duration
}

// RateLimitConfig holds the per-IP request budget.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	concurrency, _ := strconv.Atoi(getEnv("WATCHLIST_CONCURRENCY", "8"))

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "moviehub"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:   getEnv("TMDB_API_KEY", ""),
			BaseURL:  getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			Language: getEnv("TMDB_LANGUAGE", "en-US"),
		},
		Session: SessionConfig{
			Backend:        getEnv("SESSION_BACKEND", SessionBackendRedis),
			TTL:            getDuration("SESSION_TTL", 30*24*time.Hour),
			PersistTimeout: getDuration("PERSIST_TIMEOUT", 5*time.Second),
		},
		Search: SearchConfig{
			Debounce:             getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
			Timeout:              getDuration("SEARCH_TIMEOUT", 10*time.Second),
			WatchlistConcurrency: concurrency,
		},
		Cache: CacheConfig{
			SearchTTL: getDuration("CACHE_SEARCH_TTL", 5*time.Minute),
			MovieTTL:  getDuration("CACHE_MOVIE_TTL", 30*time.Minute),
			ListTTL:   getDuration("CACHE_LIST_TTL", 10*time.Minute),
			GenreTTL:  getDuration("CACHE_GENRE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Max:           rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
		Port:     getEnv("SERVER_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Search.WatchlistConcurrency < 1 {
		c.Search.WatchlistConcurrency = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
