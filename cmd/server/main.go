package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	fiberRecover "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"

	"moviehub/internal/auth"
	"moviehub/internal/catalog"
	"moviehub/internal/config"
	"moviehub/internal/database"
	"moviehub/internal/handler"
	"moviehub/internal/middleware"
	"moviehub/internal/proxy"
	"moviehub/internal/repository"
	"moviehub/internal/search"
	"moviehub/internal/session"
	"moviehub/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the catalog cache, the rate limiter and session storage.
	// Without it the server still runs, uncached and unlimited.
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache", "error", err)
	}

	var db *sql.DB
	if cfg.Session.Backend == config.SessionBackendPostgres {
		db, err = database.NewPostgres(cfg.DB)
		if err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
	}
	sessionStore := newSessionStore(ctx, cfg, rdb, db)

	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	provider := catalog.NewCachedProvider(tmdbClient, rdb, catalog.TTLs{
		Search: cfg.Cache.SearchTTL,
		Movie:  cfg.Cache.MovieTTL,
		List:   cfg.Cache.ListTTL,
		Genre:  cfg.Cache.GenreTTL,
	})
	pipeline := search.NewPipeline(provider, nil, search.WithTimeout(cfg.Search.Timeout))
	defer pipeline.Close()

	sessions := session.NewRegistry(func(key string) session.AuthProvider {
		return auth.NewProvider(sessionStore, key)
	}, cfg.Session.PersistTimeout)

	movieHandler := handler.NewMovieHandler(provider, tmdbClient, pipeline)
	sessionHandler := handler.NewSessionHandler(sessions, provider, cfg.Search.WatchlistConcurrency)
	catalogProxy := proxy.NewCatalogProxy(cfg.TMDB.BaseURL, cfg.TMDB.APIKey)

	app := fiber.New(fiber.Config{
		AppName:      "MovieHub",
		ServerHeader: "MovieHub",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(fiberRecover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	rateLimiter := middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds,
		handler.APIPrefix+"/health", "/swagger")
	app.Use(rateLimiter.Handler())

	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	} else {
		handler.RegisterSwagger(app, swaggerYAML)
	}

	handler.RegisterRoutes(app, movieHandler, sessionHandler, catalogProxy.Forward(handler.APIPrefix+"/tmdb"))

	go func() {
		addr := ":" + cfg.Port
		slog.Info("starting moviehub", "addr", addr, "session_backend", cfg.Session.Backend)
		if err := app.Listen(addr); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down moviehub...")

	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}
	slog.Info("HTTP server stopped")

	// Flush queued session writes before the stores go away.
	sessions.Close()

	if db != nil {
		if err := db.Close(); err != nil {
			slog.Error("error closing PostgreSQL connection", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		}
	}

	slog.Info("moviehub shutdown complete")
}

func newSessionStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, db *sql.DB) repository.SessionStore {
	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		pg := repository.NewPostgresStore(db)
		if n, err := pg.DeleteStale(ctx, cfg.Session.TTL); err != nil {
			slog.Warn("failed to prune stale sessions", "error", err)
		} else if n > 0 {
			slog.Info("pruned stale sessions", "count", n)
		}
		if rdb == nil {
			return pg
		}
		return repository.NewCachedStore(repository.NewRedisStore(rdb, cfg.Session.TTL), pg)
	case config.SessionBackendRedis:
		if rdb != nil {
			return repository.NewRedisStore(rdb, cfg.Session.TTL)
		}
		slog.Warn("session backend redis unavailable, keeping sessions in memory")
	}
	return repository.NewMemoryStore()
}
