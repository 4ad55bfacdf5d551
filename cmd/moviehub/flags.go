package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"

	"moviehub/internal/search"
	"moviehub/internal/tmdb"
)

const (
	tmdbKeyFlag      = "tmdb-api-key"
	tmdbURLFlag      = "tmdb-base-url"
	tmdbLanguageFlag = "tmdb-language"
	debounceFlag     = "debounce"
	timeoutFlag      = "timeout"
	genreFlag        = "genre"
	yearFlag         = "year"
	sortFlag         = "sort-by"
	orderFlag        = "order"
	redisAddrFlag    = "redis-addr"
	redisPassFlag    = "redis-password"
	redisDBFlag      = "redis-db"
)

func registerTMDBFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   tmdbKeyFlag,
			Usage:  "TMDB api key",
			EnvVar: "TMDB_API_KEY",
		},
		cli.StringFlag{
			Name:   tmdbURLFlag,
			Usage:  "TMDB api base url",
			EnvVar: "TMDB_BASE_URL",
			Value:  "https://api.themoviedb.org/3",
		},
		cli.StringFlag{
			Name:   tmdbLanguageFlag,
			Usage:  "TMDB response language",
			EnvVar: "TMDB_LANGUAGE",
			Value:  "en-US",
		},
	)
}

func registerSearchFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:  genreFlag,
			Usage: "genre id filter",
		},
		cli.StringFlag{
			Name:  yearFlag,
			Usage: "release year filter (YYYY)",
		},
		cli.StringFlag{
			Name:  sortFlag,
			Usage: "sort key: popularity, rating, release_date or title",
			Value: "popularity",
		},
		cli.StringFlag{
			Name:  orderFlag,
			Usage: "sort order: asc or desc",
			Value: "desc",
		},
		cli.DurationFlag{
			Name:   timeoutFlag,
			Usage:  "search timeout",
			EnvVar: "SEARCH_TIMEOUT",
			Value:  search.DefaultTimeout,
		},
	)
}

func registerDebounceFlag(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   debounceFlag,
			Usage:  "quiet period before a query runs",
			EnvVar: "SEARCH_DEBOUNCE",
			Value:  search.DefaultDebounce,
		},
	)
}

func registerRedisFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   redisAddrFlag,
			Usage:  "redis address",
			EnvVar: "REDIS_ADDR",
			Value:  "127.0.0.1:6379",
		},
		cli.StringFlag{
			Name:   redisPassFlag,
			Usage:  "redis password",
			EnvVar: "REDIS_PASSWORD",
		},
		cli.IntFlag{
			Name:   redisDBFlag,
			Usage:  "redis database",
			EnvVar: "REDIS_DB",
		},
	)
}

func newTMDBClient(c *cli.Context) *tmdb.Client {
	return tmdb.NewClient(c.String(tmdbKeyFlag), c.String(tmdbURLFlag), c.String(tmdbLanguageFlag))
}

func newRedisClient(c *cli.Context) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.String(redisAddrFlag),
		Password: c.String(redisPassFlag),
		DB:       c.Int(redisDBFlag),
	})
}
