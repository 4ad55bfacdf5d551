package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"moviehub/internal/catalog"
)

func makeCacheCMD() cli.Command {
	clearCmd := cli.Command{
		Name:   "clear",
		Usage:  "Drops every cached catalog response",
		Action: clearCache,
	}
	clearCmd.Flags = registerRedisFlags(clearCmd.Flags)
	return cli.Command{
		Name:        "cache",
		Usage:       "Catalog cache management commands",
		Subcommands: []cli.Command{clearCmd},
	}
}

func clearCache(c *cli.Context) error {
	ctx := context.Background()
	rdb := newRedisClient(c)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to connect to redis")
	}
	catalog.NewCachedProvider(nil, rdb, catalog.TTLs{}).Invalidate(ctx)
	return nil
}
