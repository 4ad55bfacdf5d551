package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"moviehub/internal/models"
	"moviehub/internal/search"
)

func makeListCMD(name, usage string) cli.Command {
	cmd := cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return runList(c, name)
		},
	}
	cmd.Flags = registerTMDBFlags(cmd.Flags)
	return cmd
}

func makeGenresCMD() cli.Command {
	cmd := cli.Command{
		Name:   "genres",
		Usage:  "Lists genre ids usable with --genre",
		Action: runGenres,
	}
	cmd.Flags = registerTMDBFlags(cmd.Flags)
	return cmd
}

func runList(c *cli.Context, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), search.DefaultTimeout)
	defer cancel()

	client := newTMDBClient(c)
	var (
		movies []models.Movie
		err    error
	)
	switch name {
	case "trending":
		movies, err = client.Trending(ctx)
	case "popular":
		movies, err = client.Popular(ctx)
	default:
		return errors.Errorf("unknown list %q", name)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s movies", name)
	}
	return printMovies(os.Stdout, movies)
}

func runGenres(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), search.DefaultTimeout)
	defer cancel()

	genres, err := newTMDBClient(c).Genres(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch genres")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, g := range genres {
		fmt.Fprintf(w, "%d\t%s\n", g.ID, g.Name)
	}
	return w.Flush()
}
