package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"moviehub/internal/models"
	"moviehub/internal/search"
)

func makeSearchCMD() cli.Command {
	cmd := cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Searches movies once",
		ArgsUsage: "[query]",
		Action:    runSearch,
	}
	cmd.Flags = registerTMDBFlags(cmd.Flags)
	cmd.Flags = registerSearchFlags(cmd.Flags)
	return cmd
}

func makeWatchCMD() cli.Command {
	cmd := cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Reads queries from stdin, one per line, and prints results for the latest one",
		Action:  runWatch,
	}
	cmd.Flags = registerTMDBFlags(cmd.Flags)
	cmd.Flags = registerSearchFlags(cmd.Flags)
	cmd.Flags = registerDebounceFlag(cmd.Flags)
	return cmd
}

func baseFilters(c *cli.Context) models.SearchFilters {
	f := models.SearchFilters{
		Query:     strings.Join(c.Args(), " "),
		Genre:     c.String(genreFlag),
		Year:      c.String(yearFlag),
		SortBy:    models.SortKey(c.String(sortFlag)),
		SortOrder: models.SortOrder(c.String(orderFlag)),
	}
	f.Validate()
	return f
}

func runSearch(c *cli.Context) error {
	filters := baseFilters(c)
	if filters.IsEmpty() {
		return errors.New("nothing to search for: pass a query, --genre or --year")
	}

	p := search.NewPipeline(newTMDBClient(c), nil, search.WithTimeout(c.Duration(timeoutFlag)))
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration(timeoutFlag))
	defer cancel()
	return printMovies(os.Stdout, p.Execute(ctx, filters))
}

func runWatch(c *cli.Context) error {
	return watch(os.Stdin, os.Stdout, newTMDBClient(c), baseFilters(c),
		c.Duration(debounceFlag), c.Duration(timeoutFlag))
}

// watch submits every input line to a debounced pipeline and prints each
// delivered result. At end of input it waits for the result of the last line.
func watch(in io.Reader, out io.Writer, searcher search.Searcher, base models.SearchFilters, debounce, timeout time.Duration) error {
	results := make(chan search.Result, 1)
	p := search.NewPipeline(searcher, func(r search.Result) {
		// Only the newest result matters; drop an unread older one.
		select {
		case <-results:
		default:
		}
		results <- r
	}, search.WithDebounce(debounce), search.WithTimeout(timeout))
	defer p.Close()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	var (
		last    models.SearchFilters
		pending bool
	)
	show := func(r search.Result) error {
		if r.Filters == last {
			pending = false
		}
		fmt.Fprintf(out, "# %s\n", describe(r.Filters))
		return printMovies(out, r.Movies)
	}

	for lines != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			last = parseLine(line, base)
			pending = true
			p.Submit(last)
		case r := <-results:
			if err := show(r); err != nil {
				return err
			}
		}
	}
	if err := <-scanErr; err != nil {
		return errors.Wrap(err, "failed to read queries")
	}

	deadline := time.After(debounce + timeout)
	for pending {
		select {
		case r := <-results:
			if err := show(r); err != nil {
				return err
			}
		case <-deadline:
			return errors.New("timed out waiting for the last search")
		}
	}
	return nil
}

// parseLine turns an input line into filters. Words of the form key:value
// set genre, year, sort and order; everything else is the free-text query.
func parseLine(line string, base models.SearchFilters) models.SearchFilters {
	f := base
	var words []string
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, ":")
		if !ok || value == "" {
			words = append(words, field)
			continue
		}
		switch strings.ToLower(key) {
		case "genre":
			f.Genre = value
		case "year":
			f.Year = value
		case "sort":
			f.SortBy = models.SortKey(value)
		case "order":
			f.SortOrder = models.SortOrder(value)
		default:
			words = append(words, field)
		}
	}
	f.Query = strings.Join(words, " ")
	f.Validate()
	return f
}

func describe(f models.SearchFilters) string {
	parts := []string{fmt.Sprintf("query=%q", f.Query)}
	if f.Genre != "" {
		parts = append(parts, "genre="+f.Genre)
	}
	if f.Year != "" {
		parts = append(parts, "year="+f.Year)
	}
	parts = append(parts, fmt.Sprintf("sort=%s %s", f.SortBy, f.SortOrder))
	return strings.Join(parts, " ")
}
