// Package catalog defines the movie data source the rest of MovieHub
// consumes, plus a Redis cache-aside decorator and a batch fetcher.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"moviehub/internal/models"
)

// Provider is the catalog data source. All calls may fail; a failure is
// reported as an error, distinct from an empty result.
type Provider interface {
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Movie, error)
	GetMovie(ctx context.Context, id int) (*models.Movie, error)
	Trending(ctx context.Context) ([]models.Movie, error)
	Popular(ctx context.Context) ([]models.Movie, error)
	Genres(ctx context.Context) ([]models.Genre, error)
}

// FetchMany loads movies by ID concurrently, at most limit at a time. It
// waits for every request to settle. Failed or missing movies are dropped;
// the rest keep the order of ids.
func FetchMany(ctx context.Context, p Provider, ids []int, limit int) []models.Movie {
	if len(ids) == 0 {
		return []models.Movie{}
	}

	slots := make([]*models.Movie, len(ids))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			m, err := p.GetMovie(ctx, id)
			if err != nil {
				if !errors.Is(err, models.ErrMovieNotFound) {
					slog.Warn("failed to fetch movie", "id", id, "error", err)
				}
				return nil
			}
			slots[i] = m
			return nil
		})
	}
	_ = g.Wait()

	movies := make([]models.Movie, 0, len(ids))
	for _, m := range slots {
		if m != nil {
			movies = append(movies, *m)
		}
	}
	return movies
}
