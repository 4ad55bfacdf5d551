// Package catalogtest provides an in-memory catalog provider for tests.
package catalogtest

import (
	"context"
	"sync"

	"moviehub/internal/models"
)

// Fake is a scriptable catalog.Provider. Hooks left nil fall back to the
// static data on the struct.
type Fake struct {
	Movies       map[int]models.Movie
	Results      []models.Movie
	TrendingList []models.Movie
	PopularList  []models.Movie
	GenreList    []models.Genre
	Err          error

	SearchFunc func(ctx context.Context, f models.SearchFilters) ([]models.Movie, error)
	MovieFunc  func(ctx context.Context, id int) (*models.Movie, error)

	mu       sync.Mutex
	searches []models.SearchFilters
	counts   map[string]int
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[call]++
}

// Calls returns how many times the named method ran.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method]
}

// Searches returns the filters of every Search call, in order.
func (f *Fake) Searches() []models.SearchFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SearchFilters(nil), f.searches...)
}

func (f *Fake) Search(ctx context.Context, filters models.SearchFilters) ([]models.Movie, error) {
	f.record("Search")
	f.mu.Lock()
	f.searches = append(f.searches, filters)
	f.mu.Unlock()

	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, filters)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Movie(nil), f.Results...), nil
}

func (f *Fake) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	f.record("GetMovie")
	if f.MovieFunc != nil {
		return f.MovieFunc(ctx, id)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.Movies[id]
	if !ok {
		return nil, models.ErrMovieNotFound
	}
	return &m, nil
}

func (f *Fake) Trending(ctx context.Context) ([]models.Movie, error) {
	f.record("Trending")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.TrendingList, nil
}

func (f *Fake) Popular(ctx context.Context) ([]models.Movie, error) {
	f.record("Popular")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.PopularList, nil
}

func (f *Fake) Genres(ctx context.Context) ([]models.Genre, error) {
	f.record("Genres")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.GenreList, nil
}
