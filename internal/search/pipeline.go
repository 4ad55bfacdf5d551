// Package search turns a stream of filter changes into a single,
// up-to-date, ordered result list.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"moviehub/internal/models"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// Searcher is the part of the catalog the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Movie, error)
}

// Result is one delivered result set.
type Result struct {
	Generation uint64
	Filters    models.SearchFilters
	Movies     []models.Movie
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDebounce sets the quiet period before a submitted query runs.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

// WithTimeout bounds each execution.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// Pipeline debounces submitted filters, runs the latest ones against the
// catalog and hands the sorted result to onResult. Results for filters that
// have since been superseded are discarded.
type Pipeline struct {
	searcher Searcher
	onResult func(Result)
	delay    time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	latest Result
	closed bool

	// deliverMu serialises onResult so an older result can't overtake a
	// newer one between the staleness check and the callback.
	deliverMu sync.Mutex
}

// NewPipeline creates a new Pipeline. onResult may be nil when only Execute
// is used.
func NewPipeline(searcher Searcher, onResult func(Result), opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		onResult: onResult,
		delay:    DefaultDebounce,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit records the latest desired filters and restarts the debounce
// timer. Nothing runs until the timer fires without another Submit.
func (p *Pipeline) Submit(filters models.SearchFilters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.delay, func() { p.run(gen, filters) })
}

// Execute runs one query synchronously. Empty filters short-circuit to an
// empty list without touching the catalog. Catalog failures are logged and
// yield an empty list.
func (p *Pipeline) Execute(ctx context.Context, filters models.SearchFilters) []models.Movie {
	filters.Validate()
	if filters.IsEmpty() {
		return []models.Movie{}
	}

	movies, err := p.searcher.Search(ctx, filters)
	if err != nil {
		slog.Warn("search failed", "query", filters.Query, "genre", filters.Genre, "year", filters.Year, "error", err)
		return []models.Movie{}
	}
	return Sort(movies, filters.SortBy, filters.SortOrder)
}

// Latest returns the most recently delivered result.
func (p *Pipeline) Latest() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Close stops any pending execution and cancels in-flight work. Submit is a
// no-op afterwards.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) run(gen uint64, filters models.SearchFilters) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	filters.Validate()
	movies := p.Execute(ctx, filters)

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	current := gen == p.gen
	if current {
		p.latest = Result{Generation: gen, Filters: filters, Movies: movies}
	}
	p.mu.Unlock()

	if !current {
		slog.Debug("discarding stale search result", "generation", gen)
		return
	}
	if p.onResult != nil {
		p.onResult(Result{Generation: gen, Filters: filters, Movies: movies})
	}
}
