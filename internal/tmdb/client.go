package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviehub/internal/models"
)

// Client is the TMDB API client. It implements the catalog provider.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey, baseURL, language string) *Client {
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-200 answer from TMDB.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d: %s", e.StatusCode, e.Body)
}

// ---- TMDB Response Types ----

type pageResponse struct {
	Page         int            `json:"page"`
	Results      []models.Movie `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type genreListResponse struct {
	Genres []models.Genre `json:"genres"`
}

// DiscoverParams are the filters of the discover endpoint.
type DiscoverParams struct {
	MinRating float64
	Year      string
	GenreID   int
	SortBy    string
}

// ---- Client Methods ----

// Search finds movies matching the filters. A free-text query goes to the
// search endpoint, which can't filter by genre, so genre is applied to its
// results here. Without a query the discover endpoint does all filtering.
func (c *Client) Search(ctx context.Context, filters models.SearchFilters) ([]models.Movie, error) {
	filters.Validate()
	genreID, hasGenre := filters.GenreID()

	query := strings.TrimSpace(filters.Query)
	if query == "" {
		return c.Discover(ctx, DiscoverParams{Year: filters.Year, GenreID: genreID})
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")
	if filters.Year != "" {
		params.Set("primary_release_year", filters.Year)
	}

	slog.Debug("searching TMDB", "query", query, "year", filters.Year)
	var result pageResponse
	if err := c.getJSON(ctx, "/search/movie", params, &result); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	if !hasGenre {
		return result.Results, nil
	}

	movies := make([]models.Movie, 0, len(result.Results))
	for _, m := range result.Results {
		if m.HasGenre(genreID) {
			movies = append(movies, m)
		}
	}
	return movies, nil
}

// Discover fetches movies from the TMDB discover endpoint.
func (c *Client) Discover(ctx context.Context, p DiscoverParams) ([]models.Movie, error) {
	params := url.Values{}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)
	params.Set("page", "1")
	if p.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(p.MinRating, 'f', 1, 64))
	}
	if p.Year != "" {
		params.Set("primary_release_year", p.Year)
	}
	if p.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(p.GenreID))
	}

	slog.Debug("fetching TMDB discover", "year", p.Year, "genre", p.GenreID)
	var result pageResponse
	if err := c.getJSON(ctx, "/discover/movie", params, &result); err != nil {
		return nil, fmt.Errorf("discover movies: %w", err)
	}
	return result.Results, nil
}

// GetMovie fetches detailed movie info. It returns models.ErrMovieNotFound
// when TMDB doesn't know the ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	slog.Debug("fetching TMDB movie detail", "tmdb_id", id)
	var result models.Movie
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", id), nil, &result); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, models.ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	if len(result.GenreIDs) == 0 {
		for _, g := range result.Genres {
			result.GenreIDs = append(result.GenreIDs, g.ID)
		}
	}
	return &result, nil
}

// Trending fetches this week's trending movies.
func (c *Client) Trending(ctx context.Context) ([]models.Movie, error) {
	var result pageResponse
	if err := c.getJSON(ctx, "/trending/movie/week", nil, &result); err != nil {
		return nil, fmt.Errorf("trending movies: %w", err)
	}
	return result.Results, nil
}

// Popular fetches the popular movies list.
func (c *Client) Popular(ctx context.Context) ([]models.Movie, error) {
	var result pageResponse
	if err := c.getJSON(ctx, "/movie/popular", nil, &result); err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}
	return result.Results, nil
}

// Genres fetches all movie genres from TMDB.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	slog.Debug("fetching TMDB genres")
	var result genreListResponse
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &result); err != nil {
		return nil, fmt.Errorf("genres: %w", err)
	}
	return result.Genres, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
