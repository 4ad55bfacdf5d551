package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"moviehub/internal/catalog"
	"moviehub/internal/models"
	"moviehub/internal/tmdb"
)

// Searcher runs one query through the search pipeline.
type Searcher interface {
	Execute(ctx context.Context, filters models.SearchFilters) []models.Movie
}

// Discoverer lists movies by structured filters.
type Discoverer interface {
	Discover(ctx context.Context, p tmdb.DiscoverParams) ([]models.Movie, error)
}

// MovieHandler handles HTTP requests for catalog browsing and search.
type MovieHandler struct {
	catalog  catalog.Provider
	discover Discoverer
	search   Searcher
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(p catalog.Provider, d Discoverer, s Searcher) *MovieHandler {
	return &MovieHandler{catalog: p, discover: d, search: s}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MovieListResponse wraps a list of movie cards.
type MovieListResponse struct {
	Results []models.MovieCard `json:"results"`
	Total   int                `json:"total"`
}

// SearchResponse echoes the normalised filters with the ordered results.
type SearchResponse struct {
	Filters models.SearchFilters `json:"filters"`
	Results []models.MovieCard   `json:"results"`
	Total   int                  `json:"total"`
}

func listResponse(movies []models.Movie) MovieListResponse {
	cards := models.NewMovieCards(movies)
	return MovieListResponse{Results: cards, Total: len(cards)}
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MovieHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "moviehub",
	})
}

// Trending returns this week's trending movies.
// @Summary Trending movies
// @Tags movies
// @Produce json
// @Success 200 {object} MovieListResponse
// @Failure 502 {object} ErrorResponse
// @Router /movies/trending [get]
func (h *MovieHandler) Trending(c fiber.Ctx) error {
	movies, err := h.catalog.Trending(c.Context())
	if err != nil {
		slog.Error("failed to get trending movies", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "failed to retrieve movies",
		})
	}
	return c.JSON(listResponse(movies))
}

// Popular returns the popular movies list.
// @Summary Popular movies
// @Tags movies
// @Produce json
// @Success 200 {object} MovieListResponse
// @Failure 502 {object} ErrorResponse
// @Router /movies/popular [get]
func (h *MovieHandler) Popular(c fiber.Ctx) error {
	movies, err := h.catalog.Popular(c.Context())
	if err != nil {
		slog.Error("failed to get popular movies", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "failed to retrieve movies",
		})
	}
	return c.JSON(listResponse(movies))
}

// Discover lists movies by minimum rating, release year and genre.
// @Summary Discover movies
// @Tags movies
// @Produce json
// @Param min_rating query number false "Minimum vote average"
// @Param year query string false "Release year (YYYY)"
// @Param genre query int false "Genre ID"
// @Success 200 {object} MovieListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /movies/discover [get]
func (h *MovieHandler) Discover(c fiber.Ctx) error {
	params := tmdb.DiscoverParams{
		MinRating: fiber.Query(c, "min_rating", 0.0),
		Year:      c.Query("year"),
		GenreID:   fiber.Query(c, "genre", 0),
	}
	if params.MinRating < 0 || params.MinRating > 10 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "min_rating must be between 0 and 10",
		})
	}
	check := models.SearchFilters{Year: params.Year}
	check.Validate()
	if check.Year != params.Year {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "year must be a four digit year",
		})
	}

	movies, err := h.discover.Discover(c.Context(), params)
	if err != nil {
		slog.Error("failed to discover movies", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "failed to retrieve movies",
		})
	}
	return c.JSON(listResponse(movies))
}

// GetMovie returns one movie card with its details.
// @Summary Get movie detail
// @Tags movies
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.MovieCard
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /movies/{id} [get]
func (h *MovieHandler) GetMovie(c fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid movie ID",
		})
	}

	movie, err := h.catalog.GetMovie(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "movie not found",
			})
		}
		slog.Error("failed to get movie", "id", id, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "failed to retrieve movie details",
		})
	}
	return c.JSON(models.NewMovieCard(*movie))
}

// Genres returns the genre list.
// @Summary List genres
// @Tags movies
// @Produce json
// @Success 200 {array} models.Genre
// @Failure 502 {object} ErrorResponse
// @Router /genres [get]
func (h *MovieHandler) Genres(c fiber.Ctx) error {
	genres, err := h.catalog.Genres(c.Context())
	if err != nil {
		slog.Error("failed to get genres", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "failed to retrieve genres",
		})
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return c.JSON(genres)
}

// Search runs the query pipeline once. Empty filters return no results and
// catalog failures degrade to an empty list.
// @Summary Search movies
// @Tags search
// @Produce json
// @Param query query string false "Free text"
// @Param genre query string false "Genre ID"
// @Param year query string false "Release year (YYYY)"
// @Param sort_by query string false "Sort key" Enums(popularity,rating,release_date,title) default(popularity)
// @Param order query string false "Sort order" Enums(asc,desc) default(desc)
// @Success 200 {object} SearchResponse
// @Router /search [get]
func (h *MovieHandler) Search(c fiber.Ctx) error {
	filters := models.SearchFilters{
		Query:     c.Query("query"),
		Genre:     c.Query("genre"),
		Year:      c.Query("year"),
		SortBy:    models.SortKey(c.Query("sort_by")),
		SortOrder: models.SortOrder(c.Query("order")),
	}
	filters.Validate()

	movies := h.search.Execute(c.Context(), filters)
	cards := models.NewMovieCards(movies)
	return c.JSON(SearchResponse{Filters: filters, Results: cards, Total: len(cards)})
}

func movieID(c fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
