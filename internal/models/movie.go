package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrMovieNotFound is returned when the catalog has no movie for an ID.
var ErrMovieNotFound = errors.New("movie not found")

const (
	TMDBImageBase = "https://image.tmdb.org/t/p/"
	PosterSize    = "w500"
	BackdropSize  = "w780"

	releaseDateLayout  = "2006-01-02"
	releaseMonthLayout = "2006-01"
	releaseYearLayout  = "2006"
)

// Movie is a catalog item as returned by TMDB. It is never mutated locally.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
	Genres       []Genre `json:"genres,omitempty"`
	Runtime      *int    `json:"runtime,omitempty"`
	Tagline      string  `json:"tagline,omitempty"`
}

// Genre is a TMDB movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Released parses the release date. TMDB sometimes only knows the year or
// the month, so shorter forms are accepted. It reports false when the date is
// empty or unparsable.
func (m Movie) Released() (time.Time, bool) {
	for _, layout := range []string{releaseDateLayout, releaseMonthLayout, releaseYearLayout} {
		if t, err := time.Parse(layout, m.ReleaseDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReleaseYear returns the release year, or 0 when unknown.
func (m Movie) ReleaseYear() int {
	t, ok := m.Released()
	if !ok {
		return 0
	}
	return t.Year()
}

// HasGenre reports whether the movie is tagged with the given genre.
func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	for _, g := range m.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

// ImageURL builds a TMDB image URL. An empty path yields an empty URL.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return TMDBImageBase + size + path
}

// FormatRating renders a 0-10 average with one decimal.
func FormatRating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// MovieCard is the presentation shape of a movie.
type MovieCard struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	Tagline      string  `json:"tagline,omitempty"`
	ReleaseDate  string  `json:"release_date"`
	ReleaseYear  int     `json:"release_year,omitempty"`
	Rating       float64 `json:"rating"`
	RatingLabel  string  `json:"rating_label"`
	VoteCount    int     `json:"vote_count"`
	VotesLabel   string  `json:"votes_label"`
	RuntimeLabel string  `json:"runtime_label,omitempty"`
	PosterURL    string  `json:"poster_url,omitempty"`
	BackdropURL  string  `json:"backdrop_url,omitempty"`
	GenreIDs     []int   `json:"genre_ids"`
	Genres       []Genre `json:"genres,omitempty"`
}

// NewMovieCard formats a movie for display.
func NewMovieCard(m Movie) MovieCard {
	card := MovieCard{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		Tagline:     m.Tagline,
		ReleaseDate: m.ReleaseDate,
		ReleaseYear: m.ReleaseYear(),
		Rating:      m.VoteAverage,
		RatingLabel: FormatRating(m.VoteAverage),
		VoteCount:   m.VoteCount,
		VotesLabel:  humanize.Comma(int64(m.VoteCount)),
		PosterURL:   ImageURL(m.PosterPath, PosterSize),
		BackdropURL: ImageURL(m.BackdropPath, BackdropSize),
		GenreIDs:    m.GenreIDs,
		Genres:      m.Genres,
	}
	if card.GenreIDs == nil {
		card.GenreIDs = []int{}
	}
	if m.Runtime != nil && *m.Runtime > 0 {
		card.RuntimeLabel = fmt.Sprintf("%d min", *m.Runtime)
	}
	return card
}

// NewMovieCards formats a list of movies, never returning nil.
func NewMovieCards(movies []Movie) []MovieCard {
	cards := make([]MovieCard, 0, len(movies))
	for _, m := range movies {
		cards = append(cards, NewMovieCard(m))
	}
	return cards
}
