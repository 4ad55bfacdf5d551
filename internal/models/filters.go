package models

import (
	"strconv"
	"strings"
)

// SortKey selects the comparator used to order search results.
type SortKey string

const (
	SortPopularity  SortKey = "popularity"
	SortRating      SortKey = "rating"
	SortReleaseDate SortKey = "release_date"
	SortTitle       SortKey = "title"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchFilters is the user's query plus structured filters.
type SearchFilters struct {
	Query     string    `json:"query" query:"query"`
	Genre     string    `json:"genre" query:"genre"`
	Year      string    `json:"year" query:"year"`
	SortBy    SortKey   `json:"sort_by" query:"sort_by"`
	SortOrder SortOrder `json:"sort_order" query:"order"`
}

// DefaultFilters returns empty filters with the default ordering.
func DefaultFilters() SearchFilters {
	return SearchFilters{SortBy: SortPopularity, SortOrder: SortDesc}
}

// Validate sets defaults and drops malformed values so that the filters are
// always fully defined.
func (f *SearchFilters) Validate() {
	f.Genre = strings.TrimSpace(f.Genre)
	f.Year = strings.TrimSpace(f.Year)

	switch f.SortBy {
	case SortPopularity, SortRating, SortReleaseDate, SortTitle:
	default:
		f.SortBy = SortPopularity
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		f.SortOrder = SortDesc
	}
	if _, ok := f.GenreID(); !ok {
		f.Genre = ""
	}
	if !validYear(f.Year) {
		f.Year = ""
	}
}

// IsEmpty reports whether there is nothing to search for: no query text,
// no genre and no year. A query of only whitespace counts as no text.
func (f SearchFilters) IsEmpty() bool {
	return strings.TrimSpace(f.Query) == "" && f.Genre == "" && f.Year == ""
}

// GenreID returns the numeric genre filter.
func (f SearchFilters) GenreID() (int, bool) {
	if f.Genre == "" {
		return 0, false
	}
	id, err := strconv.Atoi(f.Genre)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func validYear(y string) bool {
	if len(y) != 4 {
		return false
	}
	for _, r := range y {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
