package search

import (
	"cmp"
	"slices"
	"strings"

	"moviehub/internal/models"
)

// Sort returns a sorted copy of movies. The sort is stable: movies with
// equal keys keep their input order in both directions.
//
// Keys: rating sorts by average vote, release_date by calendar date
// (unknown dates count as the earliest), title byte-wise, and popularity
// (the default) by vote count.
func Sort(movies []models.Movie, by models.SortKey, order models.SortOrder) []models.Movie {
	out := slices.Clone(movies)
	if out == nil {
		return []models.Movie{}
	}

	compare := comparator(by)
	if order == models.SortAsc {
		slices.SortStableFunc(out, compare)
	} else {
		slices.SortStableFunc(out, func(a, b models.Movie) int { return compare(b, a) })
	}
	return out
}

func comparator(by models.SortKey) func(a, b models.Movie) int {
	switch by {
	case models.SortRating:
		return func(a, b models.Movie) int { return cmp.Compare(a.VoteAverage, b.VoteAverage) }
	case models.SortReleaseDate:
		return func(a, b models.Movie) int {
			ta, _ := a.Released()
			tb, _ := b.Released()
			return ta.Compare(tb)
		}
	case models.SortTitle:
		return func(a, b models.Movie) int { return strings.Compare(a.Title, b.Title) }
	default:
		return func(a, b models.Movie) int { return cmp.Compare(a.VoteCount, b.VoteCount) }
	}
}
