package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/catalog/catalogtest"
	"moviehub/internal/models"
)

func TestParseLine(t *testing.T) {
	base := models.DefaultFilters()

	tests := []struct {
		line string
		want models.SearchFilters
	}{
		{"", base},
		{"blade runner", models.SearchFilters{Query: "blade runner", SortBy: models.SortPopularity, SortOrder: models.SortDesc}},
		{"heat year:1995 sort:rating order:asc", models.SearchFilters{Query: "heat", Year: "1995", SortBy: models.SortRating, SortOrder: models.SortAsc}},
		{"genre:28", models.SearchFilters{Genre: "28", SortBy: models.SortPopularity, SortOrder: models.SortDesc}},
		{"star trek: tng year:95", models.SearchFilters{Query: "star trek: tng", SortBy: models.SortPopularity, SortOrder: models.SortDesc}},
		{"sort:bogus alien", models.SearchFilters{Query: "alien", SortBy: models.SortPopularity, SortOrder: models.SortDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLine(tt.line, base))
		})
	}
}

func TestPrintMovies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMovies(&buf, []models.Movie{
		{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15", VoteAverage: 8.43, VoteCount: 29876},
		{ID: 7, Title: "Unknown"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "TITLE", "YEAR", "RATING", "VOTES"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"550", "Fight", "Club", "1999", "8.4", "29,876"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"7", "Unknown", "-", "0.0", "0"}, strings.Fields(lines[2]))

	buf.Reset()
	require.NoError(t, printMovies(&buf, nil))
	assert.Equal(t, "no movies found\n", buf.String())
}

func TestWatch_PrintsLatestResult(t *testing.T) {
	fake := &catalogtest.Fake{
		SearchFunc: func(_ context.Context, f models.SearchFilters) ([]models.Movie, error) {
			return []models.Movie{{ID: len(f.Query), Title: "Match " + f.Query}}, nil
		},
	}
	in := strings.NewReader("a\nal\nalien\n")
	var out bytes.Buffer

	require.NoError(t, watch(in, &out, fake, models.DefaultFilters(), 20*time.Millisecond, time.Second))

	assert.Contains(t, out.String(), `# query="alien"`)
	assert.Contains(t, out.String(), "Match alien")
	require.NotEmpty(t, fake.Searches())
	assert.Equal(t, "alien", fake.Searches()[len(fake.Searches())-1].Query)
}
