package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"moviehub/internal/models"
)

func printMovies(out io.Writer, movies []models.Movie) error {
	if len(movies) == 0 {
		_, err := fmt.Fprintln(out, "no movies found")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tRATING\tVOTES")
	for _, card := range models.NewMovieCards(movies) {
		year := "-"
		if card.ReleaseYear > 0 {
			year = strconv.Itoa(card.ReleaseYear)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", card.ID, card.Title, year, card.RatingLabel, card.VotesLabel)
	}
	return w.Flush()
}
