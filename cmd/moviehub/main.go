// Command moviehub searches and browses the movie catalog from a terminal.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app := cli.NewApp()
	app.Name = "moviehub"
	app.Usage = "search and browse movies"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		makeSearchCMD(),
		makeWatchCMD(),
		makeListCMD("trending", "Shows this week's trending movies"),
		makeListCMD("popular", "Shows popular movies"),
		makeGenresCMD(),
		makeCacheCMD(),
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
