package handler

import (
	"github.com/gofiber/fiber/v3"

	"moviehub/internal/middleware"
)

// APIPrefix is the base path of every API route.
const APIPrefix = "/api/v1"

// RegisterRoutes mounts the API under APIPrefix. proxy may be nil.
func RegisterRoutes(app *fiber.App, movies *MovieHandler, sessions *SessionHandler, proxy fiber.Handler) {
	api := app.Group(APIPrefix)
	api.Get("/health", movies.Health)

	api.Get("/movies/trending", movies.Trending)
	api.Get("/movies/popular", movies.Popular)
	api.Get("/movies/discover", movies.Discover)
	api.Get("/movies/:id", movies.GetMovie)
	api.Get("/genres", movies.Genres)
	api.Get("/search", movies.Search)

	api.Post("/auth/login", sessions.Login)
	api.Post("/auth/register", sessions.Register)
	api.Post("/auth/logout", middleware.RequireSession(), sessions.Logout)

	me := api.Group("/me", middleware.RequireSession())
	me.Get("", sessions.Me)
	me.Patch("", sessions.UpdateProfile)
	me.Get("/watchlist", sessions.Watchlist)
	me.Post("/watchlist/:id", sessions.AddToWatchlist)
	me.Delete("/watchlist/:id", sessions.RemoveFromWatchlist)
	me.Put("/ratings/:id", sessions.RateMovie)

	if proxy != nil {
		api.Get("/tmdb/*", proxy)
	}
}
