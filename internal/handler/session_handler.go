package handler

import (
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v3"

	"moviehub/internal/catalog"
	"moviehub/internal/middleware"
	"moviehub/internal/models"
	"moviehub/internal/session"
)

// SessionHandler handles sign-in, the profile and the watchlist.
type SessionHandler struct {
	sessions    *session.Registry
	catalog     catalog.Provider
	concurrency int
}

// NewSessionHandler creates a new SessionHandler. concurrency bounds the
// parallel movie lookups of the watchlist page.
func NewSessionHandler(sessions *session.Registry, p catalog.Provider, concurrency int) *SessionHandler {
	return &SessionHandler{sessions: sessions, catalog: p, concurrency: concurrency}
}

// LoginRequest is the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest changes profile fields. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// RateRequest is the request body for rating a movie.
type RateRequest struct {
	Rating int `json:"rating"`
}

// AuthResponse carries the session key to send as a bearer token.
type AuthResponse struct {
	Token string              `json:"token"`
	User  *models.User        `json:"user"`
	Stats models.ProfileStats `json:"stats"`
}

// ProfileResponse is the signed-in user with profile statistics.
type ProfileResponse struct {
	User  *models.User        `json:"user"`
	Stats models.ProfileStats `json:"stats"`
}

// WatchlistResponse lists the watchlist ids and the movies that resolved.
type WatchlistResponse struct {
	IDs     []int              `json:"ids"`
	Results []models.MovieCard `json:"results"`
}

// Login signs in with email and password.
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *SessionHandler) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	key, store := h.sessionFor(c)
	err := store.Login(c.Context(), req.Email, req.Password)
	return h.authResult(c, key, store, err, fiber.StatusUnauthorized)
}

// Register creates an account and signs it in.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/register [post]
func (h *SessionHandler) Register(c fiber.Ctx) error {
	var req RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	key, store := h.sessionFor(c)
	err := store.Register(c.Context(), req.Name, req.Email, req.Password)
	if err == nil {
		c.Status(fiber.StatusCreated)
	}
	return h.authResult(c, key, store, err, fiber.StatusBadRequest)
}

// Logout ends the session.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *SessionHandler) Logout(c fiber.Ctx) error {
	key := middleware.SessionKey(c)
	store := h.sessions.Get(c.Context(), key)
	if err := store.Logout(c.Context()); err != nil {
		slog.Error("failed to clear persisted session", "error", err)
	}
	h.sessions.Drop(key)
	return c.JSON(fiber.Map{"status": "logged out"})
}

// Me returns the signed-in user and profile statistics.
// @Summary Current user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Router /me [get]
func (h *SessionHandler) Me(c fiber.Ctx) error {
	store, ok := h.authenticated(c)
	if !ok {
		return unauthorized(c)
	}
	user := store.User()
	if user == nil {
		return unauthorized(c)
	}
	return c.JSON(ProfileResponse{User: user, Stats: user.Stats()})
}

// UpdateProfile changes the name, email or avatar.
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me [patch]
func (h *SessionHandler) UpdateProfile(c fiber.Ctx) error {
	store, ok := h.authenticated(c)
	if !ok {
		return unauthorized(c)
	}

	var req UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "name must not be empty"})
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid email address"})
		}
	}

	patch := models.UserPatch{Name: req.Name, Email: req.Email, Avatar: req.Avatar}
	if err := store.UpdateUser(patch); err != nil {
		return sessionError(c, err)
	}
	user := store.User()
	return c.JSON(ProfileResponse{User: user, Stats: user.Stats()})
}

// Watchlist returns the watchlist with full movie details. Movies that can
// no longer be fetched are left out.
// @Summary Watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} WatchlistResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/watchlist [get]
func (h *SessionHandler) Watchlist(c fiber.Ctx) error {
	store, ok := h.authenticated(c)
	if !ok {
		return unauthorized(c)
	}
	user := store.User()
	if user == nil {
		return unauthorized(c)
	}

	movies := catalog.FetchMany(c.Context(), h.catalog, user.Watchlist, h.concurrency)
	return c.JSON(WatchlistResponse{IDs: user.Watchlist, Results: models.NewMovieCards(movies)})
}

// AddToWatchlist adds a movie to the watchlist. Adding twice is a no-op.
// @Summary Add to watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Success 200 {object} map[string][]int
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/watchlist/{id} [post]
func (h *SessionHandler) AddToWatchlist(c fiber.Ctx) error {
	return h.watchlistChange(c, (*session.Store).AddToWatchlist)
}

// RemoveFromWatchlist removes a movie from the watchlist.
// @Summary Remove from watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Success 200 {object} map[string][]int
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/watchlist/{id} [delete]
func (h *SessionHandler) RemoveFromWatchlist(c fiber.Ctx) error {
	return h.watchlistChange(c, (*session.Store).RemoveFromWatchlist)
}

func (h *SessionHandler) watchlistChange(c fiber.Ctx, change func(*session.Store, int) error) error {
	store, ok := h.authenticated(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
	}
	if err := change(store, id); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{"watchlist": store.User().Watchlist})
}

// RateMovie sets the user's 1 to 5 star rating for a movie.
// @Summary Rate a movie
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Param body body RateRequest true "Rating"
// @Success 200 {object} map[string]map[int]int
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/ratings/{id} [put]
func (h *SessionHandler) RateMovie(c fiber.Ctx) error {
	store, ok := h.authenticated(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
	}
	var req RateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := store.RateMovie(id, req.Rating); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": store.User().Ratings})
}

// sessionFor returns the session to sign in on. A bearer key is reused only
// when it belongs to a signed-in session; otherwise a new key is issued.
func (h *SessionHandler) sessionFor(c fiber.Ctx) (string, *session.Store) {
	if key := middleware.BearerToken(c); key != "" {
		if store, ok := h.sessions.Lookup(c.Context(), key); ok {
			return key, store
		}
	}
	key := h.sessions.NewKey()
	return key, h.sessions.Get(c.Context(), key)
}

// authenticated returns the caller's store when someone is signed in.
func (h *SessionHandler) authenticated(c fiber.Ctx) (*session.Store, bool) {
	return h.sessions.Lookup(c.Context(), middleware.SessionKey(c))
}

// authResult answers a login or registration. A failed attempt ends the
// session, including any persisted copy of an earlier sign-in.
func (h *SessionHandler) authResult(c fiber.Ctx, key string, store *session.Store, err error, failStatus int) error {
	if err != nil {
		if logoutErr := store.Logout(c.Context()); logoutErr != nil {
			slog.Warn("failed to clear persisted session", "error", logoutErr)
		}
		h.sessions.Drop(key)
		var authErr *session.LoginError
		if errors.As(err, &authErr) {
			return c.Status(failStatus).JSON(ErrorResponse{Error: authErr.Message})
		}
		slog.Error("authentication failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}
	user := store.User()
	return c.JSON(AuthResponse{Token: key, User: user, Stats: user.Stats()})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "not authenticated"})
}

func sessionError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return unauthorized(c)
	case errors.Is(err, session.ErrInvalidRating):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	default:
		slog.Error("session update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}
}
