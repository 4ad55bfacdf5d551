package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"moviehub/internal/models"
)

var (
	// ErrNotAuthenticated is returned by mutations outside the
	// Authenticated phase.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidRating is returned for ratings outside MinRating..MaxRating.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

const (
	MinRating = 1
	MaxRating = 5

	defaultPersistTimeout = 5 * time.Second
)

// LoginError is a failed login or registration. Message is meant for the UI.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// AuthProvider authenticates users and mirrors the session to storage.
// CurrentUser returns nil, nil when nothing is persisted.
type AuthProvider interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	Persist(ctx context.Context, user *models.User) error
}

// Store is the single writer of a session. Mutations apply to memory first
// and are then persisted in the background, latest snapshot wins. A failed
// write is logged and the in-memory state stays authoritative.
type Store struct {
	auth           AuthProvider
	persistTimeout time.Duration

	mu    sync.RWMutex
	state State

	// Lock order: mu before pendingMu; writeMu before pendingMu.
	pendingMu sync.Mutex
	pending   *models.User
	writeMu   sync.Mutex

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates an anonymous Store and starts its persistence writer.
// Call Close to flush and stop it.
func NewStore(auth AuthProvider, persistTimeout time.Duration) *Store {
	if persistTimeout <= 0 {
		persistTimeout = defaultPersistTimeout
	}
	s := &Store{
		auth:           auth,
		persistTimeout: persistTimeout,
		wake:           make(chan struct{}, 1),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	go s.persistLoop()
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.User = st.User.Clone()
	return st
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	return s.State().User
}

func (s *Store) dispatch(ev Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, ev)
	return s.state
}

// Restore loads a previously persisted identity. With nothing persisted, or
// when the provider fails, the session ends up Anonymous.
func (s *Store) Restore(ctx context.Context) error {
	s.beginAuth()
	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.dispatch(LoggedOut{})
		return err
	}
	if user == nil {
		s.dispatch(LoggedOut{})
		return nil
	}
	s.dispatch(AuthSucceeded{User: user})
	return nil
}

// Login authenticates with email and password. On failure the state moves
// to AuthError and a *LoginError is returned.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.beginAuth()
	user, err := s.auth.Login(ctx, email, password)
	return s.finishAuth(user, err, "Login failed")
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.beginAuth()
	user, err := s.auth.Register(ctx, name, email, password)
	return s.finishAuth(user, err, "Registration failed")
}

// beginAuth moves to Authenticating. Snapshots queued for the previous
// identity are dropped and an in-flight one is waited for.
func (s *Store) beginAuth() {
	s.mu.Lock()
	s.state = Reduce(s.state, AuthStarted{})
	s.pendingMu.Lock()
	s.pending = nil
	s.pendingMu.Unlock()
	s.mu.Unlock()

	// Wait for an in-flight write to finish.
	s.writeMu.Lock()
	s.writeMu.Unlock()
}

func (s *Store) finishAuth(user *models.User, err error, fallback string) error {
	if err == nil && user == nil {
		err = errors.New(fallback)
	}
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		s.dispatch(AuthFailed{Message: msg})
		return &LoginError{Message: msg, Err: err}
	}
	s.dispatch(AuthSucceeded{User: user})
	return nil
}

// Logout clears the session and removes the persisted copy. Writes still
// queued for the old session are dropped.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = Reduce(s.state, LoggedOut{})
	s.pendingMu.Lock()
	s.pending = nil
	s.pendingMu.Unlock()
	s.mu.Unlock()

	// Wait for an in-flight write so it can't land after the delete.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.auth.Logout(ctx)
}

// AddToWatchlist appends a movie. Adding a movie that is already listed
// changes nothing and persists nothing.
func (s *Store) AddToWatchlist(movieID int) error {
	return s.mutate(func(u *models.User) (models.UserPatch, bool) {
		return watchlistAdd(u, movieID)
	})
}

// RemoveFromWatchlist removes a movie if present.
func (s *Store) RemoveFromWatchlist(movieID int) error {
	return s.mutate(func(u *models.User) (models.UserPatch, bool) {
		return watchlistRemove(u, movieID), true
	})
}

// RateMovie sets or overwrites the rating for a movie.
func (s *Store) RateMovie(movieID, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return s.mutate(func(u *models.User) (models.UserPatch, bool) {
		return rate(u, movieID, rating), true
	})
}

// UpdateUser shallow-merges patch into the user.
func (s *Store) UpdateUser(patch models.UserPatch) error {
	return s.mutate(func(*models.User) (models.UserPatch, bool) {
		return patch, true
	})
}

func (s *Store) mutate(change func(u *models.User) (models.UserPatch, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != Authenticated || s.state.User == nil {
		return ErrNotAuthenticated
	}

	patch, changed := change(s.state.User)
	if !changed {
		return nil
	}
	s.state = Reduce(s.state, UserUpdated{Patch: patch})
	s.schedulePersist(s.state.User.Clone())
	return nil
}

// schedulePersist queues a snapshot for the writer. Callers hold mu.
func (s *Store) schedulePersist(u *models.User) {
	s.pendingMu.Lock()
	s.pending = u
	s.pendingMu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) persistLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.quit:
			s.flush()
			return
		}
	}
}

func (s *Store) flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.pendingMu.Lock()
	u := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	if u == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.auth.Persist(ctx, u); err != nil {
		slog.Warn("failed to persist session", "user_id", u.ID, "error", err)
	}
}

// Close flushes the last queued write and stops the writer.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
	})
}
