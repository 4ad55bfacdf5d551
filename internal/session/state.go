// Package session holds the signed-in user's identity, watchlist and
// ratings, and mirrors every change to a persistence provider.
package session

import (
	"slices"

	"moviehub/internal/models"
)

// Phase is the authentication phase of a session.
type Phase int

const (
	Anonymous Phase = iota
	Authenticating
	Authenticated
	AuthError
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case AuthError:
		return "auth_error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of a session. User is set only when Authenticated and
// Error only in AuthError.
type State struct {
	Phase Phase        `json:"phase"`
	User  *models.User `json:"user"`
	Error string       `json:"error,omitempty"`
}

// Event drives a state transition.
type Event interface {
	isEvent()
}

type (
	// AuthStarted is dispatched when a login or registration begins.
	AuthStarted struct{}
	// AuthSucceeded carries the identity returned by the provider.
	AuthSucceeded struct{ User *models.User }
	// AuthFailed carries a human-readable failure reason.
	AuthFailed struct{ Message string }
	// LoggedOut clears the session.
	LoggedOut struct{}
	// UserUpdated merges a patch into the signed-in user.
	UserUpdated struct{ Patch models.UserPatch }
)

func (AuthStarted) isEvent()   {}
func (AuthSucceeded) isEvent() {}
func (AuthFailed) isEvent()    {}
func (LoggedOut) isEvent()     {}
func (UserUpdated) isEvent()   {}

const defaultAuthFailure = "authentication failed"

// Reduce is the transition function. It is pure: the input state is never
// modified and the returned state shares no mutable data with the event.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case AuthStarted:
		return State{Phase: Authenticating}
	case AuthSucceeded:
		if ev.User == nil {
			return State{Phase: AuthError, Error: defaultAuthFailure}
		}
		return State{Phase: Authenticated, User: ev.User.Clone()}
	case AuthFailed:
		msg := ev.Message
		if msg == "" {
			msg = defaultAuthFailure
		}
		return State{Phase: AuthError, Error: msg}
	case LoggedOut:
		return State{Phase: Anonymous}
	case UserUpdated:
		if s.Phase != Authenticated || s.User == nil {
			return s
		}
		return State{Phase: Authenticated, User: ev.Patch.Apply(s.User)}
	default:
		return s
	}
}

// watchlistAdd returns the patch adding id, or false when already present.
func watchlistAdd(u *models.User, id int) (models.UserPatch, bool) {
	if u.InWatchlist(id) {
		return models.UserPatch{}, false
	}
	list := append(slices.Clone(u.Watchlist), id)
	return models.UserPatch{Watchlist: list}, true
}

func watchlistRemove(u *models.User, id int) models.UserPatch {
	list := slices.DeleteFunc(slices.Clone(u.Watchlist), func(v int) bool { return v == id })
	if list == nil {
		list = []int{}
	}
	return models.UserPatch{Watchlist: list}
}

func rate(u *models.User, id, rating int) models.UserPatch {
	ratings := make(map[int]int, len(u.Ratings)+1)
	for k, v := range u.Ratings {
		ratings[k] = v
	}
	ratings[id] = rating
	return models.UserPatch{Ratings: ratings}
}
