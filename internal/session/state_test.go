package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/models"
)

func demoUser() *models.User {
	return &models.User{
		ID:        "1",
		Name:      "Demo User",
		Email:     "demo@moviehub.com",
		Watchlist: []int{550, 680},
		Ratings:   map[int]int{550: 5},
	}
}

func strPtr(s string) *string { return &s }

func TestReduce_Transitions(t *testing.T) {
	authed := State{Phase: Authenticated, User: demoUser()}

	tests := []struct {
		name string
		from State
		ev   Event
		want Phase
	}{
		{"anonymous starts auth", State{}, AuthStarted{}, Authenticating},
		{"error retries auth", State{Phase: AuthError, Error: "x"}, AuthStarted{}, Authenticating},
		{"success", State{Phase: Authenticating}, AuthSucceeded{User: demoUser()}, Authenticated},
		{"success without user", State{Phase: Authenticating}, AuthSucceeded{}, AuthError},
		{"failure", State{Phase: Authenticating}, AuthFailed{Message: "bad"}, AuthError},
		{"logout", authed, LoggedOut{}, Anonymous},
		{"update while anonymous ignored", State{}, UserUpdated{Patch: models.UserPatch{Name: strPtr("x")}}, Anonymous},
		{"update while authenticated", authed, UserUpdated{Patch: models.UserPatch{Name: strPtr("x")}}, Authenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.from, tt.ev)
			assert.Equal(t, tt.want, got.Phase)
			if got.Phase != Authenticated {
				assert.Nil(t, got.User)
			}
			if got.Phase != AuthError {
				assert.Empty(t, got.Error)
			}
		})
	}
}

func TestReduce_AuthFailedDefaultsMessage(t *testing.T) {
	got := Reduce(State{Phase: Authenticating}, AuthFailed{})
	assert.Equal(t, "authentication failed", got.Error)

	got = Reduce(State{Phase: Authenticating}, AuthFailed{Message: "Invalid credentials"})
	assert.Equal(t, "Invalid credentials", got.Error)
}

func TestReduce_DoesNotAliasInputs(t *testing.T) {
	u := demoUser()
	s := Reduce(State{Phase: Authenticating}, AuthSucceeded{User: u})
	u.Watchlist[0] = 1
	assert.Equal(t, []int{550, 680}, s.User.Watchlist)

	patch := models.UserPatch{Name: strPtr("Renamed")}
	next := Reduce(s, UserUpdated{Patch: patch})
	assert.Equal(t, "Renamed", next.User.Name)
	assert.Equal(t, "Demo User", s.User.Name)
}

func TestReduce_UnknownEventIsNoop(t *testing.T) {
	s := State{Phase: Authenticated, User: demoUser()}
	assert.Equal(t, s, Reduce(s, nil))
}

func TestWatchlistHelpers(t *testing.T) {
	u := demoUser()

	_, changed := watchlistAdd(u, 550)
	assert.False(t, changed)

	patch, changed := watchlistAdd(u, 155)
	require.True(t, changed)
	assert.Equal(t, []int{550, 680, 155}, patch.Watchlist)
	assert.Equal(t, []int{550, 680}, u.Watchlist)

	patch = watchlistRemove(u, 550)
	assert.Equal(t, []int{680}, patch.Watchlist)

	patch = watchlistRemove(&models.User{}, 550)
	assert.NotNil(t, patch.Watchlist)
	assert.Empty(t, patch.Watchlist)

	patch = rate(u, 680, 3)
	assert.Equal(t, map[int]int{550: 5, 680: 3}, patch.Ratings)
	assert.Equal(t, map[int]int{550: 5}, u.Ratings)
}

func TestPhase_MarshalText(t *testing.T) {
	b, err := AuthError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "auth_error", string(b))
	assert.Equal(t, "unknown", Phase(42).String())
}
