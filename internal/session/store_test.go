package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/models"
)

type fakeAuth struct {
	mu             sync.Mutex
	user           *models.User
	loginErr       error
	persistOnLogin bool
	current        *models.User
	currentFn      func(ctx context.Context) (*models.User, error)
	restoreErr     error
	persisted      []*models.User
	persistFn      func(ctx context.Context, u *models.User) error
	logouts        int
}

func (f *fakeAuth) Login(ctx context.Context, _, _ string) (*models.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.persistOnLogin {
		if err := f.Persist(ctx, f.user); err != nil {
			return nil, err
		}
	}
	return f.user.Clone(), nil
}

func (f *fakeAuth) Register(_ context.Context, name, email, _ string) (*models.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.User{ID: "new", Name: name, Email: email}, nil
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.currentFn != nil {
		return f.currentFn(ctx)
	}
	return f.current.Clone(), f.restoreErr
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeAuth) Persist(ctx context.Context, u *models.User) error {
	if f.persistFn != nil {
		if err := f.persistFn(ctx, u); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, u.Clone())
	return nil
}

func (f *fakeAuth) writes() []*models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.User(nil), f.persisted...)
}

func (f *fakeAuth) lastWrite() *models.User {
	w := f.writes()
	if len(w) == 0 {
		return nil
	}
	return w[len(w)-1]
}

func newLoggedIn(t *testing.T, auth *fakeAuth) *Store {
	t.Helper()
	if auth.user == nil {
		auth.user = demoUser()
	}
	s := NewStore(auth, time.Second)
	t.Cleanup(s.Close)
	require.NoError(t, s.Login(context.Background(), "demo@moviehub.com", "demo123"))
	return s
}

func TestStore_LoginSuccess(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	st := s.State()
	assert.Equal(t, Authenticated, st.Phase)
	assert.Equal(t, "Demo User", st.User.Name)
	assert.Empty(t, st.Error)
}

func TestStore_LoginFailure(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("Invalid credentials")}
	s := NewStore(auth, time.Second)
	defer s.Close()

	err := s.Login(context.Background(), "x@y.z", "nope")

	var authErr *LoginError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.ErrorIs(t, err, auth.loginErr)
	st := s.State()
	assert.Equal(t, AuthError, st.Phase)
	assert.Equal(t, "Invalid credentials", st.Error)
	assert.Nil(t, st.User)
}

func TestStore_Register(t *testing.T) {
	s := NewStore(&fakeAuth{}, time.Second)
	defer s.Close()

	require.NoError(t, s.Register(context.Background(), "Ann", "ann@example.com", "pw"))
	u := s.User()
	require.NotNil(t, u)
	assert.Equal(t, "Ann", u.Name)
	assert.Empty(t, u.Watchlist)
}

func TestStore_Restore(t *testing.T) {
	t.Run("persisted user", func(t *testing.T) {
		s := NewStore(&fakeAuth{current: demoUser()}, time.Second)
		defer s.Close()
		require.NoError(t, s.Restore(context.Background()))
		assert.Equal(t, Authenticated, s.State().Phase)
	})
	t.Run("nothing persisted", func(t *testing.T) {
		s := NewStore(&fakeAuth{}, time.Second)
		defer s.Close()
		require.NoError(t, s.Restore(context.Background()))
		assert.Equal(t, Anonymous, s.State().Phase)
	})
	t.Run("provider error", func(t *testing.T) {
		s := NewStore(&fakeAuth{restoreErr: errors.New("corrupt")}, time.Second)
		defer s.Close()
		assert.Error(t, s.Restore(context.Background()))
		assert.Equal(t, Anonymous, s.State().Phase)
	})
}

func TestStore_MutationsRequireAuthentication(t *testing.T) {
	auth := &fakeAuth{}
	s := NewStore(auth, time.Second)

	assert.ErrorIs(t, s.AddToWatchlist(1), ErrNotAuthenticated)
	assert.ErrorIs(t, s.RemoveFromWatchlist(1), ErrNotAuthenticated)
	assert.ErrorIs(t, s.RateMovie(1, 4), ErrNotAuthenticated)
	assert.ErrorIs(t, s.UpdateUser(models.UserPatch{Name: strPtr("x")}), ErrNotAuthenticated)

	s.Close()
	assert.Empty(t, auth.writes())
}

func TestStore_AddToWatchlistIsIdempotent(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(155))
	require.NoError(t, s.AddToWatchlist(155))
	require.NoError(t, s.AddToWatchlist(550))
	s.Close()

	assert.Equal(t, []int{550, 680, 155}, s.User().Watchlist)
	last := auth.lastWrite()
	require.NotNil(t, last)
	assert.Equal(t, []int{550, 680, 155}, last.Watchlist)
}

func TestStore_RemoveFromWatchlist(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.RemoveFromWatchlist(550))
	require.NoError(t, s.RemoveFromWatchlist(999))
	s.Close()

	assert.Equal(t, []int{680}, s.User().Watchlist)
	assert.Equal(t, []int{680}, auth.lastWrite().Watchlist)
}

func TestStore_RateMovie(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.RateMovie(680, 2))
	require.NoError(t, s.RateMovie(680, 4))
	assert.ErrorIs(t, s.RateMovie(680, 0), ErrInvalidRating)
	assert.ErrorIs(t, s.RateMovie(680, 6), ErrInvalidRating)
	s.Close()

	assert.Equal(t, map[int]int{550: 5, 680: 4}, s.User().Ratings)
	assert.Equal(t, map[int]int{550: 5, 680: 4}, auth.lastWrite().Ratings)
}

func TestStore_UpdateUser(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.UpdateUser(models.UserPatch{Name: strPtr("Renamed")}))
	s.Close()

	u := s.User()
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, "demo@moviehub.com", u.Email)
	assert.Equal(t, "Renamed", auth.lastWrite().Name)
}

func TestStore_StateIsACopy(t *testing.T) {
	s := newLoggedIn(t, &fakeAuth{})

	u := s.User()
	u.Watchlist[0] = 1
	u.Ratings[1] = 1

	assert.Equal(t, []int{550, 680}, s.User().Watchlist)
	assert.Equal(t, map[int]int{550: 5}, s.User().Ratings)
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	auth := &fakeAuth{persistFn: func(context.Context, *models.User) error {
		return errors.New("disk full")
	}}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(155))
	s.Close()

	assert.Contains(t, s.User().Watchlist, 155)
	assert.Empty(t, auth.writes())
}

func TestStore_PersistenceCoalescesToLatest(t *testing.T) {
	block := make(chan struct{})
	var once sync.Once
	entered := make(chan struct{})
	auth := &fakeAuth{persistFn: func(context.Context, *models.User) error {
		once.Do(func() {
			close(entered)
			<-block
		})
		return nil
	}}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(1))
	<-entered
	for id := 2; id <= 10; id++ {
		require.NoError(t, s.AddToWatchlist(id))
	}
	close(block)
	s.Close()

	writes := auth.writes()
	assert.LessOrEqual(t, len(writes), 3)
	assert.Equal(t, s.User().Watchlist, writes[len(writes)-1].Watchlist)
}

func TestStore_LogoutDropsPendingWrites(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(155))
	require.NoError(t, s.Logout(context.Background()))
	s.Close()

	assert.Equal(t, Anonymous, s.State().Phase)
	assert.Nil(t, s.User())
	assert.Equal(t, 1, auth.logouts)
	assert.ErrorIs(t, s.AddToWatchlist(1), ErrNotAuthenticated)
}

func TestStore_ReloginWaitsForInFlightWrite(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	auth := &fakeAuth{
		persistOnLogin: true,
		persistFn: func(_ context.Context, u *models.User) error {
			if u.InWatchlist(999) {
				close(entered)
				<-release
			}
			return nil
		},
	}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(999))
	<-entered

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "demo@moviehub.com", "demo123") }()
	select {
	case <-done:
		t.Fatal("login finished while the previous write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	s.Close()

	assert.Equal(t, []int{550, 680}, s.User().Watchlist)
	last := auth.lastWrite()
	require.NotNil(t, last)
	assert.Equal(t, s.User().Watchlist, last.Watchlist)
}

func TestStore_ReloginDropsQueuedWrite(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	auth := &fakeAuth{
		persistOnLogin: true,
		persistFn: func(_ context.Context, u *models.User) error {
			if u.InWatchlist(1) {
				once.Do(func() {
					close(entered)
					<-release
				})
			}
			return nil
		},
	}
	s := newLoggedIn(t, auth)

	require.NoError(t, s.AddToWatchlist(1))
	<-entered
	require.NoError(t, s.AddToWatchlist(2))

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "demo@moviehub.com", "demo123") }()
	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	s.Close()

	for _, w := range auth.writes() {
		assert.NotContains(t, w.Watchlist, 2)
	}
	assert.Equal(t, []int{550, 680}, auth.lastWrite().Watchlist)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	auth := &fakeAuth{}
	s := newLoggedIn(t, auth)

	var wg sync.WaitGroup
	for id := 1000; id < 1050; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, s.AddToWatchlist(id))
			assert.NoError(t, s.RateMovie(id, 1+id%5))
		}(id)
	}
	wg.Wait()
	s.Close()

	u := s.User()
	assert.Len(t, u.Watchlist, 52)
	assert.Len(t, u.Ratings, 51)
	last := auth.lastWrite()
	require.NotNil(t, last)
	assert.ElementsMatch(t, u.Watchlist, last.Watchlist)
	assert.Equal(t, u.Ratings, last.Ratings)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := NewStore(&fakeAuth{}, 0)
	s.Close()
	s.Close()
}
