// Package auth is the mock identity provider. It accepts a fixed demo
// account, registers new accounts on the fly and mirrors the session to a
// SessionStore.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"moviehub/internal/models"
)

const (
	DemoEmail    = "demo@moviehub.com"
	DemoPassword = "demo123"

	demoAvatar = "https://images.pexels.com/photos/771742/pexels-photo-771742.jpeg?auto=compress&cs=tinysrgb&w=150&h=150&dpr=2"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// SessionStore is where the provider keeps the signed-in user.
type SessionStore interface {
	Load(ctx context.Context, key string) (*models.User, error)
	Save(ctx context.Context, key string, user *models.User) error
	Delete(ctx context.Context, key string) error
}

// Provider authenticates against the demo account and persists the session
// under a single key.
type Provider struct {
	store SessionStore
	key   string
	now   func() time.Time
}

func NewProvider(store SessionStore, key string) *Provider {
	return &Provider{store: store, key: key, now: time.Now}
}

// DemoUser returns a fresh copy of the demo account.
func DemoUser() *models.User {
	return &models.User{
		ID:        "1",
		Name:      "Demo User",
		Email:     DemoEmail,
		Avatar:    demoAvatar,
		Watchlist: []int{550, 680, 155},
		Ratings:   map[int]int{550: 5, 680: 4, 155: 4},
		CreatedAt: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

// Login accepts only the demo credentials.
func (p *Provider) Login(ctx context.Context, email, password string) (*models.User, error) {
	if !strings.EqualFold(strings.TrimSpace(email), DemoEmail) || password != DemoPassword {
		return nil, ErrInvalidCredentials
	}
	user := DemoUser()
	if err := p.Persist(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a new account with an empty watchlist.
func (p *Provider) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Watchlist: []int{},
		Ratings:   map[int]int{},
		CreatedAt: p.now().UTC(),
	}
	if err := p.Persist(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the persisted user, or nil when signed out.
func (p *Provider) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := p.store.Load(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	return user, nil
}

// Logout removes the persisted user.
func (p *Provider) Logout(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}

// Persist overwrites the stored user.
func (p *Provider) Persist(ctx context.Context, user *models.User) error {
	return p.store.Save(ctx, p.key, user)
}
