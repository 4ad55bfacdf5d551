// Package repository persists session snapshots keyed by session key.
package repository

import (
	"context"
	"sync"

	"moviehub/internal/models"
)

// SessionStore saves one user snapshot per session key. Load returns nil,
// nil when nothing is stored under the key.
type SessionStore interface {
	Load(ctx context.Context, key string) (*models.User, error)
	Save(ctx context.Context, key string, user *models.User) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[key].Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[key] = user.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, key)
	return nil
}
