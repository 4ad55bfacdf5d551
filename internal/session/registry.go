package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProviderFactory builds the AuthProvider bound to one session key.
type ProviderFactory func(key string) AuthProvider

// Registry keeps one Store per session key so each client gets its own
// single-writer session.
type Registry struct {
	factory        ProviderFactory
	persistTimeout time.Duration

	mu     sync.Mutex
	stores map[string]*entry
}

// entry is a registered Store. ready is closed once Restore has finished.
type entry struct {
	store *Store
	ready chan struct{}
}

func NewRegistry(factory ProviderFactory, persistTimeout time.Duration) *Registry {
	return &Registry{
		factory:        factory,
		persistTimeout: persistTimeout,
		stores:         make(map[string]*entry),
	}
}

// NewKey returns a fresh random session key.
func (r *Registry) NewKey() string {
	return uuid.NewString()
}

// Get returns the Store for key, creating and restoring it on first use.
// Concurrent callers for a key being restored wait for the restore to end,
// or for ctx to be done.
func (r *Registry) Get(ctx context.Context, key string) *Store {
	r.mu.Lock()
	e, ok := r.stores[key]
	if ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
		}
		return e.store
	}
	e = &entry{
		store: NewStore(r.factory(key), r.persistTimeout),
		ready: make(chan struct{}),
	}
	r.stores[key] = e
	r.mu.Unlock()

	defer close(e.ready)
	if err := e.store.Restore(ctx); err != nil {
		slog.Warn("failed to restore session", "error", err)
	}
	return e.store
}

// Lookup returns the Store for key when someone is signed in on it, either
// already or after restoring its persisted identity. Sessions that end up
// Anonymous or in AuthError are dropped.
func (r *Registry) Lookup(ctx context.Context, key string) (*Store, bool) {
	s := r.Get(ctx, key)
	switch s.State().Phase {
	case Authenticated:
		return s, true
	case Anonymous, AuthError:
		r.Drop(key)
	}
	return nil, false
}

// Drop closes and forgets the Store for key.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	e, ok := r.stores[key]
	delete(r.stores, key)
	r.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close flushes and stops every Store.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range stores {
		e.store.Close()
	}
}
