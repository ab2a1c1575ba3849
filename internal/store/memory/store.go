// Package memory is an in-process Storage used for local runs and tests.
// Values are kept JSON-encoded so callers never share memory with the store,
// matching the Redis store's semantics.
package memory

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, key, err)
	}
	return true, nil
}

func (s *Store) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrStorage, key, err)
	}
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// ForUser returns a view of the store scoped to one user.
func (s *Store) ForUser(userID string) ports.Storage {
	return &userStore{store: s, prefix: "user:" + userID + ":"}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

type userStore struct {
	store  *Store
	prefix string
}

func (u *userStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	return u.store.Get(ctx, u.prefix+key, dest)
}

func (u *userStore) Set(ctx context.Context, key string, value any) error {
	return u.store.Set(ctx, u.prefix+key, value)
}
