package redis

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

// Store keeps JSON documents in Redis. Values never expire.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Get decodes the document at the shared key name into dest.
func (s *Store) Get(ctx context.Context, name string, dest any) (bool, error) {
	return s.get(ctx, SharedKey(name), dest)
}

// Set stores value as a JSON document at the shared key name.
func (s *Store) Set(ctx context.Context, name string, value any) error {
	return s.set(ctx, SharedKey(name), value)
}

// ForUser returns a Storage whose keys live in the user's namespace.
func (s *Store) ForUser(userID string) ports.Storage {
	return &userStore{store: s, userID: userID}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get %s: %v", domain.ErrStorage, key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrStorage, key, err)
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

type userStore struct {
	store  *Store
	userID string
}

func (u *userStore) Get(ctx context.Context, name string, dest any) (bool, error) {
	return u.store.get(ctx, UserKey(u.userID, name), dest)
}

func (u *userStore) Set(ctx context.Context, name string, value any) error {
	return u.store.set(ctx, UserKey(u.userID, name), value)
}
