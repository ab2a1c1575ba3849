package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "minichannels:channel-submissions", SharedKey(ports.KeySubmissions))
	assert.Equal(t, "minichannels:user:42:user-ratings", UserKey("42", ports.KeyRatings))
	assert.True(t, IsUserKey(UserKey("42", ports.KeyVerification)))
	assert.False(t, IsUserKey(SharedKey(ports.KeyGridPurchases)))
}

// unreachableStore points at a port nobody listens on.
func unreachableStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client)
}

func TestStoreWrapsFailuresAsStorageErrors(t *testing.T) {
	store := unreachableStore(t)
	ctx := context.Background()

	err := store.Set(ctx, ports.KeySubmissions, []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)

	var dest []string
	found, err := store.ForUser("7").Get(ctx, ports.KeyRatings, &dest)
	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrStorage)

	assert.ErrorIs(t, store.Ping(ctx), domain.ErrStorage)
}
