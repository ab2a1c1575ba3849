// Package ports declares the collaborators the channel directory talks to.
// Implementations live in internal/sources, internal/wallet, internal/store
// and internal/notify; tests use in-memory doubles.
package ports

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
)

// GridProvider exposes the pixel grid.
type GridProvider interface {
	// Pixels returns a snapshot of every pixel keyed by pixel id.
	Pixels(ctx context.Context) (map[int]domain.Pixel, error)
	// Focus recenters and highlights a pixel for the given user.
	Focus(ctx context.Context, userID string, pixelID int) error
}

// Wallet is the wallet connected by one user.
type Wallet interface {
	IsConnected() bool
	// SendVerificationTransfer sends the verification amount and returns
	// the transaction hash.
	SendVerificationTransfer(ctx context.Context, amount float64) (string, error)
}

// Storage is a JSON key-value store. Both calls may fail; implementations
// wrap failures in domain.ErrStorage.
type Storage interface {
	// Get decodes the value at key into dest. It reports false when the key
	// does not exist.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Notifier shows transient messages and triggers haptics. Fire and forget.
type Notifier interface {
	Notify(message string, severity domain.Severity)
	Vibrate(pattern ...time.Duration)
}

// Storage keys. Ratings and verification live in a per-user namespace,
// submissions and grid purchases are shared.
const (
	KeySubmissions   = "channel-submissions"
	KeyRatings       = "user-ratings"
	KeyVerification  = "user-verification-data"
	KeyGridPurchases = "grid-purchases"
)
