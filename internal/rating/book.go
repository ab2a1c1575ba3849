package rating

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

const (
	MinStars = 1
	MaxStars = 5

	// MaxCommentLength is counted in runes.
	MaxCommentLength = 500
)

// Book holds one user's channel ratings, keyed by channel handle, and
// persists the whole map after every change.
type Book struct {
	mu      sync.RWMutex
	storage ports.Storage
	ratings domain.Ratings
	now     func() time.Time
}

func NewBook(storage ports.Storage) *Book {
	return &Book{
		storage: storage,
		ratings: make(domain.Ratings),
		now:     time.Now,
	}
}

// Load replaces the in-memory map with the persisted one.
func (b *Book) Load(ctx context.Context) error {
	loaded := make(domain.Ratings)
	if _, err := b.storage.Get(ctx, ports.KeyRatings, &loaded); err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}

	b.mu.Lock()
	b.ratings = loaded
	b.mu.Unlock()
	return nil
}

// Rate records the user's rating of the channel with the given handle.
//
// Only verified users may rate. One entry is kept per handle and the last
// write wins. The in-memory map changes only after the new map has been
// persisted, so a storage failure leaves the book untouched.
func (b *Book) Rate(ctx context.Context, handle string, stars int, comment string, status domain.VerificationStatus) (domain.RatingEntry, error) {
	if status != domain.VerificationVerified {
		return domain.RatingEntry{}, domain.ErrNotVerified
	}
	if stars < MinStars || stars > MaxStars {
		return domain.RatingEntry{}, fmt.Errorf("%w: got %d", domain.ErrInvalidRating, stars)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return domain.RatingEntry{}, fmt.Errorf("%w: comment longer than %d characters", domain.ErrInvalidRating, MaxCommentLength)
	}

	entry := domain.RatingEntry{
		Rating:  stars,
		Comment: comment,
		Date:    b.now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := maps.Clone(b.ratings)
	if next == nil {
		next = make(domain.Ratings, 1)
	}
	next[handle] = entry

	if err := b.storage.Set(ctx, ports.KeyRatings, next); err != nil {
		return domain.RatingEntry{}, fmt.Errorf("save ratings: %w", err)
	}
	b.ratings = next
	return entry, nil
}

// Entry returns the rating of a handle.
func (b *Book) Entry(handle string) (domain.RatingEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.ratings[handle]
	return e, ok
}

// All returns a copy of every rating.
func (b *Book) All() domain.Ratings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.ratings)
}

// Len returns the number of rated channels.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ratings)
}
