// Package notify collects the transient messages and haptic patterns meant
// for the mini app. The client drains its feed after each request.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
)

// DefaultCapacity bounds a feed. Older entries are dropped first.
const DefaultCapacity = 50

// Feed is one user's notification queue. It implements ports.Notifier.
type Feed struct {
	mu       sync.Mutex
	userID   string
	capacity int
	items    []domain.Notification
	log      logger.Logger
	now      func() time.Time
}

func NewFeed(userID string, capacity int, log logger.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Feed{
		userID:   userID,
		capacity: capacity,
		log:      log,
		now:      time.Now,
	}
}

func (f *Feed) Notify(message string, severity domain.Severity) {
	f.log.Debug("notification",
		logger.String("user", f.userID),
		logger.String("severity", string(severity)),
		logger.String("message", message),
	)
	f.push(domain.Notification{Message: message, Severity: severity})
}

func (f *Feed) Vibrate(pattern ...time.Duration) {
	if len(pattern) == 0 {
		return
	}
	f.push(domain.Notification{Vibrate: append([]time.Duration(nil), pattern...)})
}

func (f *Feed) push(n domain.Notification) {
	n.ID = uuid.NewString()

	f.mu.Lock()
	defer f.mu.Unlock()

	n.At = f.now()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// Drain returns the queued notifications oldest first and empties the feed.
func (f *Feed) Drain() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}

// Len returns the number of queued notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Hub hands out one feed per user.
type Hub struct {
	mu       sync.Mutex
	capacity int
	log      logger.Logger
	feeds    map[string]*Feed
}

func NewHub(capacity int, log logger.Logger) *Hub {
	return &Hub{
		capacity: capacity,
		log:      log,
		feeds:    make(map[string]*Feed),
	}
}

// For returns the user's feed, creating it on first use.
func (h *Hub) For(userID string) *Feed {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[userID]
	if !ok {
		f = NewFeed(userID, h.capacity, h.log)
		h.feeds[userID] = f
	}
	return f
}
