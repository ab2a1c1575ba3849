package domain

import "time"

// SourceType tells where a channel record came from.
type SourceType string

const (
	SourcePixel              SourceType = "pixel"
	SourceApprovedSubmission SourceType = "approvedSubmission"
)

// Channel is one entry of the channel directory shown in the mini app.
//
// It is rebuilt from scratch on every aggregation pass and is never
// persisted as such: only ratings, submissions and grid purchases are.
//
// Within one aggregated list a Channel is uniquely identified by its Handle.
type Channel struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is derived from the source: pixel_<pixelId> or submission_<id>.
	ID string `json:"id"`

	// Handle is the canonical @name of the channel (dedup key).
	Handle string `json:"channelHandle"`

	// ─────────────────────────────
	// Listing
	// ─────────────────────────────

	DisplayName string `json:"displayName"`
	Description string `json:"description"`

	// Categories is ordered; the first one is the primary category.
	Categories []string `json:"categories"`

	// TelegramLink is the normalised https://t.me/... URL.
	TelegramLink string `json:"telegramLink"`

	// Owner identifies who bought the pixel (or submitted the channel).
	// Empty means unknown.
	Owner string `json:"owner,omitempty"`

	// ─────────────────────────────
	// Grid linkage
	// ─────────────────────────────

	// PixelID is the first pixel that referenced this handle.
	PixelID *int `json:"pixelId,omitempty"`

	// PixelIDs lists every pixel merged into this record, PixelID first.
	PixelIDs []int `json:"pixelIds,omitempty"`

	Price float64 `json:"price,omitempty"`

	// AcquiredAt is the pixel purchase date or the submission date.
	AcquiredAt time.Time `json:"acquiredAt"`

	// ─────────────────────────────
	// Synthesised stats
	// ─────────────────────────────

	Subscribers   int     `json:"subscribers"`
	Rating        float64 `json:"rating"`
	PostsPerMonth int     `json:"postsPerMonth"`
	Verified      bool    `json:"verified"`

	// ─────────────────────────────
	// Per-user view
	// ─────────────────────────────

	IsOwned bool `json:"isOwned"`

	// UserRating is the acting user's own star rating, nil if none.
	UserRating *int `json:"userRating"`

	SourceType SourceType `json:"sourceType"`
}

// PrimaryCategory returns the first category or "" when there is none.
func (c *Channel) PrimaryCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0]
}

// Clone returns a deep copy so views can be handed out without sharing
// slices or pointers with the owning state.
func (c *Channel) Clone() *Channel {
	cp := *c
	cp.Categories = append([]string(nil), c.Categories...)
	cp.PixelIDs = append([]int(nil), c.PixelIDs...)
	if c.PixelID != nil {
		id := *c.PixelID
		cp.PixelID = &id
	}
	if c.UserRating != nil {
		r := *c.UserRating
		cp.UserRating = &r
	}
	return &cp
}

// Pixel is a single purchasable grid cell as exposed by the grid provider.
type Pixel struct {
	Channel      string    `json:"channel,omitempty" yaml:"channel"`
	TelegramLink string    `json:"telegramLink,omitempty" yaml:"telegramLink"`
	Description  string    `json:"description,omitempty" yaml:"description"`
	Category     string    `json:"category,omitempty" yaml:"category"`
	Categories   []string  `json:"categories,omitempty" yaml:"categories"`
	Owner        string    `json:"owner,omitempty" yaml:"owner"`
	PurchaseDate time.Time `json:"purchaseDate,omitempty" yaml:"purchaseDate"`
	Price        float64   `json:"price,omitempty" yaml:"price"`
}

// HasChannel reports whether the pixel is linked to a Telegram channel.
func (p Pixel) HasChannel() bool {
	return p.Channel != "" || p.TelegramLink != ""
}

// RatingEntry is the acting user's rating of one channel.
type RatingEntry struct {
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

// Ratings maps a channel handle to the user's rating entry.
type Ratings map[string]RatingEntry
