package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultCategory is used for pixels and submissions without any category.
const DefaultCategory = "other"

// DemoChannelID identifies the placeholder record of an empty directory.
const DemoChannelID = "demo_channel"

// Aggregate builds the channel list from grid pixels and approved
// submissions.
//
// Pixels are walked in ascending id order; the first pixel of a handle
// provides the record and its synthesised stats, later pixels only add
// their id to PixelIDs. Approved submissions are appended as separate
// records even when their handle is already listed. An empty result is
// replaced by a single DemoChannel so callers never render an empty list.
func Aggregate(pixels map[int]Pixel, submissions []Submission, ratings Ratings, currentUser string) []*Channel {
	ids := make([]int, 0, len(pixels))
	for id := range pixels {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	channels := make([]*Channel, 0, len(ids)+len(submissions))
	byHandle := make(map[string]*Channel, len(ids))

	for _, id := range ids {
		px := pixels[id]
		if !px.HasChannel() {
			continue
		}

		handle := NormalizeHandle(px.Channel, px.TelegramLink)
		if existing, ok := byHandle[handle]; ok {
			existing.PixelIDs = append(existing.PixelIDs, id)
			continue
		}

		ch := channelFromPixel(id, px, handle, currentUser)
		applyUserRating(ch, ratings)
		byHandle[handle] = ch
		channels = append(channels, ch)
	}

	for _, sub := range submissions {
		if sub.Status != SubmissionApproved {
			continue
		}
		ch := channelFromSubmission(sub, currentUser)
		applyUserRating(ch, ratings)
		channels = append(channels, ch)
	}

	if len(channels) == 0 {
		channels = append(channels, DemoChannel())
	}
	return channels
}

func channelFromPixel(id int, px Pixel, handle, currentUser string) *Channel {
	categories := pixelCategories(px)
	seed := uint32(id)
	pixelID := id

	name := strings.TrimSpace(px.Channel)
	if name == "" {
		name = handle
	}
	description := strings.TrimSpace(px.Description)
	if description == "" {
		description = fmt.Sprintf("Channel linked to pixel #%d", id)
	}

	return &Channel{
		ID:            fmt.Sprintf("pixel_%d", id),
		Handle:        handle,
		DisplayName:   name,
		Description:   description,
		Categories:    categories,
		TelegramLink:  NormalizeLink(px.TelegramLink, handle),
		Owner:         px.Owner,
		PixelID:       &pixelID,
		PixelIDs:      []int{id},
		Price:         px.Price,
		AcquiredAt:    px.PurchaseDate,
		Subscribers:   SubscriberCount(categories[0], seed),
		Rating:        Rating(seed),
		PostsPerMonth: PostsPerMonth(seed),
		Verified:      VerifiedBadge(seed),
		IsOwned:       isOwner(px.Owner, currentUser),
		SourceType:    SourcePixel,
	}
}

func channelFromSubmission(sub Submission, currentUser string) *Channel {
	categories := cleanCategories(sub.Categories)
	if len(categories) == 0 {
		categories = []string{DefaultCategory}
	}
	seed := HashString(sub.ID)
	handle := NormalizeHandle(sub.ChannelName, sub.TelegramLink)

	subscribers := sub.SubscriberCount
	if subscribers <= 0 {
		subscribers = SubscriberCount(categories[0], seed)
	}

	name := strings.TrimSpace(sub.ChannelName)
	if name == "" {
		name = handle
	}

	return &Channel{
		ID:            "submission_" + sub.ID,
		Handle:        handle,
		DisplayName:   name,
		Description:   strings.TrimSpace(sub.Description),
		Categories:    categories,
		TelegramLink:  NormalizeLink(sub.TelegramLink, handle),
		Owner:         sub.OwnerContact,
		AcquiredAt:    sub.SubmittedAt,
		Subscribers:   subscribers,
		Rating:        Rating(seed),
		PostsPerMonth: PostsPerMonth(seed),
		Verified:      VerifiedBadge(seed),
		IsOwned:       isOwner(sub.OwnerContact, currentUser) || isOwner(sub.SubmittedBy, currentUser),
		SourceType:    SourceApprovedSubmission,
	}
}

// DemoChannel is the placeholder shown when nothing else is listed.
func DemoChannel() *Channel {
	const seed = 42
	return &Channel{
		ID:            DemoChannelID,
		Handle:        "@pixelgrid_demo",
		DisplayName:   "Pixel Grid Demo",
		Description:   "Buy a pixel and link your channel to appear in this list.",
		Categories:    []string{"tech"},
		TelegramLink:  "https://t.me/pixelgrid_demo",
		AcquiredAt:    time.Unix(0, 0).UTC(),
		Subscribers:   SubscriberCount("tech", seed),
		Rating:        Rating(seed),
		PostsPerMonth: PostsPerMonth(seed),
		SourceType:    SourcePixel,
	}
}

func pixelCategories(px Pixel) []string {
	categories := cleanCategories(px.Categories)
	if len(categories) == 0 {
		categories = cleanCategories([]string{px.Category})
	}
	if len(categories) == 0 {
		categories = []string{DefaultCategory}
	}
	return categories
}

// cleanCategories lowercases, trims and deduplicates, keeping order.
func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func applyUserRating(ch *Channel, ratings Ratings) {
	if entry, ok := ratings[ch.Handle]; ok {
		stars := entry.Rating
		ch.UserRating = &stars
	}
}

func isOwner(owner, currentUser string) bool {
	return currentUser != "" && owner == currentUser
}
