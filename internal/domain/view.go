package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the ordering of the channel view.
type SortKey string

const (
	SortNewest      SortKey = "newest"
	SortRating      SortKey = "rating"
	SortSubscribers SortKey = "subscribers"
	SortActivity    SortKey = "activity"
)

// ParseSortKey validates a sort key. An empty string means newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortRating, SortSubscribers, SortActivity:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// ViewQuery is the filter state applied to a channel list.
type ViewQuery struct {
	Search     string   `json:"search"`
	Categories []string `json:"categories"`
	Sort       SortKey  `json:"sort"`
}

// ApplyView filters and sorts channels into a new slice. The input slice
// and its records are not modified. Sorting is stable.
func ApplyView(channels []*Channel, q ViewQuery) []*Channel {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]*Channel, 0, len(channels))
	for _, ch := range channels {
		if !MatchesSearch(ch, term) || !MatchesCategories(ch, q.Categories) {
			continue
		}
		out = append(out, ch)
	}

	slices.SortStableFunc(out, comparator(q.Sort))
	return out
}

// MatchesSearch does a case-insensitive substring match of an already
// lowercased term against name, description and categories.
func MatchesSearch(ch *Channel, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(ch.DisplayName), term) ||
		strings.Contains(strings.ToLower(ch.Description), term) ||
		strings.Contains(strings.ToLower(ch.PrimaryCategory()), term) {
		return true
	}
	for _, c := range ch.Categories {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}

// MatchesCategories passes a channel when any active category is one of
// its categories. No active category passes everything.
func MatchesCategories(ch *Channel, active []string) bool {
	if len(active) == 0 {
		return true
	}
	for _, a := range active {
		for _, c := range ch.Categories {
			if strings.EqualFold(a, c) {
				return true
			}
		}
	}
	return false
}

// comparator orders descending by the selected key.
func comparator(key SortKey) func(a, b *Channel) int {
	switch key {
	case SortRating:
		return func(a, b *Channel) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortSubscribers:
		return func(a, b *Channel) int { return cmp.Compare(b.Subscribers, a.Subscribers) }
	case SortActivity:
		return func(a, b *Channel) int { return cmp.Compare(b.PostsPerMonth, a.PostsPerMonth) }
	default:
		return func(a, b *Channel) int { return b.AcquiredAt.Compare(a.AcquiredAt) }
	}
}
