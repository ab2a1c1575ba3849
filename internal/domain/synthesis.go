package domain

import (
	"math"
	"strings"
)

// SubscriberRange bounds synthesised subscriber counts for a category.
type SubscriberRange struct {
	Min int
	Max int
}

// DefaultSubscriberRange applies to categories not listed in SubscriberRanges.
var DefaultSubscriberRange = SubscriberRange{Min: 1000, Max: 50000}

// SubscriberRanges holds the per-category ranges, keyed by lowercase name.
var SubscriberRanges = map[string]SubscriberRange{
	"crypto":        {Min: 5000, Max: 150000},
	"news":          {Min: 10000, Max: 500000},
	"tech":          {Min: 3000, Max: 80000},
	"entertainment": {Min: 8000, Max: 300000},
	"education":     {Min: 2000, Max: 60000},
	"business":      {Min: 3000, Max: 100000},
	"lifestyle":     {Min: 2000, Max: 70000},
	"gaming":        {Min: 4000, Max: 120000},
	"art":           {Min: 1000, Max: 40000},
}

// SubscriberCount synthesises a subscriber count for a channel of the given
// category. The result only depends on its arguments.
func SubscriberCount(category string, seed uint32) int {
	r, ok := SubscriberRanges[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		r = DefaultSubscriberRange
	}
	v := math.Abs(math.Sin(float64(seed)*137))*float64(r.Max-r.Min) + float64(r.Min)
	return int(math.Floor(v))
}

// Rating synthesises a channel rating in [3.0, 5.0] with one decimal.
func Rating(seed uint32) float64 {
	return math.Round((3+math.Abs(math.Sin(float64(seed)*73))*2)*10) / 10
}

// PostsPerMonth synthesises a posting frequency in [5, 124].
func PostsPerMonth(seed uint32) int {
	return int(math.Floor(math.Abs(math.Sin(float64(seed)*89))*120 + 5))
}

// VerifiedBadge decides the cosmetic verified badge for a seed.
// Roughly three channels in ten get it.
func VerifiedBadge(seed uint32) bool {
	return math.Abs(math.Sin(float64(seed)*31)) > 0.7
}

// HashString returns a stable 32-bit rolling hash of s (h*31 + c).
func HashString(s string) uint32 {
	var h uint32
	for _, c := range []byte(s) {
		h = h<<5 - h + uint32(c)
	}
	return h
}
