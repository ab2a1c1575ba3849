package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(channels []*Channel) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch.ID)
	}
	return out
}

func sampleChannels() []*Channel {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*Channel{
		{ID: "a", DisplayName: "Crypto Daily", Description: "Markets", Categories: []string{"crypto", "news"}, Rating: 4.5, Subscribers: 100, PostsPerMonth: 30, AcquiredAt: base},
		{ID: "b", DisplayName: "Pixel Art", Description: "Drawings and sprites", Categories: []string{"art"}, Rating: 4.5, Subscribers: 300, PostsPerMonth: 10, AcquiredAt: base.Add(48 * time.Hour)},
		{ID: "c", DisplayName: "Go Weekly", Description: "Gophers news", Categories: []string{"tech", "education"}, Rating: 3.2, Subscribers: 200, PostsPerMonth: 90, AcquiredAt: base.Add(24 * time.Hour)},
	}
}

func TestApplyViewSearch(t *testing.T) {
	channels := sampleChannels()

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"b", "c", "a"}},
		{term: "PIXEL", want: []string{"b"}},
		{term: "news", want: []string{"c", "a"}},
		{term: "sprites", want: []string{"b"}},
		{term: "educ", want: []string{"c"}},
		{term: "nothing-matches", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := ApplyView(channels, ViewQuery{Search: tt.term, Sort: SortNewest})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyViewCategoryOR(t *testing.T) {
	ch := []*Channel{{ID: "x", Categories: []string{"A", "B"}}}

	assert.Len(t, ApplyView(ch, ViewQuery{Categories: []string{"b", "c"}}), 1)
	assert.Empty(t, ApplyView(ch, ViewQuery{Categories: []string{"c", "d"}}))
	assert.Len(t, ApplyView(ch, ViewQuery{}), 1)
}

func TestApplyViewSorts(t *testing.T) {
	channels := sampleChannels()

	assert.Equal(t, []string{"b", "c", "a"}, ids(ApplyView(channels, ViewQuery{Sort: SortNewest})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(ApplyView(channels, ViewQuery{Sort: SortSubscribers})))
	assert.Equal(t, []string{"c", "a", "b"}, ids(ApplyView(channels, ViewQuery{Sort: SortActivity})))
}

func TestApplyViewRatingSortIsStable(t *testing.T) {
	channels := sampleChannels()

	// a and b share 4.5 and must keep their input order
	assert.Equal(t, []string{"a", "b", "c"}, ids(ApplyView(channels, ViewQuery{Sort: SortRating})))

	reversed := []*Channel{channels[1], channels[0], channels[2]}
	assert.Equal(t, []string{"b", "a", "c"}, ids(ApplyView(reversed, ViewQuery{Sort: SortRating})))
}

func TestApplyViewDoesNotMutateInput(t *testing.T) {
	channels := sampleChannels()
	before := ids(channels)

	_ = ApplyView(channels, ViewQuery{Sort: SortActivity, Search: "news"})
	assert.Equal(t, before, ids(channels))
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, k)

	k, err = ParseSortKey(" Rating ")
	require.NoError(t, err)
	assert.Equal(t, SortRating, k)

	_, err = ParseSortKey("popularity")
	assert.True(t, errors.Is(err, ErrInvalidSort))
}

func TestCategoryFilterBound(t *testing.T) {
	var f CategoryFilter

	for _, c := range []string{"crypto", "news", "tech"} {
		active, err := f.Toggle(c)
		require.NoError(t, err)
		assert.True(t, active)
	}

	active, err := f.Toggle("art")
	assert.ErrorIs(t, err, ErrCategoryLimit)
	assert.False(t, active)
	assert.Equal(t, []string{"crypto", "news", "tech"}, f.Active())

	// toggling an active category off frees a slot
	active, err = f.Toggle("NEWS")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = f.Toggle("art")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, []string{"crypto", "tech", "art"}, f.Active())

	f.Clear()
	assert.Empty(t, f.Active())

	_, err = f.Toggle("  ")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
