package minichannels

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/minichannels/internal/cache"
	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/notify"
	"github.com/MrSnakeDoc/minichannels/internal/store/memory"
	"github.com/MrSnakeDoc/minichannels/internal/verification"
	"github.com/MrSnakeDoc/minichannels/internal/wallet"
)

type fakeGrid struct {
	mu      sync.Mutex
	pixels  map[int]domain.Pixel
	focused map[string]int
}

func (g *fakeGrid) Pixels(context.Context) (map[int]domain.Pixel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]domain.Pixel, len(g.pixels))
	for k, v := range g.pixels {
		out[k] = v
	}
	return out, nil
}

func (g *fakeGrid) Focus(_ context.Context, userID string, pixelID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.focused == nil {
		g.focused = map[string]int{}
	}
	g.focused[userID] = pixelID
	return nil
}

func (g *fakeGrid) set(id int, px domain.Pixel) {
	g.mu.Lock()
	g.pixels[id] = px
	g.mu.Unlock()
}

type staticSubmissions []domain.Submission

func (s staticSubmissions) Approved(context.Context) ([]domain.Submission, error) {
	return s, nil
}

type fixture struct {
	grid   *fakeGrid
	wallet *wallet.SimulatedWallet
	feed   *notify.Feed
	deps   Deps
}

func newFixture(pixels map[int]domain.Pixel) *fixture {
	f := &fixture{
		grid:   &fakeGrid{pixels: pixels},
		wallet: &wallet.SimulatedWallet{},
		feed:   notify.NewFeed("42", 0, logger.NewNop()),
	}
	f.deps = Deps{
		Grid:        f.grid,
		Submissions: staticSubmissions{},
		Storage:     memory.NewStore().ForUser("42"),
		Wallet:      f.wallet,
		Notifier:    f.feed,
		Verification: verification.Config{
			Amount:    0.01,
			Delay:     10 * time.Millisecond,
			MaxChecks: 1,
		},
		Cache: cache.New(cache.Config{Enabled: true, SizeMB: 1, TTL: time.Minute}, logger.NewNop()),
	}
	return f
}

func loadedState(t *testing.T, f *fixture) *State {
	t.Helper()
	s := NewState("42", f.deps)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func samplePixels() map[int]domain.Pixel {
	return map[int]domain.Pixel{
		1: {Channel: "@alpha", Categories: []string{"crypto", "news"}, Owner: "42"},
		2: {TelegramLink: "https://t.me/Alpha", Categories: []string{"crypto"}},
		3: {Channel: "@beta", Categories: []string{"tech"}},
		4: {Channel: "@gamma", Categories: []string{"gaming"}},
		5: {Channel: "@delta", Categories: []string{"art"}},
	}
}

func TestEmptyDirectoryShowsDemo(t *testing.T) {
	s := loadedState(t, newFixture(map[int]domain.Pixel{}))

	view := s.View()
	require.Len(t, view, 1)
	assert.Equal(t, domain.DemoChannelID, view[0].ID)
}

func TestRefreshDeduplicatesAndMarksOwner(t *testing.T) {
	s := loadedState(t, newFixture(samplePixels()))

	ch, err := s.Channel("pixel_1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ch.PixelIDs)
	assert.True(t, ch.IsOwned)
	assert.Len(t, s.View(), 4)
}

func TestToggleFourthCategoryEmitsNotice(t *testing.T) {
	f := newFixture(samplePixels())
	s := loadedState(t, f)

	for _, c := range []string{"crypto", "tech", "gaming"} {
		active, err := s.ToggleCategory(c)
		require.NoError(t, err)
		assert.True(t, active)
	}
	f.feed.Drain()

	_, err := s.ToggleCategory("art")
	assert.ErrorIs(t, err, domain.ErrCategoryLimit)
	assert.Equal(t, []string{"crypto", "tech", "gaming"}, s.Filters().Categories)

	notes := f.feed.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.SeverityWarning, notes[0].Severity)

	assert.Len(t, s.View(), 3)
	s.ClearCategories()
	assert.Len(t, s.View(), 4)
}

func TestSetFiltersIsAtomic(t *testing.T) {
	s := loadedState(t, newFixture(samplePixels()))
	require.NoError(t, s.SetFilters(Filters{Search: " alp ", Sort: domain.SortRating}))

	err := s.SetFilters(Filters{Sort: "loudest", Categories: []string{"tech"}})
	assert.ErrorIs(t, err, domain.ErrInvalidSort)

	err = s.SetFilters(Filters{Categories: []string{"a", "b", "c", "d"}})
	assert.ErrorIs(t, err, domain.ErrCategoryLimit)

	f := s.Filters()
	assert.Equal(t, "alp", f.Search)
	assert.Equal(t, domain.SortRating, f.Sort)
	assert.Empty(t, f.Categories)
	assert.Len(t, s.View(), 1)
}

func TestRateRequiresVerification(t *testing.T) {
	f := newFixture(samplePixels())
	s := loadedState(t, f)
	require.NoError(t, f.wallet.Connect("UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG"))
	require.NoError(t, s.StartVerification(context.Background()))
	require.Equal(t, domain.VerificationPending, s.Verification().Status)

	_, err := s.Rate(context.Background(), "pixel_3", 5, "")
	assert.ErrorIs(t, err, domain.ErrNotVerified)

	ch, err := s.Channel("pixel_3")
	require.NoError(t, err)
	assert.Nil(t, ch.UserRating)
}

func TestRateAfterDemoVerification(t *testing.T) {
	f := newFixture(samplePixels())
	s := loadedState(t, f)
	ctx := context.Background()
	require.NoError(t, f.wallet.Connect("UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG"))

	require.NoError(t, s.StartVerification(ctx))
	require.NoError(t, s.ProcessVerification(ctx, true))
	require.Eventually(t, func() bool {
		return s.Verification().Status == domain.VerificationVerified
	}, time.Second, 5*time.Millisecond)

	before, err := s.ViewJSON()
	require.NoError(t, err)

	_, err = s.Rate(ctx, "pixel_1", 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	entry, err := s.Rate(ctx, "pixel_1", 4, "solid")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Rating)

	ch, err := s.Channel("pixel_1")
	require.NoError(t, err)
	require.NotNil(t, ch.UserRating)
	assert.Equal(t, 4, *ch.UserRating)

	after, err := s.ViewJSON()
	require.NoError(t, err)
	assert.NotEqual(t, string(before), string(after))

	var decoded []domain.Channel
	require.NoError(t, json.Unmarshal(after, &decoded))
	require.Len(t, decoded, 4)

	// ratings survive a rebuild
	require.NoError(t, s.Refresh(ctx))
	ch, err = s.Channel("pixel_1")
	require.NoError(t, err)
	require.NotNil(t, ch.UserRating)
	assert.Equal(t, 4, *ch.UserRating)
}

func TestLocate(t *testing.T) {
	f := newFixture(samplePixels())
	s := loadedState(t, f)

	id, err := s.Locate(context.Background(), "pixel_3")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, 3, f.grid.focused["42"])

	_, err = s.Locate(context.Background(), "pixel_404")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestCategories(t *testing.T) {
	s := loadedState(t, newFixture(samplePixels()))

	got := s.Categories()
	require.NotEmpty(t, got)
	assert.Equal(t, CategoryCount{Name: "art", Count: 1}, got[0])

	counts := map[string]int{}
	for _, c := range got {
		counts[c.Name] = c.Count
	}
	assert.Equal(t, map[string]int{"crypto": 1, "news": 1, "tech": 1, "gaming": 1, "art": 1}, counts)
}

func TestRegistry(t *testing.T) {
	f := newFixture(map[int]domain.Pixel{})
	reg := NewRegistry(func(string) Deps { return f.deps }, logger.NewNop())
	ctx := context.Background()

	a, err := reg.Get(ctx, "42")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "42")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyUserID)

	f.grid.set(9, domain.Pixel{Channel: "@fresh"})
	assert.Equal(t, 1, reg.RefreshAll(ctx))

	view := a.View()
	require.Len(t, view, 1)
	assert.Equal(t, "@fresh", view[0].Handle)
}

func viewIDs(channels []*domain.Channel) []string {
	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ID)
	}
	return ids
}

func TestViewJSONTracksFilterChanges(t *testing.T) {
	s := loadedState(t, newFixture(samplePixels()))

	require.NoError(t, s.SetFilters(Filters{Sort: domain.SortNewest, Categories: []string{"crypto", "news"}}))
	data, err := s.ViewJSON()
	require.NoError(t, err)
	var first []*domain.Channel
	require.NoError(t, json.Unmarshal(data, &first))
	require.NotEmpty(t, first)

	// one category whose name contains a comma selects nothing
	require.NoError(t, s.SetFilters(Filters{Sort: domain.SortNewest, Categories: []string{"crypto,news"}}))
	data, err = s.ViewJSON()
	require.NoError(t, err)

	var got []*domain.Channel
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Empty(t, s.View())
	assert.Empty(t, got)
}

// gatedSubmissions blocks the next Approved call until released. The call
// returns the list as it was when the call started.
type gatedSubmissions struct {
	mu      sync.Mutex
	items   []domain.Submission
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedSubmissions) Approved(context.Context) ([]domain.Submission, error) {
	g.mu.Lock()
	items := slices.Clone(g.items)
	gate, entered := g.gate, g.entered
	g.gate, g.entered = nil, nil
	g.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	return items, nil
}

func (g *gatedSubmissions) hold() (release chan struct{}, entered chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate, g.entered = make(chan struct{}), make(chan struct{})
	return g.gate, g.entered
}

func (g *gatedSubmissions) set(items ...domain.Submission) {
	g.mu.Lock()
	g.items = items
	g.mu.Unlock()
}

func TestSlowRefreshDoesNotOverwriteNewerList(t *testing.T) {
	f := newFixture(map[int]domain.Pixel{})
	subs := &gatedSubmissions{}
	f.deps.Submissions = subs
	s := loadedState(t, f)
	ctx := context.Background()

	release, entered := subs.hold()
	slow := make(chan error, 1)
	go func() { slow <- s.Refresh(ctx) }()
	<-entered

	subs.set(domain.Submission{
		ID:           "s1",
		ChannelName:  "@gophers",
		TelegramLink: "https://t.me/gophers",
		Categories:   []string{"tech"},
		Status:       domain.SubmissionApproved,
	})
	fresh := make(chan error, 1)
	go func() { fresh <- s.Refresh(ctx) }()

	// give the second pass a chance to run ahead of the blocked one
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-slow)
	require.NoError(t, <-fresh)

	assert.Equal(t, []string{"submission_s1"}, viewIDs(s.View()))
}

// gatedGrid blocks Pixels until released.
type gatedGrid struct {
	fakeGrid
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGrid) Pixels(ctx context.Context) (map[int]domain.Pixel, error) {
	close(g.entered)
	<-g.release
	return g.fakeGrid.Pixels(ctx)
}

func TestRegistryLoadsOutsideLock(t *testing.T) {
	fast := newFixture(map[int]domain.Pixel{})
	slow := newFixture(map[int]domain.Pixel{})
	grid := &gatedGrid{
		fakeGrid: fakeGrid{pixels: map[int]domain.Pixel{}},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	slow.deps.Grid = grid

	reg := NewRegistry(func(userID string) Deps {
		if userID == "1" {
			return slow.deps
		}
		return fast.deps
	}, logger.NewNop())
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() {
		_, err := reg.Get(ctx, "1")
		slowDone <- err
	}()
	<-grid.entered

	done := make(chan error, 1)
	go func() {
		_, err := reg.Get(ctx, "2")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Get for another user blocked behind a loading state")
	}

	close(grid.release)
	require.NoError(t, <-slowDone)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryConcurrentGetReturnsOneState(t *testing.T) {
	f := newFixture(map[int]domain.Pixel{})
	reg := NewRegistry(func(string) Deps { return f.deps }, logger.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*State, 8)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := reg.Get(ctx, "42")
			assert.NoError(t, err)
			got[i] = s
		}()
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, reg.Len())
}
