// Package minichannels holds the per-user directory state: the aggregated
// channel list, the active filters, the user's ratings and the verification
// flow. States are created and owned by a Registry.
package minichannels

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/minichannels/internal/cache"
	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/metrics"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
	"github.com/MrSnakeDoc/minichannels/internal/rating"
	"github.com/MrSnakeDoc/minichannels/internal/verification"
)

// SubmissionSource lists the approved submissions to aggregate.
type SubmissionSource interface {
	Approved(ctx context.Context) ([]domain.Submission, error)
}

// Deps are the collaborators of one user's state. Cache, Metrics and Logger
// are optional.
type Deps struct {
	Grid         ports.GridProvider
	Submissions  SubmissionSource
	Storage      ports.Storage
	Wallet       ports.Wallet
	Notifier     ports.Notifier
	Backend      verification.Backend
	Verification verification.Config
	Cache        cache.Cache
	Metrics      metrics.Provider
	Logger       logger.Logger
}

// Filters is the user's current view query.
type Filters struct {
	Search     string         `json:"search"`
	Sort       domain.SortKey `json:"sort"`
	Categories []string       `json:"categories"`
}

// CategoryCount is a category and the number of listed channels in it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// State is one user's directory session. All methods are safe for
// concurrent use; events are serialised behind a single lock.
type State struct {
	userID       string
	grid         ports.GridProvider
	submissions  SubmissionSource
	notifier     ports.Notifier
	cache        cache.Cache
	metrics      metrics.Provider
	log          logger.Logger
	ratings      *rating.Book
	verification *verification.Machine

	// refreshMu orders aggregation passes and rating writes, so a list
	// built from older sources never replaces a newer one.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	channels []*domain.Channel
	version  uint64
	search   string
	sort     domain.SortKey
	filter   domain.CategoryFilter
}

func NewState(userID string, deps Deps) *State {
	if deps.Cache == nil {
		deps.Cache = cache.New(cache.Config{}, logger.NewNop())
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	log := deps.Logger.With(logger.String("user", userID))

	s := &State{
		userID:      userID,
		grid:        deps.Grid,
		submissions: deps.Submissions,
		notifier:    deps.Notifier,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		log:         log,
		ratings:     rating.NewBook(deps.Storage),
		sort:        domain.SortNewest,
	}
	s.verification = verification.New(deps.Verification, verification.Deps{
		Storage:  deps.Storage,
		Wallet:   deps.Wallet,
		Notifier: deps.Notifier,
		Backend:  deps.Backend,
		Metrics:  deps.Metrics,
		Logger:   log,
	})
	s.verification.SetObserver(s.onVerification)
	return s
}

// UserID returns the owner of the state.
func (s *State) UserID() string { return s.userID }

// Load reads the user's ratings and verification record and builds the
// first channel list.
func (s *State) Load(ctx context.Context) error {
	if err := s.ratings.Load(ctx); err != nil {
		return err
	}
	if err := s.verification.Load(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Refresh runs an aggregation pass and replaces the channel list. Passes
// run one at a time; the sources are read inside the pass.
func (s *State) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	pixels, err := s.grid.Pixels(ctx)
	if err != nil {
		return fmt.Errorf("failed to read grid: %w", err)
	}
	var submissions []domain.Submission
	if s.submissions != nil {
		if submissions, err = s.submissions.Approved(ctx); err != nil {
			return fmt.Errorf("failed to read submissions: %w", err)
		}
	}

	channels := domain.Aggregate(pixels, submissions, s.ratings.All(), s.userID)

	s.mu.Lock()
	s.channels = channels
	s.version++
	s.mu.Unlock()

	s.metrics.SetChannelsListed(len(channels))
	s.log.Debug("channel list rebuilt", logger.Int("channels", len(channels)))
	return nil
}

// View returns the filtered and sorted channel list. The records are copies.
func (s *State) View() []*domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := domain.ApplyView(s.channels, s.queryLocked())
	out := make([]*domain.Channel, len(view))
	for i, ch := range view {
		out[i] = ch.Clone()
	}
	return out
}

// ViewJSON returns View encoded as JSON, served from the view cache when the
// list and the filters have not changed since the last call.
func (s *State) ViewJSON() ([]byte, error) {
	s.mu.RLock()
	q := s.queryLocked()
	version := s.version
	s.mu.RUnlock()

	// JSON keeps the key unambiguous whatever the category and search text.
	query, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view key: %w", err)
	}
	key := fmt.Sprintf("%s:%d:%s", s.userID, version, query)

	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}

	data, err := json.Marshal(s.View())
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	s.cache.Set(key, data)
	return data, nil
}

func (s *State) queryLocked() domain.ViewQuery {
	return domain.ViewQuery{
		Search:     s.search,
		Categories: s.filter.Active(),
		Sort:       s.sort,
	}
}

func (s *State) SetSearch(term string) {
	s.mu.Lock()
	s.search = strings.TrimSpace(term)
	s.mu.Unlock()
}

func (s *State) SetSort(key string) error {
	sk, err := domain.ParseSortKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sort = sk
	s.mu.Unlock()
	return nil
}

// ToggleCategory flips a category filter. Going past the limit leaves the
// filters unchanged and emits a capacity notice.
func (s *State) ToggleCategory(category string) (bool, error) {
	s.mu.Lock()
	active, err := s.filter.Toggle(category)
	s.mu.Unlock()

	if errors.Is(err, domain.ErrCategoryLimit) {
		s.notify(fmt.Sprintf("You can select up to %d categories", domain.MaxActiveCategories), domain.SeverityWarning)
	}
	return active, err
}

func (s *State) ClearCategories() {
	s.mu.Lock()
	s.filter.Clear()
	s.mu.Unlock()
}

func (s *State) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filters{
		Search:     s.search,
		Sort:       s.sort,
		Categories: s.filter.Active(),
	}
}

// SetFilters replaces every filter at once. Nothing changes on error.
func (s *State) SetFilters(f Filters) error {
	sk, err := domain.ParseSortKey(string(f.Sort))
	if err != nil {
		return err
	}
	var next domain.CategoryFilter
	for _, c := range f.Categories {
		if _, err := next.Toggle(c); err != nil {
			if errors.Is(err, domain.ErrCategoryLimit) {
				s.notify(fmt.Sprintf("You can select up to %d categories", domain.MaxActiveCategories), domain.SeverityWarning)
			}
			return err
		}
	}

	s.mu.Lock()
	s.search = strings.TrimSpace(f.Search)
	s.sort = sk
	s.filter = next
	s.mu.Unlock()
	return nil
}

// Channel returns a copy of the channel with the given id.
func (s *State) Channel(id string) (*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch := s.findLocked(id)
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, id)
	}
	return ch.Clone(), nil
}

func (s *State) findLocked(id string) *domain.Channel {
	i := slices.IndexFunc(s.channels, func(ch *domain.Channel) bool { return ch.ID == id })
	if i < 0 {
		return nil
	}
	return s.channels[i]
}

// Rate records the user's rating for a channel. Unverified users get a
// notice pointing them to the verification flow.
func (s *State) Rate(ctx context.Context, channelID string, stars int, comment string) (domain.RatingEntry, error) {
	ch, err := s.Channel(channelID)
	if err != nil {
		return domain.RatingEntry{}, err
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	entry, err := s.ratings.Rate(ctx, ch.Handle, stars, comment, s.verification.Status())
	switch {
	case errors.Is(err, domain.ErrNotVerified):
		s.metrics.IncRatings("not_verified")
		s.notify("Verify your account to rate channels", domain.SeverityWarning)
		return domain.RatingEntry{}, err
	case errors.Is(err, domain.ErrInvalidRating):
		s.metrics.IncRatings("invalid")
		s.notify("Please choose between 1 and 5 stars", domain.SeverityError)
		return domain.RatingEntry{}, err
	case err != nil:
		s.metrics.IncRatings("error")
		s.metrics.IncStorageErrors("ratings")
		return domain.RatingEntry{}, err
	}

	s.mu.Lock()
	for _, c := range s.channels {
		if c.Handle == ch.Handle {
			r := entry.Rating
			c.UserRating = &r
		}
	}
	s.version++
	s.mu.Unlock()

	s.metrics.IncRatings("ok")
	s.notify("Rating saved", domain.SeveritySuccess)
	return entry, nil
}

// Locate recenters the grid on the channel's pixel and returns its id.
func (s *State) Locate(ctx context.Context, channelID string) (int, error) {
	ch, err := s.Channel(channelID)
	if err != nil {
		return 0, err
	}
	if ch.PixelID == nil {
		return 0, fmt.Errorf("%w: channel %s has no pixel", domain.ErrPixelNotFound, channelID)
	}
	if err := s.grid.Focus(ctx, s.userID, *ch.PixelID); err != nil {
		return 0, err
	}
	return *ch.PixelID, nil
}

// Categories counts the listed channels per category, most used first.
func (s *State) Categories() []CategoryCount {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, ch := range s.channels {
		for _, c := range ch.Categories {
			counts[c]++
		}
	}
	s.mu.RUnlock()

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func (s *State) Verification() domain.Verification { return s.verification.Snapshot() }

func (s *State) StartVerification(ctx context.Context) error {
	return s.verification.Start(ctx)
}

func (s *State) ProcessVerification(ctx context.Context, demo bool) error {
	return s.verification.Process(ctx, demo)
}

func (s *State) CancelVerification(ctx context.Context) error {
	return s.verification.Cancel(ctx)
}

func (s *State) RetryVerification(ctx context.Context) error {
	return s.verification.Retry(ctx)
}

func (s *State) ResetVerification(ctx context.Context) error {
	return s.verification.Reset(ctx)
}

// onVerification refreshes the user info after every transition.
func (s *State) onVerification(v domain.Verification) {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()
	s.log.Info("verification changed",
		logger.String("status", string(v.Status)),
		logger.Bool("demo", v.IsDemo))
}

func (s *State) notify(msg string, sev domain.Severity) {
	if s.notifier != nil {
		s.notifier.Notify(msg, sev)
	}
}
