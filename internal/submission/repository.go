// Package submission stores user-proposed channel listings and their
// moderation state. All users share one list.
package submission

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

const MaxCategories = 3

// Input is what a user sends to propose a channel.
type Input struct {
	ChannelName     string   `json:"channelName" validate:"required|minLen:2|maxLen:64"`
	TelegramLink    string   `json:"telegramLink" validate:"required|maxLen:256"`
	Description     string   `json:"description" validate:"maxLen:500"`
	Categories      []string `json:"categories" validate:"required"`
	SubscriberCount int      `json:"subscriberCount" validate:"min:0"`
	OwnerContact    string   `json:"ownerContact" validate:"maxLen:128"`
}

// Validate checks the input and returns the first problem found wrapped in
// domain.ErrInvalidSubmission.
func (in Input) Validate() error {
	v := validate.Struct(&in)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSubmission, v.Errors.One())
	}
	if len(in.Categories) > MaxCategories {
		return fmt.Errorf("%w: at most %d categories", domain.ErrInvalidSubmission, MaxCategories)
	}
	if !isTelegramLink(in.TelegramLink) {
		return fmt.Errorf("%w: telegramLink must be a t.me link or @handle", domain.ErrInvalidSubmission)
	}
	return nil
}

// Repository is the shared submission list. Every change is persisted
// before the cached list is replaced.
type Repository struct {
	mu      sync.RWMutex
	storage ports.Storage
	items   []domain.Submission
	loaded  bool
	now     func() time.Time
}

func NewRepository(storage ports.Storage) *Repository {
	return &Repository{
		storage: storage,
		now:     time.Now,
	}
}

// Load reads the persisted list, replacing the cached one.
func (r *Repository) Load(ctx context.Context) error {
	var items []domain.Submission
	if _, err := r.storage.Get(ctx, ports.KeySubmissions, &items); err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}

	r.mu.Lock()
	r.items = items
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// List returns every submission, optionally limited to one status.
func (r *Repository) List(ctx context.Context, status domain.SubmissionStatus) ([]domain.Submission, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Submission, 0, len(r.items))
	for _, s := range r.items {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

// Approved returns the submissions that feed the channel list.
func (r *Repository) Approved(ctx context.Context) ([]domain.Submission, error) {
	return r.List(ctx, domain.SubmissionApproved)
}

// Submit validates the input and stores it as a pending submission.
func (r *Repository) Submit(ctx context.Context, in Input, submittedBy string) (domain.Submission, error) {
	if err := in.Validate(); err != nil {
		return domain.Submission{}, err
	}

	s := domain.Submission{
		ID:              uuid.NewString(),
		ChannelName:     strings.TrimSpace(in.ChannelName),
		TelegramLink:    strings.TrimSpace(in.TelegramLink),
		Description:     strings.TrimSpace(in.Description),
		Categories:      normalizeCategories(in.Categories),
		SubmittedAt:     r.now(),
		Status:          domain.SubmissionPending,
		SubscriberCount: in.SubscriberCount,
		OwnerContact:    strings.TrimSpace(in.OwnerContact),
		SubmittedBy:     submittedBy,
	}

	err := r.update(ctx, func(items []domain.Submission) ([]domain.Submission, error) {
		return append(items, s), nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return s, nil
}

// Moderate sets the status of a submission.
func (r *Repository) Moderate(ctx context.Context, id string, status domain.SubmissionStatus) (domain.Submission, error) {
	if !status.Valid() {
		return domain.Submission{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidSubmission, status)
	}

	var moderated domain.Submission
	err := r.update(ctx, func(items []domain.Submission) ([]domain.Submission, error) {
		i := slices.IndexFunc(items, func(s domain.Submission) bool { return s.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, id)
		}
		at := r.now()
		items[i].Status = status
		items[i].ModeratedAt = &at
		moderated = items[i]
		return items, nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return moderated, nil
}

// PruneRejected drops rejected submissions moderated before cutoff and
// returns how many were removed.
func (r *Repository) PruneRejected(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := r.update(ctx, func(items []domain.Submission) ([]domain.Submission, error) {
		kept := items[:0]
		for _, s := range items {
			if s.Status == domain.SubmissionRejected && s.ModeratedAt != nil && s.ModeratedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// update applies fn to a copy of the list, persists the result and only then
// makes it current.
func (r *Repository) update(ctx context.Context, fn func([]domain.Submission) ([]domain.Submission, error)) error {
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(slices.Clone(r.items))
	if err != nil {
		return err
	}
	if next == nil {
		next = []domain.Submission{}
	}
	if err := r.storage.Set(ctx, ports.KeySubmissions, next); err != nil {
		return fmt.Errorf("save submissions: %w", err)
	}
	r.items = next
	return nil
}

func (r *Repository) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.Load(ctx)
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func isTelegramLink(link string) bool {
	link = strings.ToLower(strings.TrimSpace(link))
	if strings.HasPrefix(link, "@") {
		return len(link) > 1
	}
	if domain.UsernameFromLink(link) != "" {
		return true
	}
	for _, host := range []string{"t.me/", "telegram.me/", "telegram.dog/"} {
		if i := strings.Index(link, host); i >= 0 && len(link) > i+len(host) {
			return true
		}
	}
	return false
}
