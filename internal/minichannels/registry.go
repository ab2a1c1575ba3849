package minichannels

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
)

// ErrEmptyUserID is returned by Get for a request without a user.
var ErrEmptyUserID = errors.New("empty user id")

// DepsFunc builds the collaborators of a new user's state.
type DepsFunc func(userID string) Deps

// Registry owns every user's State.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
	build  DepsFunc
	log    logger.Logger
}

func NewRegistry(build DepsFunc, log logger.Logger) *Registry {
	return &Registry{
		states: make(map[string]*State),
		build:  build,
		log:    log,
	}
}

// Get returns the user's state, creating and loading it on first use. A
// state that fails to load is not kept, so the next call retries.
//
// Loading happens outside the registry lock. When two calls race for the
// same new user, the first state stored wins and the other is dropped.
func (r *Registry) Get(ctx context.Context, userID string) (*State, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	r.mu.Lock()
	s, ok := r.states[userID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	s = NewState(userID, r.build(userID))
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", userID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.states[userID]; ok {
		return existing, nil
	}
	r.states[userID] = s
	r.log.Info("session created", logger.String("user", userID))
	return s, nil
}

// RefreshAll re-aggregates every live state and returns how many succeeded.
func (r *Registry) RefreshAll(ctx context.Context) int {
	r.mu.Lock()
	states := make([]*State, 0, len(r.states))
	for _, s := range r.states {
		states = append(states, s)
	}
	r.mu.Unlock()

	ok := 0
	for _, s := range states {
		if err := s.Refresh(ctx); err != nil {
			r.log.Warn("failed to refresh session",
				logger.String("user", s.UserID()),
				logger.Error(err))
			continue
		}
		ok++
	}
	return ok
}

// Len returns the number of live states.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
