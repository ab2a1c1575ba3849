package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
)

// GridSource is reloaded from its backing file and storage.
type GridSource interface {
	Reload(ctx context.Context) error
}

// SessionRefresher rebuilds the channel list of every live session.
type SessionRefresher interface {
	RefreshAll(ctx context.Context) int
}

// GridReloader reloads the pixel grid periodically or on demand and
// re-aggregates every session afterwards.
type GridReloader struct {
	grid          GridSource
	sessions      SessionRefresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewGridReloader creates a new grid reloader. Sends on manualTrigger
// force a reload, e.g. after a purchase or a POST /reload.
func NewGridReloader(
	grid GridSource,
	sessions SessionRefresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *GridReloader {
	return &GridReloader{
		grid:          grid,
		sessions:      sessions,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the grid once, then keeps reloading in the background.
func (gr *GridReloader) Start(ctx context.Context) error {
	if err := gr.Reload(ctx); err != nil {
		return fmt.Errorf("initial grid load failed: %w", err)
	}

	ticker := time.NewTicker(gr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gr.Reload(ctx); err != nil {
					gr.logger.Error("failed to reload grid", logger.Error(err))
				}
			case <-gr.manualTrigger:
				gr.logger.Info("manual grid reload triggered")
				if err := gr.Reload(ctx); err != nil {
					gr.logger.Error("failed to reload grid", logger.Error(err))
				}
			case <-gr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (gr *GridReloader) Stop() {
	close(gr.stopCh)
}

// Reload reads the grid and rebuilds every session's channel list.
func (gr *GridReloader) Reload(ctx context.Context) error {
	if err := gr.grid.Reload(ctx); err != nil {
		return err
	}
	refreshed := gr.sessions.RefreshAll(ctx)
	gr.logger.Debug("sessions refreshed", logger.Int("count", refreshed))
	return nil
}

// Trigger requests a reload without blocking. A reload already queued
// absorbs the request.
func Trigger(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
