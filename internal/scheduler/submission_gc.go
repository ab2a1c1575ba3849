package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
)

const (
	// DefaultGCThreshold is how long a rejected submission is kept
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// RejectedPruner drops rejected submissions moderated before a cutoff.
type RejectedPruner interface {
	PruneRejected(ctx context.Context, cutoff time.Time) (int, error)
}

// SubmissionCollector periodically removes old rejected submissions.
type SubmissionCollector struct {
	submissions RejectedPruner
	logger      logger.Logger
	interval    time.Duration
	threshold   time.Duration
	stopCh      chan struct{}
	now         func() time.Time
}

// NewSubmissionCollector creates a new submission collector
func NewSubmissionCollector(
	submissions RejectedPruner,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *SubmissionCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &SubmissionCollector{
		submissions: submissions,
		logger:      log,
		interval:    interval,
		threshold:   threshold,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
}

// Start begins the periodic collection
func (sc *SubmissionCollector) Start(ctx context.Context) error {
	if err := sc.Collect(ctx); err != nil {
		sc.logger.Warn("initial submission collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(sc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sc.Collect(ctx); err != nil {
					sc.logger.Error("submission collection failed", logger.Error(err))
				}
			case <-sc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (sc *SubmissionCollector) Stop() {
	close(sc.stopCh)
}

// Collect removes rejected submissions older than the threshold.
func (sc *SubmissionCollector) Collect(ctx context.Context) error {
	removed, err := sc.submissions.PruneRejected(ctx, sc.now().Add(-sc.threshold))
	if err != nil {
		return err
	}

	if removed > 0 {
		sc.logger.Info("garbage collected rejected submissions", logger.Int("removed", removed))
	} else {
		sc.logger.Debug("no submissions to garbage collect")
	}
	return nil
}
