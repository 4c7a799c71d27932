// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github-repo-sync/internal/model"
)

// DefaultConcurrency is the number of accounts synced in parallel per cycle.
const DefaultConcurrency = 5

// Refresher runs one reconciliation pass for an account.
type Refresher interface {
	Refresh(ctx context.Context, owner string) (model.Outcome, error)
}

// Scheduler periodically refreshes a fixed set of accounts.
type Scheduler struct {
	refresher    Refresher
	logger       *slog.Logger
	accounts     []string
	syncInterval time.Duration
	concurrency  int
}

// NewScheduler creates a new Scheduler instance.
func NewScheduler(refresher Refresher, logger *slog.Logger, accounts []string, interval time.Duration, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		refresher:    refresher,
		logger:       logger,
		accounts:     accounts,
		syncInterval: interval,
		concurrency:  concurrency,
	}
}

// Start begins the continuous synchronization process.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler", "interval", s.syncInterval.String(), "concurrency", s.concurrency, "accounts", len(s.accounts))
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	s.runSyncCycle(ctx) // Initial sync

	for {
		select {
		case <-ticker.C:
			s.runSyncCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runSyncCycle refreshes every configured account, different accounts in parallel.
func (s *Scheduler) runSyncCycle(ctx context.Context) {
	s.logger.Info("Starting new sync cycle")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, owner := range s.accounts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcome, err := s.refresher.Refresh(gctx, owner)
			switch {
			case errors.Is(err, context.Canceled):
			case err != nil:
				s.logger.Error("Failed to sync account", "owner", owner, "error", err)
			case !outcome.Complete:
				s.logger.Warn("Sync incomplete, retrying next cycle", "owner", owner, "error", outcome.Cause,
					"processed", outcome.Processed, "skipped", outcome.Skipped)
			default:
				s.logger.Info("Account synced", "owner", owner,
					"processed", outcome.Processed, "skipped", outcome.Skipped, "deleted", outcome.Deleted)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Sync cycle finished with an error", "error", err)
	} else {
		s.logger.Info("Sync cycle finished")
	}
}
