// internal/syncer/service.go
package syncer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github-repo-sync/internal/credentials"
	"github-repo-sync/internal/model"
)

// Service is the entry point for refresh requests. It allows at most one
// in-flight pass per account; concurrent callers for the same account wait for
// and share that pass's result.
type Service struct {
	reconciler *Reconciler
	creds      credentials.Source
	timeout    time.Duration
	group      singleflight.Group
	logger     *slog.Logger
}

// NewService creates a new Service using creds as the default credential
// source. Every pass is bounded by timeout.
func NewService(reconciler *Reconciler, creds credentials.Source, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		creds:      creds,
		timeout:    timeout,
		logger:     logger,
	}
}

// Refresh reconciles owner with the configured credentials.
func (s *Service) Refresh(ctx context.Context, owner string) (model.Outcome, error) {
	return s.RefreshWith(ctx, owner, s.creds)
}

// RefreshWith reconciles owner using creds. A caller joining a pass already in
// flight for owner gets that pass's outcome, whatever credentials it used.
//
// The pass is detached from ctx: a caller that gives up gets ctx's error back
// while the pass runs on for the others, bounded only by the service timeout.
func (s *Service) RefreshWith(ctx context.Context, owner string, creds credentials.Source) (model.Outcome, error) {
	owner = model.CanonicalOwner(owner)

	ch := s.group.DoChan(owner, func() (any, error) {
		passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.reconciler.Reconcile(passCtx, owner, creds)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Joined in-flight reconciliation", "owner", owner)
		}
		outcome, _ := res.Val.(model.Outcome)
		return outcome, res.Err
	case <-ctx.Done():
		s.logger.Debug("Caller left in-flight reconciliation", "owner", owner, "error", ctx.Err())
		return model.Outcome{Owner: owner}, ctx.Err()
	}
}
