// internal/syncer/reconcile.go
package syncer

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github-repo-sync/internal/credentials"
	custom_errors "github-repo-sync/internal/errors"
	"github-repo-sync/internal/github"
	"github-repo-sync/internal/model"
	"github-repo-sync/internal/store"
)

// Upstream is the read side of the hosting API used by one pass.
type Upstream interface {
	ListAll(ctx context.Context, owner string) iter.Seq2[model.UpstreamRepository, error]
	FetchContent(ctx context.Context, owner, name string) *string
	FetchLanguages(ctx context.Context, owner, name string) []string
}

// UpstreamFactory builds an Upstream authenticated with token.
type UpstreamFactory func(token string) (Upstream, error)

// GitHubFactory returns an UpstreamFactory producing go-github backed clients.
// An empty baseURL keeps the public API root.
func GitHubFactory(baseURL string, timeout time.Duration, logger *slog.Logger) UpstreamFactory {
	return func(token string) (Upstream, error) {
		c := github.NewClient(token, logger, github.WithTimeout(timeout))
		if baseURL == "" {
			return c, nil
		}
		if _, err := c.WithBaseURL(baseURL); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Reconciler runs reconciliation passes for one account at a time.
type Reconciler struct {
	store       store.Store
	newUpstream UpstreamFactory
	logger      *slog.Logger
}

// NewReconciler creates a new Reconciler instance.
func NewReconciler(st store.Store, newUpstream UpstreamFactory, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:       st,
		newUpstream: newUpstream,
		logger:      logger,
	}
}

// decision is the bucket one upstream ID landed in during a pass.
type decision struct {
	class    Classification
	rejected bool
	repo     model.EnrichedRepository
}

// Reconcile syncs owner's public repositories into the store.
//
// A listing that ends early (page failure or cancellation) still writes what was
// seen, but deletes nothing; the outcome is then marked incomplete and carries
// the cause. Only credential and store failures are returned as errors.
func (r *Reconciler) Reconcile(ctx context.Context, owner string, creds credentials.Source) (model.Outcome, error) {
	outcome := model.Outcome{Owner: owner}
	logger := r.logger.With("owner", owner)

	token, err := creds.Token(ctx, owner)
	if err != nil {
		return outcome, err
	}
	upstream, err := r.newUpstream(token)
	if err != nil {
		return outcome, err
	}

	snap, err := r.store.Snapshot(ctx, owner)
	if err != nil {
		return outcome, &custom_errors.PersistenceError{Op: "load stored repositories", Err: err}
	}
	prior := make(map[int64]*model.StoredRepository, len(snap.Repositories))
	for i := range snap.Repositories {
		prior[snap.Repositories[i].RepoID] = &snap.Repositories[i]
	}
	// Undecodable rows are neither rewritten nor deleted; they are reported as rejected.
	unreadable := make(map[int64]bool, len(snap.Malformed))
	for _, id := range snap.Malformed {
		unreadable[id] = true
	}
	logger.Info("Starting reconciliation", "stored", len(prior), "unreadable", len(unreadable))

	var (
		order   []int64
		byID    = make(map[int64]decision)
		listErr error
	)
	place := func(id int64, d decision) {
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		} else {
			logger.Warn("Repository listed twice, keeping the last record", "repo_id", id)
		}
		byID[id] = d
	}

	for rec, err := range upstream.ListAll(ctx, owner) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			listErr = ctxErr
			break
		}
		if err != nil {
			var malformed *custom_errors.MalformedTimestampError
			if errors.As(err, &malformed) {
				logger.Warn("Rejecting repository with malformed timestamp", "repo_id", rec.ID, "error", err)
				place(rec.ID, decision{rejected: true})
				continue
			}
			listErr = err
			break
		}
		if unreadable[rec.ID] {
			place(rec.ID, decision{rejected: true})
			continue
		}

		class := Classify(rec, prior[rec.ID])
		d := decision{class: class, repo: model.EnrichedRepository{UpstreamRepository: rec}}
		if class != ClassUnchanged {
			d.repo.Content = upstream.FetchContent(ctx, owner, rec.Name)
			d.repo.Languages = upstream.FetchLanguages(ctx, owner, rec.Name)
			// Enrichment cut short by cancellation looks like absence; storing it
			// would leave the row unchanged on later passes.
			if ctxErr := ctx.Err(); ctxErr != nil {
				listErr = ctxErr
				break
			}
		}
		logger.Debug("Classified repository", "repo_id", rec.ID, "name", rec.Name, "class", class.String())
		place(rec.ID, d)
	}

	var wl store.WorkList
	for _, id := range order {
		d := byID[id]
		switch {
		case d.rejected:
			outcome.RejectedIDs = append(outcome.RejectedIDs, id)
		case d.class == ClassUnchanged:
			wl.Skipped = append(wl.Skipped, id)
		default:
			wl.Upserts = append(wl.Upserts, d.repo)
			outcome.UpsertedIDs = append(outcome.UpsertedIDs, id)
		}
	}
	for _, id := range snap.Malformed {
		if _, seen := byID[id]; !seen {
			outcome.RejectedIDs = append(outcome.RejectedIDs, id)
		}
	}

	outcome.Complete = listErr == nil
	if outcome.Complete {
		for id := range prior {
			if _, active := byID[id]; !active {
				wl.Deletions = append(wl.Deletions, id)
			}
		}
		slices.Sort(wl.Deletions)
	} else {
		outcome.Cause = listErr
		logger.Warn("Listing ended early, deletions suppressed", "error", listErr)
	}

	// The batch is written even when ctx was canceled mid-listing.
	counts, err := r.store.Apply(context.WithoutCancel(ctx), owner, wl)
	if err != nil {
		return outcome, &custom_errors.PersistenceError{Op: "apply work-list", Err: err}
	}

	outcome.Processed = counts.Processed
	outcome.Skipped = counts.Skipped
	outcome.Deleted = counts.Deleted
	outcome.SkippedIDs = wl.Skipped
	outcome.DeletedIDs = counts.DeletedIDs

	logger.Info("Reconciliation finished",
		"processed", outcome.Processed,
		"skipped", outcome.Skipped,
		"deleted", outcome.Deleted,
		"rejected", len(outcome.RejectedIDs),
		"complete", outcome.Complete,
	)
	return outcome, nil
}
