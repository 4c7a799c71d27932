// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-repo-sync/internal/database"
	"github-repo-sync/internal/datetime"
	"github-repo-sync/internal/model"
	"github-repo-sync/migrations"
)

// Postgres is the Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	q      database.Querier
	logger *slog.Logger
	now    func() time.Time
}

// OpenPostgres connects to dbURL, runs migrations and returns the store.
func OpenPostgres(ctx context.Context, dbURL string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established", "driver", DriverPostgres)

	if err := MigratePostgres(dbURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	return NewPostgres(pool, logger), nil
}

// NewPostgres wraps an existing pool. It does not run migrations.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		q:      database.New(pool),
		logger: logger,
		now:    datetime.Now,
	}
}

// MigratePostgres applies the embedded postgres migrations to dbURL.
func MigratePostgres(dbURL string) error {
	src, err := iofs.New(migrations.FS, "postgres")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Postgres) Snapshot(ctx context.Context, owner string) (Snapshot, error) {
	rows, err := s.q.ListRepositoriesByOwner(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	repos, malformed := toStoredRepositories(rows)
	s.logMalformed(owner, malformed)
	return Snapshot{Repositories: repos, Malformed: malformed}, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner string) ([]model.StoredRepository, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return snap.Repositories, nil
}

func (s *Postgres) ListEligible(ctx context.Context, owner string, limit int) ([]model.StoredRepository, error) {
	rows, err := s.q.ListEligibleRepositoriesByOwner(ctx, database.ListEligibleRepositoriesByOwnerParams{
		Owner: owner,
		Limit: int32(limit),
	})
	if err != nil {
		return nil, err
	}
	repos, malformed := toStoredRepositories(rows)
	s.logMalformed(owner, malformed)
	return repos, nil
}

func (s *Postgres) logMalformed(owner string, ids []int64) {
	if len(ids) > 0 {
		s.logger.Warn("Skipping undecodable stored repositories", "owner", owner, "repo_ids", ids)
	}
}

func (s *Postgres) Status(ctx context.Context, owner string) (model.OwnerStatus, error) {
	row, err := s.q.GetOwnerStatus(ctx, owner)
	if err != nil {
		return model.OwnerStatus{}, err
	}
	status := model.OwnerStatus{Owner: owner, RepositoryCount: row.RepositoryCount}
	if row.LastFetch != nil {
		t := datetime.Normalize(*row.LastFetch)
		status.LastFetch = &t
	}
	return status, nil
}

// Apply writes the work-list inside one transaction.
func (s *Postgres) Apply(ctx context.Context, owner string, wl WorkList) (Counts, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Counts{}, err
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	counts, err := applyWorkList(ctx, database.New(tx), owner, wl, s.now())
	if err != nil {
		return Counts{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Counts{}, err
	}
	s.logger.Debug("Work-list committed", "owner", owner,
		"processed", counts.Processed, "skipped", counts.Skipped, "deleted", counts.Deleted)
	return counts, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// applyWorkList runs deletions then upserts against q. Every upsert gets fetchedAt.
func applyWorkList(ctx context.Context, q database.Querier, owner string, wl WorkList, fetchedAt time.Time) (Counts, error) {
	counts := Counts{Skipped: len(wl.Skipped)}

	for _, id := range wl.Deletions {
		n, err := q.DeleteRepository(ctx, database.DeleteRepositoryParams{RepoID: id, Owner: owner})
		if err != nil {
			return Counts{}, fmt.Errorf("delete repository %d: %w", id, err)
		}
		if n > 0 {
			counts.Deleted++
			counts.DeletedIDs = append(counts.DeletedIDs, id)
		}
	}

	for _, r := range wl.Upserts {
		params, err := toUpsertParams(owner, r, fetchedAt)
		if err != nil {
			return Counts{}, fmt.Errorf("encode repository %d: %w", r.ID, err)
		}
		if err := q.UpsertRepository(ctx, params); err != nil {
			return Counts{}, fmt.Errorf("upsert repository %d: %w", r.ID, err)
		}
		counts.Processed++
	}

	return counts, nil
}

func toUpsertParams(owner string, r model.EnrichedRepository, fetchedAt time.Time) (database.UpsertRepositoryParams, error) {
	topics, err := encodeList(r.Topics)
	if err != nil {
		return database.UpsertRepositoryParams{}, err
	}
	langs, err := encodeList(r.Languages)
	if err != nil {
		return database.UpsertRepositoryParams{}, err
	}

	return database.UpsertRepositoryParams{
		RepoID:        r.ID,
		Owner:         owner,
		Name:          r.Name,
		Url:           r.URL,
		Description:   r.Description,
		Language:      r.Language,
		Topics:        topics,
		RepoCreatedAt: datetime.Normalize(r.CreatedAt),
		RepoUpdatedAt: datetime.Normalize(r.UpdatedAt),
		StarsCount:    clampInt32(r.Stars),
		ForksCount:    clampInt32(r.Forks),
		FetchedAt:     datetime.Normalize(fetchedAt),
		HasReadme:     r.HasContent(),
		ReadmeContent: r.Content,
		Languages:     langs,
		IsEligible:    true,
	}, nil
}

// clampInt32 saturates n to the range of the INTEGER count columns.
func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	default:
		return int32(n)
	}
}

// toStoredRepositories converts rows, skipping any whose JSON lists do not
// decode and returning their IDs in malformed.
func toStoredRepositories(rows []database.Repository) (out []model.StoredRepository, malformed []int64) {
	out = make([]model.StoredRepository, 0, len(rows))
	for _, row := range rows {
		topics, err := decodeList(row.Topics)
		if err != nil {
			malformed = append(malformed, row.RepoID)
			continue
		}
		langs, err := decodeList(row.Languages)
		if err != nil {
			malformed = append(malformed, row.RepoID)
			continue
		}
		out = append(out, model.StoredRepository{
			RepoID:        row.RepoID,
			Owner:         row.Owner,
			Name:          row.Name,
			URL:           row.Url,
			Description:   row.Description,
			Language:      row.Language,
			Topics:        topics,
			RepoCreatedAt: datetime.Normalize(row.RepoCreatedAt),
			RepoUpdatedAt: datetime.Normalize(row.RepoUpdatedAt),
			Stars:         int(row.StarsCount),
			Forks:         int(row.ForksCount),
			FetchedAt:     datetime.Normalize(row.FetchedAt),
			HasReadme:     row.HasReadme,
			ReadmeContent: row.ReadmeContent,
			Languages:     langs,
			IsEligible:    row.IsEligible,
		})
	}
	return out, malformed
}
