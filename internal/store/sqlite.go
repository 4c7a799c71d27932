// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // SQLite driver

	"github-repo-sync/internal/datetime"
	"github-repo-sync/internal/model"
	"github-repo-sync/migrations"
)

// sqliteTimeLayout is fixed-width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const repositoryColumns = `repo_id, owner, name, url, description, language, topics,
	repo_created_at, repo_updated_at, stars_count, forks_count,
	fetched_at, has_readme, readme_content, languages, is_eligible`

const sqliteUpsert = `INSERT INTO repositories (` + repositoryColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (repo_id) DO UPDATE SET
	owner           = excluded.owner,
	name            = excluded.name,
	url             = excluded.url,
	description     = excluded.description,
	language        = excluded.language,
	topics          = excluded.topics,
	repo_created_at = excluded.repo_created_at,
	repo_updated_at = excluded.repo_updated_at,
	stars_count     = excluded.stars_count,
	forks_count     = excluded.forks_count,
	fetched_at      = excluded.fetched_at,
	has_readme      = excluded.has_readme,
	readme_content  = excluded.readme_content,
	languages       = excluded.languages,
	is_eligible     = excluded.is_eligible`

// SQLite is the Store backed by an embedded SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens (or creates) the database file at path and runs migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Info("Database connection established", "driver", DriverSQLite, "path", path)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	return &SQLite{db: db, logger: logger, now: datetime.Now}, nil
}

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	// m.Close would close db, which the store keeps using.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLite) Snapshot(ctx context.Context, owner string) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE owner = ? ORDER BY repo_id`, owner)
	if err != nil {
		return Snapshot{}, err
	}
	repos, malformed, err := s.scanRepositories(rows)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Repositories: repos, Malformed: malformed}, nil
}

func (s *SQLite) ListByOwner(ctx context.Context, owner string) ([]model.StoredRepository, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return snap.Repositories, nil
}

func (s *SQLite) ListEligible(ctx context.Context, owner string, limit int) ([]model.StoredRepository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+repositoryColumns+` FROM repositories
		WHERE owner = ? AND is_eligible = 1
		ORDER BY fetched_at DESC, repo_id
		LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	repos, _, err := s.scanRepositories(rows)
	return repos, err
}

func (s *SQLite) Status(ctx context.Context, owner string) (model.OwnerStatus, error) {
	var (
		count     int64
		lastFetch sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(fetched_at) FROM repositories WHERE owner = ?`, owner).Scan(&count, &lastFetch)
	if err != nil {
		return model.OwnerStatus{}, err
	}

	status := model.OwnerStatus{Owner: owner, RepositoryCount: count}
	if lastFetch.Valid {
		t, err := datetime.ParseExternal(lastFetch.String)
		if err != nil {
			return model.OwnerStatus{}, err
		}
		status.LastFetch = &t
	}
	return status, nil
}

// Apply writes the work-list inside one transaction.
func (s *SQLite) Apply(ctx context.Context, owner string, wl WorkList) (Counts, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	fetchedAt := formatTime(s.now())
	counts := Counts{Skipped: len(wl.Skipped)}

	for _, id := range wl.Deletions {
		res, err := tx.ExecContext(ctx, `DELETE FROM repositories WHERE repo_id = ? AND owner = ?`, id, owner)
		if err != nil {
			return Counts{}, fmt.Errorf("delete repository %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Counts{}, err
		}
		if n > 0 {
			counts.Deleted++
			counts.DeletedIDs = append(counts.DeletedIDs, id)
		}
	}

	for _, r := range wl.Upserts {
		topics, err := encodeList(r.Topics)
		if err != nil {
			return Counts{}, fmt.Errorf("encode repository %d: %w", r.ID, err)
		}
		langs, err := encodeList(r.Languages)
		if err != nil {
			return Counts{}, fmt.Errorf("encode repository %d: %w", r.ID, err)
		}

		_, err = tx.ExecContext(ctx, sqliteUpsert,
			r.ID,
			owner,
			r.Name,
			r.URL,
			toSQLNullString(r.Description),
			toSQLNullString(r.Language),
			string(topics),
			formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt),
			r.Stars,
			r.Forks,
			fetchedAt,
			r.HasContent(),
			toSQLNullString(r.Content),
			string(langs),
			true,
		)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert repository %d: %w", r.ID, err)
		}
		counts.Processed++
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, err
	}
	return counts, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// scanRepositories decodes rows. A row whose lists or timestamps do not decode
// is skipped and its ID returned in malformed; only driver errors fail the scan.
func (s *SQLite) scanRepositories(rows *sql.Rows) (out []model.StoredRepository, malformed []int64, err error) {
	defer rows.Close()

	for rows.Next() {
		var (
			r                               model.StoredRepository
			description, language, readme   sql.NullString
			topics, langs                   string
			createdAt, updatedAt, fetchedAt string
		)
		if err := rows.Scan(
			&r.RepoID,
			&r.Owner,
			&r.Name,
			&r.URL,
			&description,
			&language,
			&topics,
			&createdAt,
			&updatedAt,
			&r.Stars,
			&r.Forks,
			&fetchedAt,
			&r.HasReadme,
			&readme,
			&langs,
			&r.IsEligible,
		); err != nil {
			return nil, nil, err
		}

		if err := decodeRow(&r, topics, langs, createdAt, updatedAt, fetchedAt); err != nil {
			s.logger.Warn("Skipping undecodable stored repository", "owner", r.Owner, "repo_id", r.RepoID, "error", err)
			malformed = append(malformed, r.RepoID)
			continue
		}
		r.Description = fromSQLNullString(description)
		r.Language = fromSQLNullString(language)
		r.ReadmeContent = fromSQLNullString(readme)

		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return out, malformed, nil
}

func decodeRow(r *model.StoredRepository, topics, langs, createdAt, updatedAt, fetchedAt string) error {
	var err error
	if r.Topics, err = decodeList([]byte(topics)); err != nil {
		return fmt.Errorf("decode topics: %w", err)
	}
	if r.Languages, err = decodeList([]byte(langs)); err != nil {
		return fmt.Errorf("decode languages: %w", err)
	}
	if r.RepoCreatedAt, err = datetime.ParseExternal(createdAt); err != nil {
		return err
	}
	if r.RepoUpdatedAt, err = datetime.ParseExternal(updatedAt); err != nil {
		return err
	}
	if r.FetchedAt, err = datetime.ParseExternal(fetchedAt); err != nil {
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	return datetime.Normalize(t).Format(sqliteTimeLayout)
}

func toSQLNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{
		String: *s,
		Valid:  true,
	}
}

func fromSQLNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
