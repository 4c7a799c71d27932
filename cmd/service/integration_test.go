//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-repo-sync/internal/credentials"
	"github-repo-sync/internal/model"
	"github-repo-sync/internal/store"
	"github-repo-sync/internal/syncer"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Get the connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	require.NoError(t, store.MigratePostgres(connStr))

	// Create a connection pool
	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Teardown function to be called by the test
	teardown := func() {
		dbpool.Close()
		err := pgContainer.Terminate(ctx)
		require.NoError(t, err)
	}

	return dbpool, teardown
}

// fakeGitHub serves a mutable listing of repositories for one account.
type fakeGitHub struct {
	mu        sync.Mutex
	repos     []string
	failPage  int
	readmeHit map[string]int
}

func (f *fakeGitHub) set(repos ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos = repos
}

func (f *fakeGitHub) failOn(page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPage = page
}

func (f *fakeGitHub) readmeHits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readmeHit[name]
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/users/test-owner/repos":
		page := r.URL.Query().Get("page")
		if page == fmt.Sprint(f.failPage) {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if page != "1" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte("["))
		for i, repo := range f.repos {
			if i > 0 {
				w.Write([]byte(","))
			}
			fmt.Fprintf(w, `{"id":%d,"name":%q,"html_url":"https://github.com/test-owner/%s","topics":["go"],
				"created_at":"2023-01-01T00:00:00Z","updated_at":"2024-01-01T12:00:00Z","stargazers_count":3,"forks_count":1}`,
				100+i, repo, repo)
		}
		w.Write([]byte("]"))
	case r.URL.Path == "/repos/test-owner/alpha/readme":
		f.readmeHit["alpha"]++
		w.Write([]byte(`{"type":"file","encoding":"base64","content":"IyBBbHBoYQ=="}`))
	case r.URL.Path == "/repos/test-owner/alpha/languages":
		w.Write([]byte(`{"Go":1200,"Shell":40}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestReconcile_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	gh := &fakeGitHub{repos: []string{"alpha", "beta", "gamma"}, readmeHit: map[string]int{}}
	server := httptest.NewServer(gh)
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := store.NewPostgres(dbpool, logger)
	reconciler := syncer.NewReconciler(st, syncer.GitHubFactory(server.URL, 5*time.Second, logger), logger)
	svc := syncer.NewService(reconciler, credentials.Fixed("test-token"), time.Minute, logger)

	// --- first pass stores everything ---
	outcome, err := svc.Refresh(ctx, "test-owner")
	require.NoError(t, err)
	assert.True(t, outcome.Complete)
	assert.Equal(t, 3, outcome.Processed)

	repos, err := st.ListByOwner(ctx, "test-owner")
	require.NoError(t, err)
	require.Len(t, repos, 3)
	alpha := findRepo(t, repos, "alpha")
	assert.True(t, alpha.HasReadme)
	require.NotNil(t, alpha.ReadmeContent)
	assert.Equal(t, "# Alpha", *alpha.ReadmeContent)
	assert.Equal(t, []string{"Go", "Shell"}, alpha.Languages)
	assert.Equal(t, []string{"go"}, alpha.Topics)
	assert.False(t, findRepo(t, repos, "beta").HasReadme)

	// --- second pass is a no-op ---
	outcome, err = svc.Refresh(ctx, "test-owner")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Processed)
	assert.Equal(t, 3, outcome.Skipped)
	assert.Equal(t, 1, gh.readmeHits("alpha"))

	// --- a failing page suppresses deletions ---
	gh.set("alpha")
	gh.failOn(2)
	outcome, err = svc.Refresh(ctx, "test-owner")
	require.NoError(t, err)
	assert.False(t, outcome.Complete)
	assert.Equal(t, 0, outcome.Deleted)
	status, err := st.Status(ctx, "test-owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), status.RepositoryCount)

	// --- a complete listing removes what disappeared upstream ---
	gh.failOn(0)
	outcome, err = svc.Refresh(ctx, "test-owner")
	require.NoError(t, err)
	assert.True(t, outcome.Complete)
	assert.Equal(t, 2, outcome.Deleted)
	repos, err = st.ListByOwner(ctx, "test-owner")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "alpha", repos[0].Name)
}

func TestPostgresApply_RollsBackOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	st := store.NewPostgres(dbpool, logger)
	repo := func(id int64) model.EnrichedRepository {
		return model.EnrichedRepository{UpstreamRepository: model.UpstreamRepository{
			ID: id, Name: fmt.Sprintf("r%d", id), UpdatedAt: time.Now().UTC(), CreatedAt: time.Now().UTC(),
		}}
	}

	_, err := st.Apply(ctx, "test-owner", store.WorkList{Upserts: []model.EnrichedRepository{repo(1)}})
	require.NoError(t, err)

	_, err = dbpool.Exec(ctx, `
		CREATE FUNCTION reject_999() RETURNS trigger AS $$
		BEGIN
			IF NEW.repo_id = 999 THEN RAISE EXCEPTION 'rejected'; END IF;
			RETURN NEW;
		END $$ LANGUAGE plpgsql;
		CREATE TRIGGER reject_999 BEFORE INSERT ON repositories
			FOR EACH ROW EXECUTE FUNCTION reject_999();`)
	require.NoError(t, err)

	_, err = st.Apply(ctx, "test-owner", store.WorkList{
		Deletions: []int64{1},
		Upserts:   []model.EnrichedRepository{repo(2), repo(999)},
	})
	require.Error(t, err)

	repos, err := st.ListByOwner(ctx, "test-owner")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, int64(1), repos[0].RepoID)
}

func findRepo(t *testing.T, repos []model.StoredRepository, name string) model.StoredRepository {
	t.Helper()
	for _, r := range repos {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("repository %q not stored", name)
	return model.StoredRepository{}
}
