// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-repo-sync/internal/credentials"
	custom_errors "github-repo-sync/internal/errors"
	"github-repo-sync/internal/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	// retryAfterSeconds is suggested to clients after an incomplete pass.
	retryAfterSeconds = 60
)

// Syncer runs reconciliation passes on demand.
type Syncer interface {
	Refresh(ctx context.Context, owner string) (model.Outcome, error)
	RefreshWith(ctx context.Context, owner string, creds credentials.Source) (model.Outcome, error)
}

// RepositoryReader is the read side of the local store.
type RepositoryReader interface {
	ListEligible(ctx context.Context, owner string, limit int) ([]model.StoredRepository, error)
	Status(ctx context.Context, owner string) (model.OwnerStatus, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	syncer Syncer
	repos  RepositoryReader
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(syncer Syncer, repos RepositoryReader, logger *slog.Logger) http.Handler {
	h := &Handler{
		syncer: syncer,
		repos:  repos,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1/accounts/{account}", func(r chi.Router) {
		r.Post("/sync", h.syncAccount)
		r.Get("/repos", h.listRepositories)
		r.Get("/status", h.accountStatus)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type syncResponse struct {
	Account   string `json:"account"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Deleted   int    `json:"deleted"`
	Rejected  int    `json:"rejected"`
	Complete  bool   `json:"complete"`
	Error     string `json:"error,omitempty"`
}

// syncAccount runs a reconciliation pass for the account.
// POST /v1/accounts/{account}/sync
//
// A bearer token on the request is used for this pass instead of the
// configured credentials.
func (h *Handler) syncAccount(w http.ResponseWriter, r *http.Request) {
	account := model.CanonicalOwner(chi.URLParam(r, "account"))

	var (
		outcome model.Outcome
		err     error
	)
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		outcome, err = h.syncer.RefreshWith(r.Context(), account, credentials.Fixed(strings.TrimSpace(token)))
	} else {
		outcome, err = h.syncer.Refresh(r.Context(), account)
	}
	if err != nil {
		var missing *custom_errors.MissingCredentialsError
		if errors.As(err, &missing) {
			respondWithError(w, http.StatusBadRequest, "No GitHub credentials available for this account")
			return
		}
		h.logger.Error("Failed to sync account", "account", account, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Synchronization failed")
		return
	}

	resp := syncResponse{
		Account:   account,
		Processed: outcome.Processed,
		Skipped:   outcome.Skipped,
		Deleted:   outcome.Deleted,
		Rejected:  len(outcome.RejectedIDs),
		Complete:  outcome.Complete,
	}
	if !outcome.Complete {
		resp.Error = "sync incomplete: repository listing ended early, retry later"
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

type repositoriesResponse struct {
	Account      string                   `json:"account"`
	TotalCount   int64                    `json:"total_count"`
	LastSync     *time.Time               `json:"last_sync"`
	Repositories []model.StoredRepository `json:"repositories"`
}

// listRepositories returns the account's eligible repositories, most recently fetched first.
// GET /v1/accounts/{account}/repos?limit=N
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	account := model.CanonicalOwner(chi.URLParam(r, "account"))

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 || n > maxListLimit {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
			return
		}
		limit = n
	}

	repos, err := h.repos.ListEligible(r.Context(), account, limit)
	if err != nil {
		h.logger.Error("Failed to list repositories", "account", account, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	status, err := h.repos.Status(r.Context(), account)
	if err != nil {
		h.logger.Error("Failed to get account status", "account", account, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if repos == nil {
		repos = []model.StoredRepository{}
	}
	respondWithJSON(w, http.StatusOK, repositoriesResponse{
		Account:      account,
		TotalCount:   status.RepositoryCount,
		LastSync:     status.LastFetch,
		Repositories: repos,
	})
}

// accountStatus reports how many repositories are stored and when they were last fetched.
// GET /v1/accounts/{account}/status
func (h *Handler) accountStatus(w http.ResponseWriter, r *http.Request) {
	account := model.CanonicalOwner(chi.URLParam(r, "account"))

	status, err := h.repos.Status(r.Context(), account)
	if err != nil {
		h.logger.Error("Failed to get account status", "account", account, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}
