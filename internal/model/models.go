// internal/model/models.go
package model

import "time"

// UpstreamRepository is one repository as reported by a page of the listing API.
// Timestamps are already normalized to UTC.
type UpstreamRepository struct {
	ID          int64
	Name        string
	URL         string
	Description *string
	Language    *string
	Topics      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Stars       int
	Forks       int
}

// EnrichedRepository is an upstream record plus the secondary data fetched for it.
type EnrichedRepository struct {
	UpstreamRepository
	Content   *string
	Languages []string
}

// HasContent reports whether a README body was found.
func (r EnrichedRepository) HasContent() bool {
	return r.Content != nil
}

// StoredRepository is the persisted snapshot of a repository for one owning account.
type StoredRepository struct {
	RepoID        int64     `json:"repo_id"`
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Description   *string   `json:"description"`
	Language      *string   `json:"language"`
	Topics        []string  `json:"topics"`
	RepoCreatedAt time.Time `json:"repo_created_at"`
	RepoUpdatedAt time.Time `json:"repo_updated_at"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	FetchedAt     time.Time `json:"fetched_at"`
	HasReadme     bool      `json:"has_readme"`
	ReadmeContent *string   `json:"-"`
	Languages     []string  `json:"languages"`
	IsEligible    bool      `json:"is_eligible"`
}

// OwnerStatus summarizes what is stored for one owning account.
type OwnerStatus struct {
	Owner           string     `json:"owner"`
	RepositoryCount int64      `json:"repository_count"`
	LastFetch       *time.Time `json:"last_fetch"`
}

// Outcome is the report of one reconciliation pass.
type Outcome struct {
	Owner       string
	Processed   int
	Skipped     int
	Deleted     int
	UpsertedIDs []int64
	SkippedIDs  []int64
	DeletedIDs  []int64
	RejectedIDs []int64
	// Complete is false when the listing ended early; deletions were not applied.
	Complete bool
	// Cause holds the listing failure when Complete is false.
	Cause error
}
