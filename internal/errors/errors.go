// internal/errors/errors.go
package errors

import "fmt"

// InvalidAccountTokenError is returned when an ACCOUNT_TOKENS entry is not in 'owner:token' format.
type InvalidAccountTokenError struct {
	Entry string
}

func (e *InvalidAccountTokenError) Error() string {
	return fmt.Sprintf("invalid account token entry: %q, expected 'owner:token'", e.Entry)
}

// MissingCredentialsError is returned when no token is known for an account.
type MissingCredentialsError struct {
	Owner string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("no GitHub credentials available for account %q", e.Owner)
}

// MalformedTimestampError is returned when a timestamp does not parse as ISO-8601.
// RepoID is set when the timestamp belongs to an upstream repository record.
type MalformedTimestampError struct {
	Value  string
	RepoID int64
	Err    error
}

func (e *MalformedTimestampError) Error() string {
	if e.RepoID != 0 {
		return fmt.Sprintf("malformed timestamp %q on repository %d: %v", e.Value, e.RepoID, e.Err)
	}
	return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error { return e.Err }

// PageFetchError is returned when a page of the repository listing could not be fetched.
// The listing stopped early and must not be treated as complete.
type PageFetchError struct {
	Owner      string
	Page       int
	StatusCode int
	Err        error
}

func (e *PageFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching page %d of repositories for %q: status %d: %v", e.Page, e.Owner, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching page %d of repositories for %q: %v", e.Page, e.Owner, e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }

// EnrichmentUnavailableError describes a README or language lookup that degraded to empty.
// It is logged, never returned to the reconciliation caller.
type EnrichmentUnavailableError struct {
	Owner string
	Repo  string
	Kind  string
	Err   error
}

func (e *EnrichmentUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable for %s/%s: %v", e.Kind, e.Owner, e.Repo, e.Err)
}

func (e *EnrichmentUnavailableError) Unwrap() error { return e.Err }

// PersistenceError is returned when the local store rejects a read or the sync batch.
// A failed batch is rolled back in full.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
