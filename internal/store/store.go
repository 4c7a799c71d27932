// internal/store/store.go

// Package store persists repository snapshots per owning account and applies a
// reconciliation work-list as a single transaction.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github-repo-sync/internal/model"
)

// Supported values for the DB_DRIVER setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// WorkList is everything one reconciliation pass wants written.
type WorkList struct {
	Upserts   []model.EnrichedRepository
	Deletions []int64
	// Skipped lists unchanged repositories; they are counted, never written.
	Skipped []int64
}

// Counts reports what Apply did. DeletedIDs holds only rows that actually existed.
type Counts struct {
	Processed  int
	Skipped    int
	Deleted    int
	DeletedIDs []int64
}

// Snapshot is what is stored for one owner. Rows that could not be decoded
// are left out of Repositories and listed by ID in Malformed.
type Snapshot struct {
	Repositories []model.StoredRepository
	Malformed    []int64
}

// Store is the local repository store.
type Store interface {
	// Snapshot returns every stored repository of owner, reporting undecodable rows apart.
	Snapshot(ctx context.Context, owner string) (Snapshot, error)
	// ListByOwner returns every decodable stored repository of owner.
	ListByOwner(ctx context.Context, owner string) ([]model.StoredRepository, error)
	// ListEligible returns up to limit eligible repositories, most recently fetched first.
	ListEligible(ctx context.Context, owner string, limit int) ([]model.StoredRepository, error)
	// Status summarizes what is stored for owner.
	Status(ctx context.Context, owner string) (model.OwnerStatus, error)
	// Apply writes the work-list atomically: all of it lands or none of it does.
	Apply(ctx context.Context, owner string, wl WorkList) (Counts, error)
	Close() error
}

// Open connects to the configured driver and applies pending migrations.
func Open(ctx context.Context, driver, url string, logger *slog.Logger) (Store, error) {
	switch driver {
	case DriverPostgres:
		return OpenPostgres(ctx, url, logger)
	case DriverSQLite:
		return OpenSQLite(ctx, url, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// encodeList serializes topics and language sets, keeping their order.
func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func decodeList(raw []byte) ([]string, error) {
	items := []string{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
