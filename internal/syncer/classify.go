// internal/syncer/classify.go
package syncer

import (
	"github-repo-sync/internal/datetime"
	"github-repo-sync/internal/model"
)

// Classification is the verdict for one upstream repository against the store.
type Classification int

const (
	ClassNew Classification = iota
	ClassChanged
	ClassUnchanged
)

func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassChanged:
		return "changed"
	case ClassUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Classify compares only last-modified instants. A stored snapshot at least as
// fresh as upstream, including an exactly equal one, is unchanged.
func Classify(upstream model.UpstreamRepository, stored *model.StoredRepository) Classification {
	if stored == nil {
		return ClassNew
	}
	if datetime.Compare(stored.RepoUpdatedAt, upstream.UpdatedAt) >= 0 {
		return ClassUnchanged
	}
	return ClassChanged
}
