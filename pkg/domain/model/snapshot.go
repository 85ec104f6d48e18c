package model

import (
	"time"

	"github.com/clinboard/clinboard/pkg/domain/types"
)

// WorkloadSnapshot is a cached, timestamped copy of a computed workload
// response for one study. Snapshots are written with an idempotent upsert
// keyed on StudyID; re-storing overwrites rather than duplicates.
type WorkloadSnapshot struct {
	StudyID    types.StudyID
	Payload    *WorkloadResponse
	ComputedAt time.Time
	ExpiresAt  time.Time
}

// Fresh reports whether the snapshot is still valid at the given time.
// A snapshot is stale when its expiry has passed.
func (s *WorkloadSnapshot) Fresh(now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
