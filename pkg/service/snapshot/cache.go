package snapshot

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Cache partitions workload reads into fresh and stale studies and persists
// recomputed responses with a time-based expiry.
//
// There is deliberately no locking around compute-then-store: two
// concurrent requests seeing the same stale study may both recompute and
// upsert. The upsert is idempotent and convergent, so the race at worst
// doubles work; callers needing single-flight semantics must deduplicate
// themselves.
type Cache struct {
	repo interfaces.Repository
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the cache's time source (useful for testing
// freshness)
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a snapshot cache over the repository with the given TTL
func New(repo interfaces.Repository, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches snapshots for the requested studies and partitions them
// into fresh snapshots and a stale ID set. A study is stale when it has no
// snapshot or the snapshot has expired. On a read failure every requested
// study is reported stale: the cache fails open toward recomputation
// rather than serving nothing.
func (c *Cache) Lookup(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WorkloadSnapshot, []types.StudyID, error) {
	if len(ids) == 0 {
		return map[types.StudyID]*model.WorkloadSnapshot{}, nil, nil
	}

	rows, err := c.repo.GetSnapshots(ctx, ids)
	if err != nil {
		ctxlog.From(ctx).Warn("snapshot lookup failed, recomputing all requested studies",
			"error", err,
			"studies", len(ids),
		)
		stale := make([]types.StudyID, len(ids))
		copy(stale, ids)
		return map[types.StudyID]*model.WorkloadSnapshot{}, stale, nil
	}

	now := c.now()
	fresh := make(map[types.StudyID]*model.WorkloadSnapshot, len(rows))
	var stale []types.StudyID
	for _, id := range ids {
		snap := rows[id]
		if snap.Fresh(now) {
			fresh[id] = snap
		} else {
			stale = append(stale, id)
		}
	}
	return fresh, stale, nil
}

// Store upserts one snapshot row per response with computedAt set to the
// current time and expiresAt one TTL later. Storing the same study again
// overwrites its row. A write failure is propagated: consistency of the
// cache is preferred over best-effort serving.
func (c *Cache) Store(ctx context.Context, responses []*model.WorkloadResponse) error {
	if len(responses) == 0 {
		return nil
	}

	now := c.now()
	snapshots := make([]*model.WorkloadSnapshot, 0, len(responses))
	for _, resp := range responses {
		snapshots = append(snapshots, &model.WorkloadSnapshot{
			StudyID:    resp.StudyID,
			Payload:    resp,
			ComputedAt: now,
			ExpiresAt:  now.Add(c.ttl),
		})
	}

	if err := c.repo.PutSnapshots(ctx, snapshots); err != nil {
		return goerr.Wrap(err, "failed to store workload snapshots",
			goerr.V("studies", len(snapshots)))
	}
	return nil
}
