package snapshot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/repository"
	"github.com/clinboard/clinboard/pkg/service/snapshot"
)

func TestCacheFreshThenStale(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	cache := snapshot.New(repo, 5*time.Minute, snapshot.WithClock(func() time.Time { return now }))

	resp := &model.WorkloadResponse{StudyID: s1, Now: model.ScorePair{Raw: 13, Weighted: 23.4}}
	gt.NoError(t, cache.Store(ctx, []*model.WorkloadResponse{resp}))

	fresh, stale, err := cache.Lookup(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(stale), 0)
	gt.NotNil(t, fresh[s1])
	gt.Equal(t, fresh[s1].Payload.Now, resp.Now)

	// Still fresh just inside the TTL
	now = now.Add(5*time.Minute - time.Second)
	fresh, stale, err = cache.Lookup(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(fresh), 1)
	gt.Equal(t, len(stale), 0)

	// Stale exactly at expiry
	now = now.Add(time.Second)
	fresh, stale, err = cache.Lookup(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(fresh), 0)
	gt.Equal(t, stale, []types.StudyID{s1})
}

func TestCacheMissingSnapshotIsStale(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	cache := snapshot.New(repo, 5*time.Minute)

	s1 := types.StudyID("study-1")
	fresh, stale, err := cache.Lookup(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(fresh), 0)
	gt.Equal(t, stale, []types.StudyID{s1})
}

func TestCacheStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	cache := snapshot.New(repo, 5*time.Minute, snapshot.WithClock(func() time.Time { return now }))

	first := &model.WorkloadResponse{StudyID: s1, Now: model.ScorePair{Raw: 1, Weighted: 1}}
	second := &model.WorkloadResponse{StudyID: s1, Now: model.ScorePair{Raw: 2, Weighted: 2}}

	gt.NoError(t, cache.Store(ctx, []*model.WorkloadResponse{first}))
	gt.NoError(t, cache.Store(ctx, []*model.WorkloadResponse{second}))

	// The second store overwrites rather than duplicates
	gt.Equal(t, repo.SnapshotCount(), 1)

	fresh, _, err := cache.Lookup(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, fresh[s1].Payload.Now, second.Now)
}

func TestCacheFailsOpenOnReadError(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")
	s2 := types.StudyID("study-2")

	cache := snapshot.New(repo, 5*time.Minute)
	gt.NoError(t, cache.Store(ctx, []*model.WorkloadResponse{{StudyID: s1}}))

	repo.FailSnapshotReads(errors.New("connection reset"))

	// A read failure reports every study stale instead of erroring
	fresh, stale, err := cache.Lookup(ctx, []types.StudyID{s1, s2})
	gt.NoError(t, err)
	gt.Equal(t, len(fresh), 0)
	gt.Equal(t, stale, []types.StudyID{s1, s2})
}

func TestCachePropagatesWriteError(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	repo.FailSnapshotWrites(errors.New("disk full"))

	cache := snapshot.New(repo, 5*time.Minute)
	err := cache.Store(ctx, []*model.WorkloadResponse{{StudyID: types.StudyID("study-1")}})
	gt.Error(t, err)
}

func TestCacheEmptyInput(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	cache := snapshot.New(repo, 5*time.Minute)

	fresh, stale, err := cache.Lookup(ctx, nil)
	gt.NoError(t, err)
	gt.Equal(t, len(fresh), 0)
	gt.Equal(t, len(stale), 0)

	gt.NoError(t, cache.Store(ctx, nil))
	gt.Equal(t, repo.SnapshotCount(), 0)
}
