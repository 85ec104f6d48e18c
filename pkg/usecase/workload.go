package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/service/snapshot"
)

// Workload computes coordinator workload scores per study and serves them
// through the snapshot cache
type Workload struct {
	repo   interfaces.Repository
	cache  *snapshot.Cache
	policy *model.ScoringPolicy
	now    func() time.Time
}

// WorkloadOption configures a Workload use case
type WorkloadOption func(*Workload)

// WithWorkloadClock overrides the time source (useful for testing)
func WithWorkloadClock(now func() time.Time) WorkloadOption {
	return func(u *Workload) {
		u.now = now
	}
}

// NewWorkload creates a new Workload use case
func NewWorkload(repo interfaces.Repository, cache *snapshot.Cache, policy *model.ScoringPolicy, opts ...WorkloadOption) *Workload {
	u := &Workload{
		repo:   repo,
		cache:  cache,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// GetWorkloads returns the workload responses for the requested studies,
// serving fresh snapshots from the cache and recomputing only the stale
// subset. Recomputed responses are stored before they are returned; a
// failed store aborts the request. With force set the cache is bypassed
// and every requested study is recomputed.
//
// The result keeps the order of the requested IDs; studies with no
// computable result are omitted.
func (u *Workload) GetWorkloads(ctx context.Context, ids []types.StudyID, force bool) (*model.WorkloadList, error) {
	list := &model.WorkloadList{
		Workloads: []*model.WorkloadResponse{},
		Meta:      model.WorkloadListMeta{Studies: len(ids)},
	}
	if len(ids) == 0 {
		return list, nil
	}

	fresh := map[types.StudyID]*model.WorkloadSnapshot{}
	var stale []types.StudyID
	if force {
		stale = ids
		list.Meta.SkippedCache = true
	} else {
		var err error
		fresh, stale, err = u.cache.Lookup(ctx, ids)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to look up workload snapshots",
				goerr.V("studyIDs", ids))
		}
	}

	computed := map[types.StudyID]*model.WorkloadResponse{}
	if len(stale) > 0 {
		responses, err := u.computeBatch(ctx, stale)
		if err != nil {
			return nil, err
		}
		if err := u.cache.Store(ctx, responses); err != nil {
			return nil, err
		}
		for _, resp := range responses {
			computed[resp.StudyID] = resp
		}
		list.Meta.Recomputed = len(responses)
	}

	for _, id := range ids {
		if snap, ok := fresh[id]; ok {
			list.Workloads = append(list.Workloads, snap.Payload)
			list.Meta.CacheHits++
			continue
		}
		if resp, ok := computed[id]; ok {
			list.Workloads = append(list.Workloads, resp)
		}
	}

	return list, nil
}

// computeBatch runs the full scoring pipeline for the given studies:
// load metadata, weights, and raw scores; resolve assignments; average the
// coordinators' weekly metrics over the lookback window; distribute the
// effort fair-share across studies; compose the weighted responses.
//
// An absent weights relation means the feature is not provisioned and the
// whole batch short-circuits to an empty result. Failures from provisioned
// relations abort the batch; no partial results are returned.
func (u *Workload) computeBatch(ctx context.Context, ids []types.StudyID) ([]*model.WorkloadResponse, error) {
	if len(ids) == 0 {
		return []*model.WorkloadResponse{}, nil
	}

	if !u.repo.SchemaStatus().Weights {
		ctxlog.From(ctx).Debug("weight configs not provisioned, returning empty workload batch",
			"studies", len(ids),
		)
		return []*model.WorkloadResponse{}, nil
	}

	studies, err := u.repo.ListStudies(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load studies for workload batch",
			goerr.V("studyIDs", ids))
	}

	// The weight and raw-score queries have no interdependency
	var (
		weights                  map[types.StudyID]*model.WeightConfig
		nows, actuals, forecasts map[types.StudyID]float64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if weights, err = u.repo.GetWeightConfigs(egCtx, ids); err != nil {
			return goerr.Wrap(err, "failed to load weight configs", goerr.V("studyIDs", ids))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if nows, err = u.repo.GetRawScoresNow(egCtx, ids); err != nil {
			return goerr.Wrap(err, "failed to load current raw scores", goerr.V("studyIDs", ids))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if actuals, err = u.repo.GetRawScoresActuals(egCtx, ids); err != nil {
			return goerr.Wrap(err, "failed to load actuals raw scores", goerr.V("studyIDs", ids))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if forecasts, err = u.repo.GetRawScoresForecast(egCtx, ids); err != nil {
			return goerr.Wrap(err, "failed to load forecast raw scores", goerr.V("studyIDs", ids))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	rows, err := u.repo.ListAssignments(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load assignments", goerr.V("studyIDs", ids))
	}
	assignments := model.BuildAssignmentMap(rows)

	averages, err := u.loadAverages(ctx, assignments.Coordinators())
	if err != nil {
		return nil, err
	}

	loads := distributeWorkload(ids, assignments, averages)

	byID := make(map[types.StudyID]*model.Study, len(studies))
	for _, study := range studies {
		byID[study.ID] = study
	}

	responses := make([]*model.WorkloadResponse, 0, len(ids))
	for _, id := range ids {
		study, ok := byID[id]
		if !ok {
			continue
		}
		raws := model.RawScores{
			Now:      nows[id],
			Actuals:  actuals[id],
			Forecast: forecasts[id],
		}
		responses = append(responses, composeWorkload(u.policy, study, weights[id], raws, loads[id]))
	}
	return responses, nil
}

// loadAverages loads weekly metric rows within the lookback window and
// reduces them to per-coordinator averages
func (u *Workload) loadAverages(ctx context.Context, ids []types.CoordinatorID) (map[types.CoordinatorID]*model.CoordinatorAverage, error) {
	if len(ids) == 0 {
		return map[types.CoordinatorID]*model.CoordinatorAverage{}, nil
	}

	since := u.now().UTC().Add(-u.policy.Lookback())
	rows, err := u.repo.ListWeeklyMetrics(ctx, ids, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load weekly metrics",
			goerr.V("coordinatorIDs", ids),
			goerr.V("since", since))
	}
	return reduceAverages(rows), nil
}
