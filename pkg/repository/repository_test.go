package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/repository"
)

func TestMemoryStudies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	gt.NoError(t, repo.PutStudy(&model.Study{ID: s1, Title: "Cardio Phase III"}))

	studies, err := repo.ListStudies(ctx, []types.StudyID{s1, "no-such-study"})
	gt.NoError(t, err)
	gt.Equal(t, len(studies), 1)
	gt.Equal(t, studies[0].ID, s1)
	gt.Equal(t, studies[0].Title, "Cardio Phase III")

	// Returned values are copies; mutating them must not leak back
	studies[0].Title = "mutated"
	again, err := repo.ListStudies(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, again[0].Title, "Cardio Phase III")
}

func TestMemoryStudyValidation(t *testing.T) {
	repo := repository.NewMemory()
	gt.Error(t, repo.PutStudy(nil))
	gt.Error(t, repo.PutStudy(&model.Study{}))
	gt.Error(t, repo.PutWeightConfig("", model.DefaultWeightConfig()))
	gt.Error(t, repo.PutWeightConfig(types.StudyID("study-1"), nil))
	gt.Error(t, repo.PutAssignment(model.Assignment{StudyID: "study-1"}))
	gt.Error(t, repo.PutWeeklyMetric(&model.WeeklyMetric{
		CoordinatorID: "coord-1",
		WeekStart:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		MeetingHours:  -1,
	}))
}

func TestMemoryRawScores(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	gt.NoError(t, repo.PutRawScores(s1, &model.RawScores{Now: 5, Actuals: 4, Forecast: 6}))

	nows, err := repo.GetRawScoresNow(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, nows[s1], 5.0)

	actuals, err := repo.GetRawScoresActuals(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, actuals[s1], 4.0)

	forecasts, err := repo.GetRawScoresForecast(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, forecasts[s1], 6.0)
}

func TestMemorySchemaDegradation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")
	c1 := types.CoordinatorID("coord-1")

	gt.NoError(t, repo.PutWeightConfig(s1, model.DefaultWeightConfig()))
	gt.NoError(t, repo.PutRawScores(s1, &model.RawScores{Now: 5}))
	gt.NoError(t, repo.PutAssignment(model.Assignment{StudyID: s1, CoordinatorID: c1}))
	gt.NoError(t, repo.PutWeeklyMetric(&model.WeeklyMetric{
		CoordinatorID: c1,
		WeekStart:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		MeetingHours:  4,
	}))

	// With every optional relation absent, reads degrade to empty defaults
	repo.SetSchemaStatus(model.SchemaStatus{})

	weights, err := repo.GetWeightConfigs(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(weights), 0)

	nows, err := repo.GetRawScoresNow(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(nows), 0)

	assignments, err := repo.ListAssignments(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(assignments), 0)

	metrics, err := repo.ListWeeklyMetrics(ctx, []types.CoordinatorID{c1}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, len(metrics), 0)
}

func TestMemoryLegacyMetricsLayout(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	c1 := types.CoordinatorID("coord-1")

	gt.NoError(t, repo.PutWeeklyMetric(&model.WeeklyMetric{
		CoordinatorID:       c1,
		WeekStart:           time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		MeetingHours:        4,
		ScreeningHours:      8,
		QueryHours:          3,
		ScreeningStudyCount: 3,
		QueryStudyCount:     2,
	}))

	schema := model.FullSchema()
	schema.Metrics = model.MetricsLayoutLegacy
	repo.SetSchemaStatus(schema)

	// The legacy layout keeps the hours but has no study count columns
	metrics, err := repo.ListWeeklyMetrics(ctx, []types.CoordinatorID{c1}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, len(metrics), 1)
	gt.Equal(t, metrics[0].MeetingHours, 4.0)
	gt.Equal(t, metrics[0].ScreeningHours, 8.0)
	gt.Equal(t, metrics[0].ScreeningStudyCount, 0.0)
	gt.Equal(t, metrics[0].QueryStudyCount, 0.0)
}

func TestMemoryMetricsWindow(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	c1 := types.CoordinatorID("coord-1")

	inside := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	outside := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for _, week := range []time.Time{inside, outside} {
		gt.NoError(t, repo.PutWeeklyMetric(&model.WeeklyMetric{
			CoordinatorID: c1,
			WeekStart:     week,
			MeetingHours:  1,
		}))
	}

	since := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	metrics, err := repo.ListWeeklyMetrics(ctx, []types.CoordinatorID{c1}, since)
	gt.NoError(t, err)
	gt.Equal(t, len(metrics), 1)
	gt.Equal(t, metrics[0].WeekStart, inside)
}

func TestMemorySnapshotUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	computed := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	put := func(raw float64) error {
		return repo.PutSnapshots(ctx, []*model.WorkloadSnapshot{{
			StudyID:    s1,
			Payload:    &model.WorkloadResponse{StudyID: s1, Now: model.ScorePair{Raw: raw}},
			ComputedAt: computed,
			ExpiresAt:  computed.Add(5 * time.Minute),
		}})
	}

	gt.NoError(t, put(1))
	gt.NoError(t, put(2))
	gt.Equal(t, repo.SnapshotCount(), 1)

	snapshots, err := repo.GetSnapshots(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.NotNil(t, snapshots[s1])
	gt.Equal(t, snapshots[s1].Payload.Now.Raw, 2.0)

	// Unknown studies are simply absent
	snapshots, err = repo.GetSnapshots(ctx, []types.StudyID{"no-such-study"})
	gt.NoError(t, err)
	gt.Equal(t, len(snapshots), 0)
}

func TestMemorySnapshotValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	gt.Error(t, repo.PutSnapshots(ctx, []*model.WorkloadSnapshot{nil}))
	gt.Error(t, repo.PutSnapshots(ctx, []*model.WorkloadSnapshot{{}}))
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	s1 := types.StudyID("study-1")

	gt.NoError(t, repo.PutStudy(&model.Study{ID: s1}))
	repo.SetSchemaStatus(model.SchemaStatus{})
	repo.Clear()

	studies, err := repo.ListStudies(ctx, []types.StudyID{s1})
	gt.NoError(t, err)
	gt.Equal(t, len(studies), 0)

	// Clear restores the fully provisioned schema
	gt.Equal(t, repo.SchemaStatus(), model.FullSchema())
}
