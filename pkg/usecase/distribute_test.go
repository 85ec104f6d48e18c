package usecase_test

import (
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/usecase"
)

func TestCoverageDenominator(t *testing.T) {
	cases := []struct {
		name              string
		avg               model.CoordinatorAverage
		assignedStudies   int
		studyCoordinators int
		want              float64
	}{
		{
			name: "screening count wins",
			avg:  model.CoordinatorAverage{ScreeningStudyCount: 3, QueryStudyCount: 5},
			want: 3,
		},
		{
			name: "query count is second",
			avg:  model.CoordinatorAverage{QueryStudyCount: 5},
			want: 5,
		},
		{
			name:            "assigned study count is third",
			avg:             model.CoordinatorAverage{},
			assignedStudies: 4,
			want:            4,
		},
		{
			name:              "coordinators on study is last",
			avg:               model.CoordinatorAverage{},
			studyCoordinators: 2,
			want:              2,
		},
		{
			name: "nothing available falls to 1",
			avg:  model.CoordinatorAverage{},
			want: 1,
		},
		{
			name: "fractional counts are floored at 1",
			avg:  model.CoordinatorAverage{ScreeningStudyCount: 0.5},
			want: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := usecase.CoverageDenominator(&tc.avg, tc.assignedStudies, tc.studyCoordinators)
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestDistributeWorkloadFairShare(t *testing.T) {
	s1 := types.StudyID("study-1")
	s2 := types.StudyID("study-2")
	s3 := types.StudyID("study-3")
	c1 := types.CoordinatorID("coord-1")

	assignments := model.BuildAssignmentMap([]model.Assignment{
		{StudyID: s1, CoordinatorID: c1},
		{StudyID: s2, CoordinatorID: c1},
		{StudyID: s3, CoordinatorID: c1},
	})
	week := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	averages := map[types.CoordinatorID]*model.CoordinatorAverage{
		c1: {
			CoordinatorID:       c1,
			MeetingHours:        6,
			ScreeningHours:      9,
			QueryHours:          3,
			ScreeningStudyCount: 3,
			Entries:             4,
			LastWeekStart:       week,
		},
	}

	loads := usecase.DistributeWorkload([]types.StudyID{s1, s2, s3}, assignments, averages)

	gt.Equal(t, len(loads), 3)
	for _, id := range []types.StudyID{s1, s2, s3} {
		load := loads[id]
		gt.NotNil(t, load)
		gt.Equal(t, load.MeetingHours, 2.0)
		gt.Equal(t, load.ScreeningHours, 3.0)
		gt.Equal(t, load.QueryHours, 1.0)
		gt.Equal(t, load.Contributors, 1)
		gt.Equal(t, load.Entries, 4)
		gt.Equal(t, load.LastWeekStart, week)
	}

	// The unreported query coverage substitutes 1 over the same denominator,
	// so the per-study shares sum to about one
	var querySum float64
	for _, load := range loads {
		querySum += load.QueryStudyCount
	}
	gt.True(t, math.Abs(querySum-1) < 1e-9)
}

func TestDistributeWorkloadMultipleContributors(t *testing.T) {
	s1 := types.StudyID("study-1")
	c1 := types.CoordinatorID("coord-1")
	c2 := types.CoordinatorID("coord-2")

	assignments := model.BuildAssignmentMap([]model.Assignment{
		{StudyID: s1, CoordinatorID: c1},
		{StudyID: s1, CoordinatorID: c2},
	})
	older := time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	averages := map[types.CoordinatorID]*model.CoordinatorAverage{
		c1: {CoordinatorID: c1, MeetingHours: 4, Entries: 2, LastWeekStart: older},
		c2: {CoordinatorID: c2, MeetingHours: 2, Entries: 3, LastWeekStart: newer},
	}

	loads := usecase.DistributeWorkload([]types.StudyID{s1}, assignments, averages)
	load := loads[s1]
	gt.NotNil(t, load)

	// Neither coordinator reports coverage and each is assigned to one
	// study, so their full averages land here
	gt.Equal(t, load.MeetingHours, 6.0)
	gt.Equal(t, load.Contributors, 2)
	gt.Equal(t, load.Entries, 5)
	gt.Equal(t, load.LastWeekStart, newer)
}

func TestDistributeWorkloadNoData(t *testing.T) {
	s1 := types.StudyID("study-1")
	c1 := types.CoordinatorID("coord-1")

	assignments := model.BuildAssignmentMap([]model.Assignment{
		{StudyID: s1, CoordinatorID: c1},
	})

	// Assigned but nothing reported in the window
	loads := usecase.DistributeWorkload([]types.StudyID{s1}, assignments, nil)
	load := loads[s1]
	gt.NotNil(t, load)
	gt.Equal(t, load.Contributors, 0)
	gt.Equal(t, load.MeetingHours, 0.0)
	gt.Equal(t, load.Entries, 0)
}

func TestDistributeWorkloadUnassignedStudy(t *testing.T) {
	s1 := types.StudyID("study-1")

	loads := usecase.DistributeWorkload([]types.StudyID{s1}, model.BuildAssignmentMap(nil), nil)

	// Every requested study gets a load entry, even an empty one
	load := loads[s1]
	gt.NotNil(t, load)
	gt.Equal(t, load.Contributors, 0)
}
