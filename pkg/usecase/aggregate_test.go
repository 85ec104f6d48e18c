package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
	"github.com/clinboard/clinboard/pkg/usecase"
)

func TestReduceAverages(t *testing.T) {
	c1 := types.CoordinatorID("coord-1")
	c2 := types.CoordinatorID("coord-2")
	week1 := time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	rows := []*model.WeeklyMetric{
		{CoordinatorID: c1, WeekStart: week1, MeetingHours: 2, ScreeningHours: 6, QueryHours: 1, ScreeningStudyCount: 2, QueryStudyCount: 2},
		{CoordinatorID: c1, WeekStart: week2, MeetingHours: 6, ScreeningHours: 10, QueryHours: 5, ScreeningStudyCount: 4, QueryStudyCount: 2},
		{CoordinatorID: c2, WeekStart: week2, MeetingHours: 3, ScreeningHours: 4, QueryHours: 3},
	}

	averages := usecase.ReduceAverages(rows)
	gt.Equal(t, len(averages), 2)

	avg1 := averages[c1]
	gt.NotNil(t, avg1)
	gt.Equal(t, avg1.MeetingHours, 4.0)
	gt.Equal(t, avg1.ScreeningHours, 8.0)
	gt.Equal(t, avg1.QueryHours, 3.0)
	gt.Equal(t, avg1.ScreeningStudyCount, 3.0)
	gt.Equal(t, avg1.QueryStudyCount, 2.0)
	gt.Equal(t, avg1.Entries, 2)
	gt.Equal(t, avg1.LastWeekStart, week2)

	avg2 := averages[c2]
	gt.NotNil(t, avg2)
	gt.Equal(t, avg2.MeetingHours, 3.0)
	gt.Equal(t, avg2.Entries, 1)
	gt.Equal(t, avg2.LastWeekStart, week2)
}

func TestReduceAveragesEmpty(t *testing.T) {
	averages := usecase.ReduceAverages(nil)
	gt.Equal(t, len(averages), 0)
}
