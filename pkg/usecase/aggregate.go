package usecase

import (
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// reduceAverages reduces weekly metric rows to per-coordinator arithmetic
// means. Coordinators with no rows are absent from the result; callers
// treat absence as "no contribution".
func reduceAverages(rows []*model.WeeklyMetric) map[types.CoordinatorID]*model.CoordinatorAverage {
	sums := make(map[types.CoordinatorID]*model.CoordinatorAverage)

	for _, row := range rows {
		avg := sums[row.CoordinatorID]
		if avg == nil {
			avg = &model.CoordinatorAverage{CoordinatorID: row.CoordinatorID}
			sums[row.CoordinatorID] = avg
		}

		avg.MeetingHours += row.MeetingHours
		avg.ScreeningHours += row.ScreeningHours
		avg.ScreeningStudyCount += row.ScreeningStudyCount
		avg.QueryHours += row.QueryHours
		avg.QueryStudyCount += row.QueryStudyCount
		avg.Entries++
		if row.WeekStart.After(avg.LastWeekStart) {
			avg.LastWeekStart = row.WeekStart
		}
	}

	for _, avg := range sums {
		n := float64(avg.Entries)
		avg.MeetingHours /= n
		avg.ScreeningHours /= n
		avg.ScreeningStudyCount /= n
		avg.QueryHours /= n
		avg.QueryStudyCount /= n
	}

	return sums
}
