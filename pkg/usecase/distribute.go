package usecase

import (
	"time"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// studyLoad is the per-study aggregate of distributed coordinator effort
type studyLoad struct {
	MeetingHours        float64
	ScreeningHours      float64
	QueryHours          float64
	ScreeningStudyCount float64
	QueryStudyCount     float64
	Contributors        int
	Entries             int
	LastWeekStart       time.Time
}

// coverageDenominator picks the divisor used to split a coordinator's
// averaged effort across studies: the coordinator's self-reported study
// coverage when available, then the count of studies the coordinator is
// assigned to, then the count of coordinators on this study, floor 1.
//
// The fallback chain is a tunable heuristic, not a derived requirement;
// keep changes coordinated with the dashboard owners.
func coverageDenominator(avg *model.CoordinatorAverage, assignedStudies, studyCoordinators int) float64 {
	var d float64
	switch {
	case avg.ScreeningStudyCount > 0:
		d = avg.ScreeningStudyCount
	case avg.QueryStudyCount > 0:
		d = avg.QueryStudyCount
	case assignedStudies > 0:
		d = float64(assignedStudies)
	case studyCoordinators > 0:
		d = float64(studyCoordinators)
	default:
		d = 1
	}
	if d < 1 {
		d = 1
	}
	return d
}

// distributeWorkload apportions each coordinator's averaged metrics across
// their assigned studies. A coordinator splitting attention over N studies
// contributes roughly 1/N of their average hours to each.
//
// Coverage counts are accumulated with the same denominator; when a
// coordinator reported no count of their own, 1 is substituted so the
// coordinator's coverage contributions still sum to about one across their
// studies.
func distributeWorkload(ids []types.StudyID, assignments *model.AssignmentMap, averages map[types.CoordinatorID]*model.CoordinatorAverage) map[types.StudyID]*studyLoad {
	loads := make(map[types.StudyID]*studyLoad, len(ids))

	for _, studyID := range ids {
		load := &studyLoad{}
		coordinators := assignments.ByStudy[studyID]

		for _, coordinatorID := range coordinators {
			avg := averages[coordinatorID]
			if avg == nil {
				// No reported data in the window; no contribution
				continue
			}

			denom := coverageDenominator(avg, len(assignments.ByCoordinator[coordinatorID]), len(coordinators))

			load.MeetingHours += avg.MeetingHours / denom
			load.ScreeningHours += avg.ScreeningHours / denom
			load.QueryHours += avg.QueryHours / denom

			screeningCount := avg.ScreeningStudyCount
			if screeningCount == 0 {
				screeningCount = 1
			}
			queryCount := avg.QueryStudyCount
			if queryCount == 0 {
				queryCount = 1
			}
			load.ScreeningStudyCount += screeningCount / denom
			load.QueryStudyCount += queryCount / denom

			load.Contributors++
			load.Entries += avg.Entries
			if avg.LastWeekStart.After(load.LastWeekStart) {
				load.LastWeekStart = avg.LastWeekStart
			}
		}

		loads[studyID] = load
	}

	return loads
}
