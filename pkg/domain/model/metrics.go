package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinboard/clinboard/pkg/domain/types"
)

// WeeklyMetric is one coordinator's self-reported metrics for one week.
// Invariant: one row per coordinator per week, non-negative fields.
type WeeklyMetric struct {
	CoordinatorID       types.CoordinatorID
	WeekStart           time.Time
	MeetingHours        float64
	ScreeningHours      float64
	ScreeningStudyCount float64
	QueryHours          float64
	QueryStudyCount     float64
}

// Validate checks the weekly metric invariants
func (m *WeeklyMetric) Validate() error {
	if m.CoordinatorID == "" {
		return goerr.New("coordinator ID is empty")
	}
	if m.WeekStart.IsZero() {
		return goerr.New("week start is zero")
	}
	if m.MeetingHours < 0 || m.ScreeningHours < 0 || m.QueryHours < 0 ||
		m.ScreeningStudyCount < 0 || m.QueryStudyCount < 0 {
		return goerr.New("metric fields must be non-negative",
			goerr.V("coordinatorID", m.CoordinatorID),
			goerr.V("weekStart", m.WeekStart))
	}
	return nil
}

// CoordinatorAverage is the arithmetic mean of a coordinator's weekly
// metrics across the lookback window. Coordinators with no rows in the
// window have no average at all.
type CoordinatorAverage struct {
	CoordinatorID       types.CoordinatorID
	MeetingHours        float64
	ScreeningHours      float64
	ScreeningStudyCount float64
	QueryHours          float64
	QueryStudyCount     float64
	Entries             int
	LastWeekStart       time.Time
}
