package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Trend builds the coordinator-visible workload trend series
type Trend struct {
	repo     interfaces.Repository
	workload *Workload
	policy   *model.ScoringPolicy
	now      func() time.Time
}

// TrendOption configures a Trend use case
type TrendOption func(*Trend)

// WithTrendClock overrides the time source (useful for testing)
func WithTrendClock(now func() time.Time) TrendOption {
	return func(u *Trend) {
		u.now = now
	}
}

// NewTrend creates a new Trend use case
func NewTrend(repo interfaces.Repository, workload *Workload, policy *model.ScoringPolicy, opts ...TrendOption) *Trend {
	u := &Trend{
		repo:     repo,
		workload: workload,
		policy:   policy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// GetTrend produces the weekly trend series for the given studies,
// anchored on the Monday of the current week: historyWeeks points of
// observed coordinator hours (meeting+screening+query summed directly, not
// weight-adjusted) followed by forecastWeeks points carrying an even split
// of the weighted forecast total. Actual and forecast are never both set on
// a point.
//
// The even split of a point-in-time forecast across future weeks is a
// deliberate simplification, not a time-series model.
func (u *Trend) GetTrend(ctx context.Context, ids []types.StudyID) (*model.TrendSeries, error) {
	anchor := model.WeekStart(u.now())

	// Reuses the cached workloads for the forecast total
	list, err := u.workload.GetWorkloads(ctx, ids, false)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute workloads for trend",
			goerr.V("studyIDs", ids))
	}

	var totalForecast float64
	for _, workload := range list.Workloads {
		totalForecast += workload.Forecast.Weighted
	}

	weekTotals, err := u.historicalWeekTotals(ctx, ids, anchor)
	if err != nil {
		return nil, err
	}

	points := make([]model.TrendPoint, 0, u.policy.HistoryWeeks+u.policy.ForecastWeeks)
	for offset := -u.policy.HistoryWeeks; offset < 0; offset++ {
		weekStart := anchor.AddDate(0, 0, 7*offset)
		points = append(points, model.TrendPoint{
			WeekStart: weekStart,
			Actual:    round2(weekTotals[weekStart]),
		})
	}

	forecastPerWeek := round2(totalForecast / float64(u.policy.ForecastWeeks))
	for offset := 0; offset < u.policy.ForecastWeeks; offset++ {
		points = append(points, model.TrendPoint{
			WeekStart: anchor.AddDate(0, 0, 7*offset),
			Forecast:  forecastPerWeek,
		})
	}

	return &model.TrendSeries{Points: points}, nil
}

// historicalWeekTotals sums the raw reported hours of the studies'
// coordinators per historical week
func (u *Trend) historicalWeekTotals(ctx context.Context, ids []types.StudyID, anchor time.Time) (map[time.Time]float64, error) {
	totals := make(map[time.Time]float64, u.policy.HistoryWeeks)

	rows, err := u.repo.ListAssignments(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load assignments for trend",
			goerr.V("studyIDs", ids))
	}
	coordinators := model.BuildAssignmentMap(rows).Coordinators()
	if len(coordinators) == 0 {
		return totals, nil
	}

	since := anchor.AddDate(0, 0, -7*u.policy.HistoryWeeks)
	metrics, err := u.repo.ListWeeklyMetrics(ctx, coordinators, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load weekly metrics for trend",
			goerr.V("coordinatorIDs", coordinators))
	}

	for _, metric := range metrics {
		weekStart := model.WeekStart(metric.WeekStart)
		if weekStart.Before(since) || !weekStart.Before(anchor) {
			continue
		}
		totals[weekStart] += metric.MeetingHours + metric.ScreeningHours + metric.QueryHours
	}
	return totals, nil
}
