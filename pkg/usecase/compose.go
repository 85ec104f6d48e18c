package usecase

import (
	"math"

	"github.com/clinboard/clinboard/pkg/domain/model"
)

// round2 rounds to 2 decimal places, half away from zero. Decimal halves
// sit just under the midpoint in binary (1.005 stores as 1.00499...), so
// the scaled value is nudged one part in 1e12 toward its sign before
// rounding.
func round2(v float64) float64 {
	scaled := v * 100
	scaled += math.Copysign(math.Abs(scaled)*1e-12, v)
	return math.Round(scaled) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// screeningScale converts observed screening effort into a clamped scaling
// factor around the policy baseline. Studies without contributors stay at
// the neutral scale.
func screeningScale(p *model.ScoringPolicy, avgHours float64, contributors int) float64 {
	if contributors <= 0 {
		return 1
	}
	return clamp(avgHours/p.ScreeningBaselineHours, p.ScaleFloor, p.ScaleCeiling)
}

func queryScale(p *model.ScoringPolicy, avgHours float64, contributors int) float64 {
	if contributors <= 0 {
		return 1
	}
	return clamp(avgHours/p.QueryBaselineHours, p.ScaleFloor, p.ScaleCeiling)
}

// meetingPointsAdjustment converts meeting-hour deviation from the baseline
// into admin-point units, capped at +-MeetingAdjustmentCap
func meetingPointsAdjustment(p *model.ScoringPolicy, avgHours float64, contributors int) float64 {
	if contributors <= 0 {
		return 0
	}
	adj := (avgHours - p.MeetingBaselineHours) * p.MeetingPointsPerHour
	return clamp(adj, -p.MeetingAdjustmentCap, p.MeetingAdjustmentCap)
}

// composeWorkload combines a study's configuration weights, raw scores, and
// distributed coordinator metrics into the final weighted response.
//
// The meeting adjustment is folded into now.raw only; actuals and forecast
// are weighted unadjusted. All reported figures are rounded to 2 decimals,
// half away from zero.
func composeWorkload(p *model.ScoringPolicy, study *model.Study, weights *model.WeightConfig, raws model.RawScores, load *studyLoad) *model.WorkloadResponse {
	var w model.WeightConfig
	if weights == nil {
		w = *model.DefaultWeightConfig()
	} else {
		w = *weights
		w.Normalize()
	}

	sScale := screeningScale(p, load.ScreeningHours, load.Contributors)
	qScale := queryScale(p, load.QueryHours, load.Contributors)
	adjustment := meetingPointsAdjustment(p, load.MeetingHours, load.Contributors)

	effScreening := w.ScreeningMultiplier * sScale
	effQuery := w.QueryMultiplier * qScale
	factor := w.LifecycleWeight * w.RecruitmentWeight * effScreening * effQuery

	adjustedNow := raws.Now + adjustment

	return &model.WorkloadResponse{
		StudyID:            study.ID,
		ProtocolNumber:     study.ProtocolNumber,
		Title:              study.Title,
		Lifecycle:          study.Lifecycle,
		Recruitment:        study.Recruitment,
		Status:             study.Status,
		MeetingAdminPoints: study.MeetingAdminPoints,

		LifecycleWeight:   w.LifecycleWeight,
		RecruitmentWeight: w.RecruitmentWeight,
		ProtocolScore:     w.ProtocolScore,

		ScreeningMultiplier:          w.ScreeningMultiplier,
		QueryMultiplier:              w.QueryMultiplier,
		ScreeningMultiplierEffective: effScreening,
		QueryMultiplierEffective:     effQuery,
		MeetingAdminPointsAdjusted:   round2(study.MeetingAdminPoints + adjustment),

		Now: model.ScorePair{
			Raw:      round2(adjustedNow),
			Weighted: round2(adjustedNow * factor),
		},
		Actuals: model.ScorePair{
			Raw:      round2(raws.Actuals),
			Weighted: round2(raws.Actuals * factor),
		},
		Forecast: model.ScorePair{
			Raw:      round2(raws.Forecast),
			Weighted: round2(raws.Forecast * factor),
		},

		Metrics: model.WorkloadMetrics{
			Contributors:            load.Contributors,
			MeetingHoursAvg:         round2(load.MeetingHours),
			ScreeningHoursAvg:       round2(load.ScreeningHours),
			QueryHoursAvg:           round2(load.QueryHours),
			ScreeningScale:          sScale,
			QueryScale:              qScale,
			MeetingPointsAdjustment: adjustment,
			Entries:                 load.Entries,
			LastWeekStart:           load.LastWeekStart,
		},
	}
}
