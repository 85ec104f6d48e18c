package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ScoringPolicy holds the tunable constants of workload scoring. The
// baselines describe typical weekly coordinator effort; the clamp bounds
// keep outlier self-reports from producing runaway scaling.
type ScoringPolicy struct {
	LookbackDays    int `yaml:"lookbackDays"`
	CacheTTLMinutes int `yaml:"cacheTTLMinutes"`

	ScreeningBaselineHours float64 `yaml:"screeningBaselineHours"`
	QueryBaselineHours     float64 `yaml:"queryBaselineHours"`
	MeetingBaselineHours   float64 `yaml:"meetingBaselineHours"`
	MeetingPointsPerHour   float64 `yaml:"meetingPointsPerHour"`
	MeetingAdjustmentCap   float64 `yaml:"meetingAdjustmentCap"`
	ScaleFloor             float64 `yaml:"scaleFloor"`
	ScaleCeiling           float64 `yaml:"scaleCeiling"`

	HistoryWeeks  int `yaml:"historyWeeks"`
	ForecastWeeks int `yaml:"forecastWeeks"`
}

// DefaultScoringPolicy returns the policy used when no policy file is
// configured
func DefaultScoringPolicy() *ScoringPolicy {
	return &ScoringPolicy{
		LookbackDays:           28,
		CacheTTLMinutes:        5,
		ScreeningBaselineHours: 4,
		QueryBaselineHours:     3,
		MeetingBaselineHours:   2,
		MeetingPointsPerHour:   4,
		MeetingAdjustmentCap:   40,
		ScaleFloor:             0.6,
		ScaleCeiling:           1.8,
		HistoryWeeks:           4,
		ForecastWeeks:          4,
	}
}

// Validate checks the policy for values that would break scoring
func (p *ScoringPolicy) Validate() error {
	if p.LookbackDays <= 0 {
		return goerr.New("lookbackDays must be positive", goerr.V("lookbackDays", p.LookbackDays))
	}
	if p.CacheTTLMinutes <= 0 {
		return goerr.New("cacheTTLMinutes must be positive", goerr.V("cacheTTLMinutes", p.CacheTTLMinutes))
	}
	if p.ScreeningBaselineHours <= 0 || p.QueryBaselineHours <= 0 {
		return goerr.New("scale baselines must be positive",
			goerr.V("screeningBaselineHours", p.ScreeningBaselineHours),
			goerr.V("queryBaselineHours", p.QueryBaselineHours))
	}
	if p.ScaleFloor <= 0 || p.ScaleCeiling < p.ScaleFloor {
		return goerr.New("invalid scale bounds",
			goerr.V("scaleFloor", p.ScaleFloor),
			goerr.V("scaleCeiling", p.ScaleCeiling))
	}
	if p.MeetingAdjustmentCap < 0 {
		return goerr.New("meetingAdjustmentCap must be non-negative",
			goerr.V("meetingAdjustmentCap", p.MeetingAdjustmentCap))
	}
	if p.HistoryWeeks <= 0 || p.ForecastWeeks <= 0 {
		return goerr.New("trend window must be positive",
			goerr.V("historyWeeks", p.HistoryWeeks),
			goerr.V("forecastWeeks", p.ForecastWeeks))
	}
	return nil
}

// CacheTTL returns the snapshot time-to-live as a duration
func (p *ScoringPolicy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

// Lookback returns the metrics lookback window as a duration
func (p *ScoringPolicy) Lookback() time.Duration {
	return time.Duration(p.LookbackDays) * 24 * time.Hour
}
