package model

import (
	"time"
)

// TrendPoint is one week of the coordinator-visible workload trend chart.
// Actual is populated only for past weeks and Forecast only for the current
// and future weeks; they are mutually exclusive by construction.
type TrendPoint struct {
	WeekStart time.Time `json:"weekStart"`
	Actual    float64   `json:"actual"`
	Forecast  float64   `json:"forecast"`
}

// TrendSeries is the 8-point weekly trend, ascending by week start
type TrendSeries struct {
	Points []TrendPoint `json:"points"`
}

// WeekStart returns the Monday (UTC, midnight) of the week containing t
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	// time.Weekday counts Sunday as 0
	offset := (weekday + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
