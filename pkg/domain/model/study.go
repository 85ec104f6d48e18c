package model

import (
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Study represents the study metadata supplied by the record-management
// collaborators. It is immutable for the duration of one computation pass.
type Study struct {
	ID                 types.StudyID        `json:"studyId"`
	ProtocolNumber     types.ProtocolNumber `json:"protocolNumber"`
	Title              string               `json:"title"`
	Lifecycle          string               `json:"lifecycle"`
	Recruitment        string               `json:"recruitment"`
	Status             string               `json:"status"`
	MeetingAdminPoints float64              `json:"meetingAdminPoints"`
}

// WeightConfig holds the per-study scoring weights. Absent fields default
// to neutral values via DefaultWeightConfig.
type WeightConfig struct {
	LifecycleWeight     float64 `json:"lifecycleWeight"`
	RecruitmentWeight   float64 `json:"recruitmentWeight"`
	ScreeningMultiplier float64 `json:"screeningMultiplier"`
	QueryMultiplier     float64 `json:"queryMultiplier"`
	ProtocolScore       float64 `json:"protocolScore"`
}

// DefaultWeightConfig returns the neutral weight configuration used when a
// study has no configured weights
func DefaultWeightConfig() *WeightConfig {
	return &WeightConfig{
		LifecycleWeight:     1,
		RecruitmentWeight:   1,
		ScreeningMultiplier: 1,
		QueryMultiplier:     1,
		ProtocolScore:       0,
	}
}

// Normalize fills zero-valued multiplicative fields with their neutral
// defaults. A weight row written before a column existed reads as zero, and
// a zero multiplier would silently erase the whole score.
func (w *WeightConfig) Normalize() {
	if w.LifecycleWeight == 0 {
		w.LifecycleWeight = 1
	}
	if w.RecruitmentWeight == 0 {
		w.RecruitmentWeight = 1
	}
	if w.ScreeningMultiplier == 0 {
		w.ScreeningMultiplier = 1
	}
	if w.QueryMultiplier == 0 {
		w.QueryMultiplier = 1
	}
}

// RawScores holds the externally computed raw workload figures for one
// study: current load, completed-to-date, and the 4-week forecast. Each
// defaults to zero when its source view is absent.
type RawScores struct {
	Now      float64
	Actuals  float64
	Forecast float64
}
