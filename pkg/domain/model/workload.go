package model

import (
	"time"

	"github.com/clinboard/clinboard/pkg/domain/types"
)

// ScorePair is a raw workload figure together with its weighted value
type ScorePair struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}

// WorkloadMetrics is the observed-metrics block of a workload response:
// distributed coordinator effort and the scaling derived from it.
type WorkloadMetrics struct {
	Contributors            int       `json:"contributors"`
	MeetingHoursAvg         float64   `json:"meetingHoursAvg"`
	ScreeningHoursAvg       float64   `json:"screeningHoursAvg"`
	QueryHoursAvg           float64   `json:"queryHoursAvg"`
	ScreeningScale          float64   `json:"screeningScale"`
	QueryScale              float64   `json:"queryScale"`
	MeetingPointsAdjustment float64   `json:"meetingPointsAdjustment"`
	Entries                 int       `json:"entries"`
	LastWeekStart           time.Time `json:"lastWeekStart"`
}

// WorkloadResponse is the computed workload score for one study. The JSON
// field names are a committed wire contract consumed by dashboards; do not
// rename them. A response is created fresh by each computation and is
// immutable once produced.
type WorkloadResponse struct {
	StudyID            types.StudyID        `json:"studyId"`
	ProtocolNumber     types.ProtocolNumber `json:"protocolNumber"`
	Title              string               `json:"title"`
	Lifecycle          string               `json:"lifecycle"`
	Recruitment        string               `json:"recruitment"`
	Status             string               `json:"status"`
	MeetingAdminPoints float64              `json:"meetingAdminPoints"`

	LifecycleWeight   float64 `json:"lifecycleWeight"`
	RecruitmentWeight float64 `json:"recruitmentWeight"`
	ProtocolScore     float64 `json:"protocolScore"`

	ScreeningMultiplier          float64 `json:"screeningMultiplier"`
	QueryMultiplier              float64 `json:"queryMultiplier"`
	ScreeningMultiplierEffective float64 `json:"screeningMultiplierEffective"`
	QueryMultiplierEffective     float64 `json:"queryMultiplierEffective"`
	MeetingAdminPointsAdjusted   float64 `json:"meetingAdminPointsAdjusted"`

	Now      ScorePair `json:"now"`
	Actuals  ScorePair `json:"actuals"`
	Forecast ScorePair `json:"forecast"`

	Metrics WorkloadMetrics `json:"metrics"`
}

// WorkloadListMeta describes how a workload batch was served
type WorkloadListMeta struct {
	Studies      int  `json:"studies"`
	CacheHits    int  `json:"cacheHits"`
	Recomputed   int  `json:"recomputed"`
	SkippedCache bool `json:"skippedCache"`
}

// WorkloadList is the batch result of a workload request. Workloads keep
// the order of the requested study IDs; non-computable studies are omitted.
type WorkloadList struct {
	Workloads []*WorkloadResponse `json:"workloads"`
	Meta      WorkloadListMeta    `json:"meta"`
}
