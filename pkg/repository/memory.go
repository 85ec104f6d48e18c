package repository

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Memory implements Repository interface with in-memory storage
type Memory struct {
	mu          sync.RWMutex
	studies     map[types.StudyID]*model.Study
	weights     map[types.StudyID]*model.WeightConfig
	scores      map[types.StudyID]*model.RawScores
	assignments []model.Assignment
	metrics     []*model.WeeklyMetric
	snapshots   map[types.StudyID]*model.WorkloadSnapshot
	schema      model.SchemaStatus

	snapshotReadErr  error
	snapshotWriteErr error
}

// NewMemory creates a new memory repository with a fully provisioned schema
func NewMemory() *Memory {
	return &Memory{
		studies:   make(map[types.StudyID]*model.Study),
		weights:   make(map[types.StudyID]*model.WeightConfig),
		scores:    make(map[types.StudyID]*model.RawScores),
		snapshots: make(map[types.StudyID]*model.WorkloadSnapshot),
		schema:    model.FullSchema(),
	}
}

// SetSchemaStatus overrides the reported schema status (useful for testing
// degraded schemas)
func (m *Memory) SetSchemaStatus(status model.SchemaStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema = status
}

// FailSnapshotReads makes GetSnapshots return the given error (useful for
// testing the fail-open cache path)
func (m *Memory) FailSnapshotReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotReadErr = err
}

// FailSnapshotWrites makes PutSnapshots return the given error
func (m *Memory) FailSnapshotWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotWriteErr = err
}

// PutStudy stores a study
func (m *Memory) PutStudy(study *model.Study) error {
	if study == nil {
		return goerr.New("study is nil")
	}
	if study.ID == "" {
		return goerr.New("study ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	studyCopy := *study
	m.studies[study.ID] = &studyCopy
	return nil
}

// PutWeightConfig stores a weight configuration for a study
func (m *Memory) PutWeightConfig(id types.StudyID, cfg *model.WeightConfig) error {
	if id == "" {
		return goerr.New("study ID is empty")
	}
	if cfg == nil {
		return goerr.New("weight config is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cfgCopy := *cfg
	m.weights[id] = &cfgCopy
	return nil
}

// PutRawScores stores the raw score figures for a study
func (m *Memory) PutRawScores(id types.StudyID, scores *model.RawScores) error {
	if id == "" {
		return goerr.New("study ID is empty")
	}
	if scores == nil {
		return goerr.New("raw scores is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	scoresCopy := *scores
	m.scores[id] = &scoresCopy
	return nil
}

// PutAssignment stores a coordinator-study assignment
func (m *Memory) PutAssignment(a model.Assignment) error {
	if a.StudyID == "" || a.CoordinatorID == "" {
		return goerr.New("assignment is incomplete",
			goerr.V("studyID", a.StudyID),
			goerr.V("coordinatorID", a.CoordinatorID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.assignments = append(m.assignments, a)
	return nil
}

// PutWeeklyMetric stores one weekly metric row
func (m *Memory) PutWeeklyMetric(metric *model.WeeklyMetric) error {
	if metric == nil {
		return goerr.New("weekly metric is nil")
	}
	if err := metric.Validate(); err != nil {
		return goerr.Wrap(err, "invalid weekly metric")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	metricCopy := *metric
	m.metrics = append(m.metrics, &metricCopy)
	return nil
}

// ListStudies retrieves the studies with the given IDs; unknown IDs are
// skipped
func (m *Memory) ListStudies(ctx context.Context, ids []types.StudyID) ([]*model.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	studies := make([]*model.Study, 0, len(ids))
	for _, id := range ids {
		study, exists := m.studies[id]
		if !exists {
			continue
		}
		studyCopy := *study
		studies = append(studies, &studyCopy)
	}
	return studies, nil
}

// GetWeightConfigs retrieves weight configurations for the given studies
func (m *Memory) GetWeightConfigs(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WeightConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.schema.Weights {
		return map[types.StudyID]*model.WeightConfig{}, nil
	}

	configs := make(map[types.StudyID]*model.WeightConfig)
	for _, id := range ids {
		cfg, exists := m.weights[id]
		if !exists {
			continue
		}
		cfgCopy := *cfg
		configs[id] = &cfgCopy
	}
	return configs, nil
}

// GetRawScoresNow retrieves the current-load raw scores
func (m *Memory) GetRawScoresNow(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return m.rawScores(ids, m.schema.ScoresNow, func(s *model.RawScores) float64 { return s.Now })
}

// GetRawScoresActuals retrieves the completed-to-date raw scores
func (m *Memory) GetRawScoresActuals(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return m.rawScores(ids, m.schema.ScoresActuals, func(s *model.RawScores) float64 { return s.Actuals })
}

// GetRawScoresForecast retrieves the 4-week forecast raw scores
func (m *Memory) GetRawScoresForecast(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return m.rawScores(ids, m.schema.ScoresForecast, func(s *model.RawScores) float64 { return s.Forecast })
}

func (m *Memory) rawScores(ids []types.StudyID, provisioned bool, pick func(*model.RawScores) float64) (map[types.StudyID]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make(map[types.StudyID]float64)
	if !provisioned {
		return scores, nil
	}
	for _, id := range ids {
		if s, exists := m.scores[id]; exists {
			scores[id] = pick(s)
		}
	}
	return scores, nil
}

// ListAssignments retrieves assignments for the given studies
func (m *Memory) ListAssignments(ctx context.Context, ids []types.StudyID) ([]model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.schema.Assignments {
		return []model.Assignment{}, nil
	}

	wanted := make(map[types.StudyID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	assignments := make([]model.Assignment, 0)
	for _, a := range m.assignments {
		if wanted[a.StudyID] {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// ListWeeklyMetrics retrieves weekly metric rows for the given coordinators
// with weekStart >= since
func (m *Memory) ListWeeklyMetrics(ctx context.Context, ids []types.CoordinatorID, since time.Time) ([]*model.WeeklyMetric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.schema.Metrics == model.MetricsLayoutNone {
		return []*model.WeeklyMetric{}, nil
	}

	wanted := make(map[types.CoordinatorID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	metrics := make([]*model.WeeklyMetric, 0)
	for _, metric := range m.metrics {
		if !wanted[metric.CoordinatorID] {
			continue
		}
		if metric.WeekStart.Before(since) {
			continue
		}
		metricCopy := *metric
		// The legacy layout has no per-metric study counts
		if m.schema.Metrics == model.MetricsLayoutLegacy {
			metricCopy.ScreeningStudyCount = 0
			metricCopy.QueryStudyCount = 0
		}
		metrics = append(metrics, &metricCopy)
	}
	return metrics, nil
}

// GetSnapshots retrieves snapshot rows for the given studies; studies with
// no snapshot are absent from the result
func (m *Memory) GetSnapshots(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WorkloadSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshotReadErr != nil {
		return nil, goerr.Wrap(m.snapshotReadErr, "failed to read snapshots")
	}

	snapshots := make(map[types.StudyID]*model.WorkloadSnapshot)
	for _, id := range ids {
		snap, exists := m.snapshots[id]
		if !exists {
			continue
		}
		snapCopy := *snap
		snapshots[id] = &snapCopy
	}
	return snapshots, nil
}

// PutSnapshots upserts snapshot rows keyed on study ID
func (m *Memory) PutSnapshots(ctx context.Context, snapshots []*model.WorkloadSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshotWriteErr != nil {
		return goerr.Wrap(m.snapshotWriteErr, "failed to write snapshots")
	}

	for _, snap := range snapshots {
		if snap == nil {
			return goerr.New("snapshot is nil")
		}
		if snap.StudyID == "" {
			return goerr.New("snapshot study ID is empty")
		}
		snapCopy := *snap
		m.snapshots[snap.StudyID] = &snapCopy
	}
	return nil
}

// SnapshotCount returns the number of stored snapshot rows (useful for
// testing)
func (m *Memory) SnapshotCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// SchemaStatus reports the configured schema status
func (m *Memory) SchemaStatus() model.SchemaStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schema
}

// Clear clears all data (useful for testing)
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studies = make(map[types.StudyID]*model.Study)
	m.weights = make(map[types.StudyID]*model.WeightConfig)
	m.scores = make(map[types.StudyID]*model.RawScores)
	m.assignments = nil
	m.metrics = nil
	m.snapshots = make(map[types.StudyID]*model.WorkloadSnapshot)
	m.schema = model.FullSchema()
}

// Close does nothing for memory repository
func (m *Memory) Close() error {
	return nil
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check
