package interfaces

import (
	"context"
	"time"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// Repository defines the data access interface for workload computation.
//
// The weight, raw-score, assignment, and metrics relations are optional in
// the backing schema. Implementations probe schema presence once at
// construction and expose it via SchemaStatus; reads against an absent
// relation return empty values rather than errors. Errors from a present
// relation are real failures and abort the caller's batch.
type Repository interface {
	// Study metadata
	ListStudies(ctx context.Context, ids []types.StudyID) ([]*model.Study, error)

	// Per-study configuration weights
	GetWeightConfigs(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WeightConfig, error)

	// Externally computed raw scores, one view per figure
	GetRawScoresNow(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error)
	GetRawScoresActuals(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error)
	GetRawScoresForecast(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error)

	// Coordinator-study assignments
	ListAssignments(ctx context.Context, ids []types.StudyID) ([]model.Assignment, error)

	// Weekly self-reported coordinator metrics with weekStart >= since
	ListWeeklyMetrics(ctx context.Context, ids []types.CoordinatorID, since time.Time) ([]*model.WeeklyMetric, error)

	// Snapshot cache rows
	GetSnapshots(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WorkloadSnapshot, error)
	PutSnapshots(ctx context.Context, snapshots []*model.WorkloadSnapshot) error

	// SchemaStatus reports which optional relations are provisioned
	SchemaStatus() model.SchemaStatus

	// Close closes the repository connection
	Close() error
}
