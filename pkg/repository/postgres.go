package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

const (
	studiesTable        = "studies"
	weightsTable        = "study_weight_configs"
	scoresNowView       = "study_scores_now"
	scoresActualsView   = "study_scores_actuals"
	scoresForecastView  = "study_scores_forecast"
	assignmentsTable    = "study_coordinators"
	weeklyMetricsTable  = "coordinator_weekly_metrics"
	snapshotsTable      = "workload_snapshots"
	modernMetricsColumn = "meeting_hours"
)

type studyRow struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	ProtocolNumber     string  `gorm:"column:protocol_number"`
	Title              string  `gorm:"column:title"`
	Lifecycle          string  `gorm:"column:lifecycle"`
	Recruitment        string  `gorm:"column:recruitment"`
	Status             string  `gorm:"column:status"`
	MeetingAdminPoints float64 `gorm:"column:meeting_admin_points"`
}

func (studyRow) TableName() string { return studiesTable }

type weightRow struct {
	StudyID             string  `gorm:"column:study_id;primaryKey"`
	LifecycleWeight     float64 `gorm:"column:lifecycle_w"`
	RecruitmentWeight   float64 `gorm:"column:recruitment_w"`
	ScreeningMultiplier float64 `gorm:"column:screening_multiplier"`
	QueryMultiplier     float64 `gorm:"column:query_multiplier"`
	ProtocolScore       float64 `gorm:"column:protocol_score"`
}

func (weightRow) TableName() string { return weightsTable }

type scoreRow struct {
	StudyID  string  `gorm:"column:study_id"`
	RawScore float64 `gorm:"column:raw_score"`
}

type assignmentRow struct {
	StudyID       string `gorm:"column:study_id"`
	CoordinatorID string `gorm:"column:coordinator_id"`
}

func (assignmentRow) TableName() string { return assignmentsTable }

type metricModernRow struct {
	CoordinatorID       string    `gorm:"column:coordinator_id"`
	WeekStart           time.Time `gorm:"column:week_start"`
	MeetingHours        float64   `gorm:"column:meeting_hours"`
	ScreeningHours      float64   `gorm:"column:screening_hours"`
	ScreeningStudyCount float64   `gorm:"column:screening_study_count"`
	QueryHours          float64   `gorm:"column:query_hours"`
	QueryStudyCount     float64   `gorm:"column:query_study_count"`
}

func (metricModernRow) TableName() string { return weeklyMetricsTable }

// metricLegacyRow is the pre-migration column layout: meeting time lives in
// admin_hours and there are no per-metric study counts.
type metricLegacyRow struct {
	CoordinatorID  string    `gorm:"column:coordinator_id"`
	WeekStart      time.Time `gorm:"column:week_start"`
	AdminHours     float64   `gorm:"column:admin_hours"`
	ScreeningHours float64   `gorm:"column:screening_hours"`
	QueryHours     float64   `gorm:"column:query_hours"`
}

func (metricLegacyRow) TableName() string { return weeklyMetricsTable }

type snapshotRow struct {
	StudyID    string    `gorm:"column:study_id;primaryKey"`
	Payload    []byte    `gorm:"column:payload;type:jsonb"`
	ComputedAt time.Time `gorm:"column:computed_at"`
	ExpiresAt  time.Time `gorm:"column:expires_at"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (snapshotRow) TableName() string { return snapshotsTable }

// Postgres implements Repository interface on a relational schema shared
// with the record-management collaborators
type Postgres struct {
	db     *gorm.DB
	schema model.SchemaStatus
}

// NewPostgres opens the database, migrates the snapshot table, and probes
// the optional relations once. The probed status is frozen for the lifetime
// of the repository; requests never sniff error codes to detect schema
// shape.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	logger := ctxlog.From(ctx)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres connection")
	}

	// The snapshot table is owned by this service; everything else belongs
	// to the record-management schema.
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate snapshot table")
	}

	p := &Postgres{db: db}
	if err := p.probeSchema(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to probe schema")
	}

	logger.Info("Postgres repository initialized",
		"weights", p.schema.Weights,
		"scoresNow", p.schema.ScoresNow,
		"scoresActuals", p.schema.ScoresActuals,
		"scoresForecast", p.schema.ScoresForecast,
		"assignments", p.schema.Assignments,
		"metricsLayout", p.schema.Metrics.String(),
	)

	return p, nil
}

// hasRelation reports whether a table or view with the given name exists.
// to_regclass covers both, which HasTable does not.
func (p *Postgres) hasRelation(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.db.WithContext(ctx).
		Raw("SELECT to_regclass(?) IS NOT NULL", name).
		Scan(&exists).Error
	if err != nil {
		return false, goerr.Wrap(err, "failed to check relation", goerr.V("relation", name))
	}
	return exists, nil
}

func (p *Postgres) probeSchema(ctx context.Context) error {
	var status model.SchemaStatus
	var err error

	if status.Weights, err = p.hasRelation(ctx, weightsTable); err != nil {
		return err
	}
	if status.ScoresNow, err = p.hasRelation(ctx, scoresNowView); err != nil {
		return err
	}
	if status.ScoresActuals, err = p.hasRelation(ctx, scoresActualsView); err != nil {
		return err
	}
	if status.ScoresForecast, err = p.hasRelation(ctx, scoresForecastView); err != nil {
		return err
	}
	if status.Assignments, err = p.hasRelation(ctx, assignmentsTable); err != nil {
		return err
	}

	hasMetrics, err := p.hasRelation(ctx, weeklyMetricsTable)
	if err != nil {
		return err
	}
	switch {
	case !hasMetrics:
		status.Metrics = model.MetricsLayoutNone
	case p.db.Migrator().HasColumn(&metricModernRow{}, modernMetricsColumn):
		status.Metrics = model.MetricsLayoutModern
	default:
		status.Metrics = model.MetricsLayoutLegacy
	}

	p.schema = status
	return nil
}

// ListStudies retrieves the studies with the given IDs
func (p *Postgres) ListStudies(ctx context.Context, ids []types.StudyID) ([]*model.Study, error) {
	if len(ids) == 0 {
		return []*model.Study{}, nil
	}

	var rows []studyRow
	if err := p.db.WithContext(ctx).Where("id IN ?", studyIDStrings(ids)).Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list studies", goerr.V("studyIDs", ids))
	}

	studies := make([]*model.Study, 0, len(rows))
	for _, row := range rows {
		studies = append(studies, &model.Study{
			ID:                 types.StudyID(row.ID),
			ProtocolNumber:     types.ProtocolNumber(row.ProtocolNumber),
			Title:              row.Title,
			Lifecycle:          row.Lifecycle,
			Recruitment:        row.Recruitment,
			Status:             row.Status,
			MeetingAdminPoints: row.MeetingAdminPoints,
		})
	}
	return studies, nil
}

// GetWeightConfigs retrieves weight configurations for the given studies
func (p *Postgres) GetWeightConfigs(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WeightConfig, error) {
	configs := make(map[types.StudyID]*model.WeightConfig)
	if !p.schema.Weights || len(ids) == 0 {
		return configs, nil
	}

	var rows []weightRow
	if err := p.db.WithContext(ctx).Where("study_id IN ?", studyIDStrings(ids)).Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to load weight configs", goerr.V("studyIDs", ids))
	}

	for _, row := range rows {
		configs[types.StudyID(row.StudyID)] = &model.WeightConfig{
			LifecycleWeight:     row.LifecycleWeight,
			RecruitmentWeight:   row.RecruitmentWeight,
			ScreeningMultiplier: row.ScreeningMultiplier,
			QueryMultiplier:     row.QueryMultiplier,
			ProtocolScore:       row.ProtocolScore,
		}
	}
	return configs, nil
}

// GetRawScoresNow retrieves the current-load raw scores
func (p *Postgres) GetRawScoresNow(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return p.rawScores(ctx, scoresNowView, p.schema.ScoresNow, ids)
}

// GetRawScoresActuals retrieves the completed-to-date raw scores
func (p *Postgres) GetRawScoresActuals(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return p.rawScores(ctx, scoresActualsView, p.schema.ScoresActuals, ids)
}

// GetRawScoresForecast retrieves the 4-week forecast raw scores
func (p *Postgres) GetRawScoresForecast(ctx context.Context, ids []types.StudyID) (map[types.StudyID]float64, error) {
	return p.rawScores(ctx, scoresForecastView, p.schema.ScoresForecast, ids)
}

func (p *Postgres) rawScores(ctx context.Context, view string, provisioned bool, ids []types.StudyID) (map[types.StudyID]float64, error) {
	scores := make(map[types.StudyID]float64)
	if !provisioned || len(ids) == 0 {
		return scores, nil
	}

	var rows []scoreRow
	if err := p.db.WithContext(ctx).Table(view).Where("study_id IN ?", studyIDStrings(ids)).Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to load raw scores",
			goerr.V("view", view),
			goerr.V("studyIDs", ids))
	}

	for _, row := range rows {
		scores[types.StudyID(row.StudyID)] = row.RawScore
	}
	return scores, nil
}

// ListAssignments retrieves assignments for the given studies
func (p *Postgres) ListAssignments(ctx context.Context, ids []types.StudyID) ([]model.Assignment, error) {
	if !p.schema.Assignments || len(ids) == 0 {
		return []model.Assignment{}, nil
	}

	var rows []assignmentRow
	if err := p.db.WithContext(ctx).Where("study_id IN ?", studyIDStrings(ids)).Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list assignments", goerr.V("studyIDs", ids))
	}

	assignments := make([]model.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, model.Assignment{
			StudyID:       types.StudyID(row.StudyID),
			CoordinatorID: types.CoordinatorID(row.CoordinatorID),
		})
	}
	return assignments, nil
}

// ListWeeklyMetrics retrieves weekly metric rows for the given coordinators
// with week_start >= since. The scan adapter is chosen by the layout probed
// at startup, never by retrying a failed query.
func (p *Postgres) ListWeeklyMetrics(ctx context.Context, ids []types.CoordinatorID, since time.Time) ([]*model.WeeklyMetric, error) {
	if p.schema.Metrics == model.MetricsLayoutNone || len(ids) == 0 {
		return []*model.WeeklyMetric{}, nil
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}

	if p.schema.Metrics == model.MetricsLayoutLegacy {
		var rows []metricLegacyRow
		err := p.db.WithContext(ctx).
			Where("coordinator_id IN ? AND week_start >= ?", idStrs, since).
			Find(&rows).Error
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list weekly metrics (legacy layout)",
				goerr.V("coordinatorIDs", ids))
		}

		metrics := make([]*model.WeeklyMetric, 0, len(rows))
		for _, row := range rows {
			metrics = append(metrics, &model.WeeklyMetric{
				CoordinatorID:  types.CoordinatorID(row.CoordinatorID),
				WeekStart:      row.WeekStart,
				MeetingHours:   row.AdminHours,
				ScreeningHours: row.ScreeningHours,
				QueryHours:     row.QueryHours,
			})
		}
		return metrics, nil
	}

	var rows []metricModernRow
	err := p.db.WithContext(ctx).
		Where("coordinator_id IN ? AND week_start >= ?", idStrs, since).
		Find(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list weekly metrics",
			goerr.V("coordinatorIDs", ids))
	}

	metrics := make([]*model.WeeklyMetric, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, &model.WeeklyMetric{
			CoordinatorID:       types.CoordinatorID(row.CoordinatorID),
			WeekStart:           row.WeekStart,
			MeetingHours:        row.MeetingHours,
			ScreeningHours:      row.ScreeningHours,
			ScreeningStudyCount: row.ScreeningStudyCount,
			QueryHours:          row.QueryHours,
			QueryStudyCount:     row.QueryStudyCount,
		})
	}
	return metrics, nil
}

// GetSnapshots retrieves snapshot rows for the given studies
func (p *Postgres) GetSnapshots(ctx context.Context, ids []types.StudyID) (map[types.StudyID]*model.WorkloadSnapshot, error) {
	snapshots := make(map[types.StudyID]*model.WorkloadSnapshot)
	if len(ids) == 0 {
		return snapshots, nil
	}

	var rows []snapshotRow
	if err := p.db.WithContext(ctx).Where("study_id IN ?", studyIDStrings(ids)).Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to load snapshots", goerr.V("studyIDs", ids))
	}

	for _, row := range rows {
		var payload model.WorkloadResponse
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, goerr.Wrap(err, "failed to decode snapshot payload",
				goerr.V("studyID", row.StudyID))
		}
		snapshots[types.StudyID(row.StudyID)] = &model.WorkloadSnapshot{
			StudyID:    types.StudyID(row.StudyID),
			Payload:    &payload,
			ComputedAt: row.ComputedAt,
			ExpiresAt:  row.ExpiresAt,
		}
	}
	return snapshots, nil
}

// PutSnapshots upserts snapshot rows keyed on study ID. The upsert is
// idempotent; concurrent writers converge on the last write.
func (p *Postgres) PutSnapshots(ctx context.Context, snapshots []*model.WorkloadSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]snapshotRow, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.StudyID == "" {
			return goerr.New("snapshot is missing a study ID")
		}
		payload, err := json.Marshal(snap.Payload)
		if err != nil {
			return goerr.Wrap(err, "failed to encode snapshot payload",
				goerr.V("studyID", snap.StudyID))
		}
		rows = append(rows, snapshotRow{
			StudyID:    snap.StudyID.String(),
			Payload:    payload,
			ComputedAt: snap.ComputedAt,
			ExpiresAt:  snap.ExpiresAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "study_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload",
				"computed_at",
				"expires_at",
				"updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return goerr.Wrap(err, "failed to upsert snapshots",
			goerr.V("count", len(rows)))
	}
	return nil
}

// SchemaStatus reports the schema status probed at startup
func (p *Postgres) SchemaStatus() model.SchemaStatus {
	return p.schema
}

// Close closes the underlying database connection
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get database handle")
	}
	return sqlDB.Close()
}

func studyIDStrings(ids []types.StudyID) []string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strs
}

var _ interfaces.Repository = (*Postgres)(nil) // Compile-time interface check
