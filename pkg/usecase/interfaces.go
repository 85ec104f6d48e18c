package usecase

import (
	"context"

	"github.com/clinboard/clinboard/pkg/domain/model"
	"github.com/clinboard/clinboard/pkg/domain/types"
)

// WorkloadReader is the controller-facing interface for workload batches
type WorkloadReader interface {
	GetWorkloads(ctx context.Context, ids []types.StudyID, force bool) (*model.WorkloadList, error)
}

// TrendReader is the controller-facing interface for the trend series
type TrendReader interface {
	GetTrend(ctx context.Context, ids []types.StudyID) (*model.TrendSeries, error)
}

var (
	_ WorkloadReader = (*Workload)(nil)
	_ TrendReader    = (*Trend)(nil)
)
