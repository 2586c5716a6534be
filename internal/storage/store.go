package storage

import (
	"context"

	"socialsim/internal/model"
)

// Store defines persistence operations for simulation runs and their series.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveSeries(ctx context.Context, runID string, series model.MetricsSeries) error
	GetSeries(ctx context.Context, runID string) (model.MetricsSeries, bool, error)
}
