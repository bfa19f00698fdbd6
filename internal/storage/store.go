package storage

import (
	"context"

	"genesim/internal/model"
)

// Store persists simulation trajectories: population snapshots, fitness
// histories and per-generation diagnostics, keyed by run ID.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, runID string, generation int) (model.PopulationSnapshot, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationSummary) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
}
