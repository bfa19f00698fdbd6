// Package platform drives simulation instances across generations and, for
// ensembles, across independent worker goroutines. Parallelism lives at the
// instance level only; a single GeneNetwork always steps on one goroutine.
package platform

import (
	"context"
	"fmt"

	"genesim/internal/model"
	"genesim/internal/sim"
	"genesim/internal/stats"
	"genesim/internal/storage"
)

type RunnerConfig struct {
	RunID       string
	Network     *sim.GeneNetwork
	Generations int

	// Store is optional; when set, the final snapshot, fitness history and
	// diagnostics are archived under RunID.
	Store storage.Store

	// SnapshotEvery archives intermediate snapshots every N generations in
	// addition to the final one. 0 disables intermediate snapshots.
	SnapshotEvery int

	// Observer, when set, receives every generation summary as it is
	// produced. It runs on the stepping goroutine.
	Observer func(model.GenerationSummary)
}

type RunResult struct {
	RunID              string
	MeanFitnessHistory []float64
	Diagnostics        []model.GenerationSummary
	Final              model.PopulationSnapshot
}

type Runner struct {
	cfg RunnerConfig
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("network is required")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.SnapshotEvery < 0 {
		return nil, fmt.Errorf("snapshot interval must be >= 0")
	}
	if cfg.SnapshotEvery > 0 && cfg.Store == nil {
		return nil, fmt.Errorf("snapshot interval requires a store")
	}
	return &Runner{cfg: cfg}, nil
}

// Run advances the network through the configured number of generations,
// collecting diagnostics after every step. The context is checked between
// steps only: a step is atomic and never interrupted mid-generation.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	network := r.cfg.Network

	result := RunResult{
		RunID:              r.cfg.RunID,
		MeanFitnessHistory: make([]float64, 0, r.cfg.Generations),
		Diagnostics:        make([]model.GenerationSummary, 0, r.cfg.Generations),
	}

	for gen := 0; gen < r.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		if err := network.Step(); err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", network.Generation(), err)
		}

		summary := stats.Summarize(network.Generation(), network.Population())
		result.Diagnostics = append(result.Diagnostics, summary)
		result.MeanFitnessHistory = append(result.MeanFitnessHistory, summary.MeanFitness)
		if r.cfg.Observer != nil {
			r.cfg.Observer(summary)
		}

		if r.cfg.SnapshotEvery > 0 && network.Generation()%r.cfg.SnapshotEvery == 0 {
			if err := r.archiveSnapshot(ctx); err != nil {
				return RunResult{}, err
			}
		}
	}

	result.Final = stats.Snapshot(r.cfg.RunID, network.Generation(), network.Population())
	storage.StampVersion(&result.Final)

	if r.cfg.Store != nil {
		if err := r.cfg.Store.SaveSnapshot(ctx, result.Final); err != nil {
			return RunResult{}, fmt.Errorf("archive final snapshot: %w", err)
		}
		if err := r.cfg.Store.SaveFitnessHistory(ctx, r.cfg.RunID, result.MeanFitnessHistory); err != nil {
			return RunResult{}, fmt.Errorf("archive fitness history: %w", err)
		}
		if err := r.cfg.Store.SaveDiagnostics(ctx, r.cfg.RunID, result.Diagnostics); err != nil {
			return RunResult{}, fmt.Errorf("archive diagnostics: %w", err)
		}
	}
	return result, nil
}

func (r *Runner) archiveSnapshot(ctx context.Context) error {
	network := r.cfg.Network
	snapshot := stats.Snapshot(r.cfg.RunID, network.Generation(), network.Population())
	storage.StampVersion(&snapshot)
	if err := r.cfg.Store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("archive snapshot at generation %d: %w", network.Generation(), err)
	}
	return nil
}
