package storage

import (
	"context"
	"sync"

	"genesim/internal/model"
)

type snapshotKey struct {
	runID      string
	generation int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	snapshots   map[snapshotKey]model.PopulationSnapshot
	history     map[string][]float64
	diagnostics map[string][]model.GenerationSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init is idempotent: a store that is already initialized keeps its archive,
// so repeated calls from a shared client never wipe stored trajectories.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.snapshots = make(map[snapshotKey]model.PopulationSnapshot)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationSummary)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.PopulationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshotKey{snapshot.RunID, snapshot.Generation}] = copySnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, generation int) (model.PopulationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[snapshotKey{runID, generation}]
	if !ok {
		return model.PopulationSnapshot{}, false, nil
	}
	return copySnapshot(snapshot), true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationSummary, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetDiagnostics(_ context.Context, runID string) ([]model.GenerationSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationSummary, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}

func copySnapshot(snapshot model.PopulationSnapshot) model.PopulationSnapshot {
	copied := snapshot
	copied.Individuals = make([]model.IndividualState, 0, len(snapshot.Individuals))
	for _, ind := range snapshot.Individuals {
		copied.Individuals = append(copied.Individuals, model.IndividualState{
			Genes:   append([]model.GeneState(nil), ind.Genes...),
			Fitness: ind.Fitness,
		})
	}
	return copied
}
