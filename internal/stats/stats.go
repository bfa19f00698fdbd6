// Package stats derives per-generation diagnostics from a population.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genesim/internal/model"
	"genesim/internal/sim"
)

// Summarize collects the fitness and expression aggregates for one
// generation. A nil or empty population yields a zero summary carrying only
// the generation number.
func Summarize(generation int, population []*sim.Individual) model.GenerationSummary {
	if len(population) == 0 {
		return model.GenerationSummary{Generation: generation}
	}

	fitness := make([]float64, len(population))
	var exprSum float64
	var geneCount int
	for i, ind := range population {
		fitness[i] = ind.Fitness()
		for _, gene := range ind.Genes() {
			exprSum += gene.Expression()
			geneCount++
		}
	}

	summary := model.GenerationSummary{
		Generation:  generation,
		BestFitness: floats.Max(fitness),
		MinFitness:  floats.Min(fitness),
		MeanFitness: stat.Mean(fitness, nil),
	}
	// Sample standard deviation is undefined for a single individual; report
	// 0 rather than NaN so summaries stay JSON-encodable.
	if len(fitness) > 1 {
		summary.FitnessStdDev = stat.StdDev(fitness, nil)
	}
	if geneCount > 0 {
		summary.MeanExpression = exprSum / float64(geneCount)
	}
	return summary
}

// Snapshot captures the full population state for archiving.
func Snapshot(runID string, generation int, population []*sim.Individual) model.PopulationSnapshot {
	snapshot := model.PopulationSnapshot{
		RunID:       runID,
		Generation:  generation,
		Individuals: make([]model.IndividualState, 0, len(population)),
	}
	for _, ind := range population {
		genes := ind.Genes()
		state := model.IndividualState{
			Genes:   make([]model.GeneState, 0, len(genes)),
			Fitness: ind.Fitness(),
		}
		for _, gene := range genes {
			state.Genes = append(state.Genes, model.GeneState{
				Name:       gene.Name(),
				Expression: gene.Expression(),
			})
		}
		snapshot.Individuals = append(snapshot.Individuals, state)
	}
	return snapshot
}
