package sim

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"genesim/internal/regnet"
)

// GeneNetworkConfig assembles one simulation instance. Individuals and the
// three models are required; the regulatory network is optional and, when
// absent, the pipeline is plain expression → selection → mutation.
type GeneNetworkConfig struct {
	Individuals []*Individual
	Expression  ExpressionModel
	Selection   SelectionModel
	Mutation    MutationModel
	Regulatory  *regnet.Network
	Conditions  Conditions
	Seed        int64
}

// GeneNetwork owns a population, the pluggable model triple, optional
// regulation, environmental conditions and a seeded random source. It is
// single-threaded: Step is not safe for concurrent invocation on one
// instance. Independent instances with their own seeds are the unit of
// parallelism.
type GeneNetwork struct {
	population []*Individual
	expression ExpressionModel
	selection  SelectionModel
	mutation   MutationModel
	regulatory *regnet.Network
	conditions Conditions
	rng        *rand.Rand
	generation int
}

func NewGeneNetwork(cfg GeneNetworkConfig) (*GeneNetwork, error) {
	if cfg.Expression == nil {
		return nil, fmt.Errorf("%w: expression model is required", ErrConstruction)
	}
	if cfg.Selection == nil {
		return nil, fmt.Errorf("%w: selection model is required", ErrConstruction)
	}
	if cfg.Mutation == nil {
		return nil, fmt.Errorf("%w: mutation model is required", ErrConstruction)
	}

	population := make([]*Individual, len(cfg.Individuals))
	copy(population, cfg.Individuals)

	n := &GeneNetwork{
		population: population,
		expression: cfg.Expression,
		selection:  cfg.Selection,
		mutation:   cfg.Mutation,
		regulatory: cfg.Regulatory,
		conditions: cfg.Conditions,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}

	// Fail fast on dimension mismatches that can never heal. An empty
	// population is legal to construct and rejected by Step.
	if len(population) > 0 {
		if _, err := n.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConstruction, err)
		}
	}
	return n, nil
}

// Step advances the simulation by exactly one generation. It is atomic: all
// precondition checks run before any state is touched, and the random source
// is consumed only on the success path, so a failed Step leaves both the
// population and the trajectory unchanged.
func (n *GeneNetwork) Step() error {
	names, err := n.validate()
	if err != nil {
		return err
	}

	expr := n.expressionMatrix(names)

	var tfInputs *mat.Dense
	if n.regulatory != nil {
		tfInputs, err = n.regulatory.TFInputs(expr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
	}

	next := n.expression.Next(expr, tfInputs, n.conditions)
	if rows, cols := next.Dims(); rows != len(n.population) || cols != len(names) {
		return fmt.Errorf("%w: expression model %s returned %dx%d matrix, want %dx%d",
			ErrPrecondition, n.expression.Name(), rows, cols, len(n.population), len(names))
	}
	// The orchestrator guards the non-negative domain even when a model
	// forgets to.
	clampMatrix(next)

	fitness, err := n.selection.FitnessBatch(next)
	if err != nil {
		return err
	}

	// Validation is complete; state mutation begins here and cannot fail.
	n.writeBack(next)
	for i, ind := range n.population {
		ind.fitness = fitness[i]
	}

	n.mutation.Mutate(n.rng, next)
	clampMatrix(next)
	n.writeBack(next)

	n.generation++
	return nil
}

// validate runs every Step precondition without touching state and returns
// the shared gene order.
func (n *GeneNetwork) validate() ([]string, error) {
	if len(n.population) == 0 {
		return nil, fmt.Errorf("%w: population is empty", ErrPrecondition)
	}

	reference := n.population[0].genes
	if len(reference) == 0 {
		return nil, fmt.Errorf("%w: individual 0 has no genes", ErrPrecondition)
	}
	names := make([]string, len(reference))
	for j := range reference {
		names[j] = reference[j].name
	}

	for i, ind := range n.population[1:] {
		if len(ind.genes) != len(reference) {
			return nil, fmt.Errorf("%w: heterogeneous gene sets: individual %d has %d genes, individual 0 has %d",
				ErrPrecondition, i+1, len(ind.genes), len(reference))
		}
		for j := range ind.genes {
			if ind.genes[j].name != names[j] {
				return nil, fmt.Errorf("%w: heterogeneous gene sets: individual %d gene %d is %q, individual 0 has %q",
					ErrPrecondition, i+1, j, ind.genes[j].name, names[j])
			}
		}
	}

	if err := n.selection.Validate(len(names)); err != nil {
		return nil, err
	}

	if n.regulatory != nil && !n.regulatory.MatchesGenes(names) {
		return nil, fmt.Errorf("%w: population gene order does not match regulatory network genes %v",
			ErrPrecondition, n.regulatory.GeneNames())
	}
	return names, nil
}

func (n *GeneNetwork) expressionMatrix(names []string) *mat.Dense {
	expr := mat.NewDense(len(n.population), len(names), nil)
	for i, ind := range n.population {
		ind.expressionRow(expr.RawRowView(i))
	}
	return expr
}

// writeBack updates gene expression values in place, preserving gene
// identities and any external references into the population.
func (n *GeneNetwork) writeBack(expr *mat.Dense) {
	for i, ind := range n.population {
		row := expr.RawRowView(i)
		for j := range ind.genes {
			ind.genes[j].setExpression(row[j])
		}
	}
}

// Population returns the individuals in order. The slice is a copy; the
// individuals are the live instances mutated by Step.
func (n *GeneNetwork) Population() []*Individual {
	out := make([]*Individual, len(n.population))
	copy(out, n.population)
	return out
}

func (n *GeneNetwork) Generation() int {
	return n.generation
}

func (n *GeneNetwork) Conditions() Conditions {
	return n.conditions
}

func (n *GeneNetwork) Regulatory() *regnet.Network {
	return n.regulatory
}

// GeneNames returns the shared gene order, or nil for an empty population.
func (n *GeneNetwork) GeneNames() []string {
	if len(n.population) == 0 {
		return nil
	}
	genes := n.population[0].genes
	names := make([]string, len(genes))
	for j := range genes {
		names[j] = genes[j].name
	}
	return names
}

// ComputeMeanFitness is a population-level aggregate independent of the
// configured selection model. Returns 0 for an empty population.
func (n *GeneNetwork) ComputeMeanFitness() float64 {
	if len(n.population) == 0 {
		return 0
	}
	fitness := make([]float64, len(n.population))
	for i, ind := range n.population {
		fitness[i] = ind.fitness
	}
	return stat.Mean(fitness, nil)
}
