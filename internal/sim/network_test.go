package sim

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"genesim/internal/regnet"
)

func testPopulation(t *testing.T, size int, levels ...float64) []*Individual {
	t.Helper()
	individuals := make([]*Individual, size)
	for i := range individuals {
		genes := make([]Gene, len(levels))
		for j, level := range levels {
			genes[j] = NewGene(geneName(j), level)
		}
		individuals[i] = NewIndividual(genes)
	}
	return individuals
}

func testConfig(t *testing.T, individuals []*Individual) GeneNetworkConfig {
	t.Helper()
	mutation, err := NewGaussianMutation(0.5, 0.1)
	if err != nil {
		t.Fatalf("construct mutation: %v", err)
	}
	return GeneNetworkConfig{
		Individuals: individuals,
		Expression:  ConstantExpression{},
		Selection:   ProportionalSelection{},
		Mutation:    mutation,
		Seed:        99,
	}
}

func TestNewGeneNetworkRequiresModels(t *testing.T) {
	cfg := testConfig(t, testPopulation(t, 2, 1, 1))

	missingExpression := cfg
	missingExpression.Expression = nil
	if _, err := NewGeneNetwork(missingExpression); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected construction error without expression model, got %v", err)
	}

	missingSelection := cfg
	missingSelection.Selection = nil
	if _, err := NewGeneNetwork(missingSelection); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected construction error without selection model, got %v", err)
	}

	missingMutation := cfg
	missingMutation.Mutation = nil
	if _, err := NewGeneNetwork(missingMutation); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected construction error without mutation model, got %v", err)
	}
}

func TestNewGeneNetworkRejectsHeterogeneousGeneSets(t *testing.T) {
	individuals := testPopulation(t, 2, 1, 1)
	individuals[1] = NewIndividual([]Gene{NewGene("a", 1), NewGene("z", 1)})

	if _, err := NewGeneNetwork(testConfig(t, individuals)); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestStepOnEmptyPopulationIsPrecondition(t *testing.T) {
	network, err := NewGeneNetwork(testConfig(t, nil))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := network.Step(); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if network.Generation() != 0 {
		t.Fatalf("failed step must not advance the generation, got %d", network.Generation())
	}
}

func TestStepAdvancesGenerationAndScoresPopulation(t *testing.T) {
	cfg := testConfig(t, testPopulation(t, 3, 1.0, 0.5))
	mutation, err := NewGaussianMutation(0, 0)
	if err != nil {
		t.Fatalf("construct mutation: %v", err)
	}
	cfg.Mutation = mutation

	network, err := NewGeneNetwork(cfg)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	if err := network.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if network.Generation() != 1 {
		t.Fatalf("expected generation 1, got %d", network.Generation())
	}
	for i, ind := range network.Population() {
		if ind.Fitness() != 0.75 {
			t.Fatalf("individual %d: expected fitness 0.75, got %v", i, ind.Fitness())
		}
	}
	if mean := network.ComputeMeanFitness(); mean != 0.75 {
		t.Fatalf("expected mean fitness 0.75, got %v", mean)
	}
}

func TestStepPreservesPopulationSizeAndGeneIdentities(t *testing.T) {
	network, err := NewGeneNetwork(testConfig(t, testPopulation(t, 4, 1, 2, 3)))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	before := network.Population()
	genesBefore := before[0].Genes()

	for i := 0; i < 5; i++ {
		if err := network.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	after := network.Population()
	if len(after) != len(before) {
		t.Fatalf("population size changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("individual %d identity changed", i)
		}
	}
	genesAfter := after[0].Genes()
	if &genesBefore[0] != &genesAfter[0] {
		t.Fatal("gene storage was reallocated; updates must happen in place")
	}
	for j := range genesAfter {
		if genesAfter[j].Name() != genesBefore[j].Name() {
			t.Fatalf("gene %d name changed", j)
		}
	}
}

func TestStepKeepsExpressionNonNegative(t *testing.T) {
	cfg := testConfig(t, testPopulation(t, 5, 0.1, 0.1))
	mutation, err := NewGaussianMutation(1, 50)
	if err != nil {
		t.Fatalf("construct mutation: %v", err)
	}
	cfg.Mutation = mutation

	network, err := NewGeneNetwork(cfg)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	for i := 0; i < 20; i++ {
		if err := network.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for _, ind := range network.Population() {
			for _, gene := range ind.Genes() {
				v := gene.Expression()
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("gene %s left the non-negative finite domain: %v", gene.Name(), v)
				}
			}
		}
	}
}

func TestIdenticalSeedsProduceIdenticalTrajectories(t *testing.T) {
	build := func() *GeneNetwork {
		cfg := testConfig(t, testPopulation(t, 6, 1, 2, 3, 4))
		cfg.Expression = LinearExpression{Slope: 0.9, Intercept: 0.05}
		network, err := NewGeneNetwork(cfg)
		if err != nil {
			t.Fatalf("construct: %v", err)
		}
		return network
	}

	first := build()
	second := build()

	for step := 0; step < 10; step++ {
		if err := first.Step(); err != nil {
			t.Fatalf("first step %d: %v", step, err)
		}
		if err := second.Step(); err != nil {
			t.Fatalf("second step %d: %v", step, err)
		}

		firstPop := first.Population()
		secondPop := second.Population()
		for i := range firstPop {
			if firstPop[i].Fitness() != secondPop[i].Fitness() {
				t.Fatalf("step %d: fitness diverged at individual %d", step, i)
			}
			fg := firstPop[i].Genes()
			sg := secondPop[i].Genes()
			for j := range fg {
				if fg[j].Expression() != sg[j].Expression() {
					t.Fatalf("step %d: expression diverged at individual %d gene %d", step, i, j)
				}
			}
		}
	}
}

// misbehavingExpression violates the model contract by returning a matrix of
// the wrong shape, which Step must catch before mutating any state.
type misbehavingExpression struct{}

func (misbehavingExpression) Name() string { return "misbehaving" }

func (misbehavingExpression) Next(expr, _ *mat.Dense, _ Conditions) *mat.Dense {
	return mat.NewDense(1, 1, []float64{1})
}

func TestStepIsAtomicOnFailure(t *testing.T) {
	cfg := testConfig(t, testPopulation(t, 3, 1.5, 2.5))
	cfg.Expression = misbehavingExpression{}

	network, err := NewGeneNetwork(cfg)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	err = network.Step()
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}

	if network.Generation() != 0 {
		t.Fatalf("failed step advanced the generation to %d", network.Generation())
	}
	for _, ind := range network.Population() {
		if ind.Fitness() != 1.0 {
			t.Fatalf("failed step overwrote fitness: %v", ind.Fitness())
		}
		genes := ind.Genes()
		if genes[0].Expression() != 1.5 || genes[1].Expression() != 2.5 {
			t.Fatal("failed step mutated expression state")
		}
	}
}

func TestStepWithRegulatoryNetworkFoldsTFInputs(t *testing.T) {
	regulatory, err := regnet.New(
		[]string{"a", "b"},
		[]regnet.Connection{{Source: "a", Target: "b", Weight: 2}},
		false,
	)
	if err != nil {
		t.Fatalf("construct regulatory network: %v", err)
	}

	mutation, err := NewGaussianMutation(0, 0)
	if err != nil {
		t.Fatalf("construct mutation: %v", err)
	}

	network, err := NewGeneNetwork(GeneNetworkConfig{
		Individuals: testPopulation(t, 1, 1, 1),
		Expression:  RegulatedExpression{Base: ConstantExpression{}, Gain: 1},
		Selection:   ProportionalSelection{},
		Mutation:    mutation,
		Regulatory:  regulatory,
		Seed:        5,
	})
	if err != nil {
		t.Fatalf("construct network: %v", err)
	}

	if err := network.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	genes := network.Population()[0].Genes()
	if genes[0].Expression() != 1 {
		t.Fatalf("gene a has no regulators, expected 1, got %v", genes[0].Expression())
	}
	// b receives 2 * expr(a) = 2 on top of its base level 1.
	if genes[1].Expression() != 3 {
		t.Fatalf("gene b: expected 3, got %v", genes[1].Expression())
	}
}

func TestNewGeneNetworkRejectsRegulatoryGeneMismatch(t *testing.T) {
	regulatory, err := regnet.New([]string{"x", "y"}, nil, false)
	if err != nil {
		t.Fatalf("construct regulatory network: %v", err)
	}

	cfg := testConfig(t, testPopulation(t, 2, 1, 1))
	cfg.Regulatory = regulatory

	if _, err := NewGeneNetwork(cfg); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected construction error, got %v", err)
	}
}
