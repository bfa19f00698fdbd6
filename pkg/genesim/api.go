// Package genesim is the public facade over the simulation core. External
// collaborators construct runs from declarative requests and inspect archived
// trajectories; they never touch per-step buffers.
package genesim

import (
	"context"
	"fmt"
	"time"

	"genesim/internal/model"
	"genesim/internal/platform"
	"genesim/internal/regnet"
	"genesim/internal/sim"
	"genesim/internal/storage"
)

const defaultDBPath = "genesim.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// RegulationEdge mirrors regnet.Connection for request building: the source
// gene's expression feeds the target's regulatory input, scaled by Weight.
type RegulationEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type RunRequest struct {
	RunID string

	// Genes is the shared gene order; InitialExpression, when set, must have
	// the same length. When empty, every gene starts at 1.0.
	Genes             []string
	InitialExpression []float64
	PopulationSize    int
	Generations       int
	Seed              int64

	Expression              string
	ExpressionSlope         float64
	ExpressionIntercept     float64
	ExpressionCondition     string
	ExpressionConditionGain float64
	HillVmax                float64
	HillK                   float64
	HillN                   float64
	RegulatedBase           string
	RegulatoryGain          float64

	Selection         string
	Threshold         float64
	InteractionMatrix [][]float64
	ObjectiveWeights  []float64

	Mutation          string
	MutationRate      float64
	MutationMagnitude float64

	Conditions     map[string]float64
	Regulation     []RegulationEdge
	DetectCircuits bool

	// SnapshotEvery archives intermediate population snapshots every N
	// generations; 0 keeps only the final one.
	SnapshotEvery int
}

type RunSummary struct {
	RunID              string
	Generations        int
	MeanFitnessHistory []float64
	FinalMeanFitness   float64
	FinalBestFitness   float64
	Acyclic            bool
	Circuits           [][]string
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run executes one simulation to completion and archives its trajectory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	network, regulatory, err := buildNetwork(req)
	if err != nil {
		return RunSummary{}, err
	}

	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	runner, err := platform.NewRunner(platform.RunnerConfig{
		RunID:         runID,
		Network:       network,
		Generations:   req.Generations,
		Store:         c.store,
		SnapshotEvery: req.SnapshotEvery,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:              runID,
		Generations:        network.Generation(),
		MeanFitnessHistory: result.MeanFitnessHistory,
		FinalMeanFitness:   network.ComputeMeanFitness(),
		Acyclic:            true,
	}
	for _, diag := range result.Diagnostics {
		if diag.BestFitness > summary.FinalBestFitness {
			summary.FinalBestFitness = diag.BestFitness
		}
	}
	if regulatory != nil {
		summary.Circuits = regulatory.Circuits()
		summary.Acyclic = regulatory.IsAcyclic()
	}
	return summary, nil
}

// FitnessHistory returns the archived mean-fitness trajectory for a run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, false, err
	}
	return c.store.GetFitnessHistory(ctx, runID)
}

// Diagnostics returns the archived per-generation summaries for a run.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, false, err
	}
	return c.store.GetDiagnostics(ctx, runID)
}

// Snapshot returns an archived population snapshot.
func (c *Client) Snapshot(ctx context.Context, runID string, generation int) (model.PopulationSnapshot, bool, error) {
	if err := c.store.Init(ctx); err != nil {
		return model.PopulationSnapshot{}, false, err
	}
	return c.store.GetSnapshot(ctx, runID, generation)
}

func buildNetwork(req RunRequest) (*sim.GeneNetwork, *regnet.Network, error) {
	if len(req.Genes) == 0 {
		return nil, nil, fmt.Errorf("genes are required")
	}
	if req.PopulationSize <= 0 {
		return nil, nil, fmt.Errorf("population size must be > 0")
	}
	if req.Generations <= 0 {
		return nil, nil, fmt.Errorf("generations must be > 0")
	}
	if len(req.InitialExpression) != 0 && len(req.InitialExpression) != len(req.Genes) {
		return nil, nil, fmt.Errorf("initial expression has %d values, want %d", len(req.InitialExpression), len(req.Genes))
	}

	expression, err := buildExpressionModel(req)
	if err != nil {
		return nil, nil, err
	}
	selection, err := buildSelectionModel(req)
	if err != nil {
		return nil, nil, err
	}
	mutation, err := buildMutationModel(req)
	if err != nil {
		return nil, nil, err
	}

	var regulatory *regnet.Network
	if len(req.Regulation) > 0 {
		connections := make([]regnet.Connection, len(req.Regulation))
		for i, edge := range req.Regulation {
			connections[i] = regnet.Connection(edge)
		}
		regulatory, err = regnet.New(req.Genes, connections, req.DetectCircuits)
		if err != nil {
			return nil, nil, err
		}
	}

	individuals := make([]*sim.Individual, req.PopulationSize)
	for i := range individuals {
		genes := make([]sim.Gene, len(req.Genes))
		for j, name := range req.Genes {
			level := 1.0
			if len(req.InitialExpression) > 0 {
				level = req.InitialExpression[j]
			}
			genes[j] = sim.NewGene(name, level)
		}
		individuals[i] = sim.NewIndividual(genes)
	}

	network, err := sim.NewGeneNetwork(sim.GeneNetworkConfig{
		Individuals: individuals,
		Expression:  expression,
		Selection:   selection,
		Mutation:    mutation,
		Regulatory:  regulatory,
		Conditions:  sim.NewConditions(req.Conditions),
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, nil, err
	}
	return network, regulatory, nil
}

func buildExpressionModel(req RunRequest) (sim.ExpressionModel, error) {
	switch req.Expression {
	case "", "constant":
		return sim.ConstantExpression{}, nil
	case "linear":
		return sim.LinearExpression{
			Slope:         req.ExpressionSlope,
			Intercept:     req.ExpressionIntercept,
			Condition:     req.ExpressionCondition,
			ConditionGain: req.ExpressionConditionGain,
		}, nil
	case "hill":
		return sim.NewHillExpression(req.HillVmax, req.HillK, req.HillN)
	case "regulated":
		base, err := buildBaseExpressionModel(req)
		if err != nil {
			return nil, err
		}
		return sim.RegulatedExpression{Base: base, Gain: req.RegulatoryGain}, nil
	default:
		return nil, fmt.Errorf("unsupported expression model: %s", req.Expression)
	}
}

func buildBaseExpressionModel(req RunRequest) (sim.ExpressionModel, error) {
	switch req.RegulatedBase {
	case "", "constant":
		return sim.ConstantExpression{}, nil
	case "linear":
		return sim.LinearExpression{
			Slope:         req.ExpressionSlope,
			Intercept:     req.ExpressionIntercept,
			Condition:     req.ExpressionCondition,
			ConditionGain: req.ExpressionConditionGain,
		}, nil
	case "hill":
		return sim.NewHillExpression(req.HillVmax, req.HillK, req.HillN)
	default:
		return nil, fmt.Errorf("unsupported regulated base model: %s", req.RegulatedBase)
	}
}

func buildSelectionModel(req RunRequest) (sim.SelectionModel, error) {
	switch req.Selection {
	case "", "proportional":
		return sim.ProportionalSelection{}, nil
	case "threshold":
		return sim.ThresholdSelection{Threshold: req.Threshold}, nil
	case "epistatic":
		return sim.NewEpistaticFitness(req.InteractionMatrix)
	case "multi_objective":
		return sim.NewMultiObjectiveSelection(req.ObjectiveWeights)
	default:
		return nil, fmt.Errorf("unsupported selection model: %s", req.Selection)
	}
}

func buildMutationModel(req RunRequest) (sim.MutationModel, error) {
	switch req.Mutation {
	case "", "gaussian":
		return sim.NewGaussianMutation(req.MutationRate, req.MutationMagnitude)
	case "uniform":
		return sim.NewUniformMutation(req.MutationRate, req.MutationMagnitude)
	default:
		return nil, fmt.Errorf("unsupported mutation model: %s", req.Mutation)
	}
}
