package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SelectionModel scores individuals. Fitness and FitnessBatch are required to
// agree: for any population matrix, FitnessBatch(m)[i] equals Fitness applied
// to row i. Implementations share one row kernel between both paths so the
// agreement is exact, not merely within tolerance.
//
// Validate reports whether the model can score individuals with the given
// gene count; the orchestrator calls it before any state is mutated.
type SelectionModel interface {
	Name() string
	Validate(geneCount int) error
	Fitness(ind *Individual) (float64, error)
	FitnessBatch(expr *mat.Dense) ([]float64, error)
}

// rowKernel is the shared scalar scoring function backing both the
// per-individual and the batch path of a selection model.
type rowKernel func(row []float64) float64

func fitnessOf(ind *Individual, validate func(int) error, kernel rowKernel) (float64, error) {
	if ind == nil {
		return 0, fmt.Errorf("%w: individual is nil", ErrPrecondition)
	}
	if err := validate(len(ind.genes)); err != nil {
		return 0, err
	}
	row := make([]float64, len(ind.genes))
	ind.expressionRow(row)
	return kernel(row), nil
}

func fitnessBatchOf(expr *mat.Dense, validate func(int) error, kernel rowKernel) ([]float64, error) {
	if expr == nil {
		return nil, fmt.Errorf("%w: expression matrix is nil", ErrPrecondition)
	}
	rows, cols := expr.Dims()
	if err := validate(cols); err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = kernel(expr.RawRowView(i))
	}
	return out, nil
}

func meanOf(row []float64) float64 {
	if len(row) == 0 {
		return 0
	}
	return floats.Sum(row) / float64(len(row))
}

func noDimensionCheck(int) error { return nil }

// ProportionalSelection scores an individual by its mean expression level.
type ProportionalSelection struct{}

func (ProportionalSelection) Name() string {
	return "proportional"
}

func (ProportionalSelection) Validate(geneCount int) error {
	return nil
}

func (ProportionalSelection) Fitness(ind *Individual) (float64, error) {
	return fitnessOf(ind, noDimensionCheck, meanOf)
}

func (ProportionalSelection) FitnessBatch(expr *mat.Dense) ([]float64, error) {
	return fitnessBatchOf(expr, noDimensionCheck, meanOf)
}

// ThresholdSelection scores 1.0 when mean expression reaches the threshold
// and 0.0 otherwise.
type ThresholdSelection struct {
	Threshold float64
}

func (ThresholdSelection) Name() string {
	return "threshold"
}

func (ThresholdSelection) Validate(geneCount int) error {
	return nil
}

func (s ThresholdSelection) kernel(row []float64) float64 {
	if meanOf(row) >= s.Threshold {
		return 1.0
	}
	return 0.0
}

func (s ThresholdSelection) Fitness(ind *Individual) (float64, error) {
	return fitnessOf(ind, noDimensionCheck, s.kernel)
}

func (s ThresholdSelection) FitnessBatch(expr *mat.Dense) ([]float64, error) {
	return fitnessBatchOf(expr, noDimensionCheck, s.kernel)
}

// EpistaticFitness adds a normalized quadratic interaction term to the mean:
// mean(e) + (e·M·eᵗ)/n. Entry M[i][j] scales the contribution of the gene
// i × gene j expression product; its sign encodes synergy vs antagonism. The
// batch path evaluates the quadratic form row by row, never materializing a
// population×n×n tensor.
type EpistaticFitness struct {
	interactions *mat.Dense
	geneCount    int
}

func NewEpistaticFitness(interactions [][]float64) (*EpistaticFitness, error) {
	n := len(interactions)
	if n == 0 {
		return nil, fmt.Errorf("%w: interaction matrix is empty", ErrConstruction)
	}
	flat := make([]float64, 0, n*n)
	for i, row := range interactions {
		if len(row) != n {
			return nil, fmt.Errorf("%w: interaction matrix is not square: row %d has %d columns, want %d", ErrConstruction, i, len(row), n)
		}
		flat = append(flat, row...)
	}
	return &EpistaticFitness{interactions: mat.NewDense(n, n, flat), geneCount: n}, nil
}

func (*EpistaticFitness) Name() string {
	return "epistatic"
}

func (s *EpistaticFitness) Validate(geneCount int) error {
	if geneCount != s.geneCount {
		return fmt.Errorf("%w: gene count %d does not match interaction matrix size %d", ErrPrecondition, geneCount, s.geneCount)
	}
	return nil
}

func (s *EpistaticFitness) kernel(row []float64) float64 {
	v := mat.NewVecDense(len(row), row)
	quadratic := mat.Inner(v, s.interactions, v)
	return meanOf(row) + quadratic/float64(len(row))
}

func (s *EpistaticFitness) Fitness(ind *Individual) (float64, error) {
	return fitnessOf(ind, s.Validate, s.kernel)
}

func (s *EpistaticFitness) FitnessBatch(expr *mat.Dense) ([]float64, error) {
	return fitnessBatchOf(expr, s.Validate, s.kernel)
}

// MultiObjectiveSelection scores a weighted aggregate of expression levels:
// (e·w)/sum(w). Weights must be non-negative; all-zero weights score 0.0
// rather than divide by zero.
type MultiObjectiveSelection struct {
	weights   []float64
	weightSum float64
}

func NewMultiObjectiveSelection(weights []float64) (*MultiObjectiveSelection, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: weights are empty", ErrConstruction)
	}
	owned := make([]float64, len(weights))
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight %d is negative: %v", ErrConstruction, i, w)
		}
		owned[i] = w
	}
	return &MultiObjectiveSelection{weights: owned, weightSum: floats.Sum(owned)}, nil
}

func (*MultiObjectiveSelection) Name() string {
	return "multi_objective"
}

func (s *MultiObjectiveSelection) Validate(geneCount int) error {
	if geneCount != len(s.weights) {
		return fmt.Errorf("%w: gene count %d does not match weights length %d", ErrPrecondition, geneCount, len(s.weights))
	}
	return nil
}

func (s *MultiObjectiveSelection) kernel(row []float64) float64 {
	if s.weightSum == 0 {
		return 0.0
	}
	return floats.Dot(row, s.weights) / s.weightSum
}

func (s *MultiObjectiveSelection) Fitness(ind *Individual) (float64, error) {
	return fitnessOf(ind, s.Validate, s.kernel)
}

func (s *MultiObjectiveSelection) FitnessBatch(expr *mat.Dense) ([]float64, error) {
	return fitnessBatchOf(expr, s.Validate, s.kernel)
}
