package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ExpressionModel computes the next expression matrix from the prior one, the
// optional transcription-factor input matrix (nil when no regulatory network
// is attached) and the environmental conditions. Implementations are pure
// functions of their inputs and must return finite, non-negative values;
// every variant clamps internally rather than propagate NaN or negatives.
type ExpressionModel interface {
	Name() string
	Next(expr, tfInputs *mat.Dense, cond Conditions) *mat.Dense
}

// ConstantExpression carries expression levels through unchanged.
type ConstantExpression struct{}

func (ConstantExpression) Name() string {
	return "constant"
}

func (ConstantExpression) Next(expr, _ *mat.Dense, _ Conditions) *mat.Dense {
	next := mat.DenseCopyOf(expr)
	clampMatrix(next)
	return next
}

// LinearExpression applies an affine update: slope*e + intercept, plus an
// optional contribution from one named environmental scalar.
type LinearExpression struct {
	Slope     float64
	Intercept float64
	// Condition optionally names an environmental scalar whose value is
	// added to every gene, scaled by ConditionGain.
	Condition     string
	ConditionGain float64
}

func (LinearExpression) Name() string {
	return "linear"
}

func (m LinearExpression) Next(expr, _ *mat.Dense, cond Conditions) *mat.Dense {
	offset := m.Intercept
	if m.Condition != "" {
		offset += m.ConditionGain * cond.ValueOr(m.Condition, 0)
	}

	rows, cols := expr.Dims()
	next := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := expr.RawRowView(i)
		dst := next.RawRowView(i)
		for j, v := range src {
			dst[j] = clampExpression(m.Slope*v + offset)
		}
	}
	return next
}

// HillExpression is a saturating, optionally cooperative response:
// vmax * e^n / (k^n + e^n). With n > 1 the response is sigmoidal.
type HillExpression struct {
	vmax float64
	k    float64
	n    float64
}

func NewHillExpression(vmax, k, n float64) (*HillExpression, error) {
	if vmax < 0 {
		return nil, fmt.Errorf("%w: hill vmax must be >= 0, got %v", ErrConstruction, vmax)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: hill half-saturation constant must be > 0, got %v", ErrConstruction, k)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: hill coefficient must be > 0, got %v", ErrConstruction, n)
	}
	return &HillExpression{vmax: vmax, k: k, n: n}, nil
}

func (*HillExpression) Name() string {
	return "hill"
}

func (m *HillExpression) Next(expr, _ *mat.Dense, _ Conditions) *mat.Dense {
	rows, cols := expr.Dims()
	next := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := expr.RawRowView(i)
		dst := next.RawRowView(i)
		for j, v := range src {
			en := math.Pow(clampExpression(v), m.n)
			dst[j] = clampExpression(m.vmax * en / (math.Pow(m.k, m.n) + en))
		}
	}
	return next
}

// RegulatedExpression layers transcription-factor inputs on top of a base
// model: base(e) + gain*tf, elementwise. With no regulatory network attached
// the TF matrix is nil and the base result passes through untouched.
type RegulatedExpression struct {
	Base ExpressionModel
	Gain float64
}

func (RegulatedExpression) Name() string {
	return "regulated"
}

func (m RegulatedExpression) Next(expr, tfInputs *mat.Dense, cond Conditions) *mat.Dense {
	base := m.Base
	if base == nil {
		base = ConstantExpression{}
	}
	next := base.Next(expr, nil, cond)
	if tfInputs == nil {
		return next
	}

	rows, cols := next.Dims()
	for i := 0; i < rows; i++ {
		dst := next.RawRowView(i)
		tf := tfInputs.RawRowView(i)
		for j := 0; j < cols; j++ {
			dst[j] = clampExpression(dst[j] + m.Gain*tf[j])
		}
	}
	return next
}

func clampMatrix(m *mat.Dense) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for j, v := range row {
			row[j] = clampExpression(v)
		}
	}
}
