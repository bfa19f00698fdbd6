package sim

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestConstantExpressionPassesThrough(t *testing.T) {
	expr := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	next := ConstantExpression{}.Next(expr, nil, NewConditions(nil))

	if !mat.Equal(expr, next) {
		t.Fatalf("expected passthrough, got %v", mat.Formatted(next))
	}
	next.Set(0, 0, 99)
	if expr.At(0, 0) != 1 {
		t.Fatal("constant model must not alias its input")
	}
}

func TestLinearExpressionAffineUpdate(t *testing.T) {
	expr := mat.NewDense(1, 3, []float64{0, 1, 2})
	m := LinearExpression{Slope: 2, Intercept: 0.5}
	next := m.Next(expr, nil, NewConditions(nil))

	want := []float64{0.5, 2.5, 4.5}
	for j, w := range want {
		if got := next.At(0, j); got != w {
			t.Fatalf("gene %d: expected %v, got %v", j, w, got)
		}
	}
}

func TestLinearExpressionClampsNegativeResults(t *testing.T) {
	expr := mat.NewDense(1, 1, []float64{1})
	m := LinearExpression{Slope: -3, Intercept: 0}
	next := m.Next(expr, nil, NewConditions(nil))

	if got := next.At(0, 0); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestLinearExpressionConditionCoupling(t *testing.T) {
	expr := mat.NewDense(1, 2, []float64{1, 1})
	m := LinearExpression{Slope: 1, Condition: "tf_concentration", ConditionGain: 2}
	cond := NewConditions(map[string]float64{"tf_concentration": 0.25})
	next := m.Next(expr, nil, cond)

	for j := 0; j < 2; j++ {
		if got := next.At(0, j); got != 1.5 {
			t.Fatalf("gene %d: expected 1.5, got %v", j, got)
		}
	}
}

func TestHillExpressionHalfSaturationAndCeiling(t *testing.T) {
	m, err := NewHillExpression(10, 2, 1)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	atK := m.Next(mat.NewDense(1, 1, []float64{2}), nil, NewConditions(nil))
	if got := atK.At(0, 0); math.Abs(got-5) > 1e-12 {
		t.Fatalf("expected Vmax/2 at e=K, got %v", got)
	}

	saturated := m.Next(mat.NewDense(1, 1, []float64{1e9}), nil, NewConditions(nil))
	if got := saturated.At(0, 0); got > 10 || got < 9.99 {
		t.Fatalf("expected saturation near Vmax, got %v", got)
	}
}

func TestHillExpressionCooperativityIsSigmoidal(t *testing.T) {
	m, err := NewHillExpression(1, 1, 4)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	low := m.Next(mat.NewDense(1, 1, []float64{0.5}), nil, NewConditions(nil)).At(0, 0)
	high := m.Next(mat.NewDense(1, 1, []float64{2}), nil, NewConditions(nil)).At(0, 0)

	if low >= 0.1 {
		t.Fatalf("expected suppressed low response, got %v", low)
	}
	if high <= 0.9 {
		t.Fatalf("expected near-maximal high response, got %v", high)
	}
}

func TestNewHillExpressionRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name       string
		vmax, k, n float64
	}{
		{name: "negative vmax", vmax: -1, k: 1, n: 1},
		{name: "zero half-saturation", vmax: 1, k: 0, n: 1},
		{name: "negative half-saturation", vmax: 1, k: -2, n: 1},
		{name: "zero hill coefficient", vmax: 1, k: 1, n: 0},
		{name: "negative hill coefficient", vmax: 1, k: 1, n: -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewHillExpression(tc.vmax, tc.k, tc.n); !errors.Is(err, ErrConstruction) {
				t.Fatalf("expected construction error, got %v", err)
			}
		})
	}
}

func TestRegulatedExpressionFoldsTFInputs(t *testing.T) {
	expr := mat.NewDense(1, 2, []float64{1, 1})
	tf := mat.NewDense(1, 2, []float64{0, 3})
	m := RegulatedExpression{Base: ConstantExpression{}, Gain: 0.5}

	next := m.Next(expr, tf, NewConditions(nil))
	if got := next.At(0, 0); got != 1 {
		t.Fatalf("unregulated gene: expected 1, got %v", got)
	}
	if got := next.At(0, 1); got != 2.5 {
		t.Fatalf("regulated gene: expected 2.5, got %v", got)
	}
}

func TestRegulatedExpressionWithoutNetworkIsBase(t *testing.T) {
	expr := mat.NewDense(1, 2, []float64{1, 2})
	m := RegulatedExpression{Base: LinearExpression{Slope: 2}, Gain: 5}

	next := m.Next(expr, nil, NewConditions(nil))
	if next.At(0, 0) != 2 || next.At(0, 1) != 4 {
		t.Fatalf("expected base-only result, got %v", mat.Formatted(next))
	}
}

func TestRegulatedExpressionRepressionClampsAtZero(t *testing.T) {
	expr := mat.NewDense(1, 1, []float64{1})
	tf := mat.NewDense(1, 1, []float64{-10})
	m := RegulatedExpression{Base: ConstantExpression{}, Gain: 1}

	next := m.Next(expr, tf, NewConditions(nil))
	if got := next.At(0, 0); got != 0 {
		t.Fatalf("expected repression to clamp at 0, got %v", got)
	}
}
