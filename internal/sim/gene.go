package sim

import (
	"math"
	"sort"
)

// Gene is the atomic simulation unit: an immutable name and a non-negative
// expression level. Expression is clamped at construction and after every
// mutation, so external readers never observe negative or non-finite values.
type Gene struct {
	name       string
	expression float64
}

func NewGene(name string, expression float64) Gene {
	return Gene{name: name, expression: clampExpression(expression)}
}

func (g Gene) Name() string {
	return g.name
}

func (g Gene) Expression() float64 {
	return g.expression
}

func (g *Gene) setExpression(v float64) {
	g.expression = clampExpression(v)
}

// clampExpression guards the non-negative finite domain. NaN and -Inf
// collapse to 0, +Inf to MaxFloat64.
func clampExpression(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

// Individual is a fixed-length ordered sequence of genes plus the scalar
// fitness assigned by the selection model each generation. An individual
// exclusively owns its genes; the constructor copies the input slice.
type Individual struct {
	genes   []Gene
	fitness float64
}

const initialFitness = 1.0

func NewIndividual(genes []Gene) *Individual {
	owned := make([]Gene, len(genes))
	copy(owned, genes)
	return &Individual{genes: owned, fitness: initialFitness}
}

// Genes returns a live view of the individual's genes. Elements are updated
// in place by Step; gene identities are never replaced.
func (ind *Individual) Genes() []Gene {
	return ind.genes
}

func (ind *Individual) Fitness() float64 {
	return ind.fitness
}

func (ind *Individual) expressionRow(dst []float64) {
	for j := range ind.genes {
		dst[j] = ind.genes[j].expression
	}
}

// Conditions is an immutable per-generation snapshot of named environmental
// scalars consumed by expression and selection models.
type Conditions struct {
	values map[string]float64
}

func NewConditions(values map[string]float64) Conditions {
	copied := make(map[string]float64, len(values))
	for name, value := range values {
		copied[name] = value
	}
	return Conditions{values: copied}
}

// Value returns the named scalar and whether it is present.
func (c Conditions) Value(name string) (float64, bool) {
	v, ok := c.values[name]
	return v, ok
}

// ValueOr returns the named scalar, or fallback when absent.
func (c Conditions) ValueOr(name string, fallback float64) float64 {
	if v, ok := c.values[name]; ok {
		return v
	}
	return fallback
}

func (c Conditions) Names() []string {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Conditions) Map() map[string]float64 {
	copied := make(map[string]float64, len(c.values))
	for name, value := range c.values {
		copied[name] = value
	}
	return copied
}
