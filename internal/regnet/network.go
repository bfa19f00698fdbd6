// Package regnet models directed, weighted gene-to-gene regulation as a
// sparse graph. An edge (source, target, weight) means the source gene's
// expression contributes weight*expression to the target gene's
// transcription-factor input; positive weights activate, negative weights
// repress. The adjacency is keyed by a gene-name→index mapping fixed once at
// construction and the network is immutable afterwards.
package regnet

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
)

// ErrConstruction marks invalid network configuration: duplicate or empty
// gene names, or a connection referencing an unknown gene. Never deferred to
// simulation time.
var ErrConstruction = errors.New("construction")

// Connection is one directed regulatory edge. The sign of Weight encodes
// activation (+) versus repression (−).
type Connection struct {
	Source string
	Target string
	Weight float64
}

type incomingEdge struct {
	source int
	weight float64
}

// Network is an immutable regulatory graph over an ordered set of gene names.
type Network struct {
	names []string
	index map[string]int

	// incoming[t] lists (source index, weight) pairs for target t; this is
	// the sparse adjacency row set used by TFInputs every generation.
	incoming [][]incomingEdge

	graph     *simple.WeightedDirectedGraph
	selfLoops []int

	circuitsOnce sync.Once
	circuits     [][]string
}

// New builds a network from an ordered list of unique gene names and a set of
// connections. Circuit detection is lazy by default; detectCircuits forces it
// eagerly at construction.
func New(geneNames []string, connections []Connection, detectCircuits bool) (*Network, error) {
	if len(geneNames) == 0 {
		return nil, fmt.Errorf("%w: gene names are empty", ErrConstruction)
	}

	index := make(map[string]int, len(geneNames))
	for i, name := range geneNames {
		if name == "" {
			return nil, fmt.Errorf("%w: gene name %d is empty", ErrConstruction, i)
		}
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("%w: duplicate gene name: %s", ErrConstruction, name)
		}
		index[name] = i
	}

	names := make([]string, len(geneNames))
	copy(names, geneNames)

	n := &Network{
		names:    names,
		index:    index,
		incoming: make([][]incomingEdge, len(names)),
		graph:    simple.NewWeightedDirectedGraph(0, 0),
	}
	for i := range names {
		n.graph.AddNode(simple.Node(i))
	}

	for _, conn := range connections {
		src, ok := index[conn.Source]
		if !ok {
			return nil, fmt.Errorf("%w: connection references unknown source gene: %s", ErrConstruction, conn.Source)
		}
		dst, ok := index[conn.Target]
		if !ok {
			return nil, fmt.Errorf("%w: connection references unknown target gene: %s", ErrConstruction, conn.Target)
		}
		n.incoming[dst] = append(n.incoming[dst], incomingEdge{source: src, weight: conn.Weight})
		if src == dst {
			// simple graphs reject self-edges; tracked separately and
			// reported as length-1 circuits.
			n.selfLoops = append(n.selfLoops, src)
			continue
		}
		n.graph.SetWeightedEdge(n.graph.NewWeightedEdge(simple.Node(src), simple.Node(dst), conn.Weight))
	}

	if detectCircuits {
		n.Circuits()
	}
	return n, nil
}

// GeneNames returns the construction-time gene order.
func (n *Network) GeneNames() []string {
	names := make([]string, len(n.names))
	copy(names, n.names)
	return names
}

func (n *Network) GeneCount() int {
	return len(n.names)
}

// MatchesGenes reports whether the given gene order is exactly the network's
// construction order. The orchestrator maps population gene positions into
// adjacency indices by name, so the orders must agree.
func (n *Network) MatchesGenes(geneNames []string) bool {
	if len(geneNames) != len(n.names) {
		return false
	}
	for i, name := range geneNames {
		if n.names[i] != name {
			return false
		}
	}
	return true
}

// TFInputs aggregates transcription-factor inputs for a whole population:
// out[i][t] = Σ over edges (s→t) of weight * expr[i][s]. Row count is the
// population size; column count must equal the network's gene count.
func (n *Network) TFInputs(expr *mat.Dense) (*mat.Dense, error) {
	rows, cols := expr.Dims()
	if cols != len(n.names) {
		return nil, fmt.Errorf("expression matrix has %d genes, network has %d", cols, len(n.names))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := expr.RawRowView(i)
		dst := out.RawRowView(i)
		for t, edges := range n.incoming {
			sum := 0.0
			for _, e := range edges {
				sum += e.weight * src[e.source]
			}
			dst[t] = sum
		}
	}
	return out, nil
}

// Circuits returns every feedback loop as an ordered list of gene names,
// without the closing repetition of the first gene. Detection runs Johnson's
// elementary-cycles algorithm (strongly-connected-component bounded) once and
// caches the result; repeated calls are idempotent.
func (n *Network) Circuits() [][]string {
	n.circuitsOnce.Do(func() {
		n.circuits = n.detectCircuits()
	})
	return n.circuits
}

// IsAcyclic reports whether the regulatory graph has no feedback loops.
func (n *Network) IsAcyclic() bool {
	return len(n.Circuits()) == 0
}

func (n *Network) detectCircuits() [][]string {
	var circuits [][]string

	seenSelf := make(map[int]struct{}, len(n.selfLoops))
	for _, idx := range n.selfLoops {
		if _, dup := seenSelf[idx]; dup {
			continue
		}
		seenSelf[idx] = struct{}{}
		circuits = append(circuits, []string{n.names[idx]})
	}

	for _, cycle := range topo.DirectedCyclesIn(n.graph) {
		// DirectedCyclesIn closes each cycle by repeating the first node.
		if len(cycle) < 2 {
			continue
		}
		members := cycle[:len(cycle)-1]
		names := make([]string, len(members))
		for i, node := range members {
			names[i] = n.names[int(node.ID())]
		}
		circuits = append(circuits, rotateToSmallest(names))
	}

	sort.Slice(circuits, func(i, j int) bool {
		if len(circuits[i]) != len(circuits[j]) {
			return len(circuits[i]) < len(circuits[j])
		}
		return circuits[i][0] < circuits[j][0]
	})
	return circuits
}

// rotateToSmallest normalizes a cycle so that it starts at its
// lexicographically smallest gene name, keeping traversal order.
func rotateToSmallest(cycle []string) []string {
	start := 0
	for i, name := range cycle {
		if name < cycle[start] {
			start = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[start:]...)
	rotated = append(rotated, cycle[:start]...)
	return rotated
}
