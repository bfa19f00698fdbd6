package sim

import "errors"

// ErrConstruction marks configuration that can never become valid: dimension
// mismatches between model parameters and gene count, negative weights, and
// similar. Raised at construction, never deferred to simulation time.
var ErrConstruction = errors.New("construction")

// ErrPrecondition marks a Step or evaluation invoked against state that
// violates its contract (empty population, heterogeneous gene sets, gene
// count drift). The instance is left unchanged and remains usable.
var ErrPrecondition = errors.New("precondition")
