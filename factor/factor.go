// Package factor contains the generic constraint representation the dynamics graph builder
// emits and the optimizer consumes: opaque variable keys, typed variable assignments, factors
// (named algebraic relations contributing residuals), and ordered factor collections.
package factor

// Key is an opaque, globally unique variable identifier. Uniqueness across semantic roles is
// the responsibility of whoever mints keys; see the dynamics package for the scheme used by
// the graph builder.
type Key uint64

// A Factor is an algebraic relation among a small set of variables. Its residual is zero
// exactly when the relation is satisfied.
type Factor interface {
	// Keys returns the variables this factor relates, in a fixed order.
	Keys() []Key

	// Dim returns the dimension of the residual vector.
	Dim() int

	// Error evaluates the residual at the given variable assignment. It returns an error if
	// the assignment is missing a key or holds the wrong type for one.
	Error(v Values) ([]float64, error)
}

// Graph is an ordered collection of factors defining an optimization problem.
type Graph struct {
	factors []Factor
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends factors to the graph.
func (g *Graph) Add(factors ...Factor) {
	g.factors = append(g.factors, factors...)
}

// Merge appends all factors of another graph.
func (g *Graph) Merge(other *Graph) {
	g.factors = append(g.factors, other.factors...)
}

// Factors returns the factors in insertion order.
func (g *Graph) Factors() []Factor {
	return g.factors
}

// Size returns the number of factors.
func (g *Graph) Size() int {
	return len(g.factors)
}

// Dim returns the total residual dimension of the graph.
func (g *Graph) Dim() int {
	dim := 0
	for _, f := range g.factors {
		dim += f.Dim()
	}
	return dim
}

// TotalError returns half the sum of squared residuals over all factors.
func (g *Graph) TotalError(v Values) (float64, error) {
	total := 0.0
	for _, f := range g.factors {
		r, err := f.Error(v)
		if err != nil {
			return 0, err
		}
		for _, e := range r {
			total += e * e
		}
	}
	return total / 2, nil
}
