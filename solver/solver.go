// Package solver minimizes a constraint graph's total residual with
// Levenberg-Marquardt over the mixed pose/vector/scalar variable set.
package solver

import (
	"context"
	"sort"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/factor"
	"github.com/dynograph/dynograph/spatialmath"
)

// ErrNoConvergence is returned when the iteration budget runs out before the
// error settles.
var ErrNoConvergence = errors.New("optimizer did not converge")

const jacobianStep = 1e-6

// Options tune the optimizer.
type Options struct {
	// MaxIterations caps the number of accepted or rejected LM steps.
	MaxIterations int
	// Epsilon is the absolute error improvement below which iteration stops.
	Epsilon float64
	// LambdaInitial is the starting damping parameter.
	LambdaInitial float64
	// LambdaFactor scales damping down on accepted steps and up on rejected ones.
	LambdaFactor float64
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 500,
		Epsilon:       1e-10,
		LambdaInitial: 1e-5,
		LambdaFactor:  10,
	}
}

// Solve minimizes the graph's total residual starting from the given assignment and
// returns the solved assignment. The initial assignment is not modified. It returns
// ErrNoConvergence when MaxIterations elapse without the error settling below Epsilon
// improvement per step.
func Solve(
	ctx context.Context,
	g *factor.Graph,
	initial factor.Values,
	opts Options,
	logger golog.Logger,
) (factor.Values, error) {
	ord, err := newOrdering(g, initial)
	if err != nil {
		return nil, err
	}

	current := cloneValues(initial)
	currentErr, err := g.TotalError(current)
	if err != nil {
		return nil, err
	}
	logger.Debugw("starting optimization", "factors", g.Size(), "variables", len(ord.keys), "dim", ord.totalDim, "error", currentErr)

	lambda := opts.LambdaInitial
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if currentErr < opts.Epsilon {
			return current, nil
		}

		residual, jac, err := linearize(g, current, ord)
		if err != nil {
			return nil, err
		}

		delta, err := dampedStep(jac, residual, lambda, ord.totalDim)
		if err != nil {
			lambda *= opts.LambdaFactor
			continue
		}

		candidate := retractAll(current, ord, delta)
		candidateErr, err := g.TotalError(candidate)
		if err != nil {
			return nil, err
		}

		if candidateErr < currentErr {
			improvement := currentErr - candidateErr
			current = candidate
			currentErr = candidateErr
			lambda /= opts.LambdaFactor
			logger.Debugw("step accepted", "iteration", iter, "error", currentErr, "lambda", lambda)
			if improvement < opts.Epsilon {
				return current, nil
			}
		} else {
			lambda *= opts.LambdaFactor
			logger.Debugw("step rejected", "iteration", iter, "error", currentErr, "lambda", lambda)
		}
	}

	if currentErr < opts.Epsilon {
		return current, nil
	}
	return nil, errors.Wrapf(ErrNoConvergence, "error %g after %d iterations", currentErr, opts.MaxIterations)
}

// ordering assigns every variable a contiguous block of local coordinates. Poses get six
// (a twist increment), vectors their length, scalars one.
type ordering struct {
	keys     []factor.Key
	offsets  map[factor.Key]int
	dims     map[factor.Key]int
	totalDim int
}

func newOrdering(g *factor.Graph, v factor.Values) (*ordering, error) {
	seen := map[factor.Key]bool{}
	for _, f := range g.Factors() {
		for _, k := range f.Keys() {
			seen[k] = true
		}
	}
	keys := make([]factor.Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ord := &ordering{keys: keys, offsets: map[factor.Key]int{}, dims: map[factor.Key]int{}}
	for _, k := range keys {
		val, ok := v[k]
		if !ok {
			return nil, errors.Errorf("graph references key %d with no initial value", uint64(k))
		}
		var dim int
		switch tv := val.(type) {
		case spatialmath.Pose:
			dim = 6
		case *mat.VecDense:
			dim = tv.Len()
		case float64:
			dim = 1
		default:
			return nil, errors.Errorf("value at key %d has unsupported type %T", uint64(k), val)
		}
		ord.offsets[k] = ord.totalDim
		ord.dims[k] = dim
		ord.totalDim += dim
	}
	return ord, nil
}

// linearize evaluates the stacked residual and its Jacobian by central differences in each
// variable's local coordinates.
func linearize(g *factor.Graph, v factor.Values, ord *ordering) (*mat.VecDense, *mat.Dense, error) {
	rows := g.Dim()
	residual := mat.NewVecDense(rows, nil)
	row := 0
	for _, f := range g.Factors() {
		r, err := f.Error(v)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range r {
			residual.SetVec(row, e)
			row++
		}
	}

	jac := mat.NewDense(rows, ord.totalDim, nil)
	for _, k := range ord.keys {
		for local := 0; local < ord.dims[k]; local++ {
			plus, err := stackedResidual(g, perturb(v, ord, k, local, jacobianStep))
			if err != nil {
				return nil, nil, err
			}
			minus, err := stackedResidual(g, perturb(v, ord, k, local, -jacobianStep))
			if err != nil {
				return nil, nil, err
			}
			col := ord.offsets[k] + local
			for i := 0; i < rows; i++ {
				jac.Set(i, col, (plus.AtVec(i)-minus.AtVec(i))/(2*jacobianStep))
			}
		}
	}
	return residual, jac, nil
}

func stackedResidual(g *factor.Graph, v factor.Values) (*mat.VecDense, error) {
	out := mat.NewVecDense(g.Dim(), nil)
	row := 0
	for _, f := range g.Factors() {
		r, err := f.Error(v)
		if err != nil {
			return nil, err
		}
		for _, e := range r {
			out.SetVec(row, e)
			row++
		}
	}
	return out, nil
}

// perturb returns a copy of v with one local coordinate of one variable moved by h.
func perturb(v factor.Values, ord *ordering, k factor.Key, local int, h float64) factor.Values {
	out := cloneValues(v)
	delta := mat.NewVecDense(ord.totalDim, nil)
	delta.SetVec(ord.offsets[k]+local, h)
	retractKey(out, ord, k, delta)
	return out
}

// dampedStep solves (JᵀJ + λI) δ = −Jᵀr.
func dampedStep(jac *mat.Dense, residual *mat.VecDense, lambda float64, n int) (*mat.VecDense, error) {
	var hessian mat.Dense
	hessian.Mul(jac.T(), jac)
	for i := 0; i < n; i++ {
		hessian.Set(i, i, hessian.At(i, i)+lambda)
	}
	grad := mat.NewVecDense(n, nil)
	grad.MulVec(jac.T(), residual)
	grad.ScaleVec(-1, grad)

	delta := mat.NewVecDense(n, nil)
	if err := delta.SolveVec(&hessian, grad); err != nil {
		return nil, errors.Wrap(err, "normal equations are singular")
	}
	return delta, nil
}

// retractAll applies a full local update: poses compose with the exponential of their twist
// block, vectors and scalars update additively.
func retractAll(v factor.Values, ord *ordering, delta *mat.VecDense) factor.Values {
	out := cloneValues(v)
	for _, k := range ord.keys {
		retractKey(out, ord, k, delta)
	}
	return out
}

func retractKey(v factor.Values, ord *ordering, k factor.Key, delta *mat.VecDense) {
	offset := ord.offsets[k]
	switch tv := v[k].(type) {
	case spatialmath.Pose:
		xi := mat.NewVecDense(6, nil)
		for i := 0; i < 6; i++ {
			xi.SetVec(i, delta.AtVec(offset+i))
		}
		v[k] = spatialmath.Compose(tv, spatialmath.Exp(xi))
	case *mat.VecDense:
		updated := mat.NewVecDense(tv.Len(), nil)
		for i := 0; i < tv.Len(); i++ {
			updated.SetVec(i, tv.AtVec(i)+delta.AtVec(offset+i))
		}
		v[k] = updated
	case float64:
		v[k] = tv + delta.AtVec(offset)
	}
}

func cloneValues(v factor.Values) factor.Values {
	out := factor.NewValues()
	for k, val := range v {
		if vec, ok := val.(*mat.VecDense); ok {
			out[k] = mat.VecDenseCopyOf(vec)
			continue
		}
		out[k] = val
	}
	return out
}
