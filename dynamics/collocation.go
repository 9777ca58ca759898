package dynamics

import (
	"github.com/dynograph/dynograph/factor"
)

// CollocationScheme selects the numerical integration rule used to tie consecutive
// trajectory samples together.
type CollocationScheme int

// The named collocation schemes. Only Euler and Trapezoidal are implemented; the others
// fail with ErrUnsupportedCollocation.
const (
	CollocationEuler CollocationScheme = iota
	CollocationTrapezoidal
	CollocationRungeKutta
	CollocationHermiteSimpson
)

func (s CollocationScheme) String() string {
	switch s {
	case CollocationEuler:
		return "euler"
	case CollocationTrapezoidal:
		return "trapezoidal"
	case CollocationRungeKutta:
		return "runge-kutta"
	case CollocationHermiteSimpson:
		return "hermite-simpson"
	default:
		return "unknown"
	}
}

// CollocationFactor constrains a scalar quantity x and its rate d across one fixed step:
// Euler uses x1 = x0 + dt*d0, Trapezoidal uses x1 = x0 + dt/2*(d0+d1). The same factor
// serves angle/velocity pairs and velocity/acceleration pairs.
type CollocationFactor struct {
	X0, X1 factor.Key
	D0, D1 factor.Key

	Dt     float64
	Scheme CollocationScheme
}

// Keys implements Factor.
func (f *CollocationFactor) Keys() []factor.Key {
	if f.Scheme == CollocationTrapezoidal {
		return []factor.Key{f.X0, f.X1, f.D0, f.D1}
	}
	return []factor.Key{f.X0, f.X1, f.D0}
}

// Dim implements Factor.
func (f *CollocationFactor) Dim() int { return 1 }

// Error implements Factor.
func (f *CollocationFactor) Error(v factor.Values) ([]float64, error) {
	x0, x1, d0, d1, err := f.operands(v)
	if err != nil {
		return nil, err
	}
	switch f.Scheme {
	case CollocationEuler:
		return []float64{x0 + f.Dt*d0 - x1}, nil
	case CollocationTrapezoidal:
		return []float64{x0 + f.Dt/2*d0 + f.Dt/2*d1 - x1}, nil
	default:
		return nil, ErrUnsupportedCollocation
	}
}

func (f *CollocationFactor) operands(v factor.Values) (x0, x1, d0, d1 float64, err error) {
	if x0, err = v.AtDouble(f.X0); err != nil {
		return
	}
	if x1, err = v.AtDouble(f.X1); err != nil {
		return
	}
	if d0, err = v.AtDouble(f.D0); err != nil {
		return
	}
	if f.Scheme == CollocationTrapezoidal {
		d1, err = v.AtDouble(f.D1)
	}
	return
}

// PhaseCollocationFactor is CollocationFactor with the step duration itself an optimization
// variable, for phases of unknown length. The residual becomes bilinear in duration and
// rate; the topology is unchanged.
type PhaseCollocationFactor struct {
	X0, X1 factor.Key
	D0, D1 factor.Key
	Phase  factor.Key

	Scheme CollocationScheme
}

// Keys implements Factor.
func (f *PhaseCollocationFactor) Keys() []factor.Key {
	if f.Scheme == CollocationTrapezoidal {
		return []factor.Key{f.X0, f.X1, f.D0, f.D1, f.Phase}
	}
	return []factor.Key{f.X0, f.X1, f.D0, f.Phase}
}

// Dim implements Factor.
func (f *PhaseCollocationFactor) Dim() int { return 1 }

// Error implements Factor.
func (f *PhaseCollocationFactor) Error(v factor.Values) ([]float64, error) {
	dt, err := v.AtDouble(f.Phase)
	if err != nil {
		return nil, err
	}
	inner := CollocationFactor{X0: f.X0, X1: f.X1, D0: f.D0, D1: f.D1, Dt: dt, Scheme: f.Scheme}
	return inner.Error(v)
}
