package factor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

// PriorPose pins a pose variable to a known pose. Its residual is the logarithm of the
// relative transform between the pinned pose and the variable.
type PriorPose struct {
	Key   Key
	Prior spatialmath.Pose
}

// Keys implements Factor.
func (f *PriorPose) Keys() []Key { return []Key{f.Key} }

// Dim implements Factor.
func (f *PriorPose) Dim() int { return 6 }

// Error implements Factor.
func (f *PriorPose) Error(v Values) ([]float64, error) {
	p, err := v.AtPose(f.Key)
	if err != nil {
		return nil, err
	}
	diff := spatialmath.Compose(f.Prior.Invert(), p)
	return diff.Log().RawVector().Data, nil
}

// PriorVector pins a vector variable to a known vector.
type PriorVector struct {
	Key   Key
	Prior *mat.VecDense
}

// Keys implements Factor.
func (f *PriorVector) Keys() []Key { return []Key{f.Key} }

// Dim implements Factor.
func (f *PriorVector) Dim() int { return f.Prior.Len() }

// Error implements Factor.
func (f *PriorVector) Error(v Values) ([]float64, error) {
	vec, err := v.AtVector(f.Key)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(f.Prior.Len(), nil)
	out.SubVec(vec, f.Prior)
	return out.RawVector().Data, nil
}

// PriorDouble pins a scalar variable to a known value.
type PriorDouble struct {
	Key   Key
	Prior float64
}

// Keys implements Factor.
func (f *PriorDouble) Keys() []Key { return []Key{f.Key} }

// Dim implements Factor.
func (f *PriorDouble) Dim() int { return 1 }

// Error implements Factor.
func (f *PriorDouble) Error(v Values) ([]float64, error) {
	d, err := v.AtDouble(f.Key)
	if err != nil {
		return nil, err
	}
	return []float64{d - f.Prior}, nil
}
