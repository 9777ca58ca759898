package factor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

// Values is a variable assignment: a map from Key to a pose, vector, or scalar value. It is
// both the initial guess handed to an optimizer and the solved assignment read back out.
type Values map[Key]interface{}

// NewValues returns an empty assignment.
func NewValues() Values {
	return Values{}
}

// InsertPose assigns a pose variable.
func (v Values) InsertPose(k Key, p spatialmath.Pose) {
	v[k] = p
}

// InsertVector assigns a vector variable. The vector is stored as given, not copied.
func (v Values) InsertVector(k Key, vec *mat.VecDense) {
	v[k] = vec
}

// InsertDouble assigns a scalar variable.
func (v Values) InsertDouble(k Key, d float64) {
	v[k] = d
}

// Merge copies all assignments of another Values into this one.
func (v Values) Merge(other Values) {
	for k, val := range other {
		v[k] = val
	}
}

// Has returns whether the key is assigned.
func (v Values) Has(k Key) bool {
	_, ok := v[k]
	return ok
}

// AtPose returns the pose assigned to the key.
func (v Values) AtPose(k Key) (spatialmath.Pose, error) {
	val, ok := v[k]
	if !ok {
		return spatialmath.Pose{}, errors.Errorf("no value assigned to key %d", uint64(k))
	}
	p, ok := val.(spatialmath.Pose)
	if !ok {
		return spatialmath.Pose{}, errors.Errorf("value at key %d is a %T, not a pose", uint64(k), val)
	}
	return p, nil
}

// AtVector returns the vector assigned to the key.
func (v Values) AtVector(k Key) (*mat.VecDense, error) {
	val, ok := v[k]
	if !ok {
		return nil, errors.Errorf("no value assigned to key %d", uint64(k))
	}
	vec, ok := val.(*mat.VecDense)
	if !ok {
		return nil, errors.Errorf("value at key %d is a %T, not a vector", uint64(k), val)
	}
	return vec, nil
}

// AtDouble returns the scalar assigned to the key.
func (v Values) AtDouble(k Key) (float64, error) {
	val, ok := v[k]
	if !ok {
		return 0, errors.Errorf("no value assigned to key %d", uint64(k))
	}
	d, ok := val.(float64)
	if !ok {
		return 0, errors.Errorf("value at key %d is a %T, not a scalar", uint64(k), val)
	}
	return d, nil
}
