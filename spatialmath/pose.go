// Package spatialmath defines spatial mathematical operations: rigid transforms as dual
// quaternions, and the screw (Lie-algebra) operations on twists and wrenches that rigid-body
// kinematics and dynamics are built out of.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/dynograph/dynograph/utils"
)

// Pose is a rigid transform in 3D, stored as a unit dual quaternion whose real part is the
// rotation and whose dual part encodes the translation against that rotation.
type Pose struct {
	Quat dualquat.Number
}

// NewZeroPose returns an identity Pose. Since the real part of a dual quaternion should be a
// unit quaternion, not all zeroes, this should be used instead of Pose{}.
func NewZeroPose() Pose {
	return Pose{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// NewPoseFromPoint returns a Pose that is a pure translation to the given point.
func NewPoseFromPoint(pt r3.Vector) Pose {
	p := NewZeroPose()
	p.setTranslation(pt)
	return p
}

// NewPoseFromAxisAngle returns the Pose at the given point whose orientation is the given
// axis angle rotation.
func NewPoseFromAxisAngle(pt r3.Vector, aa R4AA) Pose {
	// Handle the zero rotation case; ToQuat panics on a zero axis
	if aa.RX == 0 && aa.RY == 0 && aa.RZ == 0 {
		return NewPoseFromPoint(pt)
	}
	p := Pose{dualquat.Number{
		Real: aa.ToQuat(),
		Dual: quat.Number{},
	}}
	p.setTranslation(pt)
	return p
}

// NewPoseFromQuaternion returns the Pose at the given point with the given rotation quaternion.
func NewPoseFromQuaternion(pt r3.Vector, q quat.Number) Pose {
	p := Pose{dualquat.Number{Real: q, Dual: quat.Number{}}}
	p.setTranslation(pt)
	return p
}

// setTranslation correctly sets the translation quaternion against the rotation.
func (p *Pose) setTranslation(pt r3.Vector) {
	p.Quat.Dual = quat.Number{Real: 0, Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}
	// multiply the dual part by the real part to give the correct rotation
	p.Quat.Dual = quat.Mul(p.Quat.Dual, p.Quat.Real)
}

// Point returns the translation component of the Pose. It multiplies the dual quaternion by
// its own conjugate, leaving the identity rotation and the real-world translation.
func (p Pose) Point() r3.Vector {
	cartQuat := dualquat.Mul(p.Quat, dualquat.Conj(p.Quat))
	return r3.Vector{X: cartQuat.Dual.Imag, Y: cartQuat.Dual.Jmag, Z: cartQuat.Dual.Kmag}
}

// Rotation returns the rotation quaternion.
func (p Pose) Rotation() quat.Number {
	return p.Quat.Real
}

// Orientation returns the rotation component in axis angle representation.
func (p Pose) Orientation() R4AA {
	return QuatToR4AA(p.Quat.Real)
}

// Compose returns the Pose resulting from applying p and then o, i.e. the product p * o.
func Compose(p, o Pose) Pose {
	ret := Pose{dualquat.Mul(p.Quat, o.Quat)}
	// Normalize any drift in the real part away from unit length
	if vecLen := quat.Abs(ret.Quat.Real); vecLen != 1 {
		ret.Quat.Real = quat.Scale(1/vecLen, ret.Quat.Real)
	}
	return ret
}

// Invert returns the inverse transform. For a unit dual quaternion this is the quaternion
// conjugate of both parts.
func (p Pose) Invert() Pose {
	return Pose{dualquat.Number{
		Real: quat.Conj(p.Quat.Real),
		Dual: quat.Conj(p.Quat.Dual),
	}}
}

// RotationMatrix returns the 3x3 rotation matrix of the Pose.
func (p Pose) RotationMatrix() *mat.Dense {
	q := p.Quat.Real
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	})
}

// Log maps the Pose to its exponential coordinates, a 6-vector of angular then linear parts.
func (p Pose) Log() *mat.VecDense {
	aa := QuatToR3AA(p.Quat.Real)
	theta := aa.Norm()
	t := p.Point()

	// Invert the left Jacobian V of the rotation to recover the linear part
	v := r3.Vector{X: t.X, Y: t.Y, Z: t.Z}
	if theta > 1e-10 {
		axis := aa.Mul(1 / theta)
		// V^-1 = I - theta/2 * [axis] + (1 - theta/(2 tan(theta/2))) * [axis]^2
		a := theta / 2
		b := 1 - a/math.Tan(a)
		av := axis.Cross(t)
		aav := axis.Cross(av)
		v = t.Sub(av.Mul(a)).Add(aav.Mul(b))
	}
	return mat.NewVecDense(6, []float64{aa.X, aa.Y, aa.Z, v.X, v.Y, v.Z})
}

// Exp maps exponential coordinates (angular then linear 6-vector) to the corresponding Pose.
func Exp(xi *mat.VecDense) Pose {
	if xi.Len() != 6 {
		panic("exponential coordinates must be a 6-vector")
	}
	w := r3.Vector{X: xi.AtVec(0), Y: xi.AtVec(1), Z: xi.AtVec(2)}
	v := r3.Vector{X: xi.AtVec(3), Y: xi.AtVec(4), Z: xi.AtVec(5)}
	theta := w.Norm()
	if theta < 1e-10 {
		return NewPoseFromPoint(v)
	}
	axis := w.Mul(1 / theta)

	// translation = V v with V = I + (1-cos)/theta [axis] + (theta-sin)/theta [axis]^2
	av := axis.Cross(v)
	aav := axis.Cross(av)
	t := v.Add(av.Mul((1 - math.Cos(theta)) / theta)).Add(aav.Mul((theta - math.Sin(theta)) / theta))
	return NewPoseFromAxisAngle(t, R4AA{theta, axis.X, axis.Y, axis.Z})
}

// PoseAlmostEqual returns whether two Poses are within epsilon of each other in both
// translation and rotation.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	if !R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) {
		return false
	}
	diff := quat.Mul(b.Quat.Real, quat.Conj(a.Quat.Real))
	return quatNorm(diff) < epsilon
}

// R3VectorAlmostEqual compares two r3 vectors and returns if the all elements are within epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}
