package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Twists, wrenches, and screw axes are 6-vectors with the angular part in the first three
// components and the linear part in the last three, expressed in the frame of the body they
// describe. A screw axis is the unit twist of a joint: unit angular part for a revolute
// joint, zero angular and unit linear part for a prismatic one.

// NewTwist assembles a 6-vector from its angular and linear parts.
func NewTwist(angular, linear r3.Vector) *mat.VecDense {
	return mat.NewVecDense(6, []float64{angular.X, angular.Y, angular.Z, linear.X, linear.Y, linear.Z})
}

// ZeroTwist returns the zero 6-vector.
func ZeroTwist() *mat.VecDense {
	return mat.NewVecDense(6, nil)
}

// Skew returns the 3x3 cross-product matrix of a vector.
func Skew(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// Adjoint returns the 6x6 adjoint map of the Pose, which carries twists expressed in the
// pose's source frame into its destination frame.
func Adjoint(p Pose) *mat.Dense {
	r := p.RotationMatrix()
	t := p.Point()
	pr := &mat.Dense{}
	pr.Mul(Skew(t), r)

	adj := mat.NewDense(6, 6, nil)
	adj.Slice(0, 3, 0, 3).(*mat.Dense).Copy(r)
	adj.Slice(3, 6, 0, 3).(*mat.Dense).Copy(pr)
	adj.Slice(3, 6, 3, 6).(*mat.Dense).Copy(r)
	return adj
}

// TransformTwist re-expresses a twist through the adjoint of the given Pose.
func TransformTwist(p Pose, twist *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(6, nil)
	out.MulVec(Adjoint(p), twist)
	return out
}

// TransformWrench re-expresses a wrench through the transpose adjoint of the given Pose.
// If the adjoint of p carries twists from frame a to frame b, its transpose carries wrenches
// from frame b to frame a.
func TransformWrench(p Pose, wrench *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(6, nil)
	out.MulVec(Adjoint(p).T(), wrench)
	return out
}

// Ad returns the 6x6 matrix of the Lie bracket with the given twist, ad(xi).
func Ad(xi *mat.VecDense) *mat.Dense {
	w := Skew(r3.Vector{X: xi.AtVec(0), Y: xi.AtVec(1), Z: xi.AtVec(2)})
	v := Skew(r3.Vector{X: xi.AtVec(3), Y: xi.AtVec(4), Z: xi.AtVec(5)})

	out := mat.NewDense(6, 6, nil)
	out.Slice(0, 3, 0, 3).(*mat.Dense).Copy(w)
	out.Slice(3, 6, 0, 3).(*mat.Dense).Copy(v)
	out.Slice(3, 6, 3, 6).(*mat.Dense).Copy(w)
	return out
}

// Bracket returns the Lie bracket [a, b] of two twists.
func Bracket(a, b *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(6, nil)
	out.MulVec(Ad(a), b)
	return out
}

// JointTransform returns the relative transform across a joint at coordinate q: the rest
// transform composed with the exponential of the joint's screw axis scaled by q. At q=0 this
// is exactly the rest transform.
func JointTransform(rest Pose, axis *mat.VecDense, q float64) Pose {
	scaled := mat.NewVecDense(6, nil)
	scaled.ScaleVec(q, axis)
	return Compose(rest, Exp(scaled))
}

// GeneralizedInertia returns the 6x6 spatial inertia of a body about its center of mass,
// given its mass and 3x3 rotational inertia tensor.
func GeneralizedInertia(mass float64, inertia *mat.Dense) *mat.Dense {
	out := mat.NewDense(6, 6, nil)
	out.Slice(0, 3, 0, 3).(*mat.Dense).Copy(inertia)
	for i := 3; i < 6; i++ {
		out.Set(i, i, mass)
	}
	return out
}
