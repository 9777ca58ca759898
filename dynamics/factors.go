// Package dynamics assembles the algebraic constraints that describe a robot's kinematics
// and dynamics at discrete time instants: per-joint pose, twist, acceleration, wrench and
// torque relations, per-link wrench balances, and the collocation constraints that tie
// consecutive instants together. The builder functions are stateless transformations from
// (robot, time range, options) to a factor graph; they never optimize anything themselves.
package dynamics

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/factor"
	"github.com/dynograph/dynograph/spatialmath"
)

// PoseFactor ties the parent pose, child pose, and joint coordinate of one joint together:
// the child pose must equal the parent pose composed with the joint's relative transform at
// the coordinate value.
type PoseFactor struct {
	ParentPose factor.Key
	ChildPose  factor.Key
	JointAngle factor.Key

	Rest spatialmath.Pose
	Axis *mat.VecDense
}

// Keys implements Factor.
func (f *PoseFactor) Keys() []factor.Key {
	return []factor.Key{f.ParentPose, f.ChildPose, f.JointAngle}
}

// Dim implements Factor.
func (f *PoseFactor) Dim() int { return 6 }

// Error implements Factor.
func (f *PoseFactor) Error(v factor.Values) ([]float64, error) {
	parent, err := v.AtPose(f.ParentPose)
	if err != nil {
		return nil, err
	}
	child, err := v.AtPose(f.ChildPose)
	if err != nil {
		return nil, err
	}
	q, err := v.AtDouble(f.JointAngle)
	if err != nil {
		return nil, err
	}
	predicted := spatialmath.Compose(parent, spatialmath.JointTransform(f.Rest, f.Axis, q))
	return spatialmath.Compose(child.Invert(), predicted).Log().RawVector().Data, nil
}

// TwistFactor mirrors PoseFactor at the velocity level: the child twist must equal the
// parent twist carried across the joint plus the screw axis scaled by the joint velocity.
type TwistFactor struct {
	ParentTwist factor.Key
	ChildTwist  factor.Key
	JointAngle  factor.Key
	JointVel    factor.Key

	Rest spatialmath.Pose
	Axis *mat.VecDense
}

// Keys implements Factor.
func (f *TwistFactor) Keys() []factor.Key {
	return []factor.Key{f.ParentTwist, f.ChildTwist, f.JointAngle, f.JointVel}
}

// Dim implements Factor.
func (f *TwistFactor) Dim() int { return 6 }

// Error implements Factor.
func (f *TwistFactor) Error(v factor.Values) ([]float64, error) {
	parentTwist, err := v.AtVector(f.ParentTwist)
	if err != nil {
		return nil, err
	}
	childTwist, err := v.AtVector(f.ChildTwist)
	if err != nil {
		return nil, err
	}
	q, err := v.AtDouble(f.JointAngle)
	if err != nil {
		return nil, err
	}
	qdot, err := v.AtDouble(f.JointVel)
	if err != nil {
		return nil, err
	}
	childFromParent := spatialmath.JointTransform(f.Rest, f.Axis, q).Invert()
	predicted := spatialmath.TransformTwist(childFromParent, parentTwist)
	predicted.AddScaledVec(predicted, qdot, f.Axis)

	out := mat.NewVecDense(6, nil)
	out.SubVec(childTwist, predicted)
	return out.RawVector().Data, nil
}

// TwistAccelFactor mirrors TwistFactor at the acceleration level. The bias term depends on
// the child's current twist, which therefore appears as an auxiliary variable.
type TwistAccelFactor struct {
	ChildTwist  factor.Key
	ParentAccel factor.Key
	ChildAccel  factor.Key
	JointAngle  factor.Key
	JointVel    factor.Key
	JointAccel  factor.Key

	Rest spatialmath.Pose
	Axis *mat.VecDense
}

// Keys implements Factor.
func (f *TwistAccelFactor) Keys() []factor.Key {
	return []factor.Key{f.ChildTwist, f.ParentAccel, f.ChildAccel, f.JointAngle, f.JointVel, f.JointAccel}
}

// Dim implements Factor.
func (f *TwistAccelFactor) Dim() int { return 6 }

// Error implements Factor.
func (f *TwistAccelFactor) Error(v factor.Values) ([]float64, error) {
	childTwist, err := v.AtVector(f.ChildTwist)
	if err != nil {
		return nil, err
	}
	parentAccel, err := v.AtVector(f.ParentAccel)
	if err != nil {
		return nil, err
	}
	childAccel, err := v.AtVector(f.ChildAccel)
	if err != nil {
		return nil, err
	}
	q, err := v.AtDouble(f.JointAngle)
	if err != nil {
		return nil, err
	}
	qdot, err := v.AtDouble(f.JointVel)
	if err != nil {
		return nil, err
	}
	qddot, err := v.AtDouble(f.JointAccel)
	if err != nil {
		return nil, err
	}
	childFromParent := spatialmath.JointTransform(f.Rest, f.Axis, q).Invert()
	predicted := spatialmath.TransformTwist(childFromParent, parentAccel)

	// bias: bracket of the child twist with the velocity-scaled screw axis
	scaledAxis := mat.NewVecDense(6, nil)
	scaledAxis.ScaleVec(qdot, f.Axis)
	predicted.AddVec(predicted, spatialmath.Bracket(childTwist, scaledAxis))
	predicted.AddScaledVec(predicted, qddot, f.Axis)

	out := mat.NewVecDense(6, nil)
	out.SubVec(childAccel, predicted)
	return out.RawVector().Data, nil
}

// WrenchEquivalenceFactor ties the wrench a joint applies on its parent link to the wrench
// it applies on its child link: the two are action and reaction expressed in different
// frames, so their sum after re-expression must vanish.
type WrenchEquivalenceFactor struct {
	ParentWrench factor.Key
	ChildWrench  factor.Key
	JointAngle   factor.Key

	Rest spatialmath.Pose
	Axis *mat.VecDense
}

// Keys implements Factor.
func (f *WrenchEquivalenceFactor) Keys() []factor.Key {
	return []factor.Key{f.ParentWrench, f.ChildWrench, f.JointAngle}
}

// Dim implements Factor.
func (f *WrenchEquivalenceFactor) Dim() int { return 6 }

// Error implements Factor.
func (f *WrenchEquivalenceFactor) Error(v factor.Values) ([]float64, error) {
	parentWrench, err := v.AtVector(f.ParentWrench)
	if err != nil {
		return nil, err
	}
	childWrench, err := v.AtVector(f.ChildWrench)
	if err != nil {
		return nil, err
	}
	q, err := v.AtDouble(f.JointAngle)
	if err != nil {
		return nil, err
	}
	childFromParent := spatialmath.JointTransform(f.Rest, f.Axis, q).Invert()
	out := spatialmath.TransformWrench(childFromParent, childWrench)
	out.AddVec(out, parentWrench)
	return out.RawVector().Data, nil
}

// TorqueFactor projects the child-side wrench of a joint onto its screw axis, extracting
// the scalar torque (revolute) or force (prismatic) the joint carries.
type TorqueFactor struct {
	ChildWrench factor.Key
	Torque      factor.Key

	Axis *mat.VecDense
}

// Keys implements Factor.
func (f *TorqueFactor) Keys() []factor.Key {
	return []factor.Key{f.ChildWrench, f.Torque}
}

// Dim implements Factor.
func (f *TorqueFactor) Dim() int { return 1 }

// Error implements Factor.
func (f *TorqueFactor) Error(v factor.Values) ([]float64, error) {
	wrench, err := v.AtVector(f.ChildWrench)
	if err != nil {
		return nil, err
	}
	torque, err := v.AtDouble(f.Torque)
	if err != nil {
		return nil, err
	}
	return []float64{mat.Dot(f.Axis, wrench) - torque}, nil
}

// WrenchPlanarFactor constrains the out-of-plane components of a wrench to zero for planar
// mechanisms: the moments about the two in-plane axes and the force along the plane normal.
type WrenchPlanarFactor struct {
	Wrench factor.Key

	// PlanarAxis is the plane normal and must be a coordinate axis.
	PlanarAxis r3.Vector
}

// Keys implements Factor.
func (f *WrenchPlanarFactor) Keys() []factor.Key {
	return []factor.Key{f.Wrench}
}

// Dim implements Factor.
func (f *WrenchPlanarFactor) Dim() int { return 3 }

// Error implements Factor.
func (f *WrenchPlanarFactor) Error(v factor.Values) ([]float64, error) {
	wrench, err := v.AtVector(f.Wrench)
	if err != nil {
		return nil, err
	}
	idx := planarIndices(f.PlanarAxis)
	return []float64{wrench.AtVec(idx[0]), wrench.AtVec(idx[1]), wrench.AtVec(idx[2])}, nil
}

// planarIndices returns the wrench components that must vanish for motion in the plane
// normal to the given coordinate axis.
func planarIndices(axis r3.Vector) [3]int {
	switch {
	case math.Abs(axis.X) > 0 && axis.Y == 0 && axis.Z == 0:
		return [3]int{1, 2, 3}
	case axis.X == 0 && math.Abs(axis.Y) > 0 && axis.Z == 0:
		return [3]int{0, 2, 4}
	case axis.X == 0 && axis.Y == 0 && math.Abs(axis.Z) > 0:
		return [3]int{0, 1, 5}
	default:
		panic("planar axis must be a coordinate axis")
	}
}
