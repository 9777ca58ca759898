package robot

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

// Kind identifies a joint type. The set is closed; adding a kind means adding an
// implementation of the Joint interface.
type Kind string

// The supported joint kinds.
const (
	KindRevolute  Kind = "revolute"
	KindPrismatic Kind = "prismatic"
)

// ActuationType describes how a joint is driven.
type ActuationType string

// The supported actuation types.
const (
	ActuationActuated   ActuationType = "actuated"
	ActuationUnactuated ActuationType = "unactuated"
	ActuationImpedance  ActuationType = "impedance"
)

// Joint is a typed connector between two links. Implementations are immutable after
// construction and hold their endpoints by name only; the owning Robot resolves names.
//
// Frame conventions: the screw axis is expressed in the child link's center-of-mass frame,
// with unit angular part for a revolute joint and zero angular, unit linear part for a
// prismatic one. Transform(child) is the transform from the parent's center-of-mass frame
// to the child's; Transform(parent) is its inverse.
type Joint interface {
	Name() string
	ID() int
	Kind() Kind
	ParentName() string
	ChildName() string
	Actuation() ActuationType

	// RestTransform is the parent-to-child transform at the rest coordinate.
	RestTransform() spatialmath.Pose

	// ScrewAxis returns the joint's screw axis expressed in the named endpoint's
	// center-of-mass frame. Returns ErrInvalidEndpoint for any other link.
	ScrewAxis(link string) (*mat.VecDense, error)

	// Transform returns the relative transform at the rest coordinate, oriented toward
	// the named endpoint: the transform whose source is the other endpoint's frame.
	Transform(link string) (spatialmath.Pose, error)

	// TransformAt is Transform at an arbitrary joint coordinate value.
	TransformAt(link string, q float64) (spatialmath.Pose, error)

	// Twist returns the twist of the child frame given the parent's twist, the joint
	// coordinate, and the joint velocity.
	Twist(parentTwist *mat.VecDense, q, qdot float64) *mat.VecDense

	// WrenchTorqueProjection projects a child-frame wrench onto the screw axis, yielding
	// the scalar torque (revolute) or force (prismatic) the joint carries.
	WrenchTorqueProjection(wrench *mat.VecDense) float64

	LowerLimit() float64
	UpperLimit() float64
	LimitThreshold() float64
}

// jointBody carries everything common to the joint kinds. Kind-specific behavior is only
// the axis convention, enforced at construction.
type jointBody struct {
	name      string
	id        int
	parent    string
	child     string
	axis      *mat.VecDense
	rest      spatialmath.Pose
	min       float64
	max       float64
	threshold float64
	actuation ActuationType
}

func (j *jointBody) Name() string                    { return j.name }
func (j *jointBody) ID() int                         { return j.id }
func (j *jointBody) ParentName() string              { return j.parent }
func (j *jointBody) ChildName() string               { return j.child }
func (j *jointBody) Actuation() ActuationType        { return j.actuation }
func (j *jointBody) RestTransform() spatialmath.Pose { return j.rest }
func (j *jointBody) LowerLimit() float64             { return j.min }
func (j *jointBody) UpperLimit() float64             { return j.max }
func (j *jointBody) LimitThreshold() float64         { return j.threshold }

func (j *jointBody) ScrewAxis(link string) (*mat.VecDense, error) {
	switch link {
	case j.child:
		out := mat.NewVecDense(6, nil)
		out.CopyVec(j.axis)
		return out, nil
	case j.parent:
		// conjugate the child-frame axis into the parent frame through the rest transform
		return spatialmath.TransformTwist(j.rest, j.axis), nil
	default:
		return nil, errors.Wrapf(ErrInvalidEndpoint, "link %q is not connected by joint %q", link, j.name)
	}
}

func (j *jointBody) Transform(link string) (spatialmath.Pose, error) {
	return j.TransformAt(link, 0)
}

func (j *jointBody) TransformAt(link string, q float64) (spatialmath.Pose, error) {
	switch link {
	case j.child:
		return spatialmath.JointTransform(j.rest, j.axis, q), nil
	case j.parent:
		return spatialmath.JointTransform(j.rest, j.axis, q).Invert(), nil
	default:
		return spatialmath.Pose{}, errors.Wrapf(ErrInvalidEndpoint, "link %q is not connected by joint %q", link, j.name)
	}
}

func (j *jointBody) Twist(parentTwist *mat.VecDense, q, qdot float64) *mat.VecDense {
	childToParent := spatialmath.JointTransform(j.rest, j.axis, q).Invert()
	out := spatialmath.TransformTwist(childToParent, parentTwist)
	out.AddScaledVec(out, qdot, j.axis)
	return out
}

func (j *jointBody) WrenchTorqueProjection(wrench *mat.VecDense) float64 {
	return mat.Dot(j.axis, wrench)
}

// revoluteJoint rotates the child about a unit angular axis.
type revoluteJoint struct {
	jointBody
}

func (j *revoluteJoint) Kind() Kind { return KindRevolute }

// prismaticJoint translates the child along a unit linear axis.
type prismaticJoint struct {
	jointBody
}

func (j *prismaticJoint) Kind() Kind { return KindPrismatic }

func newJoint(cfg JointConfig, id int) (Joint, error) {
	if cfg.Axis.Norm() == 0 {
		return nil, errors.Wrapf(ErrMalformedStructure, "joint %q has a zero screw axis", cfg.Name)
	}
	unit := cfg.Axis.Normalize()
	body := jointBody{
		name:      cfg.Name,
		id:        id,
		parent:    cfg.Parent,
		child:     cfg.Child,
		rest:      cfg.RestTransform.Pose(),
		min:       cfg.Min,
		max:       cfg.Max,
		threshold: cfg.Threshold,
		actuation: ActuationActuated,
	}
	switch cfg.Kind {
	case KindRevolute:
		body.axis = spatialmath.NewTwist(unit, r3.Vector{})
		return &revoluteJoint{body}, nil
	case KindPrismatic:
		body.axis = spatialmath.NewTwist(r3.Vector{}, unit)
		return &prismaticJoint{body}, nil
	default:
		return nil, errors.Wrapf(ErrMalformedStructure, "joint %q has unknown kind %q", cfg.Name, cfg.Kind)
	}
}
