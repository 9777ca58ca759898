package robot

import (
	"github.com/golang/geo/r3"

	"github.com/dynograph/dynograph/spatialmath"
)

// Config is the structural description of a robot, the contract type an external URDF/SDF
// parser produces. Every joint's parent and child must name links present in Links; the
// parser is expected to guarantee that, and New verifies it.
type Config struct {
	Name   string        `json:"name"`
	Base   string        `json:"base"`
	Links  []LinkConfig  `json:"links"`
	Joints []JointConfig `json:"joints"`
}

// FramePose is a serializable rigid transform: a translation and an axis-angle orientation.
type FramePose struct {
	Translation r3.Vector        `json:"translation"`
	Orientation spatialmath.R4AA `json:"orientation"`
}

// Pose converts the FramePose to a spatialmath Pose.
func (fp FramePose) Pose() spatialmath.Pose {
	if fp.Orientation.RX == 0 && fp.Orientation.RY == 0 && fp.Orientation.RZ == 0 {
		return spatialmath.NewPoseFromPoint(fp.Translation)
	}
	return spatialmath.NewPoseFromAxisAngle(fp.Translation, fp.Orientation)
}

// LinkConfig describes one rigid body.
type LinkConfig struct {
	Name string  `json:"name"`
	Mass float64 `json:"mass"`
	// Inertia is the 3x3 rotational inertia tensor about the center of mass, row-major.
	Inertia [9]float64 `json:"inertia"`
	// Pose is the rest pose of the link frame in the world frame.
	Pose FramePose `json:"pose"`
	// CenterOfMass is the rest pose of the center-of-mass frame in the world frame.
	CenterOfMass FramePose `json:"center_of_mass"`
	// Fixed marks the link as pinned to the world. The base link is always fixed.
	Fixed bool `json:"fixed,omitempty"`
}

// JointConfig describes one typed connector between two links.
type JointConfig struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Parent string `json:"parent"`
	Child  string `json:"child"`
	// Axis is the direction of the joint's screw axis, expressed in the child link's
	// center-of-mass frame: the rotation axis for a revolute joint, the translation
	// direction for a prismatic one. It is normalized at construction.
	Axis r3.Vector `json:"axis"`
	// RestTransform is the transform from the parent link's center-of-mass frame to the
	// child link's center-of-mass frame at the joint's rest coordinate.
	RestTransform FramePose `json:"rest_transform"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	// Threshold is the limit-violation threshold used by joint-limit constraints.
	Threshold float64 `json:"threshold,omitempty"`
}

// JointOverride adjusts per-joint parameters not present in the structural description,
// e.g. whether a joint is actuated.
type JointOverride struct {
	Name      string
	Actuation ActuationType
}
