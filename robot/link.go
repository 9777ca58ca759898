package robot

import (
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

// Link is a rigid body in a robot. It is immutable after construction; only joint
// configuration varies per query, never link geometry. A Link records its adjacency by
// name, and the owning Robot's lookup tables resolve names to objects, so links and joints
// never hold owning references to each other.
type Link struct {
	name    string
	id      int
	mass    float64
	inertia *mat.Dense
	// rest pose of the link frame in the world frame
	pose spatialmath.Pose
	// rest pose of the center-of-mass frame in the world frame
	comPose spatialmath.Pose
	fixed   bool

	// adjacency, in joint declaration order; a link in a closed loop can have more
	// than one parent
	joints       []string
	parentJoints []string
	childJoints  []string
	parentLinks  []string
	childLinks   []string
}

// Name returns the link's name, unique within its robot.
func (l *Link) Name() string { return l.name }

// ID returns the link's integer id, unique within its robot.
func (l *Link) ID() int { return l.id }

// Mass returns the link's mass.
func (l *Link) Mass() float64 { return l.mass }

// Inertia returns the 3x3 rotational inertia tensor about the center of mass.
func (l *Link) Inertia() *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	out.Copy(l.inertia)
	return out
}

// GeneralizedInertia returns the link's 6x6 spatial inertia about its center of mass.
func (l *Link) GeneralizedInertia() *mat.Dense {
	return spatialmath.GeneralizedInertia(l.mass, l.inertia)
}

// Pose returns the rest pose of the link frame in the world frame.
func (l *Link) Pose() spatialmath.Pose { return l.pose }

// CenterOfMassPose returns the rest pose of the center-of-mass frame in the world frame.
func (l *Link) CenterOfMassPose() spatialmath.Pose { return l.comPose }

// Fixed reports whether the link is pinned to the world.
func (l *Link) Fixed() bool { return l.fixed }

// Joints returns the names of all joints incident to this link.
func (l *Link) Joints() []string { return l.joints }

// ParentJoints returns the names of joints for which this link is the child.
func (l *Link) ParentJoints() []string { return l.parentJoints }

// ChildJoints returns the names of joints for which this link is the parent.
func (l *Link) ChildJoints() []string { return l.childJoints }

// ParentLinks returns the names of links on the parent side of this link's parent joints.
func (l *Link) ParentLinks() []string { return l.parentLinks }

// ChildLinks returns the names of links on the child side of this link's child joints.
func (l *Link) ChildLinks() []string { return l.childLinks }

func newLink(cfg LinkConfig, id int, fixed bool) *Link {
	inertia := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inertia.Set(i, j, cfg.Inertia[i*3+j])
		}
	}
	return &Link{
		name:    cfg.Name,
		id:      id,
		mass:    cfg.Mass,
		inertia: inertia,
		pose:    cfg.Pose.Pose(),
		comPose: cfg.CenterOfMass.Pose(),
		fixed:   fixed,
	}
}
