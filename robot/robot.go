// Package robot models an articulated rigid-body mechanism as a graph of links and typed
// joints. The graph may contain cycles (closed kinematic loops), so adjacency is kept as
// lists per link rather than a parent-pointer tree. A Robot is immutable once built and is
// safe for concurrent read; per-query joint angles are passed as arguments.
package robot

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

// Robot owns the link and joint collections of one mechanism and resolves the name
// references they hold against each other.
type Robot struct {
	name        string
	base        string
	links       []*Link
	joints      []Joint
	linkByName  map[string]*Link
	jointByName map[string]Joint
}

// New builds a Robot from a structural description, resolving every joint's endpoints and
// populating parent/child adjacency on each link. Overrides adjust per-joint parameters by
// name. It fails with ErrMalformedStructure if a joint references an unknown link, if names
// collide, or if any link is unreachable from the base through the joint graph.
func New(cfg Config, overrides ...JointOverride) (*Robot, error) {
	r := &Robot{
		name:        cfg.Name,
		base:        cfg.Base,
		linkByName:  make(map[string]*Link, len(cfg.Links)),
		jointByName: make(map[string]Joint, len(cfg.Joints)),
	}

	var errAll error
	for i, lc := range cfg.Links {
		if _, ok := r.linkByName[lc.Name]; ok {
			multierr.AppendInto(&errAll, errors.Wrapf(ErrMalformedStructure, "duplicate link name %q", lc.Name))
			continue
		}
		link := newLink(lc, i, lc.Fixed || lc.Name == cfg.Base)
		r.links = append(r.links, link)
		r.linkByName[lc.Name] = link
	}

	actuations := make(map[string]ActuationType, len(overrides))
	for _, o := range overrides {
		actuations[o.Name] = o.Actuation
	}

	for i, jc := range cfg.Joints {
		if _, ok := r.jointByName[jc.Name]; ok {
			multierr.AppendInto(&errAll, errors.Wrapf(ErrMalformedStructure, "duplicate joint name %q", jc.Name))
			continue
		}
		parent, ok := r.linkByName[jc.Parent]
		if !ok {
			multierr.AppendInto(&errAll, errors.Wrapf(ErrMalformedStructure, "joint %q references unknown parent link %q", jc.Name, jc.Parent))
			continue
		}
		child, ok := r.linkByName[jc.Child]
		if !ok {
			multierr.AppendInto(&errAll, errors.Wrapf(ErrMalformedStructure, "joint %q references unknown child link %q", jc.Name, jc.Child))
			continue
		}
		joint, err := newJoint(jc, i)
		if err != nil {
			multierr.AppendInto(&errAll, err)
			continue
		}
		if a, ok := actuations[jc.Name]; ok {
			joint.(actuationSetter).setActuation(a)
		}
		r.joints = append(r.joints, joint)
		r.jointByName[jc.Name] = joint

		parent.joints = append(parent.joints, jc.Name)
		parent.childJoints = append(parent.childJoints, jc.Name)
		parent.childLinks = append(parent.childLinks, jc.Child)
		child.joints = append(child.joints, jc.Name)
		child.parentJoints = append(child.parentJoints, jc.Name)
		child.parentLinks = append(child.parentLinks, jc.Parent)
	}
	if errAll != nil {
		return nil, errAll
	}

	if _, ok := r.linkByName[cfg.Base]; !ok {
		return nil, errors.Wrapf(ErrMalformedStructure, "base link %q is not in the link set", cfg.Base)
	}
	if err := r.checkConnected(); err != nil {
		return nil, err
	}
	return r, nil
}

// checkConnected walks the joint graph breadth-first from the base; loops are fine, but
// every link must be reachable.
func (r *Robot) checkConnected() error {
	visited := map[string]bool{r.base: true}
	queue := []string{r.base}
	for len(queue) > 0 {
		link := r.linkByName[queue[0]]
		queue = queue[1:]
		for _, neighbor := range append(append([]string{}, link.parentLinks...), link.childLinks...) {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	var errAll error
	for _, l := range r.links {
		if !visited[l.name] {
			multierr.AppendInto(&errAll, errors.Wrapf(ErrMalformedStructure, "link %q is disconnected from base %q", l.name, r.base))
		}
	}
	return errAll
}

// Name returns the robot's name.
func (r *Robot) Name() string { return r.name }

// BaseName returns the name of the designated base link.
func (r *Robot) BaseName() string { return r.base }

// Links returns the robot's links in declaration order.
func (r *Robot) Links() []*Link { return r.links }

// Joints returns the robot's joints in declaration order.
func (r *Robot) Joints() []Joint { return r.joints }

// NumLinks returns the number of links.
func (r *Robot) NumLinks() int { return len(r.links) }

// NumJoints returns the number of joints.
func (r *Robot) NumJoints() int { return len(r.joints) }

// LinkByName returns the named link.
func (r *Robot) LinkByName(name string) (*Link, error) {
	l, ok := r.linkByName[name]
	if !ok {
		return nil, errors.Errorf("robot %q has no link named %q", r.name, name)
	}
	return l, nil
}

// JointByName returns the named joint.
func (r *Robot) JointByName(name string) (Joint, error) {
	j, ok := r.jointByName[name]
	if !ok {
		return nil, errors.Errorf("robot %q has no joint named %q", r.name, name)
	}
	return j, nil
}

// GetJointBetweenLinks returns the joint directly connecting the two named links,
// regardless of argument order. It returns ErrNoSuchJoint if none exists and
// ErrAmbiguousJoint if the model declares more than one joint between the pair.
func (r *Robot) GetJointBetweenLinks(l1, l2 string) (Joint, error) {
	var found Joint
	for _, j := range r.joints {
		if (j.ParentName() == l1 && j.ChildName() == l2) || (j.ParentName() == l2 && j.ChildName() == l1) {
			if found != nil {
				return nil, errors.Wrapf(ErrAmbiguousJoint, "links %q and %q", l1, l2)
			}
			found = j
		}
	}
	if found == nil {
		return nil, errors.Wrapf(ErrNoSuchJoint, "links %q and %q", l1, l2)
	}
	return found, nil
}

// LinkTransforms returns, for every link, the transform from each of its parent links'
// center-of-mass frames to its own, at the supplied joint angles. Joints absent from the
// map are evaluated at their rest coordinate. Each transform is local to one joint, so no
// global traversal is needed; a link inside a closed loop simply gets one entry per parent.
// The inner map is keyed by parent link name, so when a model declares several joints
// between the same pair of links the last declared joint's transform is the one kept.
func (r *Robot) LinkTransforms(angles map[string]float64) map[string]map[string]spatialmath.Pose {
	out := make(map[string]map[string]spatialmath.Pose, len(r.links))
	for _, l := range r.links {
		out[l.name] = make(map[string]spatialmath.Pose, len(l.parentJoints))
	}
	for _, j := range r.joints {
		q := angles[j.Name()]
		// the child endpoint never errors, the joint always connects its own child
		pose, err := j.TransformAt(j.ChildName(), q)
		if err != nil {
			panic(err)
		}
		out[j.ChildName()][j.ParentName()] = pose
	}
	return out
}

// ScrewAxes returns each joint's screw axis in its child link's center-of-mass frame,
// keyed by joint name.
func (r *Robot) ScrewAxes() map[string]*mat.VecDense {
	out := make(map[string]*mat.VecDense, len(r.joints))
	for _, j := range r.joints {
		axis, err := j.ScrewAxis(j.ChildName())
		if err != nil {
			panic(err)
		}
		out[j.Name()] = axis
	}
	return out
}

// JointLowerLimits returns all joint lower limits, keyed by joint name.
func (r *Robot) JointLowerLimits() map[string]float64 {
	out := make(map[string]float64, len(r.joints))
	for _, j := range r.joints {
		out[j.Name()] = j.LowerLimit()
	}
	return out
}

// JointUpperLimits returns all joint upper limits, keyed by joint name.
func (r *Robot) JointUpperLimits() map[string]float64 {
	out := make(map[string]float64, len(r.joints))
	for _, j := range r.joints {
		out[j.Name()] = j.UpperLimit()
	}
	return out
}

// JointLimitThresholds returns all joint limit-violation thresholds, keyed by joint name.
func (r *Robot) JointLimitThresholds() map[string]float64 {
	out := make(map[string]float64, len(r.joints))
	for _, j := range r.joints {
		out[j.Name()] = j.LimitThreshold()
	}
	return out
}

// actuationSetter lets New apply overrides without widening the public Joint interface.
type actuationSetter interface {
	setActuation(ActuationType)
}

func (j *jointBody) setActuation(a ActuationType) {
	j.actuation = a
}
