package dynamics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/factor"
	"github.com/dynograph/dynograph/robot"
	"github.com/dynograph/dynograph/spatialmath"
)

// maxWrenchDegree is the largest joint degree wrench-balance assembly supports.
const maxWrenchDegree = 4

// jointData returns the parent-to-child rest transform and child-frame screw axis of a
// joint. A joint always connects its own child, so neither accessor can fail here.
func jointData(j robot.Joint) (spatialmath.Pose, *mat.VecDense) {
	rest, err := j.Transform(j.ChildName())
	if err != nil {
		panic(err)
	}
	axis, err := j.ScrewAxis(j.ChildName())
	if err != nil {
		panic(err)
	}
	return rest, axis
}

func endpointIDs(r *robot.Robot, j robot.Joint) (parent, child int) {
	pl, err := r.LinkByName(j.ParentName())
	if err != nil {
		panic(err)
	}
	cl, err := r.LinkByName(j.ChildName())
	if err != nil {
		panic(err)
	}
	return pl.ID(), cl.ID()
}

// QFactors returns the pose constraints of one instant: a prior pinning every fixed link to
// its rest pose, and a PoseFactor per joint.
func QFactors(r *robot.Robot, t int) *factor.Graph {
	g := factor.NewGraph()
	for _, link := range r.Links() {
		if link.Fixed() {
			g.Add(&factor.PriorPose{Key: PoseKey(link.ID(), t), Prior: link.CenterOfMassPose()})
		}
	}
	for _, j := range r.Joints() {
		rest, axis := jointData(j)
		pid, cid := endpointIDs(r, j)
		g.Add(&PoseFactor{
			ParentPose: PoseKey(pid, t),
			ChildPose:  PoseKey(cid, t),
			JointAngle: JointAngleKey(j.ID(), t),
			Rest:       rest,
			Axis:       axis,
		})
	}
	return g
}

// VFactors returns the twist constraints of one instant: a zero-twist prior per fixed link
// and a TwistFactor per joint.
func VFactors(r *robot.Robot, t int) *factor.Graph {
	g := factor.NewGraph()
	for _, link := range r.Links() {
		if link.Fixed() {
			g.Add(&factor.PriorVector{Key: TwistKey(link.ID(), t), Prior: spatialmath.ZeroTwist()})
		}
	}
	for _, j := range r.Joints() {
		rest, axis := jointData(j)
		pid, cid := endpointIDs(r, j)
		g.Add(&TwistFactor{
			ParentTwist: TwistKey(pid, t),
			ChildTwist:  TwistKey(cid, t),
			JointAngle:  JointAngleKey(j.ID(), t),
			JointVel:    JointVelKey(j.ID(), t),
			Rest:        rest,
			Axis:        axis,
		})
	}
	return g
}

// AFactors returns the acceleration constraints of one instant: a zero-acceleration prior
// per fixed link and a TwistAccelFactor per joint.
func AFactors(r *robot.Robot, t int) *factor.Graph {
	g := factor.NewGraph()
	for _, link := range r.Links() {
		if link.Fixed() {
			g.Add(&factor.PriorVector{Key: TwistAccelKey(link.ID(), t), Prior: spatialmath.ZeroTwist()})
		}
	}
	for _, j := range r.Joints() {
		rest, axis := jointData(j)
		pid, cid := endpointIDs(r, j)
		g.Add(&TwistAccelFactor{
			ChildTwist:  TwistKey(cid, t),
			ParentAccel: TwistAccelKey(pid, t),
			ChildAccel:  TwistAccelKey(cid, t),
			JointAngle:  JointAngleKey(j.ID(), t),
			JointVel:    JointVelKey(j.ID(), t),
			JointAccel:  JointAccelKey(j.ID(), t),
			Rest:        rest,
			Axis:        axis,
		})
	}
	return g
}

// DynamicsFactors returns the force-level constraints of one instant: a wrench balance per
// non-fixed link, and per joint a wrench equivalence, a torque extraction, and, when a
// planar axis is given, a planar wrench constraint. It fails with ErrUnsupportedLinkDegree
// for links connected by more than four joints.
func DynamicsFactors(r *robot.Robot, t int, gravity, planarAxis *r3.Vector) (*factor.Graph, error) {
	g := factor.NewGraph()
	for _, link := range r.Links() {
		if link.Fixed() {
			continue
		}
		if len(link.Joints()) > maxWrenchDegree {
			return nil, errors.Wrapf(ErrUnsupportedLinkDegree, "link %q has %d joints", link.Name(), len(link.Joints()))
		}
		wrenches := make([]factor.Key, 0, len(link.Joints()))
		for _, name := range link.Joints() {
			j, err := r.JointByName(name)
			if err != nil {
				panic(err)
			}
			wrenches = append(wrenches, WrenchKey(link.ID(), j.ID(), t))
		}
		g.Add(&WrenchBalanceFactor{
			Twist:      TwistKey(link.ID(), t),
			TwistAccel: TwistAccelKey(link.ID(), t),
			Pose:       PoseKey(link.ID(), t),
			Wrenches:   wrenches,
			Inertia:    link.GeneralizedInertia(),
			Mass:       link.Mass(),
			Gravity:    gravity,
		})
	}

	for _, j := range r.Joints() {
		rest, axis := jointData(j)
		pid, cid := endpointIDs(r, j)
		g.Add(&WrenchEquivalenceFactor{
			ParentWrench: WrenchKey(pid, j.ID(), t),
			ChildWrench:  WrenchKey(cid, j.ID(), t),
			JointAngle:   JointAngleKey(j.ID(), t),
			Rest:         rest,
			Axis:         axis,
		})
		g.Add(&TorqueFactor{
			ChildWrench: WrenchKey(cid, j.ID(), t),
			Torque:      TorqueKey(j.ID(), t),
			Axis:        axis,
		})
		if planarAxis != nil {
			g.Add(&WrenchPlanarFactor{
				Wrench:     WrenchKey(cid, j.ID(), t),
				PlanarAxis: *planarAxis,
			})
		}
	}
	return g, nil
}

// DynamicsGraph returns the complete constraint set of one instant: the union of pose,
// twist, acceleration, and force-level constraints.
func DynamicsGraph(r *robot.Robot, t int, gravity, planarAxis *r3.Vector) (*factor.Graph, error) {
	g := QFactors(r, t)
	g.Merge(VFactors(r, t))
	g.Merge(AFactors(r, t))
	dyn, err := DynamicsFactors(r, t, gravity, planarAxis)
	if err != nil {
		return nil, err
	}
	g.Merge(dyn)
	return g, nil
}

// CollocationFactors returns the integration constraints linking instants t and t+1 under a
// fixed step size: one angle/velocity factor and one velocity/acceleration factor per joint.
func CollocationFactors(r *robot.Robot, t int, dt float64, scheme CollocationScheme) (*factor.Graph, error) {
	if scheme != CollocationEuler && scheme != CollocationTrapezoidal {
		return nil, errors.Wrapf(ErrUnsupportedCollocation, "%v", scheme)
	}
	g := factor.NewGraph()
	for _, j := range r.Joints() {
		g.Add(&CollocationFactor{
			X0: JointAngleKey(j.ID(), t), X1: JointAngleKey(j.ID(), t+1),
			D0: JointVelKey(j.ID(), t), D1: JointVelKey(j.ID(), t+1),
			Dt: dt, Scheme: scheme,
		})
		g.Add(&CollocationFactor{
			X0: JointVelKey(j.ID(), t), X1: JointVelKey(j.ID(), t+1),
			D0: JointAccelKey(j.ID(), t), D1: JointAccelKey(j.ID(), t+1),
			Dt: dt, Scheme: scheme,
		})
	}
	return g, nil
}

// MultiPhaseCollocationFactors is CollocationFactors with the step size read from the given
// phase's duration variable.
func MultiPhaseCollocationFactors(r *robot.Robot, t, phase int, scheme CollocationScheme) (*factor.Graph, error) {
	if scheme != CollocationEuler && scheme != CollocationTrapezoidal {
		return nil, errors.Wrapf(ErrUnsupportedCollocation, "%v", scheme)
	}
	g := factor.NewGraph()
	for _, j := range r.Joints() {
		g.Add(&PhaseCollocationFactor{
			X0: JointAngleKey(j.ID(), t), X1: JointAngleKey(j.ID(), t+1),
			D0: JointVelKey(j.ID(), t), D1: JointVelKey(j.ID(), t+1),
			Phase: PhaseKey(phase), Scheme: scheme,
		})
		g.Add(&PhaseCollocationFactor{
			X0: JointVelKey(j.ID(), t), X1: JointVelKey(j.ID(), t+1),
			D0: JointAccelKey(j.ID(), t), D1: JointAccelKey(j.ID(), t+1),
			Phase: PhaseKey(phase), Scheme: scheme,
		})
	}
	return g, nil
}

// TrajectoryGraph returns the constraint set of a whole trajectory: per-instant constraint
// sets for t = 0..numSteps interleaved with numSteps collocation sets for consecutive pairs.
func TrajectoryGraph(
	r *robot.Robot, numSteps int, dt float64, scheme CollocationScheme, gravity, planarAxis *r3.Vector,
) (*factor.Graph, error) {
	g := factor.NewGraph()
	for t := 0; t <= numSteps; t++ {
		instant, err := DynamicsGraph(r, t, gravity, planarAxis)
		if err != nil {
			return nil, err
		}
		g.Merge(instant)
		if t < numSteps {
			coll, err := CollocationFactors(r, t, dt, scheme)
			if err != nil {
				return nil, err
			}
			g.Merge(coll)
		}
	}
	return g, nil
}

// MultiPhaseTrajectoryGraph returns the constraint set of a trajectory split into phases,
// each with its own robot variant and step count. At each phase boundary the externally
// supplied transition constraint set replaces the plain per-instant set (the final phase
// closes with one more plain instant), and all collocation constraints reference the
// per-phase duration variable. Every length precondition violation panics: mismatched
// slice lengths are programming errors.
func MultiPhaseTrajectoryGraph(
	robots []*robot.Robot, phaseSteps []int, transitionGraphs []*factor.Graph,
	scheme CollocationScheme, gravity, planarAxis *r3.Vector,
) (*factor.Graph, error) {
	numPhases := len(robots)
	if len(phaseSteps) != numPhases {
		panic(fmt.Sprintf("got %d phase step counts for %d phases", len(phaseSteps), numPhases))
	}
	if len(transitionGraphs) != numPhases-1 {
		panic(fmt.Sprintf("got %d transition graphs for %d phase boundaries", len(transitionGraphs), numPhases-1))
	}

	g := factor.NewGraph()
	t := 0
	instant, err := DynamicsGraph(robots[0], t, gravity, planarAxis)
	if err != nil {
		return nil, err
	}
	g.Merge(instant)

	for phase := 0; phase < numPhases; phase++ {
		for step := 0; step < phaseSteps[phase]-1; step++ {
			t++
			instant, err := DynamicsGraph(robots[phase], t, gravity, planarAxis)
			if err != nil {
				return nil, err
			}
			g.Merge(instant)
		}
		if phase == numPhases-1 {
			t++
			instant, err := DynamicsGraph(robots[phase], t, gravity, planarAxis)
			if err != nil {
				return nil, err
			}
			g.Merge(instant)
		} else {
			t++
			g.Merge(transitionGraphs[phase])
		}
	}

	t = 0
	for phase := 0; phase < numPhases; phase++ {
		for step := 0; step < phaseSteps[phase]; step++ {
			coll, err := MultiPhaseCollocationFactors(robots[phase], t, phase, scheme)
			if err != nil {
				return nil, err
			}
			g.Merge(coll)
			t++
		}
	}
	return g, nil
}

// ForwardDynamicsPriors pins every joint's angle, velocity, and torque at one instant,
// turning the instant's constraint set into an initial-value (forward dynamics) problem.
func ForwardDynamicsPriors(r *robot.Robot, t int, angles, vels, torques []float64) *factor.Graph {
	checkJointVectorLen(r, "angles", len(angles))
	checkJointVectorLen(r, "vels", len(vels))
	checkJointVectorLen(r, "torques", len(torques))
	g := factor.NewGraph()
	for idx, j := range r.Joints() {
		g.Add(&factor.PriorDouble{Key: JointAngleKey(j.ID(), t), Prior: angles[idx]})
		g.Add(&factor.PriorDouble{Key: JointVelKey(j.ID(), t), Prior: vels[idx]})
		g.Add(&factor.PriorDouble{Key: TorqueKey(j.ID(), t), Prior: torques[idx]})
	}
	return g
}

// TrajectoryPriors pins every joint's angle and velocity at t=0 and its torque at every
// instant, driving a whole-trajectory forward simulation.
func TrajectoryPriors(r *robot.Robot, numSteps int, angles, vels []float64, torqueSeq [][]float64) *factor.Graph {
	checkJointVectorLen(r, "angles", len(angles))
	checkJointVectorLen(r, "vels", len(vels))
	if len(torqueSeq) != numSteps+1 {
		panic(fmt.Sprintf("got %d torque vectors for %d instants", len(torqueSeq), numSteps+1))
	}
	g := factor.NewGraph()
	for idx, j := range r.Joints() {
		g.Add(&factor.PriorDouble{Key: JointAngleKey(j.ID(), 0), Prior: angles[idx]})
		g.Add(&factor.PriorDouble{Key: JointVelKey(j.ID(), 0), Prior: vels[idx]})
	}
	for t := 0; t <= numSteps; t++ {
		checkJointVectorLen(r, "torques", len(torqueSeq[t]))
		for idx, j := range r.Joints() {
			g.Add(&factor.PriorDouble{Key: TorqueKey(j.ID(), t), Prior: torqueSeq[t][idx]})
		}
	}
	return g
}

// ZeroValues returns a default assignment for the full variable set of one instant: link
// poses at their rest center-of-mass poses, everything else zero. Used as an optimizer
// initial guess.
func ZeroValues(r *robot.Robot, t int) factor.Values {
	v := factor.NewValues()
	for _, link := range r.Links() {
		v.InsertPose(PoseKey(link.ID(), t), link.CenterOfMassPose())
		v.InsertVector(TwistKey(link.ID(), t), spatialmath.ZeroTwist())
		v.InsertVector(TwistAccelKey(link.ID(), t), spatialmath.ZeroTwist())
	}
	for _, j := range r.Joints() {
		pid, cid := endpointIDs(r, j)
		v.InsertVector(WrenchKey(pid, j.ID(), t), spatialmath.ZeroTwist())
		v.InsertVector(WrenchKey(cid, j.ID(), t), spatialmath.ZeroTwist())
		v.InsertDouble(TorqueKey(j.ID(), t), 0)
		v.InsertDouble(JointAngleKey(j.ID(), t), 0)
		v.InsertDouble(JointVelKey(j.ID(), t), 0)
		v.InsertDouble(JointAccelKey(j.ID(), t), 0)
	}
	return v
}

// ZeroValuesTrajectory returns a default assignment for a whole trajectory, including phase
// duration variables when numPhases > 0.
func ZeroValuesTrajectory(r *robot.Robot, numSteps, numPhases int) factor.Values {
	v := factor.NewValues()
	for t := 0; t <= numSteps; t++ {
		v.Merge(ZeroValues(r, t))
	}
	if numPhases > 0 {
		for phase := 0; phase <= numPhases; phase++ {
			v.InsertDouble(PhaseKey(phase), 0)
		}
	}
	return v
}

// JointAngles reads the joint coordinate vector at instant t out of a solved assignment,
// in the robot's joint order.
func JointAngles(r *robot.Robot, v factor.Values, t int) ([]float64, error) {
	return readJointVector(r, v, t, JointAngleKey)
}

// JointVels reads the joint velocity vector at instant t out of a solved assignment.
func JointVels(r *robot.Robot, v factor.Values, t int) ([]float64, error) {
	return readJointVector(r, v, t, JointVelKey)
}

// JointAccels reads the joint acceleration vector at instant t out of a solved assignment.
func JointAccels(r *robot.Robot, v factor.Values, t int) ([]float64, error) {
	return readJointVector(r, v, t, JointAccelKey)
}

// JointTorques reads the joint torque vector at instant t out of a solved assignment.
func JointTorques(r *robot.Robot, v factor.Values, t int) ([]float64, error) {
	return readJointVector(r, v, t, TorqueKey)
}

func readJointVector(r *robot.Robot, v factor.Values, t int, key func(int, int) factor.Key) ([]float64, error) {
	out := make([]float64, r.NumJoints())
	for idx, j := range r.Joints() {
		d, err := v.AtDouble(key(j.ID(), t))
		if err != nil {
			return nil, err
		}
		out[idx] = d
	}
	return out, nil
}

func checkJointVectorLen(r *robot.Robot, name string, got int) {
	if got != r.NumJoints() {
		panic(fmt.Sprintf("%s has length %d but robot has %d joints", name, got, r.NumJoints()))
	}
}
