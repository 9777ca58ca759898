package dynamics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/factor"
	"github.com/dynograph/dynograph/robot"
	"github.com/dynograph/dynograph/spatialmath"
)

// twoLinkRobot is a fixed base with one revolute joint to a swinging arm.
func twoLinkRobot(t *testing.T) *robot.Robot {
	t.Helper()
	r, err := robot.New(robot.Config{
		Name: "twolink",
		Base: "l1",
		Links: []robot.LinkConfig{
			{
				Name:         "l1",
				Mass:         100,
				Inertia:      [9]float64{3, 0, 0, 0, 2, 0, 0, 0, 1},
				CenterOfMass: robot.FramePose{Translation: r3.Vector{X: 0, Y: 0, Z: 1}},
			},
			{
				Name:         "l2",
				Mass:         100,
				Inertia:      [9]float64{3, 0, 0, 0, 2, 0, 0, 0, 1},
				CenterOfMass: robot.FramePose{Translation: r3.Vector{X: 0, Y: 0, Z: 3}},
			},
		},
		Joints: []robot.JointConfig{
			{
				Name:          "j1",
				Kind:          robot.KindRevolute,
				Parent:        "l1",
				Child:         "l2",
				Axis:          r3.Vector{X: 1, Y: 0, Z: 0},
				RestTransform: robot.FramePose{Translation: r3.Vector{X: 0, Y: 0, Z: 2}},
			},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	return r
}

func residualAlmostZero(t *testing.T, f factor.Factor, v factor.Values) {
	t.Helper()
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(r), test.ShouldEqual, f.Dim())
	for i := range r {
		test.That(t, r[i], test.ShouldAlmostEqual, 0, 1e-9)
	}
}

var (
	testRest = spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 2})
	testAxis = spatialmath.NewTwist(r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{})
)

func TestPoseFactor(t *testing.T) {
	f := &PoseFactor{ParentPose: 1, ChildPose: 2, JointAngle: 3, Rest: testRest, Axis: testAxis}
	test.That(t, f.Keys(), test.ShouldResemble, []factor.Key{1, 2, 3})

	parent := spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 1})
	q := math.Pi / 4
	v := factor.NewValues()
	v.InsertPose(1, parent)
	v.InsertPose(2, spatialmath.Compose(parent, spatialmath.JointTransform(testRest, testAxis, q)))
	v.InsertDouble(3, q)
	residualAlmostZero(t, f, v)

	// a perturbed child pose shows up in the residual
	v.InsertPose(2, spatialmath.Compose(parent, spatialmath.JointTransform(testRest, testAxis, q+0.1)))
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[0], test.ShouldAlmostEqual, -0.1, 1e-9)

	_, err = f.Error(factor.NewValues())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTwistFactor(t *testing.T) {
	f := &TwistFactor{ParentTwist: 1, ChildTwist: 2, JointAngle: 3, JointVel: 4, Rest: testRest, Axis: testAxis}

	v := factor.NewValues()
	v.InsertVector(1, spatialmath.ZeroTwist())
	v.InsertVector(2, spatialmath.ZeroTwist())
	v.InsertDouble(3, 0.0)
	v.InsertDouble(4, 0.0)
	residualAlmostZero(t, f, v)

	// a still parent: the child twist is the axis scaled by the joint velocity
	v.InsertDouble(4, 2.0)
	v.InsertVector(2, spatialmath.NewTwist(r3.Vector{X: 2, Y: 0, Z: 0}, r3.Vector{}))
	residualAlmostZero(t, f, v)
}

func TestTwistAccelFactor(t *testing.T) {
	f := &TwistAccelFactor{
		ChildTwist: 1, ParentAccel: 2, ChildAccel: 3,
		JointAngle: 4, JointVel: 5, JointAccel: 6,
		Rest: testRest, Axis: testAxis,
	}

	v := factor.NewValues()
	v.InsertVector(1, spatialmath.NewTwist(r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{}))
	v.InsertVector(2, spatialmath.ZeroTwist())
	v.InsertVector(3, spatialmath.NewTwist(r3.Vector{X: 2, Y: 0, Z: 0}, r3.Vector{}))
	v.InsertDouble(4, 0.0)
	v.InsertDouble(5, 1.0)
	v.InsertDouble(6, 2.0)
	// the bias bracket vanishes since the twist is parallel to the axis
	residualAlmostZero(t, f, v)
}

func TestWrenchEquivalenceFactor(t *testing.T) {
	f := &WrenchEquivalenceFactor{ParentWrench: 1, ChildWrench: 2, JointAngle: 3, Rest: testRest, Axis: testAxis}

	v := factor.NewValues()
	v.InsertVector(1, spatialmath.NewTwist(r3.Vector{X: 0, Y: -2, Z: 0}, r3.Vector{X: -1, Y: 0, Z: 0}))
	v.InsertVector(2, spatialmath.NewTwist(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0}))
	v.InsertDouble(3, 0.0)
	residualAlmostZero(t, f, v)
}

func TestTorqueFactor(t *testing.T) {
	f := &TorqueFactor{ChildWrench: 1, Torque: 2, Axis: testAxis}
	test.That(t, f.Dim(), test.ShouldEqual, 1)

	v := factor.NewValues()
	v.InsertVector(1, spatialmath.NewTwist(r3.Vector{X: 5, Y: 7, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 9}))
	v.InsertDouble(2, 5.0)
	residualAlmostZero(t, f, v)

	v.InsertDouble(2, 4.0)
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[0], test.ShouldAlmostEqual, 1)
}

func TestWrenchPlanarFactor(t *testing.T) {
	v := factor.NewValues()
	v.InsertVector(1, mat.NewVecDense(6, []float64{1, 2, 3, 4, 5, 6}))

	f := &WrenchPlanarFactor{Wrench: 1, PlanarAxis: r3.Vector{X: 0, Y: 0, Z: 1}}
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, []float64{1, 2, 6})

	f = &WrenchPlanarFactor{Wrench: 1, PlanarAxis: r3.Vector{X: 1, Y: 0, Z: 0}}
	r, err = f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, []float64{2, 3, 4})

	f = &WrenchPlanarFactor{Wrench: 1, PlanarAxis: r3.Vector{X: 0, Y: 1, Z: 0}}
	r, err = f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, []float64{1, 3, 5})

	test.That(t, func() { planarIndices(r3.Vector{X: 1, Y: 1, Z: 0}) }, test.ShouldPanic)
}

func TestWrenchBalanceStatic(t *testing.T) {
	// a motionless link under gravity is balanced by a single supporting wrench equal to
	// its weight
	gravity := r3.Vector{X: 0, Y: 0, Z: -9.8}
	f := &WrenchBalanceFactor{
		Twist: 1, TwistAccel: 2, Pose: 3,
		Wrenches: []factor.Key{4},
		Inertia:  spatialmath.GeneralizedInertia(100, mat.NewDense(3, 3, []float64{3, 0, 0, 0, 2, 0, 0, 0, 1})),
		Mass:     100,
		Gravity:  &gravity,
	}
	test.That(t, f.Keys(), test.ShouldResemble, []factor.Key{1, 2, 3, 4})

	v := factor.NewValues()
	v.InsertVector(1, spatialmath.ZeroTwist())
	v.InsertVector(2, spatialmath.ZeroTwist())
	v.InsertPose(3, spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 3}))
	v.InsertVector(4, spatialmath.NewTwist(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: -980}))
	residualAlmostZero(t, f, v)

	// without the support the residual is exactly the weight
	f.Wrenches = nil
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[5], test.ShouldAlmostEqual, 980)
}

func TestCollocationFactor(t *testing.T) {
	v := factor.NewValues()
	v.InsertDouble(1, 1.0)
	v.InsertDouble(2, 1.2)
	v.InsertDouble(3, 2.0)
	v.InsertDouble(4, 4.0)

	euler := &CollocationFactor{X0: 1, X1: 2, D0: 3, D1: 4, Dt: 0.1, Scheme: CollocationEuler}
	test.That(t, euler.Keys(), test.ShouldResemble, []factor.Key{1, 2, 3})
	residualAlmostZero(t, euler, v)

	// a perturbed endpoint violates the update rule
	v.InsertDouble(2, 1.25)
	r, err := euler.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[0], test.ShouldAlmostEqual, -0.05)
	v.InsertDouble(2, 1.2)

	trapezoidal := &CollocationFactor{X0: 1, X1: 2, D0: 3, D1: 4, Dt: 0.1, Scheme: CollocationTrapezoidal}
	test.That(t, trapezoidal.Keys(), test.ShouldResemble, []factor.Key{1, 2, 3, 4})
	r, err = trapezoidal.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[0], test.ShouldAlmostEqual, 0.1)

	v.InsertDouble(2, 1.3)
	residualAlmostZero(t, trapezoidal, v)

	rk := &CollocationFactor{X0: 1, X1: 2, D0: 3, D1: 4, Dt: 0.1, Scheme: CollocationRungeKutta}
	_, err = rk.Error(v)
	test.That(t, errors.Is(err, ErrUnsupportedCollocation), test.ShouldBeTrue)
}

func TestPhaseCollocationFactor(t *testing.T) {
	v := factor.NewValues()
	v.InsertDouble(1, 1.0)
	v.InsertDouble(2, 1.2)
	v.InsertDouble(3, 2.0)
	v.InsertDouble(10, 0.1)

	f := &PhaseCollocationFactor{X0: 1, X1: 2, D0: 3, D1: 4, Phase: 10, Scheme: CollocationEuler}
	test.That(t, f.Keys(), test.ShouldResemble, []factor.Key{1, 2, 3, 10})
	residualAlmostZero(t, f, v)

	// halving the duration leaves half the step unexplained
	v.InsertDouble(10, 0.05)
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[0], test.ShouldAlmostEqual, -0.1)
}

func TestCollocationSchemeString(t *testing.T) {
	test.That(t, CollocationEuler.String(), test.ShouldEqual, "euler")
	test.That(t, CollocationTrapezoidal.String(), test.ShouldEqual, "trapezoidal")
	test.That(t, CollocationRungeKutta.String(), test.ShouldEqual, "runge-kutta")
	test.That(t, CollocationHermiteSimpson.String(), test.ShouldEqual, "hermite-simpson")
}
