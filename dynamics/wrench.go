package dynamics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/factor"
	"github.com/dynograph/dynograph/spatialmath"
)

// WrenchBalanceFactor is the Newton-Euler force balance of one link: its spatial inertia
// times its acceleration, minus the gyroscopic term, must equal the sum of the wrenches its
// joints apply plus gravity. The factor's arity grows with the link's joint degree; one
// wrench variable per incident joint.
type WrenchBalanceFactor struct {
	Twist      factor.Key
	TwistAccel factor.Key
	Pose       factor.Key
	Wrenches   []factor.Key

	// Inertia is the link's 6x6 spatial inertia about its center of mass.
	Inertia *mat.Dense
	// Mass is the link's mass, used for the gravity wrench.
	Mass float64
	// Gravity is the gravity vector in the world frame, or nil for no gravity.
	Gravity *r3.Vector
}

// Keys implements Factor.
func (f *WrenchBalanceFactor) Keys() []factor.Key {
	keys := []factor.Key{f.Twist, f.TwistAccel, f.Pose}
	return append(keys, f.Wrenches...)
}

// Dim implements Factor.
func (f *WrenchBalanceFactor) Dim() int { return 6 }

// Error implements Factor.
func (f *WrenchBalanceFactor) Error(v factor.Values) ([]float64, error) {
	twist, err := v.AtVector(f.Twist)
	if err != nil {
		return nil, err
	}
	accel, err := v.AtVector(f.TwistAccel)
	if err != nil {
		return nil, err
	}
	pose, err := v.AtPose(f.Pose)
	if err != nil {
		return nil, err
	}

	// G*a - ad(V)^T * G*V
	out := mat.NewVecDense(6, nil)
	out.MulVec(f.Inertia, accel)
	momentum := mat.NewVecDense(6, nil)
	momentum.MulVec(f.Inertia, twist)
	gyro := mat.NewVecDense(6, nil)
	gyro.MulVec(spatialmath.Ad(twist).T(), momentum)
	out.SubVec(out, gyro)

	for _, wk := range f.Wrenches {
		w, err := v.AtVector(wk)
		if err != nil {
			return nil, err
		}
		out.SubVec(out, w)
	}

	if f.Gravity != nil {
		// gravity force in the link frame: m * R^T * g
		g := mat.NewVecDense(3, []float64{f.Gravity.X, f.Gravity.Y, f.Gravity.Z})
		local := mat.NewVecDense(3, nil)
		local.MulVec(pose.RotationMatrix().T(), g)
		for i := 0; i < 3; i++ {
			out.SetVec(3+i, out.AtVec(3+i)-f.Mass*local.AtVec(i))
		}
	}
	return out.RawVector().Data, nil
}
