package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, p.Rotation().Real, test.ShouldEqual, 1)
}

func TestPoseFromPoint(t *testing.T) {
	pt := r3.Vector{X: 1, Y: -2, Z: 3}
	p := NewPoseFromPoint(pt)
	test.That(t, R3VectorAlmostEqual(p.Point(), pt, 1e-10), test.ShouldBeTrue)
	test.That(t, p.Rotation().Real, test.ShouldEqual, 1)
}

func TestPoseFromAxisAngle(t *testing.T) {
	pt := r3.Vector{X: 0, Y: 0, Z: 2}
	p := NewPoseFromAxisAngle(pt, R4AA{math.Pi / 2, 1, 0, 0})
	test.That(t, R3VectorAlmostEqual(p.Point(), pt, 1e-10), test.ShouldBeTrue)
	o := p.Orientation()
	test.That(t, o.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, o.RX, test.ShouldAlmostEqual, 1)
	test.That(t, o.RY, test.ShouldAlmostEqual, 0)
	test.That(t, o.RZ, test.ShouldAlmostEqual, 0)

	// zero axis means a pure translation
	q := NewPoseFromAxisAngle(pt, R4AA{0, 0, 0, 0})
	test.That(t, q.Rotation().Real, test.ShouldEqual, 1)
}

func TestCompose(t *testing.T) {
	rotZ := NewPoseFromAxisAngle(r3.Vector{}, R4AA{math.Pi / 2, 0, 0, 1})
	transX := NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0})

	// rotating first carries the translation along
	p := Compose(rotZ, transX)
	test.That(t, R3VectorAlmostEqual(p.Point(), r3.Vector{X: 0, Y: 1, Z: 0}, 1e-10), test.ShouldBeTrue)

	q := Compose(transX, rotZ)
	test.That(t, R3VectorAlmostEqual(q.Point(), r3.Vector{X: 1, Y: 0, Z: 0}, 1e-10), test.ShouldBeTrue)
}

func TestInvert(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, R4AA{0.7, 0, 1, 0})
	ident := Compose(p, p.Invert())
	test.That(t, PoseAlmostEqual(ident, NewZeroPose(), 1e-10), test.ShouldBeTrue)
	ident = Compose(p.Invert(), p)
	test.That(t, PoseAlmostEqual(ident, NewZeroPose(), 1e-10), test.ShouldBeTrue)
}

func TestRotationMatrix(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{}, R4AA{math.Pi / 2, 0, 0, 1})
	r := p.RotationMatrix()
	// 90 degrees about z maps x to y
	test.That(t, r.At(0, 0), test.ShouldAlmostEqual, 0)
	test.That(t, r.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, r.At(2, 2), test.ShouldAlmostEqual, 1)
}

func TestExpLogRoundTrip(t *testing.T) {
	for _, coords := range [][]float64{
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, -2, 3},
		{math.Pi / 2, 0, 0, 0, 0, 0},
		{0.1, 0.2, 0.3, 1, 2, 3},
		{-0.4, 0.9, -1.2, 0.5, 0, -0.5},
	} {
		xi := mat.NewVecDense(6, coords)
		back := Exp(xi).Log()
		for i := 0; i < 6; i++ {
			test.That(t, back.AtVec(i), test.ShouldAlmostEqual, xi.AtVec(i), 1e-8)
		}
	}
}

func TestExpPureTranslation(t *testing.T) {
	xi := mat.NewVecDense(6, []float64{0, 0, 0, 1, 2, 3})
	p := Exp(xi)
	test.That(t, R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-10), test.ShouldBeTrue)
	test.That(t, p.Rotation().Real, test.ShouldEqual, 1)
}

func TestLogPureTranslation(t *testing.T) {
	p := NewPoseFromPoint(r3.Vector{X: 4, Y: 5, Z: 6})
	xi := p.Log()
	expected := []float64{0, 0, 0, 4, 5, 6}
	for i := 0; i < 6; i++ {
		test.That(t, xi.AtVec(i), test.ShouldAlmostEqual, expected[i], 1e-10)
	}
}

func TestLogComposeConsistency(t *testing.T) {
	// Log of a relative transform recovers the coordinates that Exp consumed
	a := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 0, Z: 0}, R4AA{0.3, 0, 0, 1})
	xi := mat.NewVecDense(6, []float64{0.2, -0.1, 0.4, 0.7, 0.1, -0.3})
	b := Compose(a, Exp(xi))
	rel := Compose(a.Invert(), b).Log()
	for i := 0; i < 6; i++ {
		test.That(t, rel.AtVec(i), test.ShouldAlmostEqual, xi.AtVec(i), 1e-8)
	}
}
