package factor

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/dynograph/dynograph/spatialmath"
)

func TestValuesAccessors(t *testing.T) {
	v := NewValues()
	v.InsertPose(1, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3}))
	v.InsertVector(2, mat.NewVecDense(6, []float64{1, 0, 0, 0, 0, 0}))
	v.InsertDouble(3, 4.5)

	p, err := v.AtPose(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-10), test.ShouldBeTrue)

	vec, err := v.AtVector(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vec.AtVec(0), test.ShouldEqual, 1)

	d, err := v.AtDouble(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 4.5)

	test.That(t, v.Has(1), test.ShouldBeTrue)
	test.That(t, v.Has(99), test.ShouldBeFalse)
}

func TestValuesErrors(t *testing.T) {
	v := NewValues()
	v.InsertDouble(1, 1)

	_, err := v.AtPose(2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = v.AtPose(1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = v.AtVector(1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = v.AtDouble(2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValuesMerge(t *testing.T) {
	a := NewValues()
	a.InsertDouble(1, 1)
	b := NewValues()
	b.InsertDouble(1, 2)
	b.InsertDouble(2, 3)
	a.Merge(b)

	d, err := a.AtDouble(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 2)
	d, err = a.AtDouble(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 3)
}

func TestPriorDouble(t *testing.T) {
	f := &PriorDouble{Key: 1, Prior: 2}
	test.That(t, f.Keys(), test.ShouldResemble, []Key{1})
	test.That(t, f.Dim(), test.ShouldEqual, 1)

	v := NewValues()
	v.InsertDouble(1, 5)
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, []float64{3})
}

func TestPriorVector(t *testing.T) {
	f := &PriorVector{Key: 1, Prior: mat.NewVecDense(3, []float64{1, 2, 3})}
	test.That(t, f.Dim(), test.ShouldEqual, 3)

	v := NewValues()
	v.InsertVector(1, mat.NewVecDense(3, []float64{1, 2, 4}))
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, []float64{0, 0, 1})
}

func TestPriorPose(t *testing.T) {
	prior := spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 1})
	f := &PriorPose{Key: 1, Prior: prior}
	test.That(t, f.Dim(), test.ShouldEqual, 6)

	v := NewValues()
	v.InsertPose(1, prior)
	r, err := f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 6; i++ {
		test.That(t, r[i], test.ShouldAlmostEqual, 0, 1e-10)
	}

	v.InsertPose(1, spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 2}))
	r, err = f.Error(v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r[5], test.ShouldAlmostEqual, 1, 1e-10)
}

func TestGraph(t *testing.T) {
	g := NewGraph()
	test.That(t, g.Size(), test.ShouldEqual, 0)
	g.Add(&PriorDouble{Key: 1, Prior: 0})
	g.Add(&PriorVector{Key: 2, Prior: mat.NewVecDense(3, nil)})
	test.That(t, g.Size(), test.ShouldEqual, 2)
	test.That(t, g.Dim(), test.ShouldEqual, 4)

	other := NewGraph()
	other.Add(&PriorDouble{Key: 3, Prior: 1})
	g.Merge(other)
	test.That(t, g.Size(), test.ShouldEqual, 3)

	v := NewValues()
	v.InsertDouble(1, 3)
	v.InsertVector(2, mat.NewVecDense(3, []float64{4, 0, 0}))
	v.InsertDouble(3, 1)
	e, err := g.TotalError(v)
	test.That(t, err, test.ShouldBeNil)
	// half of 3^2 + 4^2
	test.That(t, e, test.ShouldAlmostEqual, 12.5)
}

func TestGraphTotalErrorMissingKey(t *testing.T) {
	g := NewGraph()
	g.Add(&PriorDouble{Key: 1, Prior: 0})
	_, err := g.TotalError(NewValues())
	test.That(t, err, test.ShouldNotBeNil)
}
