package linalg

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"go.viam.com/test"

	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
)

func TestNormalizeColumnWise(t *testing.T) {
	points := mat.NewDense(4, 2, []float64{
		0, 0,
		720, 0,
		720, 480,
		0, 480,
	})
	normalized, tf := NormalizeColumnWise(points)

	meanDistance := 0.0
	for i := 0; i < 4; i++ {
		meanDistance += math.Hypot(normalized.At(i, 0), normalized.At(i, 1)) / 4
	}
	test.That(t, meanDistance, test.ShouldAlmostEqual, math.Sqrt2)

	r, c := tf.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, c, test.ShouldEqual, 3)
	for i := 0; i < 4; i++ {
		h := mat.NewVecDense(3, []float64{points.At(i, 0), points.At(i, 1), 1})
		var out mat.VecDense
		out.MulVec(tf, h)
		test.That(t, out.AtVec(0), test.ShouldAlmostEqual, normalized.At(i, 0))
		test.That(t, out.AtVec(1), test.ShouldAlmostEqual, normalized.At(i, 1))
		test.That(t, out.AtVec(2), test.ShouldEqual, 1.)
	}

	points3 := mat.NewDense(3, 3, []float64{1, 2, 3, -1, 0, 2, 4, 4, 4})
	normalized3, tf3 := NormalizeColumnWise(points3)
	meanDistance = 0
	for i := 0; i < 3; i++ {
		meanDistance += mat.Norm(normalized3.RowView(i), 2) / 3
	}
	test.That(t, meanDistance, test.ShouldAlmostEqual, math.Sqrt(3))
	test.That(t, tf3.At(3, 3), test.ShouldEqual, 1.)
}

func TestIsPlane(t *testing.T) {
	// Collinear points count as planar, a known limitation.
	threePoints := []r3.Vector{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}
	test.That(t, IsPlane(threePoints), test.ShouldBeTrue)

	plane := []r3.Vector{{0, 0, 0}, {1, 1, 0}, {-1, -1, 0}, {-1, 1, 0}, {1, -1, 0}}
	test.That(t, IsPlane(plane), test.ShouldBeTrue)

	plane[0].Z = 10
	test.That(t, IsPlane(plane), test.ShouldBeFalse)

	collinear := []r3.Vector{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}
	test.That(t, IsPlane(collinear), test.ShouldBeTrue)

	tilted := make([]r3.Vector, 0, 25)
	normal := r3.Vector{X: 0.3, Y: -0.2, Z: 1}.Normalize()
	u := normal.Ortho()
	v := normal.Cross(u)
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			tilted = append(tilted, u.Mul(float64(i)).Add(v.Mul(float64(j))).Add(r3.Vector{X: 5, Y: 5, Z: 5}))
		}
	}
	test.That(t, IsPlane(tilted), test.ShouldBeTrue)
}

func TestPca(t *testing.T) {
	plane := []r3.Vector{{0, 0, 0}, {1, 1, 0}, {-1, -1, 0}, {-1, 1, 0}, {1, -1, 0}}
	values, directions := Pca(plane)
	test.That(t, values[0], test.ShouldAlmostEqual, 4.)
	test.That(t, values[1], test.ShouldAlmostEqual, 4.)
	test.That(t, values[2], test.ShouldAlmostEqual, 0.)
	test.That(t, math.Abs(directions.At(2, 2)), test.ShouldAlmostEqual, 1.)
}

func TestNullSpaceVector(t *testing.T) {
	// x + y - z = 0 and x - y = 0 leave the line (1, 1, 2).
	a := mat.NewDense(2, 3, []float64{1, 1, -1, 1, -1, 0})
	x := NullSpaceVector(a)
	test.That(t, len(x), test.ShouldEqual, 3)
	scale := x[0]
	test.That(t, x[1]/scale, test.ShouldAlmostEqual, 1.)
	test.That(t, x[2]/scale, test.ShouldAlmostEqual, 2.)
	test.That(t, mat.Norm(mat.NewVecDense(3, x), 2), test.ShouldAlmostEqual, 1.)

	a.Set(0, 0, math.NaN())
	x = NullSpaceVector(a)
	for _, v := range x {
		test.That(t, math.IsNaN(v), test.ShouldBeTrue)
	}
}

func TestRqDecomposition(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		4, 1, -2,
		0.5, 3, 1,
		-1, 2, 5,
	})
	r, q := RqDecomposition(m)

	for i := 0; i < 3; i++ {
		for j := 0; j < i; j++ {
			test.That(t, r.At(i, j), test.ShouldAlmostEqual, 0.)
		}
	}
	var qqt mat.Dense
	qqt.Mul(q, q.T())
	test.That(t, mat.EqualApprox(&qqt, Eye(3), 1e-12), test.ShouldBeTrue)

	var rq mat.Dense
	rq.Mul(r, q)
	test.That(t, mat.EqualApprox(&rq, m, 1e-12), test.ShouldBeTrue)
}

func groundTruthCamera() (*mat.Dense, *mat.Dense, r3.Vector) {
	k := mat.NewDense(3, 3, []float64{
		600, 0, 360,
		0, 610, 240,
		0, 0, 1,
	})
	rot := spatialmath.Exp(r3.Vector{X: 0.2, Y: -0.4, Z: 0.1})
	center := r3.Vector{X: 0.5, Y: -1, Z: -3}
	return k, rot, center
}

func TestDecomposeMIntoKr(t *testing.T) {
	k, rot, _ := groundTruthCamera()
	var m mat.Dense
	m.Mul(k, rot)

	for _, scale := range []float64{1, 3.5, -2} {
		var scaled mat.Dense
		scaled.Scale(scale, &m)
		kOut, rOut := DecomposeMIntoKr(&scaled)
		test.That(t, mat.EqualApprox(kOut, k, 1e-9), test.ShouldBeTrue)
		test.That(t, mat.EqualApprox(rOut, rot, 1e-9), test.ShouldBeTrue)
		test.That(t, mat.Det(rOut), test.ShouldAlmostEqual, 1.)
	}
}

func TestCalculateCameraCenter(t *testing.T) {
	k, rot, center := groundTruthCamera()
	tr := spatialmath.NewPose(rot, r3.Vector{}).Transform(center).Mul(-1)

	rt := mat.NewDense(3, 4, nil)
	rt.Slice(0, 3, 0, 3).(*mat.Dense).Copy(rot)
	rt.SetCol(3, []float64{tr.X, tr.Y, tr.Z})
	var p mat.Dense
	p.Mul(k, rt)
	p.Scale(-0.01, &p)

	c := CalculateCameraCenter(&p)
	test.That(t, c.Sub(center).Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestDecomposeHIntoRt(t *testing.T) {
	rot := spatialmath.Exp(r3.Vector{X: 0.3, Y: 0.2, Z: -0.6})
	tr := r3.Vector{X: 0.1, Y: -0.2, Z: 2}
	h := mat.NewDense(3, 3, []float64{
		rot.At(0, 0), rot.At(0, 1), tr.X,
		rot.At(1, 0), rot.At(1, 1), tr.Y,
		rot.At(2, 0), rot.At(2, 1), tr.Z,
	})
	h.Scale(7, h)

	rOut, tOut := DecomposeHIntoRt(h)
	test.That(t, mat.EqualApprox(rOut, rot, 1e-9), test.ShouldBeTrue)
	test.That(t, tOut.Sub(tr).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, spatialmath.IsRotation(rOut, 1e-9), test.ShouldBeTrue)
}
