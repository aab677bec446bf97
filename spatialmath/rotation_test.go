package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"
	"go.viam.com/test"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

func TestExpLogRoundTrip(t *testing.T) {
	for _, w := range []r3.Vector{
		{0, 0, 0},
		{0.1, -0.2, 0.3},
		{1, 2, -0.5},
		{0, math.Pi - 1e-3, 0},
		{1e-14, 0, 0},
	} {
		r := Exp(w)
		test.That(t, IsRotation(r, 1e-12), test.ShouldBeTrue)
		back := Log(r)
		test.That(t, back.X, test.ShouldAlmostEqual, w.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, w.Y, 1e-9)
		test.That(t, back.Z, test.ShouldAlmostEqual, w.Z, 1e-9)
	}
}

func TestExpAboutZ(t *testing.T) {
	r := Exp(r3.Vector{Z: math.Pi / 2})
	expected := mat.NewDense(3, 3, []float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, mat.EqualApprox(r, expected, 1e-12), test.ShouldBeTrue)

	r4 := R3ToR4(r3.Vector{Z: math.Pi / 2})
	test.That(t, r4.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, mat.EqualApprox(r4.RotationMatrix(), expected, 1e-12), test.ShouldBeTrue)
	test.That(t, *R3ToR4(r3.Vector{}), test.ShouldResemble, *NewR4AA())
}

func TestLogProjectsOntoRotation(t *testing.T) {
	r := Exp(r3.Vector{X: 0.3, Y: -0.1, Z: 0.2})
	noisy := mat.DenseCopyOf(r)
	noisy.Set(0, 1, noisy.At(0, 1)+1e-4)
	noisy.Set(2, 0, noisy.At(2, 0)-1e-4)
	test.That(t, IsRotation(noisy, 1e-6), test.ShouldBeFalse)

	projected := Exp(Log(noisy))
	test.That(t, IsRotation(projected, 1e-12), test.ShouldBeTrue)
	test.That(t, mat.EqualApprox(projected, r, 1e-3), test.ShouldBeTrue)
}

func TestRotatePointMatchesExp(t *testing.T) {
	aa := r3.Vector{X: 0.4, Y: 0.2, Z: -0.7}
	p := r3.Vector{X: 1, Y: -2, Z: 3}
	expected := NewPose(Exp(aa), r3.Vector{}).Transform(p)

	got := RotatePoint[float64](autodiff.Float64{}, [3]float64{aa.X, aa.Y, aa.Z}, [3]float64{p.X, p.Y, p.Z})
	test.That(t, got[0], test.ShouldAlmostEqual, expected.X, 1e-12)
	test.That(t, got[1], test.ShouldAlmostEqual, expected.Y, 1e-12)
	test.That(t, got[2], test.ShouldAlmostEqual, expected.Z, 1e-12)
}

func TestRotatePointDerivativeAtIdentity(t *testing.T) {
	// d(aa×p)/d(aa_z) at aa = 0 is z×p = (-p.y, p.x, 0).
	var f autodiff.Dual
	aa := [3]dual.Number{{}, {}, {Emag: 1}}
	p := [3]dual.Number{{Real: 1}, {Real: 2}, {Real: 3}}
	got := RotatePoint[dual.Number](f, aa, p)
	test.That(t, got[0].Real, test.ShouldEqual, 1.)
	test.That(t, got[0].Emag, test.ShouldEqual, -2.)
	test.That(t, got[1].Emag, test.ShouldEqual, 1.)
	test.That(t, got[2].Emag, test.ShouldEqual, 0.)
}

func TestPose(t *testing.T) {
	v := [6]float64{0.1, 0.2, 0.3, 1, -2, 3}
	pose := NewPoseFromLog(v)
	back := pose.Log()
	for i := range v {
		test.That(t, back[i], test.ShouldAlmostEqual, v[i], 1e-12)
	}
	test.That(t, pose.HasNaN(), test.ShouldBeFalse)

	p := r3.Vector{X: 0.5, Y: 0.5, Z: -1}
	roundTrip := pose.Inverse().Transform(pose.Transform(p))
	test.That(t, roundTrip.Sub(p).Norm(), test.ShouldBeLessThan, 1e-12)

	identity := Compose(pose, pose.Inverse())
	test.That(t, PoseAlmostEqual(identity, NewZeroPose(), 1e-12), test.ShouldBeTrue)

	generic := TransformPoint[float64](autodiff.Float64{}, v[:], [3]float64{p.X, p.Y, p.Z})
	direct := pose.Transform(p)
	test.That(t, generic[0], test.ShouldAlmostEqual, direct.X, 1e-12)
	test.That(t, generic[1], test.ShouldAlmostEqual, direct.Y, 1e-12)
	test.That(t, generic[2], test.ShouldAlmostEqual, direct.Z, 1e-12)
}
