package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Pose is a rigid transform p' = R*p + t.
type Pose struct {
	Rotation    *mat.Dense
	Translation r3.Vector
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{Rotation: eye3()}
}

// NewPose builds a pose from a 3×3 rotation matrix and a translation. The rotation is copied.
func NewPose(rotation mat.Matrix, translation r3.Vector) Pose {
	return Pose{Rotation: mat.DenseCopyOf(rotation), Translation: translation}
}

// NewPoseFromLog builds a pose from its 6-vector form: rotation vector followed by translation.
func NewPoseFromLog(v [6]float64) Pose {
	return Pose{
		Rotation:    Exp(r3.Vector{X: v[0], Y: v[1], Z: v[2]}),
		Translation: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Log returns the 6-vector form of the pose: rotation vector followed by translation.
func (p Pose) Log() [6]float64 {
	w := Log(p.Rotation)
	return [6]float64{w.X, w.Y, w.Z, p.Translation.X, p.Translation.Y, p.Translation.Z}
}

// Transform applies the pose to a point.
func (p Pose) Transform(pt r3.Vector) r3.Vector {
	r := p.Rotation
	return r3.Vector{
		X: r.At(0, 0)*pt.X + r.At(0, 1)*pt.Y + r.At(0, 2)*pt.Z + p.Translation.X,
		Y: r.At(1, 0)*pt.X + r.At(1, 1)*pt.Y + r.At(1, 2)*pt.Z + p.Translation.Y,
		Z: r.At(2, 0)*pt.X + r.At(2, 1)*pt.Y + r.At(2, 2)*pt.Z + p.Translation.Z,
	}
}

// Inverse returns the inverse transform.
func (p Pose) Inverse() Pose {
	rt := mat.DenseCopyOf(p.Rotation.T())
	inv := Pose{Rotation: rt}
	t := inv.Transform(p.Translation)
	inv.Translation = t.Mul(-1)
	return inv
}

// Compose returns the transform that applies b first, then a.
func Compose(a, b Pose) Pose {
	var r mat.Dense
	r.Mul(a.Rotation, b.Rotation)
	return Pose{Rotation: &r, Translation: a.Transform(b.Translation)}
}

// HasNaN reports whether any component of the pose's log form is NaN.
func (p Pose) HasNaN() bool {
	v := p.Log()
	return floats.HasNaN(v[:])
}

// PoseAlmostEqual reports whether the two poses' rotation matrices and translations agree within tol.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	if !mat.EqualApprox(a.Rotation, b.Rotation, tol) {
		return false
	}
	d := a.Translation.Sub(b.Translation)
	return math.Abs(d.X) <= tol && math.Abs(d.Y) <= tol && math.Abs(d.Z) <= tol
}
