// Package spatialmath holds rotation and rigid transform helpers: so(3) and se(3) exponential
// and logarithm maps, poses, and axis-angle point rotation usable on dual numbers.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

const smallAngle = 1e-12

// Exp maps a rotation vector (axis scaled by angle) to its 3×3 rotation matrix.
func Exp(w r3.Vector) *mat.Dense {
	theta := w.Norm()
	k := skew(w)
	r := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if theta < smallAngle {
		r.Add(r, k)
		return r
	}
	k.Scale(1/theta, k)
	var k2 mat.Dense
	k2.Mul(k, k)
	var sinTerm, cosTerm mat.Dense
	sinTerm.Scale(math.Sin(theta), k)
	cosTerm.Scale(1-math.Cos(theta), &k2)
	r.Add(r, &sinTerm)
	r.Add(r, &cosTerm)
	return r
}

// Log returns the rotation vector of a 3×3 matrix. The matrix passes through a normalized unit
// quaternion first, so a nearly orthonormal input yields the rotation vector of a nearby rotation.
func Log(m mat.Matrix) r3.Vector {
	return QuatToR3(RotationMatrixToQuat(m))
}

// RotationMatrixToQuat converts a 3×3 matrix into a normalized unit quaternion using the branch of
// Shepperd's method with the largest pivot.
func RotationMatrixToQuat(m mat.Matrix) quat.Number {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q quat.Number
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// QuatToR3 converts a unit quaternion to a rotation vector with angle in [0, pi].
func QuatToR3(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	vNorm := v.Norm()
	if vNorm < smallAngle {
		return v.Mul(2)
	}
	theta := 2 * math.Atan2(vNorm, q.Real)
	return v.Mul(theta / vNorm)
}

// IsRotation reports whether m is orthonormal with determinant +1, within tol.
func IsRotation(m mat.Matrix, tol float64) bool {
	var mtm mat.Dense
	mtm.Mul(m.T(), m)
	return mat.EqualApprox(&mtm, eye3(), tol) && math.Abs(mat.Det(m)-1) < tol
}

func skew(w r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -w.Z, w.Y,
		w.Z, 0, -w.X,
		-w.Y, w.X, 0,
	})
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
