package linalg

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
)

// RqDecomposition factors the square matrix m into an upper triangular r and an orthogonal q with
// m = r*q. It reverses the rows of m and runs a QR decomposition on the transpose, see
// https://www.physicsforums.com/threads/rq-decomposition-from-qr-decomposition.261739/
func RqDecomposition(m mat.Matrix) (*mat.Dense, *mat.Dense) {
	n, _ := m.Dims()
	j := reverseRows(n)

	var reversed mat.Dense
	reversed.Mul(j, m)

	var qr mat.QR
	qr.Factorize(reversed.T())
	var qh, rh mat.Dense
	qr.QTo(&qh)
	qr.RTo(&rh)

	var r, q mat.Dense
	r.Mul(j, rh.T())
	r.Mul(&r, j)
	q.Mul(j, qh.T())
	return &r, &q
}

// DecomposeMIntoKr splits the left 3×3 block M of a camera matrix into a calibration matrix k with
// positive diagonal and k(2,2) = 1, and a proper rotation r. See
// https://ksimek.github.io/2012/08/14/decompose/
func DecomposeMIntoKr(m mat.Matrix) (*mat.Dense, *mat.Dense) {
	k, r := RqDecomposition(m)

	sign := make([]float64, 3)
	for i := range sign {
		sign[i] = 1
		if k.At(i, i) < 0 {
			sign[i] = -1
		}
	}
	signMat := mat.NewDiagDense(3, sign)

	var kStar, rStar mat.Dense
	kStar.Mul(k, signMat)
	kStar.Scale(1/math.Abs(k.At(2, 2)), &kStar)
	rStar.Mul(signMat, r)
	if mat.Det(&rStar) < 0 {
		rStar.Scale(-1, &rStar)
	}
	return &kStar, &rStar
}

// CalculateCameraCenter returns the center C of the 3×4 camera matrix p, the solution of p*[C 1] = 0,
// from the cofactor determinants of p.
func CalculateCameraCenter(p mat.Matrix) r3.Vector {
	x := minor(p, 1, 2, 3)
	y := -minor(p, 0, 2, 3)
	z := minor(p, 0, 1, 3)
	t := -minor(p, 0, 1, 2)
	return r3.Vector{X: x / t, Y: y / t, Z: z / t}
}

func minor(p mat.Matrix, c0, c1, c2 int) float64 {
	sub := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		sub.Set(i, 0, p.At(i, c0))
		sub.Set(i, 1, p.At(i, c1))
		sub.Set(i, 2, p.At(i, c2))
	}
	return mat.Det(sub)
}

// DecomposeHIntoRt recovers the rotation and translation of a plane at Z=0 from its homography h in
// ideal (K = identity) image coordinates.
//
//	H = lambda * [r1 r2 t]
//	[R|t] = [r1 r2 (r1 x r2)|t]
//
// The scale is fixed from the mean norm of the first two columns. The cross product does not make
// the result orthonormal, so the rotation is projected onto SO(3) through its logarithm.
func DecomposeHIntoRt(h mat.Matrix) (*mat.Dense, r3.Vector) {
	h1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	h2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	h3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}

	invLambda := (h1.Norm() + h2.Norm()) / 2
	r1 := h1.Mul(1 / invLambda)
	r2 := h2.Mul(1 / invLambda)
	r3col := r1.Cross(r2)

	rot := mat.NewDense(3, 3, []float64{
		r1.X, r2.X, r3col.X,
		r1.Y, r2.Y, r3col.Y,
		r1.Z, r2.Z, r3col.Z,
	})
	return spatialmath.Exp(spatialmath.Log(rot)), h3.Mul(1 / invLambda)
}
