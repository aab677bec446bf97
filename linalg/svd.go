// Package linalg contains the dense linear algebra shared by the linear pose and focal length
// initializers: point normalization, planarity tests, null space solves and camera matrix
// decompositions.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// matsSVD stores the matrices from SVD decomposition.
type matsSVD struct {
	U *mat.Dense
	V *mat.Dense
	S []float64
}

// performSVD performs a full SVD on inputMatrix and returns U, V and the singular values in
// descending order.
func performSVD(inputMatrix mat.Matrix) (*matsSVD, bool) {
	var svd mat.SVD
	if ok := svd.Factorize(inputMatrix, mat.SVDFull); !ok {
		return nil, false
	}
	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return &matsSVD{U: u, V: v, S: svd.Values(nil)}, true
}

// NullSpaceVector returns the right singular vector of a belonging to its smallest singular value,
// the least squares solution of a*x = 0 with |x| = 1. A system that is only nearly rank deficient
// still yields a vector. Input containing NaN or Inf, or a failed factorization, yields a vector of
// NaN.
func NullSpaceVector(a *mat.Dense) []float64 {
	_, c := a.Dims()
	if hasNonFinite(a) {
		return nanVector(c)
	}
	mats, ok := performSVD(a)
	if !ok {
		return nanVector(c)
	}
	return mat.Col(nil, c-1, mats.V)
}

func hasNonFinite(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

func nanVector(n int) []float64 {
	out := make([]float64, n)
	floats.AddConst(math.NaN(), out)
	return out
}

// Eye creates an identity matrix of size nxn.
func Eye(n int) *mat.Dense {
	if n <= 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// reverseRows returns the n×n exchange matrix, ones on the anti-diagonal.
func reverseRows(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, n-1-i, 1)
	}
	return m
}
