package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormalizeColumnWise normalizes the points stored as the rows of m as described in Multiple View
// Geometry, Alg 4.2: the centroid moves to the origin and the mean distance from it becomes sqrt(d),
// where d is the number of columns. The returned (d+1)×(d+1) transform maps a homogeneous input row
// to its normalized form.
func NormalizeColumnWise(m mat.Matrix) (*mat.Dense, *mat.Dense) {
	nPoints, d := m.Dims()

	center := make([]float64, d)
	for i := 0; i < nPoints; i++ {
		for j := 0; j < d; j++ {
			center[j] += m.At(i, j) / float64(nPoints)
		}
	}

	meanDistance := 0.0
	for i := 0; i < nPoints; i++ {
		sq := 0.0
		for j := 0; j < d; j++ {
			diff := m.At(i, j) - center[j]
			sq += diff * diff
		}
		meanDistance += math.Sqrt(sq) / float64(nPoints)
	}
	scale := math.Sqrt(float64(d)) / meanDistance

	tf := Eye(d + 1)
	for j := 0; j < d; j++ {
		tf.Set(j, j, scale)
		tf.Set(j, d, -scale*center[j])
	}

	normalized := mat.NewDense(nPoints, d, nil)
	for i := 0; i < nPoints; i++ {
		for j := 0; j < d; j++ {
			normalized.Set(i, j, scale*(m.At(i, j)-center[j]))
		}
	}
	return normalized, tf
}
