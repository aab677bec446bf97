package linalg

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// planarityRatio is the smallest-to-middle principal value ratio under which points are planar.
const planarityRatio = 1e-3

// IsPlane reports whether the points lie on one plane. Three or fewer points, and collinear or
// coincident points, are reported as planar.
func IsPlane(points []r3.Vector) bool {
	if len(points) <= 3 {
		return true
	}
	values, _ := Pca(points)
	if values[1] <= 0 {
		return true
	}
	return values[2]/values[1] < planarityRatio
}

// Pca returns the principal values of the points' scatter matrix in descending order, and the
// matching principal directions as the columns of a 3×3 matrix.
func Pca(points []r3.Vector) ([3]float64, *mat.Dense) {
	n := len(points)
	if n < 2 {
		return [3]float64{}, Eye(3)
	}
	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}

	var scatter mat.SymDense
	stat.CovarianceMatrix(&scatter, data, nil)
	scatter.ScaleSym(float64(n-1), &scatter)

	var eig mat.EigenSym
	if ok := eig.Factorize(&scatter, true); !ok {
		return [3]float64{}, Eye(3)
	}
	ascending := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	var values [3]float64
	directions := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		j := 2 - i
		values[i] = max(ascending[j], 0)
		directions.SetCol(i, mat.Col(nil, j, &vectors))
	}
	return values, directions
}
