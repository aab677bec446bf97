package calibration

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reprojection-calibration/reprojection-sub000/linalg"
)

const (
	minParabolaPoints = 4
	// radialLineThreshold is the smallest nz² of a line normal; lines through the principal point
	// carry no focal length information.
	radialLineThreshold = 0.05
)

// ParabolaLineInitialization estimates the focal length from the pixels of one straight target line
// seen by a parabolic (UCM with xi = 1) camera, following "Single View Point Omnidirectional Camera
// Calibration from Planar Grids" (Mei and Rives). Such a line images onto a conic
//
//	c1·x + c2·y + c3/2 - c4·(x² + y²)/2 = 0
//
// in principal point centered coordinates, whose coefficients relate to the line normal N and the
// focal length gamma by c3 = gamma·nz and c4 = nz/gamma. It returns false for fewer than four
// pixels, a degenerate fit, or a line passing too close to the principal point.
func ParabolaLineInitialization(principalPoint r2.Point, pixels []r2.Point) (float64, bool) {
	// Three distinct pixels fix the conic up to scale.
	if len(pixels) < minParabolaPoints || len(lo.Uniq(pixels)) < 3 {
		return 0, false
	}
	a := mat.NewDense(len(pixels), 4, nil)
	for i, px := range pixels {
		c := px.Sub(principalPoint)
		a.SetRow(i, []float64{c.X, c.Y, 0.5, -c.Dot(c) / 2})
	}
	coeffs := linalg.NullSpaceVector(a)
	if floats.HasNaN(coeffs) {
		return 0, false
	}
	c1, c2, c3, c4 := coeffs[0], coeffs[1], coeffs[2], coeffs[3]

	t := c1*c1 + c2*c2 + c3*c4
	if t <= 0 {
		return 0, false
	}
	d := 1 / math.Sqrt(t)
	nx, ny := d*c1, d*c2
	nznz := 1 - nx*nx - ny*ny
	if nznz < radialLineThreshold {
		return 0, false
	}
	return math.Abs(d * c3 / math.Sqrt(nznz)), true
}
