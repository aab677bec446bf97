package calibration

import (
	"math"

	"github.com/golang/geo/r2"
)

// Circle is a circle in image coordinates.
type Circle struct {
	Center r2.Point
	Radius float64
}

// VanishingPointInitialization estimates the focal length from the pixels of two parallel target
// lines, following "Equidistant Fish-Eye Calibration and Rectification by Vanishing Point
// Extraction" (Hughes et al.). Under the equidistant model each line images onto a circle, the two
// circles meet at the lines' vanishing points, and those lie pi·f apart.
func VanishingPointInitialization(a, b []r2.Point) (float64, bool) {
	c1, ok := FitCircle(a)
	if !ok {
		return 0, false
	}
	c2, ok := FitCircle(b)
	if !ok {
		return 0, false
	}
	p1, p2, ok := CircleCircleIntersection(c1, c2)
	if !ok {
		return 0, false
	}
	return p1.Sub(p2).Norm() / math.Pi, true
}

// CircleCircleIntersection returns the two intersection points of the circles, see
// https://paulbourke.net/geometry/circlesphere/. Separate, contained, coincident, and tangent
// circles return false.
func CircleCircleIntersection(c1, c2 Circle) (r2.Point, r2.Point, bool) {
	p0, p1 := c1.Center, c2.Center
	r0, r1 := c1.Radius, c2.Radius
	d := p1.Sub(p0).Norm()
	if d == 0 || d >= r0+r1 || d <= math.Abs(r0-r1) {
		return r2.Point{}, r2.Point{}, false
	}

	a := (r0*r0 - r1*r1 + d*d) / (2 * d)
	h := math.Sqrt(r0*r0 - a*a)
	mid := p0.Add(p1.Sub(p0).Mul(a / d))
	offset := r2.Point{X: h * (p1.Y - p0.Y) / d, Y: -h * (p1.X - p0.X) / d}
	return mid.Add(offset), mid.Sub(offset), true
}

// FitCircle fits a circle to the points with the modified least squares method of "A Few Methods
// for Fitting Circles to Data" (Umbach and Jones). The radius is the mean distance to the fitted
// center. Collinear points return false.
func FitCircle(points []r2.Point) (Circle, bool) {
	n := float64(len(points))
	var sx, sy, sxx, syy, sxy, sxxx, syyy, sxyy, sxxy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
		sxx += p.X * p.X
		syy += p.Y * p.Y
		sxy += p.X * p.Y
		sxxx += p.X * p.X * p.X
		syyy += p.Y * p.Y * p.Y
		sxyy += p.X * p.Y * p.Y
		sxxy += p.X * p.X * p.Y
	}

	a := n*sxx - sx*sx
	b := n*sxy - sx*sy
	c := n*syy - sy*sy
	d := 0.5 * (n*sxyy - sx*syy + n*sxxx - sx*sxx)
	e := 0.5 * (n*sxxy - sy*sxx + n*syyy - sy*syy)

	det := a*c - b*b
	if math.Abs(det) <= 1e-12*math.Abs(a*c) {
		return Circle{}, false
	}
	center := r2.Point{X: (d*c - b*e) / det, Y: (a*e - b*d) / det}

	var radius float64
	for _, p := range points {
		radius += p.Sub(center).Norm()
	}
	return Circle{Center: center, Radius: radius / n}, true
}
