package calibration

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/target"
	"github.com/reprojection-calibration/reprojection-sub000/testutils/mvg"
)

var (
	parabolicIntrinsics = []float64{600, 600, 360, 240, 1}
	principalPoint      = r2.Point{X: 360, Y: 240}
)

// linePixels projects four points along a straight line through the parabolic camera.
func linePixels(t *testing.T, origin, direction r3.Vector) []r2.Point {
	t.Helper()
	cam, err := camera.NewCamera(camera.UnifiedCameraModel, parabolicIntrinsics, nil)
	test.That(t, err, test.ShouldBeNil)
	points := make([]r3.Vector, 4)
	for i := range points {
		points[i] = origin.Add(direction.Mul(float64(i)))
	}
	pixels, valid := cam.Project(points)
	for _, v := range valid {
		test.That(t, v, test.ShouldBeTrue)
	}
	return pixels
}

func TestParabolaLineInitialization(t *testing.T) {
	for _, line := range [][2]r3.Vector{
		{{X: 150, Y: 150, Z: 600}, {X: -10, Y: 5, Z: 0}},
		{{X: -150, Y: -150, Z: 600}, {X: 5, Y: -10, Z: -10}},
		{{X: 150, Y: -150, Z: 600}, {X: -5, Y: -10, Z: -10}},
		{{X: -150, Y: 150, Z: 600}, {X: -5, Y: -10, Z: 10}},
	} {
		f, ok := ParabolaLineInitialization(principalPoint, linePixels(t, line[0], line[1]))
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, f, test.ShouldAlmostEqual, 600, 1e-4)
	}
}

func TestParabolaLineInitializationHorizontalRow(t *testing.T) {
	cam, err := camera.NewCamera(camera.UnifiedCameraModel, parabolicIntrinsics, nil)
	test.That(t, err, test.ShouldBeNil)
	points := make([]r3.Vector, 10)
	for i := range points {
		points[i] = r3.Vector{X: -360 + 80*float64(i), Y: 300, Z: 600}
	}
	pixels, valid := cam.Project(points)
	for _, v := range valid {
		test.That(t, v, test.ShouldBeTrue)
	}
	// The row bends away from the straight line through its end points.
	test.That(t, math.Abs(pixels[0].Y-pixels[4].Y), test.ShouldBeGreaterThan, 1)

	f, ok := ParabolaLineInitialization(principalPoint, pixels)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f, test.ShouldAlmostEqual, 600, 1e-4)
}

// parabolicRowEstimates runs the parabola-line estimator on every grid row and column with at least
// four features.
func parabolicRowEstimates(t *testing.T, data mvg.Data) []float64 {
	t.Helper()
	var estimates []float64
	for _, ts := range data.Targets.Timestamps() {
		rows, cols := target.SortIntoRowsAndCols(data.Targets[ts])
		for _, line := range append(rows, cols...) {
			if len(line) < 4 {
				continue
			}
			if f, ok := ParabolaLineInitialization(principalPoint, line); ok {
				estimates = append(estimates, f)
			}
		}
	}
	return estimates
}

func TestParabolaLineInitializationGridRows(t *testing.T) {
	// A double sphere camera with xi = 0 and alpha = 0.5 projects like the unified model with xi = 1
	// and twice the focal length.
	for name, model := range map[string]struct {
		model      camera.Model
		intrinsics []float64
	}{
		"unified_camera_model": {camera.UnifiedCameraModel, parabolicIntrinsics},
		"double_sphere":        {camera.DoubleSphere, []float64{300, 300, 360, 240, 0, 0.5}},
	} {
		t.Run(name, func(t *testing.T) {
			data, err := mvg.GenerateMvgData(6, model.model, model.intrinsics, mvg.ImageBounds, true, 5)
			test.That(t, err, test.ShouldBeNil)
			estimates := parabolicRowEstimates(t, data)
			test.That(t, estimates, test.ShouldNotBeEmpty)
			for _, f := range estimates {
				test.That(t, f, test.ShouldAlmostEqual, 600, 1e-3)
			}
		})
	}
}

func TestParabolaLineInitializationRadialLines(t *testing.T) {
	for _, line := range [][2]r3.Vector{
		{{X: 0, Y: 0, Z: 600}, {X: 10, Y: 10, Z: 0}},
		{{X: 100, Y: -100, Z: 600}, {X: -10, Y: 10, Z: 0}},
		{{X: -25, Y: 25, Z: 600}, {X: 10, Y: 10, Z: 0}},
	} {
		_, ok := ParabolaLineInitialization(principalPoint, linePixels(t, line[0], line[1]))
		test.That(t, ok, test.ShouldBeFalse)
	}
}

func TestParabolaLineInitializationDegenerate(t *testing.T) {
	same := linePixels(t, r3.Vector{X: 100, Y: 100, Z: 600}, r3.Vector{})
	_, ok := ParabolaLineInitialization(principalPoint, same)
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = ParabolaLineInitialization(principalPoint, []r2.Point{{X: 1}, {X: 2}, {X: 3}})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFitCircle(t *testing.T) {
	circle, ok := FitCircle([]r2.Point{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 3}})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, circle.Center.X, test.ShouldAlmostEqual, 2)
	test.That(t, circle.Center.Y, test.ShouldAlmostEqual, 2)
	test.That(t, circle.Radius, test.ShouldAlmostEqual, 1)

	_, ok = FitCircle([]r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}})
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = FitCircle(nil)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCircleCircleIntersection(t *testing.T) {
	p1, p2, ok := CircleCircleIntersection(Circle{Radius: 1}, Circle{Center: r2.Point{X: 2}, Radius: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p1.X, test.ShouldAlmostEqual, 0.25)
	test.That(t, p1.Y, test.ShouldAlmostEqual, -0.96824583655185426)
	test.That(t, p2.X, test.ShouldAlmostEqual, 0.25)
	test.That(t, p2.Y, test.ShouldAlmostEqual, 0.96824583655185426)

	unit := Circle{Center: r2.Point{X: 1, Y: 1}, Radius: 1}
	for name, other := range map[string]Circle{
		"separate":   {Center: r2.Point{X: 3, Y: 3}, Radius: 1},
		"contained":  {Center: r2.Point{X: 1.5, Y: 1.5}, Radius: 0.1},
		"coincident": unit,
		"tangent":    {Center: r2.Point{X: 3, Y: 1}, Radius: 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, ok := CircleCircleIntersection(unit, other)
			test.That(t, ok, test.ShouldBeFalse)
		})
	}
}

func TestVanishingPointInitialization(t *testing.T) {
	a := []r2.Point{{X: 0, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 2}}
	b := []r2.Point{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 3}}
	f, ok := VanishingPointInitialization(a, b)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f, test.ShouldAlmostEqual, math.Sqrt2/math.Pi, 1e-9)
	test.That(t, f, test.ShouldAlmostEqual, 0.45015815, 1e-8)

	collinear := []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 2}, {X: 4, Y: 4}}
	_, ok = VanishingPointInitialization(collinear, b)
	test.That(t, ok, test.ShouldBeFalse)

	enclosing := []r2.Point{{X: 0, Y: 2}, {X: 4, Y: 2}, {X: 2, Y: 0}, {X: 2, Y: 4}}
	_, ok = VanishingPointInitialization(enclosing, b)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestInitializeFocalLength(t *testing.T) {
	data, err := mvg.GenerateMvgData(8, camera.UnifiedCameraModel, parabolicIntrinsics, mvg.ImageBounds, true, 3)
	test.That(t, err, test.ShouldBeNil)

	var all []float64
	for _, ts := range data.Targets.Timestamps() {
		all = append(all, InitializeFocalLength(data.Targets[ts], ParabolaLine, principalPoint)...)
	}
	test.That(t, all, test.ShouldNotBeEmpty)
	f, err := MedianFocalLength(all)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldAlmostEqual, 600, 1e-3)

	vanishing := InitializeFocalLength(data.Targets[0], VanishingPoint, principalPoint)
	for _, v := range vanishing {
		test.That(t, v, test.ShouldBeGreaterThan, 0)
	}
	test.That(t, func() { InitializeFocalLength(data.Targets[0], Method("nope"), principalPoint) }, test.ShouldPanic)
}

func TestMedianFocalLength(t *testing.T) {
	f, err := MedianFocalLength([]float64{610, 590, 600, 1200, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, 600.)

	_, err = MedianFocalLength(nil)
	test.That(t, errors.Is(err, ErrNoFocalLength), test.ShouldBeTrue)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("vanishing_point")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldEqual, VanishingPoint)

	_, err = ParseMethod("hough")
	test.That(t, err, test.ShouldNotBeNil)
}
