// Package calibration estimates camera intrinsics and frame poses from observations of a grid
// target: closed form focal length initializers, linear pose initialization, and the pipeline
// that chains them with the joint nonlinear refinement.
package calibration

import (
	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/reprojection-calibration/reprojection-sub000/target"
)

var (
	// ErrNoFocalLength is returned when no line of any frame produced a focal length estimate.
	ErrNoFocalLength = errors.New("no focal length estimate")
	// ErrDegenerateGeometry is returned when the observations cannot constrain the calibration.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Method selects a focal length initializer.
type Method string

const (
	// ParabolaLine fits each target row and column separately, see ParabolaLineInitialization.
	ParabolaLine = Method("parabola_line")
	// VanishingPoint intersects the images of parallel target lines, see VanishingPointInitialization.
	VanishingPoint = Method("vanishing_point")
)

// Methods lists every focal length initializer.
var Methods = []Method{ParabolaLine, VanishingPoint}

// ParseMethod returns the method with the given name.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown focal length method %q", name)
}

// InitializeFocalLength returns every focal length estimate the method produces from the rows and
// columns of the target. ParabolaLine uses each line on its own; VanishingPoint uses every pair of
// rows and every pair of columns. Lines that do not yield an estimate are skipped.
func InitializeFocalLength(t target.ExtractedTarget, method Method, principalPoint r2.Point) []float64 {
	rows, cols := target.SortIntoRowsAndCols(t)

	var estimates []float64
	switch method {
	case ParabolaLine:
		for _, line := range append(rows, cols...) {
			if f, ok := ParabolaLineInitialization(principalPoint, line); ok {
				estimates = append(estimates, f)
			}
		}
	case VanishingPoint:
		for _, lines := range [][][]r2.Point{rows, cols} {
			for i := 0; i < len(lines); i++ {
				for j := i + 1; j < len(lines); j++ {
					if f, ok := VanishingPointInitialization(lines[i], lines[j]); ok {
						estimates = append(estimates, f)
					}
				}
			}
		}
	default:
		panic(errors.Errorf("unknown focal length method %q", method))
	}
	return estimates
}

// MedianFocalLength reduces focal length estimates to their median.
func MedianFocalLength(estimates []float64) (float64, error) {
	if len(estimates) == 0 {
		return 0, ErrNoFocalLength
	}
	return stats.Median(estimates)
}
