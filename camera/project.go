package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// Projector projects a point in the camera frame to a pixel. It returns false when the point is
// behind the camera or, for non-nil bounds, when the pixel falls outside of them.
type Projector[T any] func(f autodiff.Field[T], intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool)

// ProjectorFor returns the projection function of the model evaluated in T.
func ProjectorFor[T any](m Model) Projector[T] {
	switch m {
	case Pinhole:
		return projectPinhole[T]
	case PinholeRadtan4:
		return projectPinholeRadtan4[T]
	case UnifiedCameraModel:
		return projectUnifiedCameraModel[T]
	case DoubleSphere:
		return projectDoubleSphere[T]
	default:
		panic(NewInvalidModelError(m))
	}
}

// Project projects p with the model's intrinsics. It panics if the intrinsics do not match the model.
func Project[T any](f autodiff.Field[T], m Model, intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool) {
	checkIntrinsics(m, len(intrinsics))
	return ProjectorFor[T](m)(f, intrinsics, p, bounds)
}

// ProjectPoint is Project on plain float64 values.
func ProjectPoint(m Model, intrinsics []float64, p r3.Vector, bounds *ImageBounds) (r2.Point, bool) {
	px, ok := Project[float64](autodiff.Float64{}, m, intrinsics, [3]float64{p.X, p.Y, p.Z}, bounds)
	if !ok {
		return r2.Point{}, false
	}
	return r2.Point{X: px[0], Y: px[1]}, true
}

// Unproject returns the ray through pixel, scaled so that its z component is 1. Pixels whose ray
// does not point in front of the camera produce NaN components.
func Unproject(m Model, intrinsics []float64, pixel r2.Point) r3.Vector {
	checkIntrinsics(m, len(intrinsics))
	switch m {
	case Pinhole:
		return unprojectPinhole(intrinsics, pixel)
	case PinholeRadtan4:
		return unprojectPinholeRadtan4(intrinsics, pixel)
	case UnifiedCameraModel:
		return unprojectUnifiedCameraModel(intrinsics, pixel)
	case DoubleSphere:
		return unprojectDoubleSphere(intrinsics, pixel)
	default:
		panic(NewInvalidModelError(m))
	}
}

func checkIntrinsics(m Model, n int) {
	if size := m.Size(); n != size {
		panic(errors.Errorf("camera model %q takes %d intrinsics, got %d", m, size, n))
	}
}
