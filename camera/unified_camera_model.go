package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// The unified camera model is the double sphere model with alpha = 0, which collapses the second sphere.

func projectUnifiedCameraModel[T any](f autodiff.Field[T], intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool) {
	ds := []T{intrinsics[0], intrinsics[1], intrinsics[2], intrinsics[3], intrinsics[4], f.Const(0)}
	return projectDoubleSphere(f, ds, p, bounds)
}

func unprojectUnifiedCameraModel(intrinsics []float64, pixel r2.Point) r3.Vector {
	ds := []float64{intrinsics[0], intrinsics[1], intrinsics[2], intrinsics[3], intrinsics[4], 0}
	return unprojectDoubleSphere(ds, pixel)
}
