package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// Every model is built on three kinds of coordinates:
//
//	P_co  {x, y, z}        a 3D point in the camera optical frame
//	p_cam {x/z, y/z}       the point in the ideal, normalized image plane
//	pixel {u, v}           p_cam after the calibration matrix K
//
// The distortion models change how P_co reaches p_cam and then reuse the pinhole step.

func projectPinhole[T any](f autodiff.Field[T], intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool) {
	if f.Real(p[2]) <= 0 {
		return [2]T{}, false
	}
	xCam := f.Div(p[0], p[2])
	yCam := f.Div(p[1], p[2])
	return applyK(f, intrinsics, xCam, yCam, bounds)
}

// applyK maps ideal image coordinates to a pixel and tests the bounds.
func applyK[T any](f autodiff.Field[T], intrinsics []T, xCam, yCam T, bounds *ImageBounds) ([2]T, bool) {
	fx, fy, cx, cy := intrinsics[0], intrinsics[1], intrinsics[2], intrinsics[3]
	u := f.Add(f.Mul(fx, xCam), cx)
	v := f.Add(f.Mul(fy, yCam), cy)
	if bounds != nil && !bounds.Contains(f.Real(u), f.Real(v)) {
		return [2]T{}, false
	}
	return [2]T{u, v}, true
}

func unprojectPinhole(intrinsics []float64, pixel r2.Point) r3.Vector {
	fx, fy, cx, cy := intrinsics[0], intrinsics[1], intrinsics[2], intrinsics[3]
	// z = 1 keeps only the direction; depth is lost in projection.
	return r3.Vector{X: (pixel.X - cx) / fx, Y: (pixel.Y - cy) / fy, Z: 1}
}
