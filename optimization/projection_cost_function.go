package optimization

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dual"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
	"github.com/reprojection-calibration/reprojection-sub000/camera"
	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
)

// FailedProjectionResidual is the value of both residual components when the point does not
// project, either behind the camera or outside the image bounds.
const FailedProjectionResidual = 256.

// PoseSize is the size of a pose parameter block: rotation vector followed by translation.
const PoseSize = 6

type projectionFunctor struct {
	model  camera.Model
	bounds *camera.ImageBounds
	pixel  r2.Point
	point  r3.Vector
}

// NewProjectionCostFunction returns the reprojection residual of one observed pixel of a target
// point, over the blocks (intrinsics, pose). The residual is observed minus projected pixel.
func NewProjectionCostFunction(m camera.Model, bounds *camera.ImageBounds, pixel r2.Point, point r3.Vector) *AutoDiffCostFunction {
	functor := &projectionFunctor{model: m, bounds: bounds, pixel: pixel, point: point}
	return NewAutoDiffCostFunction(functor, 2, m.Size(), PoseSize)
}

func (pf *projectionFunctor) Float(params [][]float64, residuals []float64) bool {
	return projectionResidual[float64](autodiff.Float64{}, pf, params, residuals)
}

func (pf *projectionFunctor) Dual(params [][]dual.Number, residuals []dual.Number) bool {
	return projectionResidual[dual.Number](autodiff.Dual{}, pf, params, residuals)
}

func projectionResidual[T any](f autodiff.Field[T], pf *projectionFunctor, params [][]T, residuals []T) bool {
	intrinsics, pose := params[0], params[1]
	point := [3]T{f.Const(pf.point.X), f.Const(pf.point.Y), f.Const(pf.point.Z)}
	pointCo := spatialmath.TransformPoint(f, pose, point)

	pixel, ok := camera.Project(f, pf.model, intrinsics, pointCo, pf.bounds)
	if !ok {
		residuals[0] = f.Const(FailedProjectionResidual)
		residuals[1] = f.Const(FailedProjectionResidual)
		return true
	}
	residuals[0] = f.Sub(f.Const(pf.pixel.X), pixel[0])
	residuals[1] = f.Sub(f.Const(pf.pixel.Y), pixel[1])
	return true
}
