package optimization

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dual"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
	"github.com/reprojection-calibration/reprojection-sub000/spatialmath"
)

type bearingFunctor struct {
	ray   r3.Vector
	point r3.Vector
}

// NewBearingCostFunction returns the difference between the unit direction of a target point in
// the camera frame and the unit ray it was observed along, over a single pose block. Unlike the
// reprojection residual it stays smooth for points behind the camera or outside the image.
func NewBearingCostFunction(ray, point r3.Vector) *AutoDiffCostFunction {
	functor := &bearingFunctor{ray: ray.Normalize(), point: point}
	return NewAutoDiffCostFunction(functor, 3, PoseSize)
}

func (bf *bearingFunctor) Float(params [][]float64, residuals []float64) bool {
	return bearingResidual[float64](autodiff.Float64{}, bf, params[0], residuals)
}

func (bf *bearingFunctor) Dual(params [][]dual.Number, residuals []dual.Number) bool {
	return bearingResidual[dual.Number](autodiff.Dual{}, bf, params[0], residuals)
}

func bearingResidual[T any](f autodiff.Field[T], bf *bearingFunctor, pose, residuals []T) bool {
	point := [3]T{f.Const(bf.point.X), f.Const(bf.point.Y), f.Const(bf.point.Z)}
	q := spatialmath.TransformPoint(f, pose, point)
	norm := f.Sqrt(f.Add(f.Add(f.Mul(q[0], q[0]), f.Mul(q[1], q[1])), f.Mul(q[2], q[2])))
	if f.Real(norm) == 0 {
		return false
	}
	ray := [3]float64{bf.ray.X, bf.ray.Y, bf.ray.Z}
	for i := range residuals {
		residuals[i] = f.Sub(f.Div(q[i], norm), f.Const(ray[i]))
	}
	return true
}
