package camera

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// projectDoubleSphere warps the point through the two spheres and hands the result to the pinhole
// step.
//
//	d1 = |P|
//	wz = xi*d1 + z
//	d2 = sqrt(x^2 + y^2 + wz^2)
//	z* = alpha*d2 + (1 - alpha)*wz
func projectDoubleSphere[T any](f autodiff.Field[T], intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool) {
	x, y, z := p[0], p[1], p[2]
	xi, alpha := intrinsics[4], intrinsics[5]

	r2 := f.Add(f.Mul(x, x), f.Mul(y, y))
	d1 := f.Sqrt(f.Add(r2, f.Mul(z, z)))
	wz := f.Add(f.Mul(xi, d1), z)
	d2 := f.Sqrt(f.Add(r2, f.Mul(wz, wz)))
	zStar := f.Add(f.Mul(alpha, d2), f.Mul(f.Sub(f.Const(1), alpha), wz))

	return projectPinhole(f, intrinsics[:4], [3]T{x, y, zStar}, bounds)
}

// unprojectDoubleSphere implements the closed form inverse, eqns. 46 and 50 of the double sphere paper.
func unprojectDoubleSphere(intrinsics []float64, pixel r2.Point) r3.Vector {
	ray := unprojectPinhole(intrinsics[:4], pixel)
	mx, my := ray.X, ray.Y
	r2 := mx*mx + my*my

	xi, alpha := intrinsics[4], intrinsics[5]
	mz := (1 - alpha*alpha*r2) / (alpha*math.Sqrt(1-(2*alpha-1)*r2) + 1 - alpha)
	mz2 := mz * mz
	scale := (mz*xi + math.Sqrt(mz2+(1-xi*xi)*r2)) / (mz2 + r2)

	m := r3.Vector{X: scale * mx, Y: scale * my, Z: scale*mz - xi}
	if !(m.Z > 0) {
		return r3.Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	}
	return m.Mul(1 / m.Z)
}
