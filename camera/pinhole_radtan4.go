package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"

	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// radtan4UnprojectIterations is the fixed number of Gauss-Newton steps used to invert the distortion.
const radtan4UnprojectIterations = 5

func projectPinholeRadtan4[T any](f autodiff.Field[T], intrinsics []T, p [3]T, bounds *ImageBounds) ([2]T, bool) {
	if f.Real(p[2]) <= 0 {
		return [2]T{}, false
	}
	xCam := f.Div(p[0], p[2])
	yCam := f.Div(p[1], p[2])
	d := distortRadtan4(f, intrinsics[4:8], [2]T{xCam, yCam})
	return applyK(f, intrinsics, d[0], d[1], bounds)
}

// distortRadtan4 applies the radial (k1, k2) and tangential (p1, p2) distortion to ideal image
// coordinates.
//
//	r' = 1 + k1*r^2 + k2*r^4
//	x' = r'*x + 2*p1*x*y + p2*(r^2 + 2*x^2)
//	y' = r'*y + 2*p2*x*y + p1*(r^2 + 2*y^2)
func distortRadtan4[T any](f autodiff.Field[T], distortion []T, pCam [2]T) [2]T {
	k1, k2, p1, p2 := distortion[0], distortion[1], distortion[2], distortion[3]
	x, y := pCam[0], pCam[1]

	xx, yy, xy := f.Mul(x, x), f.Mul(y, y), f.Mul(x, y)
	r2 := f.Add(xx, yy)
	radial := f.Add(f.Add(f.Const(1), f.Mul(k1, r2)), f.Mul(k2, f.Mul(r2, r2)))

	xd := f.Add(f.Add(f.Mul(radial, x), f.Scale(2, f.Mul(p1, xy))), f.Mul(p2, f.Add(r2, f.Scale(2, xx))))
	yd := f.Add(f.Add(f.Mul(radial, y), f.Scale(2, f.Mul(p2, xy))), f.Mul(p1, f.Add(r2, f.Scale(2, yy))))
	return [2]T{xd, yd}
}

// radtan4JacobianUpdate returns the distorted ideal coordinates of pCam and the 2×2 jacobian of the
// distortion with respect to pCam.
func radtan4JacobianUpdate(distortion []float64, pCam [2]float64) ([2]float64, *mat.Dense) {
	var f autodiff.Dual
	d := autodiff.Consts[dual.Number](f, distortion)
	value, jac := autodiff.Jacobian(func(x, out []dual.Number) {
		res := distortRadtan4[dual.Number](f, d, [2]dual.Number{x[0], x[1]})
		out[0], out[1] = res[0], res[1]
	}, pCam[:], 2)
	return [2]float64{value[0], value[1]}, mat.NewDense(2, 2, jac)
}

// unprojectPinholeRadtan4 inverts the distortion with Gauss-Newton, starting from the undistorted
// ideal coordinates and solving the 2×2 normal equations at every step.
func unprojectPinholeRadtan4(intrinsics []float64, pixel r2.Point) r3.Vector {
	ray := unprojectPinhole(intrinsics[:4], pixel)
	target := [2]float64{ray.X, ray.Y}

	estimate := target
	for i := 0; i < radtan4UnprojectIterations; i++ {
		distorted, j := radtan4JacobianUpdate(intrinsics[4:8], estimate)
		e := mat.NewVecDense(2, []float64{distorted[0] - target[0], distorted[1] - target[1]})

		var jtj mat.Dense
		jtj.Mul(j.T(), j)
		var jte, du mat.VecDense
		jte.MulVec(j.T(), e)
		if err := du.SolveVec(&jtj, &jte); err != nil {
			break
		}
		estimate[0] -= du.AtVec(0)
		estimate[1] -= du.AtVec(1)
	}
	return r3.Vector{X: estimate[0], Y: estimate[1], Z: 1}
}
