package spatialmath

import (
	"github.com/reprojection-calibration/reprojection-sub000/autodiff"
)

// machineEpsilon is the float64 spacing at 1.
const machineEpsilon = 0x1p-52

// RotatePoint rotates p by the rotation vector aa. Near zero rotation the first order
// approximation p + aa×p is used so that derivatives stay finite.
func RotatePoint[T any](f autodiff.Field[T], aa, p [3]T) [3]T {
	theta2 := dot(f, aa, aa)
	if f.Real(theta2) > machineEpsilon {
		theta := f.Sqrt(theta2)
		c, s := f.Cos(theta), f.Sin(theta)
		w := [3]T{f.Div(aa[0], theta), f.Div(aa[1], theta), f.Div(aa[2], theta)}
		wxp := cross(f, w, p)
		tmp := f.Mul(dot(f, w, p), f.Sub(f.Const(1), c))
		var out [3]T
		for i := range out {
			out[i] = f.Add(f.Add(f.Mul(p[i], c), f.Mul(wxp[i], s)), f.Mul(w[i], tmp))
		}
		return out
	}
	axp := cross(f, aa, p)
	return [3]T{f.Add(p[0], axp[0]), f.Add(p[1], axp[1]), f.Add(p[2], axp[2])}
}

// TransformPoint applies a 6-vector pose (rotation vector, translation) to p.
func TransformPoint[T any](f autodiff.Field[T], pose []T, p [3]T) [3]T {
	r := RotatePoint(f, [3]T{pose[0], pose[1], pose[2]}, p)
	return [3]T{f.Add(r[0], pose[3]), f.Add(r[1], pose[4]), f.Add(r[2], pose[5])}
}

func dot[T any](f autodiff.Field[T], a, b [3]T) T {
	return f.Add(f.Add(f.Mul(a[0], b[0]), f.Mul(a[1], b[1])), f.Mul(a[2], b[2]))
}

func cross[T any](f autodiff.Field[T], a, b [3]T) [3]T {
	return [3]T{
		f.Sub(f.Mul(a[1], b[2]), f.Mul(a[2], b[1])),
		f.Sub(f.Mul(a[2], b[0]), f.Mul(a[0], b[2])),
		f.Sub(f.Mul(a[0], b[1]), f.Mul(a[1], b[0])),
	}
}
